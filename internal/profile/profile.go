// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile loads accessibility profiles produced by the folding
// pipeline. Profiles are NumPy .npy arrays: either one value per position,
// or a positions x stretch-length matrix from which one column is taken.
package profile

import (
	"errors"
	"fmt"
	"os"

	"github.com/sbinet/npyio"
)

// ErrUnsupportedShape is returned for arrays that are neither 1-D nor 2-D,
// or 2-D arrays without the requested column.
var ErrUnsupportedShape = errors.New("unsupported profile shape")

// Loader reads a profile from a path. Column selects the stretch length of
// 2-D arrays and is ignored for 1-D arrays.
type Loader interface {
	Load(path string, column int) ([]float64, error)
}

// NPY loads profiles from .npy files.
type NPY struct{}

// Load reads path and returns a fresh slice owned by the caller.
func (NPY) Load(path string, column int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening profile %s: %w", path, err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	var data []float64
	if err := r.Read(&data); err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}

	shape := r.Header.Descr.Shape
	switch len(shape) {
	case 1:
		return data, nil
	case 2:
		out, err := Column(data, shape[0], shape[1], column, r.Header.Descr.Fortran)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: %d dimensions: %w", path, len(shape), ErrUnsupportedShape)
	}
}

// Column extracts column col of a rows x cols matrix stored in data, in C
// (row-major) or Fortran (column-major) order.
func Column(data []float64, rows, cols, col int, fortran bool) ([]float64, error) {
	if col < 0 || col >= cols {
		return nil, fmt.Errorf("column %d of %d: %w", col, cols, ErrUnsupportedShape)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%d values for shape (%d, %d): %w", len(data), rows, cols, ErrUnsupportedShape)
	}
	out := make([]float64, rows)
	for i := range out {
		if fortran {
			out[i] = data[col*rows+i]
		} else {
			out[i] = data[i*cols+col]
		}
	}
	return out, nil
}
