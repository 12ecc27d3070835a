//go:build mage

// Package main contains Mage build targets for rnamediator developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/pdiddy/rnamediator/internal/collect"
)

// projectDirs lists the working directories a collect run expects.
var projectDirs = []string{
	"data",
	"output",
	"LOGS",
}

// Init creates the project directory structure.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "rnamediator"
	cmdPkg  = "./cmd/rnamediator"
	outDir  = "output"
)

func binary() string {
	return filepath.Join(binDir, binName)
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	if err := sh.RunV("go", "build", "-o", binary(), cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", binary())
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Collect builds the CLI and runs a collect pass with ./rnamediator.yaml,
// writing into output/.
func Collect() error {
	mg.Deps(Init, Build)
	return sh.RunV(binary(), "collect", "--outdir", outDir)
}

// Index loads the collections in output/ into output/rnamediator.db.
func Index() error {
	mg.Deps(Build)
	return sh.RunV(binary(), "index", "--outdir", outDir)
}

// Stats prints project metrics: Go production/test lines and the size of
// the collections in output/.
func Stats() error {
	prodLines, testLines, err := countGoLines(".")
	if err != nil {
		return err
	}
	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)

	for _, k := range collect.Kinds {
		path := filepath.Join(outDir, k.CollectionName())
		if _, err := os.Stat(path); err != nil {
			continue
		}
		intervals, err := collect.ReadCollection(path)
		if err != nil {
			return err
		}
		genes := map[string]bool{}
		for _, si := range intervals {
			genes[si.Gene()] = true
		}
		fmt.Printf("Intervals (%s):%s%d in %d genes\n", k, strings.Repeat(" ", 10-len(k)), len(intervals), len(genes))
	}
	return nil
}

// countGoLines walks the tree and counts non-blank lines in Go files,
// split into production and test files. Directories starting with '_' or
// '.' are skipped.
func countGoLines(root string) (prod, test int, err error) {
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := 0
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			if strings.TrimSpace(sc.Text()) != "" {
				n++
			}
		}
		if strings.HasSuffix(path, "_test.go") {
			test += n
		} else {
			prod += n
		}
		return nil
	})
	return prod, test, err
}
