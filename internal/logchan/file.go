// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logchan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// stampFormat yields 20060102_15_04_05_000000 after the '.' is replaced.
const stampFormat = "20060102_15_04_05.000000"

func stamp(t time.Time) string {
	return strings.Replace(t.Format(stampFormat), ".", "_", 1)
}

// PrepareLogFile creates dir (made absolute) and returns the path of a fresh
// log file named <name>_<timestamp>.log, rotating any non-empty file that
// already occupies that path.
func PrepareLogFile(dir, name string, now time.Time) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving log directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("creating log directory %s: %w", abs, err)
	}

	path := filepath.Join(abs, name+"_"+stamp(now)+".log")
	if err := Rotate(path); err != nil {
		return "", err
	}
	return path, nil
}

// Rotate ensures path is an empty file. A non-empty file at path is first
// renamed to <path without .log>_<mtime>.log.
func Rotate(path string) error {
	info, err := os.Stat(path)
	if err == nil && info.Size() > 0 {
		rotated := strings.TrimSuffix(path, ".log") + "_" + stamp(info.ModTime()) + ".log"
		if err := os.Rename(path, rotated); err != nil {
			return fmt.Errorf("rotating log file %s: %w", path, err)
		}
	} else if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("checking log file %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("creating log file %s: %w", path, err)
	}
	return f.Close()
}
