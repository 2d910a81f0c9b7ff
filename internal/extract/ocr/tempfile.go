// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package ocr

import (
	"fmt"
	"os"
)

// withTempImage writes data to a temporary .png, calls fn with its path and
// removes the file afterwards, whether or not fn fails
func withTempImage(data []byte, fn func(path string) error) error {
	f, err := os.CreateTemp("", "bench-ocr-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temp image: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp image: %w", err)
	}
	return fn(path)
}
