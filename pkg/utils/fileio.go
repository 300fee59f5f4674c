package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// AtomicWriteFile streams the output of write into a temporary file next to
// filePath and renames it into place, so readers observe either the previous
// or the complete new content. Missing parent directories are created.
func AtomicWriteFile(filePath string, perm os.FileMode, write func(w io.Writer) error) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tempFile := filePath + ".tmp"
	file, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create temporary file %s: %w", tempFile, err)
	}

	writeErr := write(file)
	closeErr := file.Close()
	if writeErr != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary file %s: %w", tempFile, writeErr)
	}
	if closeErr != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to close temporary file %s: %w", tempFile, closeErr)
	}

	if err := os.Rename(tempFile, filePath); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename %s to %s: %w", tempFile, filePath, err)
	}
	return nil
}

// WriteJSONFile atomically writes v as JSON indented with indent and
// terminated by a newline
func WriteJSONFile(filePath string, v any, indent string) error {
	return AtomicWriteFile(filePath, 0644, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", indent)
		return encoder.Encode(v)
	})
}
