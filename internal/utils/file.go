package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// InputKind says how a CV file is read.
type InputKind int

const (
	// KindUnknown files are handed to text extraction, which rejects them.
	KindUnknown InputKind = iota
	// KindText files are read as plain CV text.
	KindText
	// KindDocument files are PDF or DOCX uploads.
	KindDocument
)

var (
	textExtensions     = []string{".txt", ".md", ".markdown", ".text"}
	documentExtensions = []string{".pdf", ".docx"}
)

// ValidateInputFile checks that filename names a readable regular file.
// A missing file gives an error wrapping os.ErrNotExist.
func ValidateInputFile(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s: %w", filename, os.ErrNotExist)
		}
		return fmt.Errorf("cannot access file %s: %w", filename, err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", filename, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", filename, err)
	}
	return nil
}

// ValidateOutputFile makes sure the parent directory of filename exists.
// An empty name means stdout.
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}

	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetFileExtension returns the file extension in lowercase
func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// ClassifyInput reports how a CV file should be read, by extension.
func ClassifyInput(filename string) InputKind {
	ext := GetFileExtension(filename)
	switch {
	case slices.Contains(textExtensions, ext):
		return KindText
	case slices.Contains(documentExtensions, ext):
		return KindDocument
	}
	return KindUnknown
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
