package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cv.txt")
	if err := os.WriteFile(file, []byte("Python"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := ValidateInputFile(file); err != nil {
		t.Errorf("expected valid file, got %v", err)
	}
	if err := ValidateInputFile(""); err == nil {
		t.Error("expected error for empty name")
	}
	if err := ValidateInputFile(dir); err == nil {
		t.Error("expected error for directory")
	}
	err := ValidateInputFile(filepath.Join(dir, "missing.pdf"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestValidateOutputFileCreatesDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports", "nested", "gap.md")
	if err := ValidateOutputFile(out); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(filepath.Dir(out)); err != nil || !info.IsDir() {
		t.Errorf("expected output directory to exist: %v", err)
	}
	if err := ValidateOutputFile(""); err != nil {
		t.Errorf("stdout should be valid: %v", err)
	}
}

func TestClassifyInput(t *testing.T) {
	tests := []struct {
		name string
		want InputKind
	}{
		{"cv.pdf", KindDocument},
		{"CV.DOCX", KindDocument},
		{"cv.txt", KindText},
		{"notes.md", KindText},
		{"cv.doc", KindUnknown},
		{"cv", KindUnknown},
	}
	for _, tt := range tests {
		if got := ClassifyInput(tt.name); got != tt.want {
			t.Errorf("ClassifyInput(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{10 * 1024 * 1024, "10.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}
