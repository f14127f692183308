package common

import (
	"testing"

	"skillgap/internal/errors"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectedError    string
	}{
		{name: "json", format: "json", supportedFormats: supported},
		{name: "text", format: "text", supportedFormats: supported},
		{name: "markdown", format: "markdown", supportedFormats: supported},
		{name: "upper case is normalized", format: " JSON ", supportedFormats: supported},
		{
			name:             "xml",
			format:           "xml",
			supportedFormats: supported,
			expectedError:    "INVALID_FORMAT: unsupported output format 'xml'. Supported formats: json, text, markdown",
		},
		{
			name:             "empty format",
			format:           "",
			supportedFormats: supported,
			expectedError:    "INVALID_FORMAT: unsupported output format ''. Supported formats: json, text, markdown",
		},
		{name: "no restrictions", format: "xml", supportedFormats: nil},
		{
			name:             "single supported format",
			format:           "text",
			supportedFormats: []string{"json"},
			expectedError:    "INVALID_FORMAT: unsupported output format 'text'. Supported formats: json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)
			if tt.expectedError == "" {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if err.Error() != tt.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tt.expectedError, err.Error())
			}
			if !errors.IsType(err, errors.ErrorTypeValidation) {
				t.Errorf("Expected a validation error, got %T", err)
			}
		})
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "text", "markdown"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", supportedFormats)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supportedFormats)
		}
	})
}
