package errors

import (
	"fmt"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewValidationError(ErrCodeMissingRole, "Please select or enter a target role.", nil),
			want: "MISSING_ROLE: Please select or enter a target role.",
		},
		{
			name: "with cause",
			err:  NewIOError(ErrCodeFileNotReadable, "cannot read", fmt.Errorf("denied")),
			want: "FILE_NOT_READABLE: cannot read (caused by: denied)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsTypeThroughWrapping(t *testing.T) {
	base := NewAIError(ErrCodeMissingAPIKey, "Missing Gemini API key", nil)
	wrapped := fmt.Errorf("narrative: %w", base)

	if !IsType(wrapped, ErrorTypeAI) {
		t.Fatal("expected wrapped error to be recognised as AI error")
	}
	if !IsRecoverable(wrapped) {
		t.Error("AI errors should be recoverable")
	}
	if IsRecoverable(NewRetrievalError(ErrCodeRetrievalFailed, "boom", nil)) {
		t.Error("retrieval errors must not be recoverable")
	}
	if IsType(fmt.Errorf("plain"), ErrorTypeAI) {
		t.Error("plain errors carry no type")
	}
}

func TestWithContext(t *testing.T) {
	err := NewValidationError(ErrCodeUnsupportedFileType, "Unsupported file type. Please upload .pdf or .docx.", nil).
		WithContext("file", "cv.txt")

	if err.Context["file"] != "cv.txt" {
		t.Errorf("context not recorded: %v", err.Context)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := New(level); err != nil {
			t.Errorf("New(%q) returned error: %v", level, err)
		}
	}
	if _, err := New("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}
