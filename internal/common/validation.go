package common

import (
	"fmt"
	"slices"
	"strings"

	"skillgap/internal/errors"
)

// NormalizeFormat lower-cases and trims a format name.
func NormalizeFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}

// ValidateOutputFormat checks format against the configured formats. An
// empty list allows everything.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil
	}
	if slices.Contains(supportedFormats, NormalizeFormat(format)) {
		return nil
	}
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %s",
			format, strings.Join(supportedFormats, ", ")), nil)
}
