package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// deviceNameRegex matches device identifiers such as "fake_lima" or "ibm-osaka".
var deviceNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateDeviceName validates a device identifier used in catalogs, cache
// keys and API requests.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - Maximum length of 128 characters
//   - Letters, digits, '.', '_' and '-' only, starting with a letter or digit
func ValidateDeviceName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidDevice, "device name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidDevice, "device name too long (max 128 characters)")
	}
	if !deviceNameRegex.MatchString(name) {
		return New(ErrCodeInvalidDevice, "invalid device name: %q", name)
	}
	return nil
}

// ValidatePath validates a local file path given on the command line or in a
// config file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid control characters")
		}
	}

	return nil
}

// ValidateQubitIndex checks that q is a valid index into a register of width n.
func ValidateQubitIndex(q, n int) error {
	if q < 0 || q >= n {
		return New(ErrCodeUnsupportedOperation, "qubit index %d out of range [0, %d)", q, n)
	}
	return nil
}

// ValidateOperationName rejects empty or whitespace-padded operation names.
func ValidateOperationName(name string) error {
	if name == "" {
		return New(ErrCodeUnsupportedOperation, "operation name cannot be empty")
	}
	if strings.TrimSpace(name) != name {
		return New(ErrCodeUnsupportedOperation, "operation name %q has surrounding whitespace", name)
	}
	return nil
}
