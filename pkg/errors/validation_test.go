package errors

import (
	"strings"
	"testing"
)

func TestValidateDeviceName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"fake device", "fake_lima", false},
		{"dashed", "ibm-osaka", false},
		{"dotted", "lab.rig.7", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 129), true},
		{"leading dash", "-lima", true},
		{"space", "fake lima", true},
		{"slash", "a/b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDeviceName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDeviceName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidDevice) {
				t.Errorf("ValidateDeviceName(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "devices/lima.toml", false},
		{"absolute", "/etc/qmap/devices.toml", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 5000), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateQubitIndex(t *testing.T) {
	if err := ValidateQubitIndex(0, 1); err != nil {
		t.Errorf("ValidateQubitIndex(0, 1) = %v", err)
	}
	for _, q := range []int{-1, 5} {
		if err := ValidateQubitIndex(q, 5); !Is(err, ErrCodeUnsupportedOperation) {
			t.Errorf("ValidateQubitIndex(%d, 5) = %v", q, err)
		}
	}
}

func TestValidateOperationName(t *testing.T) {
	if err := ValidateOperationName("cx"); err != nil {
		t.Errorf("ValidateOperationName(cx) = %v", err)
	}
	for _, n := range []string{"", " cx"} {
		if err := ValidateOperationName(n); !Is(err, ErrCodeUnsupportedOperation) {
			t.Errorf("ValidateOperationName(%q) = %v", n, err)
		}
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidDevice,
		ErrCodeInvalidPath,
		ErrCodeUnsupportedOperation,
		ErrCodeNotFound,
		ErrCodeDeviceNotFound,
		ErrCodeFileNotFound,
		ErrCodeNoValidLayout,
		ErrCodeTimeout,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
