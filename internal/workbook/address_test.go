package workbook

import (
	"errors"
	"testing"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
	}{
		{"A1", true},
		{"AB23", true},
		{"XFD1048576", true},
		{"Z100", true},
		{"1A", false},
		{"a1", false},
		{"A01", false},
		{"A0", false},
		{"", false},
		{"$A$1", false},
		{"A", false},
		{"12", false},
		{"A1:B2", false},
		{"XFE1", false},
		{"A1048577", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if tt.valid && err != nil {
				t.Errorf("ValidateAddress(%q) = %v, want nil", tt.addr, err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatalf("ValidateAddress(%q) = nil, want error", tt.addr)
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("ValidateAddress(%q) error %v is not a validation error", tt.addr, err)
				}
			}
		})
	}
}

func TestParseAddress(t *testing.T) {
	col, row, err := ParseAddress("AB23")
	if err != nil {
		t.Fatal(err)
	}
	if col != 28 || row != 23 {
		t.Errorf("ParseAddress(AB23) = (%d, %d), want (28, 23)", col, row)
	}

	name, err := FormatAddress(col, row)
	if err != nil {
		t.Fatal(err)
	}
	if name != "AB23" {
		t.Errorf("FormatAddress(28, 23) = %q", name)
	}

	if _, err := FormatAddress(0, 1); err == nil {
		t.Error("expected error for column 0")
	}
}
