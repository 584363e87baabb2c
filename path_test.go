package bsa

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want string
	}{
		{in: "SKY.IMG", want: "SKY.IMG"},
		{in: "  SKY.IMG  ", want: "SKY.IMG"},
		{in: "art/SKY.IMG", want: "SKY.IMG"},
		{in: `C:\game\art\SKY.IMG`, want: "SKY.IMG"},
		{in: "./notes.txt", want: "notes.txt"},
		{in: "a b.dat", want: "a b.dat"},
	}

	for _, tc := range testCases {
		got, err := NormalizeName(tc.in)
		if err != nil {
			t.Fatalf("NormalizeName(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeName(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeName_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", ".", "/", "VERYLONGNAME.TXT", "bad\x01.txt", "ümlaut.txt"} {
		if _, err := NormalizeName(in); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("NormalizeName(%q): expected ErrInvalidName, got %v", in, err)
		}
	}
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		valid bool
	}{
		{name: "A", valid: true},
		{name: strings.Repeat("X", maxNameLen), valid: true},
		{name: strings.Repeat("X", maxNameLen+1), valid: false},
		{name: "", valid: false},
		{name: "A/B", valid: false},
		{name: `A\B`, valid: false},
		{name: "TAB\t.TXT", valid: false},
		{name: "DEL\x7f", valid: false},
		{name: "~!@#$%^&().TXT", valid: true},
	}

	for _, tc := range testCases {
		err := ValidateName(tc.name)
		if tc.valid && err != nil {
			t.Fatalf("ValidateName(%q): %v", tc.name, err)
		}
		if !tc.valid && !errors.Is(err, ErrInvalidName) {
			t.Fatalf("ValidateName(%q): expected ErrInvalidName, got %v", tc.name, err)
		}
	}
}
