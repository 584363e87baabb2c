package bsa

import (
	"slices"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want string
	}{
		{in: "normal.txt", want: "normal.txt"},
		{in: "A:B.TXT", want: "A_B.TXT"},
		{in: `WHY?<>|*".DAT`, want: "WHY______.DAT"},
		{in: "a\x01b", want: "a_b"},
		{in: "NAME. ", want: "NAME"},
		{in: "...", want: "_"},
		{in: "CON.TXT", want: "_CON.TXT"},
		{in: "com1", want: "_com1"},
		{in: "CONSOLE.TXT", want: "CONSOLE.TXT"},
	}

	for _, tc := range testCases {
		if got := SanitizeName(tc.in); got != tc.want {
			t.Fatalf("SanitizeName(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsReservedDeviceName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		want bool
	}{
		{name: "con", want: true},
		{name: "con.txt", want: true},
		{name: "CLOCK$", want: true},
		{name: "LPT9.DAT", want: true},
		{name: "normal.txt", want: false},
		{name: "_con.txt", want: false},
		{name: "com10", want: false},
	}

	for _, tc := range testCases {
		got := isReservedDeviceName(tc.name)
		if got != tc.want {
			t.Fatalf("isReservedDeviceName(%q)=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSanitizeEntryNamesCollision(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Name: "A:B"},
		{Name: "A?B"},
		{Name: "A*B"},
		{Name: "X.TXT"},
		{Name: "x.txt"},
	}

	got := sanitizeEntryNames(entries, nil)
	want := []string{"A_B", "A_B~2", "A_B~3", "X.TXT", "x~2.txt"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSanitizeEntryNamesSuffix(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Name: "PIC.IMG"},
		{Name: "pic.img"},
		{Name: "NOTE.TXT"},
	}

	got := sanitizeEntryNames(entries, func(e Entry) string {
		if e.Kind() == KindImage {
			return pngSuffix
		}

		return ""
	})
	want := []string{"PIC.IMG.png", "pic.img~2.png", "NOTE.TXT"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestWithNumericSuffix(t *testing.T) {
	t.Parallel()

	if got := withNumericSuffix("a.b.txt", 3); got != "a.b~3.txt" {
		t.Fatalf("got %q, want a.b~3.txt", got)
	}
	if got := withNumericSuffix("noext", 2); got != "noext~2" {
		t.Fatalf("got %q, want noext~2", got)
	}
}

func TestFallbackNames(t *testing.T) {
	t.Parallel()

	names := []string{"X.IMG.png", "x.img~2.png", "X.IMG~2", "LOGO.png"}
	suffixed := []bool{true, true, false, false}

	got := fallbackNames(names, suffixed, pngSuffix)
	want := []string{"X.IMG", "x~2.img~2", "", ""}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
