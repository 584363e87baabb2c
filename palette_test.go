package bsa

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/color"
	"testing"
)

func TestDecodeCOL(t *testing.T) {
	t.Parallel()

	pal := GrayscalePalette()
	pal[0] = RGB{R: 1, G: 2, B: 3}
	pal[255] = RGB{R: 4, G: 5, B: 6}

	file := pal.EncodeCOL()
	if len(file) != colFileSize {
		t.Fatalf("EncodeCOL len=%d, want %d", len(file), colFileSize)
	}
	if binary.LittleEndian.Uint32(file[0:4]) != colFileSize {
		t.Fatal("length field must hold file size")
	}

	fromFile, err := DecodeCOL(file)
	if err != nil {
		t.Fatalf("DecodeCOL file form: %v", err)
	}
	if fromFile != pal {
		t.Fatal("file form round trip mismatch")
	}

	fromBare, err := DecodeCOL(pal.Bytes())
	if err != nil {
		t.Fatalf("DecodeCOL bare form: %v", err)
	}
	if fromBare != pal {
		t.Fatal("bare form round trip mismatch")
	}
}

func TestDecodeCOL_Errors(t *testing.T) {
	t.Parallel()

	pal := GrayscalePalette()
	badLength := pal.EncodeCOL()
	binary.LittleEndian.PutUint32(badLength[0:4], 10)

	testCases := []struct {
		name string
		data []byte
	}{
		{name: "wrong size", data: make([]byte, 100)},
		{name: "wrong length field", data: badLength},
	}

	for _, tc := range testCases {
		if _, err := DecodeCOL(tc.data); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("%s: expected ErrUnsupportedFormat, got %v", tc.name, err)
		}
	}

	if _, err := ParsePalette(make([]byte, 10)); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("ParsePalette short: expected ErrInvalidImage, got %v", err)
	}
}

func TestPaletteConversions(t *testing.T) {
	t.Parallel()

	pal := GrayscalePalette()
	if pal[7] != (RGB{R: 7, G: 7, B: 7}) {
		t.Fatalf("grayscale[7]=%+v", pal[7])
	}

	raw := pal.Bytes()
	if len(raw) != paletteSize || !bytes.Equal(raw[21:24], []byte{7, 7, 7}) {
		t.Fatal("Bytes must be 768 RGB triples")
	}

	cp := pal.ColorPalette()
	if len(cp) != paletteColors {
		t.Fatalf("ColorPalette len=%d", len(cp))
	}
	if cp[7] != (color.RGBA{R: 7, G: 7, B: 7, A: 0xff}) {
		t.Fatalf("ColorPalette[7]=%v", cp[7])
	}
}
