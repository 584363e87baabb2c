// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"encoding/binary"
	"fmt"
	"image/color"
)

// Palette layout.
const (
	paletteColors    = 256
	paletteSize      = paletteColors * 3 // 768 RGB bytes
	colHeaderSize    = 8                 // u32 file length + u32 version
	colFileSize      = colHeaderSize + paletteSize
	colFormatVersion = 0xb123
)

// RGB is one palette color.
type RGB struct {
	R, G, B uint8
}

// Palette maps 8-bit color indices to RGB colors.
type Palette [paletteColors]RGB

// GrayscalePalette returns an identity ramp used when no palette is known.
func GrayscalePalette() Palette {
	var p Palette
	for i := range p {
		v := uint8(i) //nolint:gosec // i < 256
		p[i] = RGB{R: v, G: v, B: v}
	}

	return p
}

// ParsePalette reads a bare 768-byte RGB block.
func ParsePalette(data []byte) (Palette, error) {
	var p Palette
	if len(data) < paletteSize {
		return p, fmt.Errorf("%w: palette needs %d bytes, got %d", ErrInvalidImage, paletteSize, len(data))
	}

	for i := range p {
		p[i] = RGB{R: data[i*3], G: data[i*3+1], B: data[i*3+2]}
	}

	return p, nil
}

// DecodeCOL reads a palette file: either 776 bytes with length/version
// header, or a bare 768-byte RGB block.
func DecodeCOL(data []byte) (Palette, error) {
	switch len(data) {
	case paletteSize:
		return ParsePalette(data)
	case colFileSize:
		declared := binary.LittleEndian.Uint32(data[0:4])
		if declared != colFileSize {
			return Palette{}, fmt.Errorf("%w: palette length field %d, want %d", ErrUnsupportedFormat, declared, colFileSize)
		}

		return ParsePalette(data[colHeaderSize:])
	default:
		return Palette{}, fmt.Errorf("%w: palette file size %d", ErrUnsupportedFormat, len(data))
	}
}

// EncodeCOL writes palette in 776-byte file form.
func (p *Palette) EncodeCOL() []byte {
	out := make([]byte, colHeaderSize, colFileSize)
	binary.LittleEndian.PutUint32(out[0:4], colFileSize)
	binary.LittleEndian.PutUint32(out[4:8], colFormatVersion)

	return append(out, p.Bytes()...)
}

// Bytes returns the bare 768-byte RGB block.
func (p *Palette) Bytes() []byte {
	out := make([]byte, 0, paletteSize)
	for _, c := range p {
		out = append(out, c.R, c.G, c.B)
	}

	return out
}

// ColorPalette converts palette to image/color form.
func (p *Palette) ColorPalette() color.Palette {
	out := make(color.Palette, paletteColors)
	for i, c := range p {
		out[i] = color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
	}

	return out
}
