// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"
)

// imageHeaderSize is the fixed IMG header length.
const imageHeaderSize = 12

// paletteFlagInline marks an in-stream 768-byte palette after pixel data.
const paletteFlagInline = 0x01

// ImageHeader is the optional 12-byte IMG header.
type ImageHeader struct {
	// OffsetX is horizontal draw offset on screen.
	OffsetX uint16 `json:"offset_x" yaml:"offset_x"`
	// OffsetY is vertical draw offset on screen.
	OffsetY uint16 `json:"offset_y" yaml:"offset_y"`
	// Width is image width in pixels.
	Width uint16 `json:"width" yaml:"width"`
	// Height is image height in pixels.
	Height uint16 `json:"height" yaml:"height"`
	// Compression selects pixel data codec.
	Compression CompressionFlag `json:"compression" yaml:"compression"`
	// PaletteFlag bit 0 marks an in-stream palette.
	PaletteFlag uint8 `json:"palette_flag" yaml:"palette_flag"`
	// DataSize is stored pixel data length in bytes.
	DataSize uint16 `json:"data_size" yaml:"data_size"`
}

// Image is one decoded IMG payload.
type Image struct {
	// Header holds IMG header fields; for header-less images only Width and Height are set.
	Header ImageHeader `json:"header" yaml:"header"`
	// Data is stored pixel data, compressed when Header.Compression says so.
	Data []byte `json:"-" yaml:"-"`
	// Palette is in-stream palette, or caller palette for images without one.
	Palette Palette `json:"-" yaml:"-"`
	// HasHeader reports whether payload starts with the 12-byte header.
	HasHeader bool `json:"has_header" yaml:"has_header"`
	// trailing holds bytes after the palette block, kept for exact re-encode.
	trailing []byte
}

// DecodeImage parses a headered IMG payload. Images without an in-stream
// palette get fallback, or a grayscale ramp when fallback is nil.
func DecodeImage(data []byte, fallback *Palette) (*Image, error) {
	if len(data) < imageHeaderSize {
		return nil, fmt.Errorf("%w: image payload %d bytes, header needs %d", ErrInvalidImage, len(data), imageHeaderSize)
	}

	img := &Image{
		HasHeader: true,
		Header: ImageHeader{
			OffsetX:     binary.LittleEndian.Uint16(data[0:2]),
			OffsetY:     binary.LittleEndian.Uint16(data[2:4]),
			Width:       binary.LittleEndian.Uint16(data[4:6]),
			Height:      binary.LittleEndian.Uint16(data[6:8]),
			Compression: CompressionFlag(data[8]),
			PaletteFlag: data[9],
			DataSize:    binary.LittleEndian.Uint16(data[10:12]),
		},
	}

	if !img.Header.Compression.Supported() {
		return nil, fmt.Errorf("%w: compression flag 0x%02x", ErrUnsupportedFormat, uint8(img.Header.Compression))
	}

	rest := data[imageHeaderSize:]
	dataSize := int(img.Header.DataSize)
	if dataSize > len(rest) {
		return nil, fmt.Errorf("%w: image data size %d exceeds payload (%d bytes left)", ErrInvalidImage, dataSize, len(rest))
	}

	img.Data = append([]byte(nil), rest[:dataSize]...)
	rest = rest[dataSize:]

	switch {
	case img.HasInlinePalette():
		p, err := ParsePalette(rest)
		if err != nil {
			return nil, err
		}

		img.Palette = p
		rest = rest[paletteSize:]
	case fallback != nil:
		img.Palette = *fallback
	default:
		img.Palette = GrayscalePalette()
	}

	if len(rest) > 0 {
		img.trailing = append([]byte(nil), rest...)
	}

	return img, nil
}

// NewRawImage wraps header-less pixel bytes with caller-supplied geometry.
func NewRawImage(data []byte, width, height uint16, palette Palette) (*Image, error) {
	need := int(width) * int(height)
	if len(data) < need {
		return nil, fmt.Errorf("%w: raw image %dx%d needs %d bytes, got %d", ErrInvalidImage, width, height, need, len(data))
	}

	return &Image{
		Header:  ImageHeader{Width: width, Height: height, Compression: CompressionNone},
		Data:    append([]byte(nil), data...),
		Palette: palette,
	}, nil
}

// HasInlinePalette reports whether the payload carries its own palette.
func (img *Image) HasInlinePalette() bool {
	return img.HasHeader && img.Header.PaletteFlag&paletteFlagInline != 0
}

// Bounds returns pixel rectangle of the image.
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(img.Header.Width), int(img.Header.Height))
}

// Pixels returns width*height palette indices, decompressing when needed.
func (img *Image) Pixels() ([]byte, error) {
	return decompress(img.Header.Compression, img.Data, int(img.Header.Width)*int(img.Header.Height))
}

// Paletted converts image to image.Paletted for rendering.
func (img *Image) Paletted() (*image.Paletted, error) {
	pix, err := img.Pixels()
	if err != nil {
		return nil, err
	}

	out := image.NewPaletted(img.Bounds(), img.Palette.ColorPalette())
	copy(out.Pix, pix)

	return out, nil
}

// WritePNG encodes image as PNG into w.
func (img *Image) WritePNG(w io.Writer) error {
	if w == nil {
		return ErrNilWriter
	}

	p, err := img.Paletted()
	if err != nil {
		return err
	}

	if err := png.Encode(w, p); err != nil {
		return fmt.Errorf("%w: encode png: %w", ErrIO, err)
	}

	return nil
}

// Encode serializes image back to payload form. Decoded payloads round-trip
// byte for byte.
func (img *Image) Encode() []byte {
	if !img.HasHeader {
		return append([]byte(nil), img.Data...)
	}

	size := imageHeaderSize + len(img.Data) + len(img.trailing)
	if img.HasInlinePalette() {
		size += paletteSize
	}

	out := make([]byte, imageHeaderSize, size)
	binary.LittleEndian.PutUint16(out[0:2], img.Header.OffsetX)
	binary.LittleEndian.PutUint16(out[2:4], img.Header.OffsetY)
	binary.LittleEndian.PutUint16(out[4:6], img.Header.Width)
	binary.LittleEndian.PutUint16(out[6:8], img.Header.Height)
	out[8] = byte(img.Header.Compression)
	out[9] = img.Header.PaletteFlag
	binary.LittleEndian.PutUint16(out[10:12], img.Header.DataSize)

	out = append(out, img.Data...)
	if img.HasInlinePalette() {
		out = append(out, img.Palette.Bytes()...)
	}

	return append(out, img.trailing...)
}

// DefaultRawImageSize resolves geometry of header-less images from common
// full-screen and texture sizes.
func DefaultRawImageSize(_ Entry, dataLen int) (uint16, uint16, bool) {
	switch dataLen {
	case 320 * 200:
		return 320, 200, true
	case 64 * 64:
		return 64, 64, true
	default:
		return 0, 0, false
	}
}
