// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import "fmt"

// CompressionFlag is the image header byte selecting the pixel data codec.
type CompressionFlag uint8

// Known image compression flags.
const (
	// CompressionNone stores pixel bytes as-is.
	CompressionNone CompressionFlag = 0x00
	// CompressionLZSS stores pixel bytes with ring-buffer LZSS.
	CompressionLZSS CompressionFlag = 0x04
)

// String returns a short codec name.
func (f CompressionFlag) String() string {
	switch f {
	case CompressionNone:
		return "none"
	case CompressionLZSS:
		return "lzss"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(f))
	}
}

// LZSS ring-buffer parameters.
const (
	lzssWindowSize = 4096
	lzssMaxMatch   = 18
	lzssThreshold  = 2
	lzssFill       = 0x20
	lzssStart      = lzssWindowSize - lzssMaxMatch
)

// decompressFunc expands src into exactly outLen bytes.
type decompressFunc func(src []byte, outLen int) ([]byte, error)

// decompressors maps supported flags to codecs.
var decompressors = map[CompressionFlag]decompressFunc{
	CompressionNone: decompressStored,
	CompressionLZSS: decompressLZSS,
}

// Supported reports whether flag has a registered codec.
func (f CompressionFlag) Supported() bool {
	_, ok := decompressors[f]
	return ok
}

// decompress expands pixel data with the codec selected by flag.
func decompress(flag CompressionFlag, src []byte, outLen int) ([]byte, error) {
	fn, ok := decompressors[flag]
	if !ok {
		return nil, fmt.Errorf("%w: compression flag 0x%02x", ErrUnsupportedFormat, uint8(flag))
	}

	return fn(src, outLen)
}

// decompressStored returns a copy of the first outLen bytes.
func decompressStored(src []byte, outLen int) ([]byte, error) {
	if len(src) < outLen {
		return nil, fmt.Errorf("%w: stored pixels %d bytes, want %d", ErrInvalidImage, len(src), outLen)
	}

	out := make([]byte, outLen)
	copy(out, src)

	return out, nil
}

// decompressLZSS expands ring-buffer LZSS. Each flag byte drives eight
// tokens LSB first: set bit is a literal byte, clear bit is a two-byte
// reference with 12-bit absolute window position and 4-bit length.
func decompressLZSS(src []byte, outLen int) ([]byte, error) {
	w := NewWindow[byte](lzssWindowSize)
	w.Fill(lzssFill)
	w.SetCursor(lzssStart)

	out := make([]byte, 0, outLen)
	pos := 0
	var flags uint

	for len(out) < outLen {
		flags >>= 1
		if flags&0x100 == 0 {
			if pos >= len(src) {
				return nil, fmt.Errorf("%w: lzss stream ends at %d/%d bytes", ErrInvalidImage, len(out), outLen)
			}

			// High byte counts the remaining bits of this flag byte.
			flags = uint(src[pos]) | 0xff00
			pos++
		}

		if flags&1 != 0 {
			if pos >= len(src) {
				return nil, fmt.Errorf("%w: lzss literal past end of stream", ErrInvalidImage)
			}

			b := src[pos]
			pos++
			out = append(out, b)
			w.Insert(b)

			continue
		}

		if pos+1 >= len(src) {
			return nil, fmt.Errorf("%w: lzss reference past end of stream", ErrInvalidImage)
		}

		lo, hi := src[pos], src[pos+1]
		pos += 2

		start := int(lo) | int(hi&0xf0)<<4
		length := int(hi&0x0f) + lzssThreshold + 1
		for k := 0; k < length && len(out) < outLen; k++ {
			b := w.At(start + k)
			out = append(out, b)
			w.Insert(b)
		}
	}

	return out, nil
}
