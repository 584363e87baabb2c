// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// DecodeText converts a CP437 text payload to UTF-8. A trailing DOS EOF
// marker (0x1a) and everything after it is dropped.
func DecodeText(data []byte) (string, error) {
	if i := bytes.IndexByte(data, 0x1a); i >= 0 {
		data = data[:i]
	}

	out, err := charmap.CodePage437.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: decode cp437: %w", ErrUnsupportedFormat, err)
	}

	return string(out), nil
}

// EncodeText converts UTF-8 text to CP437 bytes for storing in an archive.
// Runes without a CP437 mapping are rejected.
func EncodeText(s string) ([]byte, error) {
	out, err := charmap.CodePage437.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: encode cp437: %w", ErrUnsupportedFormat, err)
	}

	return out, nil
}
