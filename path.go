// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"fmt"
	"path"
	"strings"
)

// NormalizeName converts a user or file-system path to an archive entry name.
// It trims spaces, accepts both "/" and "\" separators and keeps only the
// final path element, then validates the result with ValidateName.
func NormalizeName(raw string) (string, error) {
	name := normalizePathForMatching(raw)
	if name != "" {
		name = path.Base(name)
	}

	if name == "." || name == "/" {
		name = ""
	}

	if err := ValidateName(name); err != nil {
		return "", err
	}

	return name, nil
}

// ValidateName reports whether name fits a directory record: 1..15 printable
// ASCII bytes without path separators.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}

	if len(name) > maxNameLen {
		return fmt.Errorf("%w: %q longer than %d bytes", ErrInvalidName, name, maxNameLen)
	}

	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 0x20 || c > 0x7e || c == '/' || c == '\\' {
			return fmt.Errorf("%w: %q has forbidden byte 0x%02x", ErrInvalidName, name, c)
		}
	}

	return nil
}

// normalizePathForMatching normalizes user/input paths for matcher use.
func normalizePathForMatching(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, `\`, `/`)
	p = strings.TrimPrefix(p, "./")
	return p
}
