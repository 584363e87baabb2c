// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// Checksum returns xxHash64 of the current payload of the entry called name.
func (a *Archive) Checksum(name string) (uint64, error) {
	rc, err := a.OpenEntry(name)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	return checksumReader(rc)
}

// ChecksumBytes returns xxHash64 of data.
func ChecksumBytes(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// checksumReader streams r through an xxHash64 digest.
func checksumReader(r io.Reader) (uint64, error) {
	copyBuf, release := acquireCopyBuffer()
	defer release()

	d := xxhash.New()
	if _, err := io.CopyBuffer(d, r, copyBuf); err != nil {
		return 0, fmt.Errorf("%w: checksum: %w", ErrIO, err)
	}

	return d.Sum64(), nil
}
