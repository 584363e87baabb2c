// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"io"
)

// ReadHeader opens an archive and returns only the fixed header.
func ReadHeader(path string) (Header, error) {
	f, size, err := openBacking(path)
	if err != nil {
		return Header{}, err
	}
	defer func() { _ = f.Close() }()

	return ReadHeaderFromReaderAt(f, size)
}

// ReadHeaderFromReaderAt reads only the fixed header from a random-access source.
func ReadHeaderFromReaderAt(ra io.ReaderAt, size int64) (Header, error) {
	if ra == nil {
		return Header{}, ErrNilReader
	}

	return parseHeader(ra, size)
}

// ListEntries opens an archive and returns validated directory entries in
// on-disk order without payload reads.
func ListEntries(path string) ([]Entry, error) {
	f, size, err := openBacking(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return ListEntriesFromReaderAt(f, size)
}

// ListEntriesFromReaderAt parses directory entries from a random-access source.
func ListEntriesFromReaderAt(ra io.ReaderAt, size int64) ([]Entry, error) {
	dir, err := parseDirectory(ra, size)
	if err != nil {
		return nil, err
	}

	return dir.entries, nil
}
