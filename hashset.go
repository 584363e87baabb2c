// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// HashSet is a set of xxHash64 fingerprints of one archive.
//
// Full covers every byte of the file. Names covers sorted lower-cased entry
// names, so it ignores order and payloads. Content covers payloads in index
// order, so it ignores names and layout. Two archives with equal Names and
// Content carry the same files even when Full differs.
type HashSet struct {
	// Full is hash of the whole archive file; zero for unsaved changes.
	Full uint64 `json:"full" yaml:"full"`
	// Names is hash of sorted lower-cased entry names.
	Names uint64 `json:"names" yaml:"names"`
	// Content is hash of payload bytes in index order.
	Content uint64 `json:"content" yaml:"content"`
}

// ComputeHashSet calculates the hash set of the archive file at path.
func ComputeHashSet(path string) (HashSet, error) {
	f, size, err := openBacking(path)
	if err != nil {
		return HashSet{}, err
	}
	defer func() { _ = f.Close() }()

	return ComputeHashSetFromReaderAt(f, size)
}

// ComputeHashSetFromReaderAt calculates the hash set of an archive held in ra.
func ComputeHashSetFromReaderAt(ra io.ReaderAt, size int64) (HashSet, error) {
	dir, err := parseDirectory(ra, size)
	if err != nil {
		return HashSet{}, err
	}

	full, err := checksumReader(io.NewSectionReader(ra, 0, size))
	if err != nil {
		return HashSet{}, fmt.Errorf("full hash: %w", err)
	}

	entries := sortedByIndex(dir.entries)
	content, err := computeContentHash(entries, func(e Entry) (io.ReadCloser, error) {
		return nopCloser{Reader: io.NewSectionReader(ra, e.Offset, int64(e.Size))}, nil
	})
	if err != nil {
		return HashSet{}, err
	}

	return HashSet{Full: full, Names: computeNameHash(entries), Content: content}, nil
}

// HashSet calculates the hash set of live entries including unsaved
// changes. Full is set only when the table matches backing storage.
func (a *Archive) HashSet() (HashSet, error) {
	if !a.IsOpen() {
		return HashSet{}, ErrNotOpen
	}

	entries := sortedByIndex(a.LiveEntries())
	content, err := computeContentHash(entries, a.openPayload)
	if err != nil {
		return HashSet{}, err
	}

	hs := HashSet{Names: computeNameHash(entries), Content: content}
	if a.ra != nil && !a.IsModified() {
		full, err := checksumReader(io.NewSectionReader(a.ra, 0, a.size))
		if err != nil {
			return HashSet{}, fmt.Errorf("full hash: %w", err)
		}

		hs.Full = full
	}

	return hs, nil
}

// computeNameHash builds deterministic hash over lower-cased entry names.
func computeNameHash(entries []Entry) uint64 {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.ToLower(e.Name))
	}

	slices.Sort(names)

	d := xxhash.New()
	for _, n := range names {
		_, _ = d.WriteString(n)
		_, _ = d.Write([]byte{0})
	}

	return d.Sum64()
}

// computeContentHash streams every payload opened by open through one digest.
func computeContentHash(entries []Entry, open func(Entry) (io.ReadCloser, error)) (uint64, error) {
	copyBuf, release := acquireCopyBuffer()
	defer release()

	d := xxhash.New()
	for _, e := range entries {
		rc, err := open(e)
		if err != nil {
			return 0, err
		}

		n, err := io.CopyBuffer(d, rc, copyBuf)
		_ = rc.Close()
		if err != nil {
			return 0, fmt.Errorf("%w: hash %s: %w", ErrIO, e.Name, err)
		}

		if n != int64(e.CurrentSize()) {
			return 0, fmt.Errorf("%w: hash %s: short read (%d/%d)", ErrIO, e.Name, n, e.CurrentSize())
		}
	}

	return d.Sum64(), nil
}

// sortedByIndex returns a copy of entries ordered by directory index.
func sortedByIndex(entries []Entry) []Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(x, y Entry) int {
		return int(x.Index) - int(y.Index)
	})

	return out
}
