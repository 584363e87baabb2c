// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
)

// readerDirBufferSize is a sequential read buffer for directory parsing.
const readerDirBufferSize = 64 * 1024

var (
	// dirReaderPool reuses buffered readers for sequential directory parsing.
	dirReaderPool = sync.Pool{
		New: func() any {
			return bufio.NewReaderSize(bytes.NewReader(nil), readerDirBufferSize)
		},
	}
)

// directory is a parsed and validated archive table.
type directory struct {
	// entries are in on-disk record order.
	entries []Entry
	// header is the fixed archive header.
	header Header
	// size is total source size in bytes.
	size int64
	// dataStart is absolute offset of the payload region.
	dataStart int64
}

// openBacking opens an archive file for reading and returns its size.
func openBacking(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: open archive: %w", ErrIO, err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: stat archive: %w", ErrIO, err)
	}

	if fi.IsDir() {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: %s is a directory", ErrIO, path)
	}

	return f, fi.Size(), nil
}

// parseDirectory reads header and directory records from ra and validates
// every record against the file bounds.
func parseDirectory(ra io.ReaderAt, size int64) (*directory, error) {
	if ra == nil {
		return nil, ErrNilReader
	}

	header, err := parseHeader(ra, size)
	if err != nil {
		return nil, err
	}

	dataStart := payloadStart(int(header.Count))
	if dataStart > size {
		return nil, fmt.Errorf("%w: directory of %d records ends at %d, file has %d bytes",
			ErrCorruptArchive, header.Count, dataStart, size)
	}

	entries, err := readRecords(ra, int(header.Count))
	if err != nil {
		return nil, err
	}

	if err := validateRecords(entries, dataStart, size); err != nil {
		return nil, err
	}

	return &directory{header: header, entries: entries, size: size, dataStart: dataStart}, nil
}

// parseHeader reads and checks the fixed 8-byte header.
func parseHeader(ra io.ReaderAt, size int64) (Header, error) {
	if size < headerSize {
		return Header{}, fmt.Errorf("%w: file has %d bytes, header needs %d", ErrCorruptArchive, size, headerSize)
	}

	var buf [headerSize]byte
	if _, err := ra.ReadAt(buf[:], 0); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, fmt.Errorf("%w: short header", ErrCorruptArchive)
		}

		return Header{}, fmt.Errorf("%w: read header: %w", ErrIO, err)
	}

	if !bytes.Equal(buf[0:4], magic[:]) {
		return Header{}, fmt.Errorf("%w: bad magic % x", ErrCorruptArchive, buf[0:4])
	}

	h := Header{
		Version: binary.LittleEndian.Uint16(buf[4:6]),
		Count:   binary.LittleEndian.Uint16(buf[6:8]),
	}
	if h.Version != formatVersion {
		return Header{}, fmt.Errorf("%w: version %d", ErrCorruptArchive, h.Version)
	}

	return h, nil
}

// readRecords decodes count directory records with sequential buffered reads.
func readRecords(ra io.ReaderAt, count int) ([]Entry, error) {
	entries := make([]Entry, 0, count)
	if count == 0 {
		return entries, nil
	}

	sr := io.NewSectionReader(ra, headerSize, int64(count)*dirRecordSize)
	br := dirReaderPool.Get().(*bufio.Reader) //nolint:forcetypeassert // pool contains only *bufio.Reader
	br.Reset(sr)
	defer dirReaderPool.Put(br)

	var rec [dirRecordSize]byte
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(br, rec[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: directory record %d truncated", ErrCorruptArchive, i)
			}

			return nil, fmt.Errorf("%w: read directory record %d: %w", ErrIO, i, err)
		}

		e, err := decodeRecord(rec[:])
		if err != nil {
			return nil, fmt.Errorf("%w: directory record %d: %w", ErrCorruptArchive, i, err)
		}

		entries = append(entries, e)
	}

	return entries, nil
}

// decodeRecord decodes one 32-byte directory record.
func decodeRecord(rec []byte) (Entry, error) {
	field := rec[:nameFieldSize]
	end := bytes.IndexByte(field, 0)
	if end < 0 {
		return Entry{}, errors.New("name is not NUL-terminated")
	}

	name := string(field[:end])
	if err := ValidateName(name); err != nil {
		return Entry{}, err
	}

	// The writer zero-pads names; other padding would not survive a save.
	if slices.ContainsFunc(field[end:], func(b byte) bool { return b != 0 }) {
		return Entry{}, fmt.Errorf("name %q has non-zero padding", name)
	}

	e := NewEntry(
		binary.LittleEndian.Uint32(rec[20:24]),
		int64(binary.LittleEndian.Uint64(rec[24:32])), //nolint:gosec // sign checked by validateRecords
		name,
		binary.LittleEndian.Uint16(rec[16:18]),
	)
	e.Flags = EntryFlags(binary.LittleEndian.Uint16(rec[18:20]))

	return e, nil
}

// validateRecords checks payload bounds and index/name uniqueness.
func validateRecords(entries []Entry, dataStart int64, size int64) error {
	seenIndex := make(map[uint16]struct{}, len(entries))
	seenName := make(map[string]struct{}, len(entries))

	for i := range entries {
		e := &entries[i]
		if e.Offset < dataStart {
			return fmt.Errorf("%w: entry %s offset %d before payload start %d", ErrCorruptArchive, e.Name, e.Offset, dataStart)
		}

		end := e.Offset + int64(e.Size)
		if end < e.Offset || end > size {
			return fmt.Errorf("%w: entry %s payload [%d,%d) out of file bounds (%d)", ErrCorruptArchive, e.Name, e.Offset, end, size)
		}

		if int(e.Index) >= len(entries) {
			return fmt.Errorf("%w: entry %s index %d out of range", ErrCorruptArchive, e.Name, e.Index)
		}

		if _, dup := seenIndex[e.Index]; dup {
			return fmt.Errorf("%w: duplicate index %d", ErrCorruptArchive, e.Index)
		}
		seenIndex[e.Index] = struct{}{}

		if _, dup := seenName[e.Name]; dup {
			return fmt.Errorf("%w: duplicate name %q", ErrCorruptArchive, e.Name)
		}
		seenName[e.Name] = struct{}{}
	}

	return validateLayout(entries, dataStart, size)
}

// validateLayout checks that records follow index order and payloads are
// packed from dataStart to the end of file, the layout the writer produces.
func validateLayout(entries []Entry, dataStart int64, size int64) error {
	next := dataStart
	for i := range entries {
		e := &entries[i]
		if int(e.Index) != i {
			return fmt.Errorf("%w: record %d carries index %d", ErrCorruptArchive, i, e.Index)
		}

		if e.Offset != next {
			return fmt.Errorf("%w: entry %s at offset %d, packed layout expects %d", ErrCorruptArchive, e.Name, e.Offset, next)
		}

		next += int64(e.Size)
	}

	if next != size {
		return fmt.Errorf("%w: %d bytes after last payload", ErrCorruptArchive, size-next)
	}

	return nil
}

// payloadStart returns absolute offset of first payload byte for count records.
func payloadStart(count int) int64 {
	return headerSize + int64(count)*dirRecordSize
}
