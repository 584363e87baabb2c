// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	// defaultWriterPool reuses default-sized bufio writers between saves.
	defaultWriterPool = sync.Pool{
		New: func() any {
			return bufio.NewWriterSize(io.Discard, DefaultWriteBuffer)
		},
	}
	// copyBufferPool reuses payload copy buffers between saves.
	copyBufferPool = sync.Pool{
		New: func() any {
			return new([copyBufferSize]byte)
		},
	}
)

// copyBufferSize is per-save temporary buffer used by streaming payload copy.
const copyBufferSize = 64 * 1024

// Pack writes a new archive to out from inputs. Entry indices follow input
// order.
func Pack(ctx context.Context, out io.Writer, inputs []Input, opts Options) (*SaveResult, error) {
	if out == nil {
		return nil, ErrNilWriter
	}

	if len(inputs) == 0 {
		return nil, ErrEmptyInputs
	}

	opts.applyDefaults()

	plan, err := preparePackPlan(inputs)
	if err != nil {
		return nil, err
	}

	res, _, err := writeArchive(ctx, out, nil, plan, opts)
	return res, err
}

// PackFile writes a new archive to outPath through a temp file and rename.
func PackFile(ctx context.Context, outPath string, inputs []Input, opts Options) (*SaveResult, error) {
	var res *SaveResult
	err := writeFileAtomic(outPath, func(f *os.File) error {
		var packErr error
		res, packErr = Pack(ctx, f, inputs, opts)
		return packErr
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// preparePackPlan builds staged entries for inputs and checks name uniqueness.
func preparePackPlan(inputs []Input) ([]Entry, error) {
	if len(inputs) > maxEntryCount {
		return nil, fmt.Errorf("%w: %d inputs, format holds %d", ErrSizeOverflow, len(inputs), maxEntryCount)
	}

	seen := make(map[string]struct{}, len(inputs))
	plan := make([]Entry, 0, len(inputs))
	for i := range inputs {
		e, err := stagedEntry(inputs[i])
		if err != nil {
			return nil, err
		}

		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrAlreadyExists, e.Name)
		}
		seen[e.Name] = struct{}{}

		e.Index = uint16(i) //nolint:gosec // bounded by maxEntryCount above
		plan = append(plan, e)
	}

	return plan, nil
}

// stagedEntry builds a new entry for one input with resolved name and size.
func stagedEntry(in Input) (Entry, error) {
	raw := in.Name
	if raw == "" {
		raw = in.Path
	}

	name, err := NormalizeName(raw)
	if err != nil {
		return Entry{}, err
	}

	size, err := resolveInputSize(in)
	if err != nil {
		return Entry{}, err
	}

	src := in
	src.Name = name

	return Entry{
		source:     &src,
		Name:       name,
		NewPath:    in.Path,
		UpdateSize: size,
		Flags:      in.Flags,
		IsNew:      true,
	}, nil
}

// resolveInputSize returns payload size of in from hint, file stat, or a
// counting pass over the stream.
func resolveInputSize(in Input) (uint32, error) {
	var size int64
	switch {
	case in.SizeHint > 0:
		size = in.SizeHint
	case in.Open == nil && in.Path != "":
		fi, err := os.Stat(in.Path)
		if err != nil {
			return 0, fmt.Errorf("%w: stat input: %w", ErrIO, err)
		}

		if fi.IsDir() {
			return 0, fmt.Errorf("%w: input %s is a directory", ErrIO, in.Path)
		}

		size = fi.Size()
	default:
		rc, err := openInput(in)
		if err != nil {
			return 0, err
		}

		n, err := io.Copy(io.Discard, rc)
		_ = rc.Close()
		if err != nil {
			return 0, fmt.Errorf("%w: measure input %s: %w", ErrIO, in.Name, err)
		}

		size = n
	}

	return checkedDataSize(in.Name, size)
}

// openInput opens source stream for one input.
func openInput(in Input) (io.ReadCloser, error) {
	if in.Open != nil {
		rc, err := in.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open input %s: %w", ErrIO, in.Name, err)
		}

		return rc, nil
	}

	if in.Path == "" {
		return nil, fmt.Errorf("%w: input %s has neither Open nor Path", ErrNilReader, in.Name)
	}

	f, err := os.Open(in.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open input: %w", ErrIO, err)
	}

	return f, nil
}

// writeArchive is the shared writer core for Save and Pack. It assigns
// contiguous indices and packed offsets in plan order, writes header,
// directory and payloads, and returns the committed entries.
func writeArchive(
	ctx context.Context,
	out io.Writer,
	src io.ReaderAt,
	plan []Entry,
	opts Options,
) (*SaveResult, []Entry, error) {
	startedAt := time.Now()

	if out == nil {
		return nil, nil, ErrNilWriter
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if len(plan) > maxEntryCount {
		return nil, nil, fmt.Errorf("%w: %d entries, format holds %d", ErrSizeOverflow, len(plan), maxEntryCount)
	}

	dataStart := payloadStart(len(plan))
	written := make([]Entry, len(plan))
	offset := dataStart
	for i := range plan {
		size := plan[i].CurrentSize()
		written[i] = Entry{
			Name:   plan[i].Name,
			Offset: offset,
			Size:   size,
			Index:  uint16(i), //nolint:gosec // bounded by maxEntryCount above
			Flags:  plan[i].Flags,
		}
		offset += int64(size)
	}

	w, releaseWriter := acquireWriter(out, opts.WriterBufferSize)
	defer releaseWriter()

	if err := writeDirectory(w, written); err != nil {
		return nil, nil, err
	}

	copyBuf, releaseCopyBuffer := acquireCopyBuffer()
	defer releaseCopyBuffer()

	res := &SaveResult{IndexSize: dataStart}
	for i := range plan {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		if plan[i].staged() {
			if err := writeStagedPayload(w, plan[i], copyBuf); err != nil {
				return nil, nil, err
			}

			res.StagedBytes += int64(written[i].Size)
		} else {
			if err := writeSourcePayload(w, src, plan[i], copyBuf); err != nil {
				return nil, nil, err
			}

			res.CopiedBytes += int64(written[i].Size)
		}

		res.DataSize += int64(written[i].Size)
		res.WrittenEntries++

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(SaveProgress{
				Name:   written[i].Name,
				Offset: written[i].Offset,
				Size:   written[i].Size,
				Index:  written[i].Index,
				Total:  len(plan),
			})
		}
	}

	if err := w.Flush(); err != nil {
		return nil, nil, fmt.Errorf("%w: flush payloads: %w", ErrIO, err)
	}

	res.Duration = time.Since(startedAt)
	opts.Logger.Debug("archive written",
		"entries", res.WrittenEntries,
		"bytes", res.IndexSize+res.DataSize,
		"duration", res.Duration)

	return res, written, nil
}

// writeDirectory writes header and one record per entry.
func writeDirectory(w io.Writer, entries []Entry) error {
	var header [headerSize]byte
	copy(header[0:4], magic[:])
	binary.LittleEndian.PutUint16(header[4:6], formatVersion)
	binary.LittleEndian.PutUint16(header[6:8], uint16(len(entries))) //nolint:gosec // checked by caller
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("%w: write header: %w", ErrIO, err)
	}

	var rec [dirRecordSize]byte
	for i := range entries {
		encodeRecord(rec[:], entries[i])
		if _, err := w.Write(rec[:]); err != nil {
			return fmt.Errorf("%w: write directory record %s: %w", ErrIO, entries[i].Name, err)
		}
	}

	return nil
}

// encodeRecord fills one 32-byte directory record.
func encodeRecord(rec []byte, e Entry) {
	clear(rec[:nameFieldSize])
	copy(rec[:maxNameLen], e.Name)
	binary.LittleEndian.PutUint16(rec[16:18], e.Index)
	binary.LittleEndian.PutUint16(rec[18:20], uint16(e.Flags))
	binary.LittleEndian.PutUint32(rec[20:24], e.Size)
	binary.LittleEndian.PutUint64(rec[24:32], uint64(e.Offset)) //nolint:gosec // offsets are never negative
}

// writeStagedPayload streams replacement or new bytes for one entry.
func writeStagedPayload(dst io.Writer, e Entry, copyBuf []byte) error {
	rc, err := openInput(*e.source)
	if err != nil {
		return err
	}

	size := int64(e.CurrentSize())
	n, copyErr := copyPayloadBounded(dst, rc, size, copyBuf)
	closeErr := rc.Close()
	if copyErr != nil {
		if errors.Is(copyErr, ErrSizeOverflow) {
			return fmt.Errorf("%w: input for %s grew past %d bytes", ErrIO, e.Name, size)
		}

		return fmt.Errorf("%w: stream input %s: %w", ErrIO, e.Name, copyErr)
	}

	if n != size {
		return fmt.Errorf("%w: input for %s shrank (%d/%d bytes)", ErrIO, e.Name, n, size)
	}

	if closeErr != nil {
		return fmt.Errorf("%w: close input %s: %w", ErrIO, e.Name, closeErr)
	}

	return nil
}

// writeSourcePayload copies on-disk payload bytes from the source archive.
func writeSourcePayload(dst io.Writer, src io.ReaderAt, e Entry, copyBuf []byte) error {
	if src == nil {
		return fmt.Errorf("%w: entry %s has no backing archive", ErrNilReader, e.Name)
	}

	size := int64(e.Size)
	sr := io.NewSectionReader(src, e.Offset, size)
	n, err := copyPayloadBounded(dst, sr, size, copyBuf)
	if err != nil {
		return fmt.Errorf("%w: copy entry %s: %w", ErrIO, e.Name, err)
	}

	if n != size {
		return fmt.Errorf("%w: copy entry %s: short read (%d/%d)", ErrIO, e.Name, n, size)
	}

	return nil
}

// acquireWriter returns a buffered writer and release callback.
func acquireWriter(out io.Writer, size int) (*bufio.Writer, func()) {
	if size == DefaultWriteBuffer {
		w := defaultWriterPool.Get().(*bufio.Writer) //nolint:forcetypeassert // pool contains only *bufio.Writer
		w.Reset(out)

		return w, func() {
			w.Reset(io.Discard)
			defaultWriterPool.Put(w)
		}
	}

	return bufio.NewWriterSize(out, size), func() {}
}

// acquireCopyBuffer returns reusable payload copy buffer and release callback.
func acquireCopyBuffer() ([]byte, func()) {
	arr := copyBufferPool.Get().(*[copyBufferSize]byte) //nolint:forcetypeassert // pool contains only fixed-size buffers
	return arr[:], func() {
		copyBufferPool.Put(arr)
	}
}

// copyPayloadBounded streams payload from src to dst and enforces strict size limit.
func copyPayloadBounded(dst io.Writer, src io.Reader, limit int64, buf []byte) (int64, error) {
	if dst == nil {
		return 0, ErrNilWriter
	}
	if src == nil {
		return 0, ErrNilReader
	}
	if limit < 0 {
		return 0, ErrSizeOverflow
	}
	if len(buf) == 0 {
		buf = make([]byte, 32*1024)
	}

	var written int64
	emptyReads := 0
	for written < limit {
		chunk := buf
		if remaining := limit - written; int64(len(chunk)) > remaining {
			chunk = chunk[:remaining]
		}

		n, readErr := src.Read(chunk)
		if n > 0 {
			emptyReads = 0
			nw, writeErr := dst.Write(chunk[:n])
			written += int64(nw)

			if writeErr != nil {
				return written, writeErr
			}
			if nw != n {
				return written, io.ErrShortWrite
			}
		}

		if n == 0 && readErr == nil {
			emptyReads++
			if emptyReads > 100 {
				return written, io.ErrNoProgress
			}

			continue
		}

		if readErr != nil {
			if readErr == io.EOF {
				break
			}

			return written, readErr
		}
	}

	// Source must not be longer than the recorded size.
	if written == limit {
		var probe [1]byte
		n, err := src.Read(probe[:])
		if n > 0 {
			return written, ErrSizeOverflow
		}
		if err != nil && err != io.EOF {
			return written, err
		}
	}

	return written, nil
}

// checkedDataSize validates entry size for the uint32 directory field.
func checkedDataSize(name string, size int64) (uint32, error) {
	if size < 0 || size > maxPayloadSize {
		return 0, fmt.Errorf("%w: entry %s size %d is out of uint32 range", ErrSizeOverflow, name, size)
	}

	return uint32(size), nil
}
