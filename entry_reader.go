// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"bytes"
	"fmt"
	"io"
)

// FileData is one entry payload resolved for display. Raw is always set;
// exactly one of Text, Image or Palette is set when Kind decodes. A payload
// that does not decode as its Kind keeps Raw and reports why in DecodeErr.
type FileData struct {
	// DecodeErr is the decode failure for Kind, nil when decoding succeeded.
	DecodeErr error `json:"-" yaml:"-"`
	// Image is decoded image for KindImage entries.
	Image *Image `json:"-" yaml:"-"`
	// Palette is decoded palette for KindPalette entries.
	Palette *Palette `json:"-" yaml:"-"`
	// Text is UTF-8 text for KindText entries.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	// Raw is the payload as stored.
	Raw []byte `json:"-" yaml:"-"`
	// Entry is the resolved entry, or InvalidEntry on a miss.
	Entry Entry `json:"entry" yaml:"entry"`
	// Kind is payload classification used for decoding.
	Kind Kind `json:"kind" yaml:"kind"`
}

// limitedReadCloser caps reads from a staged source at the recorded size.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}

// nopCloser wraps a reader and provides a no-op close.
type nopCloser struct {
	io.Reader
}

// Close closes nopCloser (no-op).
func (nopCloser) Close() error {
	return nil
}

// FileData reads and decodes the payload of the entry named like entry.
// Pending replacement bytes are returned for new and updated entries. A
// miss returns InvalidEntry with no data and no error. The error return is
// reserved for read failures; decode failures land in FileData.DecodeErr.
func (a *Archive) FileData(entry Entry) (*FileData, error) {
	if !a.IsOpen() {
		return nil, ErrNotOpen
	}

	e := a.Lookup(entry.Name)
	if !entry.Valid() || !e.Valid() {
		return &FileData{Entry: InvalidEntry()}, nil
	}

	raw, err := a.readPayload(e)
	if err != nil {
		return nil, err
	}

	fd := &FileData{Entry: e, Kind: e.Kind(), Raw: raw}
	if err := a.decodeFileData(fd); err != nil {
		fd.DecodeErr = fmt.Errorf("decode %s: %w", e.Name, err)
		a.opts.Logger.Debug("entry kept raw", "name", e.Name, "error", err)
	}

	return fd, nil
}

// decodeFileData fills the kind-specific view of fd.
func (a *Archive) decodeFileData(fd *FileData) error {
	switch fd.Kind {
	case KindImage:
		img, err := a.decodeImageEntry(fd.Entry, fd.Raw)
		if err != nil {
			return err
		}

		fd.Image = img
	case KindText:
		text, err := DecodeText(fd.Raw)
		if err != nil {
			return err
		}

		fd.Text = text
	case KindPalette:
		p, err := DecodeCOL(fd.Raw)
		if err != nil {
			return err
		}

		fd.Palette = &p
	}

	return nil
}

// decodeImageEntry decodes headered or raw image payload of e.
func (a *Archive) decodeImageEntry(e Entry, raw []byte) (*Image, error) {
	if e.Flags&FlagRawImage == 0 {
		return DecodeImage(raw, a.opts.Palette)
	}

	width, height, ok := a.opts.RawImageSize(e, len(raw))
	if !ok {
		return nil, fmt.Errorf("%w: no geometry for raw image of %d bytes", ErrUnsupportedFormat, len(raw))
	}

	return NewRawImage(raw, width, height, *a.opts.Palette)
}

// Image decodes the image entry called name.
func (a *Archive) Image(name string) (*Image, error) {
	raw, err := a.ReadEntry(name)
	if err != nil {
		return nil, err
	}

	return a.decodeImageEntry(a.Lookup(name), raw)
}

// OpenEntry opens payload stream of the entry called name.
func (a *Archive) OpenEntry(name string) (io.ReadCloser, error) {
	if !a.IsOpen() {
		return nil, ErrNotOpen
	}

	e := a.Lookup(name)
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	return a.openPayload(e)
}

// ReadEntry reads full payload of the entry called name.
func (a *Archive) ReadEntry(name string) ([]byte, error) {
	if !a.IsOpen() {
		return nil, ErrNotOpen
	}

	e := a.Lookup(name)
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	return a.readPayload(e)
}

// openPayload opens current payload bytes of e.
func (a *Archive) openPayload(e Entry) (io.ReadCloser, error) {
	if e.staged() {
		rc, err := openInput(*e.source)
		if err != nil {
			return nil, err
		}

		return limitedReadCloser{Reader: io.LimitReader(rc, int64(e.UpdateSize)), Closer: rc}, nil
	}

	if a.ra == nil {
		return nil, fmt.Errorf("%w: entry %s has no backing archive", ErrNilReader, e.Name)
	}

	return nopCloser{Reader: io.NewSectionReader(a.ra, e.Offset, int64(e.Size))}, nil
}

// readPayload reads current payload of e through bounded copy chunks.
func (a *Archive) readPayload(e Entry) ([]byte, error) {
	rc, err := a.openPayload(e)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	size := int64(e.CurrentSize())
	var buf bytes.Buffer
	buf.Grow(int(size))

	copyBuf, release := acquireCopyBuffer()
	defer release()

	n, err := io.CopyBuffer(&buf, rc, copyBuf)
	if err != nil {
		return nil, fmt.Errorf("%w: read entry %s: %w", ErrIO, e.Name, err)
	}

	if n != size {
		return nil, fmt.Errorf("%w: read entry %s: short read (%d/%d)", ErrIO, e.Name, n, size)
	}

	return buf.Bytes(), nil
}
