// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"io"
	"log/slog"
	"time"

	"github.com/woozymasta/pathrules"
)

// Internal binary layout and format limits.
const (
	headerSize     = 8      // magic(4) + version(2) + count(2)
	dirRecordSize  = 32     // name(16) + index(2) + flags(2) + size(4) + offset(8)
	nameFieldSize  = 16     // NUL-padded name field in directory record
	maxNameLen     = 15     // name bytes, leaving room for the NUL terminator
	maxEntryCount  = 0xffff // entry count is a uint16
	formatVersion  = 1      // only supported directory layout version
	maxPayloadSize = 1<<32 - 1
)

// magic opens every BSA archive.
var magic = [4]byte{'B', 'S', 'A', 0x1a}

// Default tuning values.
const (
	DefaultWriteBuffer = 4 * 1024 * 1024
)

// EntryFlags is the 16-bit flag word stored in each directory record.
type EntryFlags uint16

// Directory record flags.
const (
	// FlagRawImage marks an image entry stored without the 12-byte image header.
	FlagRawImage EntryFlags = 0x0001
)

// Kind classifies entry payloads for display collaborators.
type Kind uint8

// Payload kinds resolved from entry extensions.
const (
	KindBinary Kind = iota
	KindImage
	KindText
	KindPalette
)

// String returns a lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindText:
		return "text"
	case KindPalette:
		return "palette"
	default:
		return "binary"
	}
}

// Header is the fixed archive header.
type Header struct {
	// Version is the directory layout version.
	Version uint16 `json:"version" yaml:"version"`
	// Count is number of directory records.
	Count uint16 `json:"count" yaml:"count"`
}

// Input describes one source stream staged into an archive entry.
type Input struct {
	// Open returns source stream; when nil the file at Path is opened.
	Open func() (io.ReadCloser, error) `json:"-" yaml:"-"`
	// Name is destination entry name inside the archive.
	Name string `json:"name" yaml:"name"`
	// Path is source file path on disk (optional when Open is set).
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// SizeHint is expected size in bytes (zero when unknown).
	SizeHint int64 `json:"size_hint,omitempty" yaml:"size_hint,omitempty"`
	// Flags are written to the directory record of a new entry.
	Flags EntryFlags `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// SaveProgress contains one completed entry write event from save flow.
type SaveProgress struct {
	// Name is entry name written to archive.
	Name string `json:"name" yaml:"name"`
	// Offset is payload offset in resulting archive.
	Offset int64 `json:"offset" yaml:"offset"`
	// Size is written payload size in bytes.
	Size uint32 `json:"size" yaml:"size"`
	// Index is the entry slot in resulting directory.
	Index uint16 `json:"index" yaml:"index"`
	// Total is number of entries being written.
	Total int `json:"total" yaml:"total"`
}

// SaveResult contains save output statistics.
type SaveResult struct {
	// WrittenEntries is number of entries written to archive.
	WrittenEntries int `json:"written_entries" yaml:"written_entries"`
	// DroppedEntries is number of entries removed because they were marked for delete.
	DroppedEntries int `json:"dropped_entries,omitempty" yaml:"dropped_entries,omitempty"`
	// DataSize is total payload bytes written.
	DataSize int64 `json:"data_size" yaml:"data_size"`
	// IndexSize is header plus directory bytes written.
	IndexSize int64 `json:"index_size" yaml:"index_size"`
	// CopiedBytes is payload copied through from the source archive.
	CopiedBytes int64 `json:"copied_bytes,omitempty" yaml:"copied_bytes,omitempty"`
	// StagedBytes is payload read from staged inputs.
	StagedBytes int64 `json:"staged_bytes,omitempty" yaml:"staged_bytes,omitempty"`
	// Duration is end-to-end save duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// RawImageSizer resolves dimensions of an image entry stored without header.
type RawImageSizer func(entry Entry, dataLen int) (width uint16, height uint16, ok bool)

// Options configures archive behavior.
type Options struct {
	// Logger receives debug records for open/save/extract; nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// OnEntryDone is called after one entry payload is written during save.
	OnEntryDone func(SaveProgress) `json:"-" yaml:"-"`
	// RawImageSize resolves dimensions for FlagRawImage entries; nil uses DefaultRawImageSize.
	RawImageSize RawImageSizer `json:"-" yaml:"-"`
	// Palette is used for images without an in-stream palette; nil uses a grayscale ramp.
	Palette *Palette `json:"-" yaml:"-"`
	// WriterBufferSize is buffered writer size in bytes.
	WriterBufferSize int `json:"writer_buffer_size,omitempty" yaml:"writer_buffer_size,omitempty"`
	// BackupKeep controls how many backup generations of an overwritten archive are kept.
	// 0 keeps none, 1 keeps `<archive>.bak`, N keeps `.bak` + `.bak.1..N-1`.
	BackupKeep int `json:"backup_keep,omitempty" yaml:"backup_keep,omitempty"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is fully written to disk.
	OnEntryDone func(entry Entry, written int64, outputPath string) `json:"-" yaml:"-"`
	// Rules limits extraction to matching entry names; empty means all live entries.
	Rules []pathrules.Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
	// MaxWorkers is number of extraction workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	// ImagesAsPNG writes decodable image entries as PNG files instead of raw payload.
	ImagesAsPNG bool `json:"images_as_png,omitempty" yaml:"images_as_png,omitempty"`
	// Overwrite allows replacing existing output files.
	Overwrite bool `json:"overwrite,omitempty" yaml:"overwrite,omitempty"`
}

// applyDefaults fills zero-valued archive options with defaults.
func (opts *Options) applyDefaults() {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if opts.WriterBufferSize < 4096 {
		opts.WriterBufferSize = DefaultWriteBuffer
	}

	if opts.RawImageSize == nil {
		opts.RawImageSize = DefaultRawImageSize
	}

	if opts.Palette == nil {
		p := GrayscalePalette()
		opts.Palette = &p
	}

	if opts.BackupKeep < 0 {
		opts.BackupKeep = 0
	}
}
