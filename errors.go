// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import "errors"

// Sentinel errors for BSA operations. Use errors.Is in callers.
var (
	// ErrIO means the archive or a source file could not be read or written.
	ErrIO = errors.New("archive I/O failure")
	// ErrCorruptArchive means the header or directory fails structural validation.
	ErrCorruptArchive = errors.New("corrupt BSA archive")
	// ErrAlreadyOpen means an archive is already open in this instance.
	ErrAlreadyOpen = errors.New("archive already open")
	// ErrNotOpen means the operation requires an open archive.
	ErrNotOpen = errors.New("archive is not open")
	// ErrAlreadyExists means a live entry already carries the target name.
	ErrAlreadyExists = errors.New("entry already exists")
	// ErrNotFound means no live entry carries the requested name.
	ErrNotFound = errors.New("entry not found")
	// ErrUnsupportedFormat means a payload uses an unknown compression flag or layout.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrInvalidName means the entry name is empty, too long or contains forbidden bytes.
	ErrInvalidName = errors.New("invalid entry name")
	// ErrSizeOverflow means a size, offset or entry count exceeds the format limits.
	ErrSizeOverflow = errors.New("size exceeds BSA format limits")
	// ErrInvalidImage means an image payload is truncated or internally inconsistent.
	ErrInvalidImage = errors.New("invalid image payload")
	// ErrWindowSize means a window snapshot does not match the window capacity.
	ErrWindowSize = errors.New("window snapshot size mismatch")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrEmptyInputs means no inputs provided for pack.
	ErrEmptyInputs = errors.New("no inputs provided for pack")
	// ErrInvalidExtractPath means an entry name is unusable as an extraction file name.
	ErrInvalidExtractPath = errors.New("invalid extract path")
)
