// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"context"
	"fmt"
	"log/slog"
)

// Operation names an archive action reported through Status.
type Operation uint8

// Reported archive operations.
const (
	OpCreate Operation = iota + 1
	OpOpen
	OpSave
	OpClose
	OpAdd
	OpReplace
	OpRename
	OpDelete
	OpRestore
	OpExtract
)

// String returns a lower-case operation name.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpOpen:
		return "open"
	case OpSave:
		return "save"
	case OpClose:
		return "close"
	case OpAdd:
		return "add"
	case OpReplace:
		return "replace"
	case OpRename:
		return "rename"
	case OpDelete:
		return "delete"
	case OpRestore:
		return "restore"
	case OpExtract:
		return "extract"
	default:
		return "unknown"
	}
}

// Status is a human-readable outcome of one archive operation.
type Status struct {
	// Err is operation error, nil on success.
	Err error `json:"-" yaml:"-"`
	// Message is display text.
	Message string `json:"message" yaml:"message"`
	// Op is reported operation.
	Op Operation `json:"op" yaml:"op"`
}

// OK reports whether the operation succeeded.
func (s Status) OK() bool {
	return s.Err == nil
}

// Level returns slog level matching the outcome.
func (s Status) Level() slog.Level {
	if s.Err != nil {
		return slog.LevelError
	}

	return slog.LevelInfo
}

// String returns Message.
func (s Status) String() string {
	return s.Message
}

// Log writes status to logger at Info on success and Error on failure.
func (s Status) Log(ctx context.Context, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{"op", s.Op.String()}
	if s.Err != nil {
		attrs = append(attrs, "error", s.Err)
	}

	logger.Log(ctx, s.Level(), s.Message, attrs...)
}

// Report builds the status of op from current archive state and err.
func (a *Archive) Report(op Operation, err error) Status {
	st := Status{Op: op, Err: err}
	if err != nil {
		st.Message = fmt.Sprintf("Archive %s failed: %v", op, err)
		return st
	}

	switch op {
	case OpCreate:
		st.Message = fmt.Sprintf("Archive created. %d files, size: %d bytes", a.FileNumber(), a.ModifiedSize())
	case OpOpen:
		st.Message = fmt.Sprintf("Archive opened: %s. %d files, size: %d bytes", a.path, a.FileNumber(), a.ModifiedSize())
	case OpSave:
		st.Message = fmt.Sprintf("Archive saved to %s", a.path)
	case OpClose:
		st.Message = "Archive closed."
	case OpExtract:
		st.Message = fmt.Sprintf("Archive extracted. %d files", a.FileNumber())
	default:
		st.Message = fmt.Sprintf("Archive %s done. %d files, size: %d bytes", op, a.FileNumber(), a.ModifiedSize())
	}

	return st
}
