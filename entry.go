// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import "strings"

// InvalidName is the name carried by the not-found sentinel entry.
const InvalidName = "INVALID"

// Entry describes one logical file inside the archive.
//
// Entries are values: archive methods return copies, and setters on a copy
// never touch archive state. Changes are committed only through Archive.Save.
type Entry struct {
	// source provides pending replacement or new payload bytes.
	source *Input
	// Name is entry file name as stored in directory.
	Name string `json:"name" yaml:"name"`
	// originalName is the on-disk name before a pending rename.
	originalName string
	// UpdatePath is source of replacement bytes for Updated entries.
	UpdatePath string `json:"update_path,omitempty" yaml:"update_path,omitempty"`
	// NewPath is source of payload bytes for IsNew entries.
	NewPath string `json:"new_path,omitempty" yaml:"new_path,omitempty"`
	// Offset is byte offset of payload within the source archive.
	Offset int64 `json:"offset" yaml:"offset"`
	// Size is on-disk payload length in bytes.
	Size uint32 `json:"size" yaml:"size"`
	// UpdateSize is payload length of pending replacement or new bytes.
	UpdateSize uint32 `json:"update_size,omitempty" yaml:"update_size,omitempty"`
	// Index is directory slot used for deterministic ordering.
	Index uint16 `json:"index" yaml:"index"`
	// Flags is the directory record flag word.
	Flags EntryFlags `json:"flags,omitempty" yaml:"flags,omitempty"`
	// IsNew reports that the entry has no on-disk counterpart yet.
	IsNew bool `json:"is_new,omitempty" yaml:"is_new,omitempty"`
	// ToDelete reports that the entry is dropped on next save.
	ToDelete bool `json:"to_delete,omitempty" yaml:"to_delete,omitempty"`
	// Updated reports that the payload is replaced by external content on next save.
	Updated bool `json:"updated,omitempty" yaml:"updated,omitempty"`
	// invalid marks the not-found sentinel.
	invalid bool
}

// InvalidEntry returns the sentinel that represents "not found".
func InvalidEntry() Entry {
	return Entry{Name: InvalidName, invalid: true}
}

// NewEntry builds an on-disk entry value.
func NewEntry(size uint32, offset int64, name string, index uint16) Entry {
	return Entry{Size: size, Offset: offset, Name: name, Index: index}
}

// Valid reports whether entry is not the not-found sentinel.
func (e Entry) Valid() bool {
	return !e.invalid
}

// Equal reports whether both entries address the same logical file.
// Entries are name-addressed; the sentinel never equals a real entry.
func (e Entry) Equal(other Entry) bool {
	if e.invalid != other.invalid {
		return false
	}

	return e.Name == other.Name
}

// Extension returns the text after the last dot of the name, or "" when the
// name has no dot or ends with one.
func (e Entry) Extension() string {
	dot := strings.LastIndexByte(e.Name, '.')
	if dot < 0 || dot == len(e.Name)-1 {
		return ""
	}

	return e.Name[dot+1:]
}

// Kind classifies payload by extension.
func (e Entry) Kind() Kind {
	return kindByExtension(e.Extension())
}

// Live reports whether entry survives next save.
func (e Entry) Live() bool {
	return !e.ToDelete
}

// Dirty reports whether entry carries any unsaved change.
func (e Entry) Dirty() bool {
	return e.IsNew || e.ToDelete || e.Updated || e.Renamed()
}

// Renamed reports whether an on-disk entry has a pending rename.
func (e Entry) Renamed() bool {
	return e.originalName != "" && e.originalName != e.Name
}

// OriginalName returns the on-disk name, or current name when not renamed.
func (e Entry) OriginalName() string {
	if e.originalName == "" {
		return e.Name
	}

	return e.originalName
}

// CurrentSize returns payload length that next save writes.
func (e Entry) CurrentSize() uint32 {
	if e.IsNew || e.Updated {
		return e.UpdateSize
	}

	return e.Size
}

// SourcePath returns path of staged payload bytes, or "" for on-disk payload.
func (e Entry) SourcePath() string {
	switch {
	case e.IsNew:
		return e.NewPath
	case e.Updated:
		return e.UpdatePath
	default:
		return ""
	}
}

// staged reports whether payload comes from a staged input instead of archive.
func (e Entry) staged() bool {
	return (e.IsNew || e.Updated) && e.source != nil
}

// kindByExtension maps a name extension to payload kind.
func kindByExtension(ext string) Kind {
	switch strings.ToUpper(ext) {
	case "IMG":
		return KindImage
	case "COL":
		return KindPalette
	case "TXT", "INF", "INI", "CFG", "LOG":
		return KindText
	default:
		return KindBinary
	}
}
