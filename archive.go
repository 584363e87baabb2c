// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// State is archive lifecycle state.
type State uint8

const (
	// StateClosed means no archive is loaded.
	StateClosed State = iota
	// StateOpening means header and directory are being read.
	StateOpening
	// StateOpen means the table matches backing storage.
	StateOpen
	// StateModified means the table carries unsaved changes.
	StateModified
	// StateClosing means the archive is releasing its resources.
	StateClosing
)

// String returns a lower-case state name.
func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateModified:
		return "modified"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// Archive is an in-memory view of one BSA archive: a lazily loaded entry
// table over a backing file plus pending edits applied on Save.
//
// Archive methods are not safe for concurrent use; the caller serializes
// calls. Subscribe may be called from any goroutine.
type Archive struct {
	// ra is random-access backing storage; nil for new unsaved archives.
	ra io.ReaderAt
	// file is set when Archive owns the backing *os.File.
	file *os.File
	// path is absolute path of backing file.
	path string
	// entries is entry table in on-disk order followed by staged entries.
	entries []Entry
	// observers are notification callbacks.
	observers []subscriber
	// opts are effective options.
	opts Options
	// size is backing storage size in bytes.
	size int64
	// nextObserver is last issued observer id.
	nextObserver uint64
	// obsMu guards observers.
	obsMu sync.Mutex
	// state is lifecycle state; Modified is derived on read.
	state State
}

// New returns a closed archive configured with opts. The zero Archive is
// usable with default options.
func New(opts Options) *Archive {
	opts.applyDefaults()
	return &Archive{opts: opts}
}

// Create starts a new empty archive with no backing file.
func (a *Archive) Create() error {
	if a.state != StateClosed {
		return ErrAlreadyOpen
	}

	a.opts.applyDefaults()
	a.entries = make([]Entry, 0, 16)
	a.state = StateOpen
	a.opts.Logger.Debug("archive created")

	a.emit(Event{Kind: EventStateChanged, State: StateOpen})
	a.changed()

	return nil
}

// Open reads header and directory of the archive at path. Payloads are not
// loaded. Any failure leaves the archive closed.
func (a *Archive) Open(path string) error {
	if a.state != StateClosed {
		return ErrAlreadyOpen
	}

	a.opts.applyDefaults()
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: resolve path: %w", ErrIO, err)
	}

	a.state = StateOpening
	f, size, err := openBacking(abs)
	if err != nil {
		a.state = StateClosed
		return err
	}

	if err := a.load(f, size); err != nil {
		_ = f.Close()
		a.reset()
		return err
	}

	a.file = f
	a.path = abs
	a.opts.Logger.Debug("archive opened", "path", abs, "entries", len(a.entries), "bytes", size)

	a.emit(Event{Kind: EventStateChanged, State: StateOpen, Path: abs, Files: len(a.entries)})
	a.changed()

	return nil
}

// OpenReaderAt reads an archive held in ra. The archive has no path, so
// Save requires an explicit target.
func (a *Archive) OpenReaderAt(ra io.ReaderAt, size int64) error {
	if a.state != StateClosed {
		return ErrAlreadyOpen
	}

	if ra == nil {
		return ErrNilReader
	}

	a.opts.applyDefaults()
	a.state = StateOpening
	if err := a.load(ra, size); err != nil {
		a.reset()
		return err
	}

	a.opts.Logger.Debug("archive opened from reader", "entries", len(a.entries), "bytes", size)

	a.emit(Event{Kind: EventStateChanged, State: StateOpen, Files: len(a.entries)})
	a.changed()

	return nil
}

// load parses ra and installs the table.
func (a *Archive) load(ra io.ReaderAt, size int64) error {
	dir, err := parseDirectory(ra, size)
	if err != nil {
		return err
	}

	a.ra = ra
	a.size = size
	a.entries = dir.entries
	a.state = StateOpen

	return nil
}

// Close discards entries and pending changes and releases backing storage.
// Closing a closed archive is a no-op.
func (a *Archive) Close() error {
	if a.state == StateClosed {
		return nil
	}

	a.state = StateClosing
	var err error
	if a.file != nil {
		if cerr := a.file.Close(); cerr != nil {
			err = fmt.Errorf("%w: close archive: %w", ErrIO, cerr)
		}
	}

	path := a.path
	a.reset()
	a.opts.Logger.Debug("archive closed", "path", path)
	a.emit(Event{Kind: EventStateChanged, State: StateClosed, Path: path})

	return err
}

// reset drops all state without touching the backing file handle.
func (a *Archive) reset() {
	a.ra = nil
	a.file = nil
	a.path = ""
	a.size = 0
	a.entries = nil
	a.state = StateClosed
}

// State returns current lifecycle state.
func (a *Archive) State() State {
	if a.state == StateOpen && a.IsModified() {
		return StateModified
	}

	return a.state
}

// IsOpen reports whether archive accepts reads and mutations.
func (a *Archive) IsOpen() bool {
	return a.state == StateOpen
}

// Path returns absolute backing file path, or "" for unsaved archives.
func (a *Archive) Path() string {
	return a.path
}

// Size returns backing storage size in bytes.
func (a *Archive) Size() int64 {
	return a.size
}

// Options returns effective archive options.
func (a *Archive) Options() Options {
	return a.opts
}

// Add stages a new entry. The entry name comes from in.Name, or the base
// name of in.Path when Name is empty.
func (a *Archive) Add(in Input) (Entry, error) {
	if !a.IsOpen() {
		return InvalidEntry(), ErrNotOpen
	}

	e, err := stagedEntry(in)
	if err != nil {
		return InvalidEntry(), err
	}

	if a.liveIndex(e.Name) >= 0 {
		return InvalidEntry(), fmt.Errorf("%w: %q", ErrAlreadyExists, e.Name)
	}

	if a.FileNumber() >= maxEntryCount {
		return InvalidEntry(), fmt.Errorf("%w: archive holds at most %d entries", ErrSizeOverflow, maxEntryCount)
	}

	idx, err := a.nextIndex()
	if err != nil {
		return InvalidEntry(), err
	}

	e.Index = idx
	a.entries = append(a.entries, e)
	a.opts.Logger.Debug("entry added", "name", e.Name, "size", e.UpdateSize)
	a.changed()

	return e, nil
}

// AddFile stages the file at path under its base name.
func (a *Archive) AddFile(path string) (Entry, error) {
	return a.Add(Input{Path: path})
}

// Replace stages new payload bytes for the live entry called name.
func (a *Archive) Replace(name string, in Input) (Entry, error) {
	if !a.IsOpen() {
		return InvalidEntry(), ErrNotOpen
	}

	i := a.liveIndex(name)
	if i < 0 {
		return InvalidEntry(), fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	in.Name = name
	size, err := resolveInputSize(in)
	if err != nil {
		return InvalidEntry(), err
	}

	src := in
	e := &a.entries[i]
	e.source = &src
	e.UpdateSize = size
	if e.IsNew {
		e.NewPath = in.Path
	} else {
		e.Updated = true
		e.UpdatePath = in.Path
	}

	a.opts.Logger.Debug("entry replaced", "name", name, "size", size)
	a.changed()

	return *e, nil
}

// ReplaceFile stages the file at path as new content of name.
func (a *Archive) ReplaceFile(name string, path string) (Entry, error) {
	return a.Replace(name, Input{Path: path})
}

// Rename changes the name of a live entry.
func (a *Archive) Rename(oldName string, newName string) (Entry, error) {
	if !a.IsOpen() {
		return InvalidEntry(), ErrNotOpen
	}

	if err := ValidateName(newName); err != nil {
		return InvalidEntry(), err
	}

	i := a.liveIndex(oldName)
	if i < 0 {
		return InvalidEntry(), fmt.Errorf("%w: %q", ErrNotFound, oldName)
	}

	if oldName == newName {
		return a.entries[i], nil
	}

	if a.liveIndex(newName) >= 0 {
		return InvalidEntry(), fmt.Errorf("%w: %q", ErrAlreadyExists, newName)
	}

	e := &a.entries[i]
	if !e.IsNew && e.originalName == "" {
		e.originalName = e.Name
	}

	e.Name = newName
	if e.source != nil {
		e.source.Name = newName
	}

	a.opts.Logger.Debug("entry renamed", "from", oldName, "to", newName)
	a.changed()

	return *e, nil
}

// Delete marks the live entry called name for removal on next save. Its
// payload stays readable until then.
func (a *Archive) Delete(name string) (Entry, error) {
	if !a.IsOpen() {
		return InvalidEntry(), ErrNotOpen
	}

	i := a.liveIndex(name)
	if i < 0 {
		return InvalidEntry(), fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	a.entries[i].ToDelete = true
	a.opts.Logger.Debug("entry deleted", "name", name)
	a.changed()

	return a.entries[i], nil
}

// Restore clears a pending delete of name.
func (a *Archive) Restore(name string) (Entry, error) {
	if !a.IsOpen() {
		return InvalidEntry(), ErrNotOpen
	}

	if a.liveIndex(name) >= 0 {
		return InvalidEntry(), fmt.Errorf("%w: %q", ErrAlreadyExists, name)
	}

	i := a.deletedIndex(name)
	if i < 0 {
		return InvalidEntry(), fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	a.entries[i].ToDelete = false
	a.opts.Logger.Debug("entry restored", "name", name)
	a.changed()

	return a.entries[i], nil
}

// Lookup returns the entry called name, preferring a live entry over one
// marked for delete. A miss returns InvalidEntry.
func (a *Archive) Lookup(name string) Entry {
	if i := a.liveIndex(name); i >= 0 {
		return a.entries[i]
	}

	if i := a.deletedIndex(name); i >= 0 {
		return a.entries[i]
	}

	return InvalidEntry()
}

// Entries returns a copy of the table including entries marked for delete.
func (a *Archive) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// LiveEntries returns entries that survive next save.
func (a *Archive) LiveEntries() []Entry {
	out := make([]Entry, 0, len(a.entries))
	for i := range a.entries {
		if a.entries[i].Live() {
			out = append(out, a.entries[i])
		}
	}

	return out
}

// IsModified reports whether any entry carries an unsaved change.
func (a *Archive) IsModified() bool {
	for i := range a.entries {
		if a.entries[i].Dirty() {
			return true
		}
	}

	return false
}

// FileNumber returns number of live entries.
func (a *Archive) FileNumber() int {
	n := 0
	for i := range a.entries {
		if a.entries[i].Live() {
			n++
		}
	}

	return n
}

// ModifiedSize returns payload bytes of live entries, pending replacements
// counted at their new size.
func (a *Archive) ModifiedSize() int64 {
	var total int64
	for i := range a.entries {
		if a.entries[i].Live() {
			total += int64(a.entries[i].CurrentSize())
		}
	}

	return total
}

// liveIndex returns table position of the live entry called name, or -1.
func (a *Archive) liveIndex(name string) int {
	for i := range a.entries {
		if a.entries[i].Live() && a.entries[i].Name == name {
			return i
		}
	}

	return -1
}

// deletedIndex returns table position of the most recent entry called name
// that is marked for delete, or -1.
func (a *Archive) deletedIndex(name string) int {
	for i := len(a.entries) - 1; i >= 0; i-- {
		if a.entries[i].ToDelete && a.entries[i].Name == name {
			return i
		}
	}

	return -1
}

// nextIndex returns one past the largest index in use.
func (a *Archive) nextIndex() (uint16, error) {
	if len(a.entries) == 0 {
		return 0, nil
	}

	highest := 0
	for i := range a.entries {
		highest = max(highest, int(a.entries[i].Index))
	}

	if highest >= maxEntryCount-1 {
		return 0, fmt.Errorf("%w: no free entry index", ErrSizeOverflow)
	}

	return uint16(highest + 1), nil //nolint:gosec // bounded above
}
