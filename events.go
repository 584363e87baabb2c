// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

// EventKind identifies archive notification type.
type EventKind uint8

const (
	// EventFileListChanged is published after any change to the entry table.
	EventFileListChanged EventKind = iota + 1
	// EventStateChanged is published when an archive is opened or closed.
	EventStateChanged
)

// String returns a short event name.
func (k EventKind) String() string {
	switch k {
	case EventFileListChanged:
		return "file-list-changed"
	case EventStateChanged:
		return "state-changed"
	default:
		return "unknown"
	}
}

// Event is one archive notification.
type Event struct {
	// Path is archive file path, empty for unsaved archives.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Files is number of live entries after the change.
	Files int `json:"files" yaml:"files"`
	// Kind is notification type.
	Kind EventKind `json:"kind" yaml:"kind"`
	// State is archive state after the change.
	State State `json:"state" yaml:"state"`
}

// Opened reports whether a state change event announces an open archive.
func (e Event) Opened() bool {
	return e.Kind == EventStateChanged && e.State != StateClosed
}

// subscriber is one registered observer.
type subscriber struct {
	fn func(Event)
	id uint64
}

// Subscribe registers fn for archive notifications and returns a function
// that removes it. Callbacks run synchronously on the calling goroutine of
// the operation that changed the archive.
func (a *Archive) Subscribe(fn func(Event)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	a.obsMu.Lock()
	a.nextObserver++
	id := a.nextObserver
	a.observers = append(a.observers, subscriber{id: id, fn: fn})
	a.obsMu.Unlock()

	return func() {
		a.obsMu.Lock()
		defer a.obsMu.Unlock()

		for i := range a.observers {
			if a.observers[i].id == id {
				a.observers = append(a.observers[:i], a.observers[i+1:]...)
				return
			}
		}
	}
}

// emit delivers ev to a snapshot of current observers.
func (a *Archive) emit(ev Event) {
	a.obsMu.Lock()
	subs := make([]subscriber, len(a.observers))
	copy(subs, a.observers)
	a.obsMu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// changed publishes a file-list event for the current table.
func (a *Archive) changed() {
	a.emit(Event{Kind: EventFileListChanged, State: a.State(), Path: a.path, Files: a.FileNumber()})
}
