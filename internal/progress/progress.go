// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

// Package progress renders save and extract progress bars on terminals.
package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// descLength is width of the entry name column.
const descLength = 16

// Bar is a single progress bar. A disabled Bar ignores all calls, so
// callers never branch on terminal state. Methods are safe for concurrent use.
type Bar struct {
	container   *mpb.Progress
	bar         *mpb.Bar
	description string
	mu          sync.Mutex
	enabled     bool
}

// New creates a bar for total items written to stderr. The bar is disabled
// when enabled is false or stderr is not a terminal.
func New(total int, title string, enabled bool) *Bar {
	return NewWithOutput(os.Stderr, total, title, enabled && IsTerminal(os.Stderr))
}

// NewWithOutput creates a bar rendering to w when enabled is set.
func NewWithOutput(w io.Writer, total int, title string, enabled bool) *Bar {
	p := &Bar{enabled: enabled && total > 0}
	if !p.enabled {
		return p
	}

	p.container = mpb.New(
		mpb.WithOutput(w),
		mpb.WithWidth(48),
		mpb.WithRefreshRate(100*time.Millisecond),
	)

	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(title, decor.WC{C: decor.DindentRight}),
			decor.Any(func(decor.Statistics) string {
				return p.currentDescription()
			}, decor.WC{W: descLength, C: decor.DindentRight}),
			decor.CountersNoUnit("%d/%d", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)

	return p
}

// Enabled reports whether the bar renders anything.
func (p *Bar) Enabled() bool {
	return p != nil && p.enabled
}

// Increment advances the bar by one and shows description next to it.
func (p *Bar) Increment(description string) {
	if !p.Enabled() {
		return
	}

	p.mu.Lock()
	p.description = description
	p.mu.Unlock()

	p.bar.Increment()
}

// Finish completes the bar and waits for the final render.
func (p *Bar) Finish() {
	if !p.Enabled() {
		return
	}

	p.bar.SetTotal(-1, true)
	p.container.Wait()
}

// Abort drops the bar without completing it.
func (p *Bar) Abort() {
	if !p.Enabled() {
		return
	}

	p.bar.Abort(true)
	p.container.Wait()
}

// currentDescription returns the last description clipped to the column width.
func (p *Bar) currentDescription() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.description) > descLength {
		return p.description[:descLength-2] + ".."
	}

	return p.description
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits int on supported platforms
}
