// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// pngSuffix is appended to image entries extracted as PNG.
const pngSuffix = ".png"

// extractWorkItem stores one selected entry with its output file names.
type extractWorkItem struct {
	outName string
	// rawName is used when PNG conversion fails; empty for non-images.
	rawName string
	entry   Entry
}

// Extract writes selected live entries to dstDir, one file per entry.
// Extraction runs on MaxWorkers goroutines; OnEntryDone may be called
// concurrently. On failure the first error is returned.
func (a *Archive) Extract(ctx context.Context, dstDir string, opts ExtractOptions) (int, error) {
	if !a.IsOpen() {
		return 0, ErrNotOpen
	}

	if ctx == nil {
		ctx = context.Background()
	}

	entries, err := a.Select(opts.Rules)
	if err != nil {
		return 0, err
	}

	if len(entries) == 0 {
		return 0, nil
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(max(workers, 1), len(entries))

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return 0, fmt.Errorf("%w: resolve output dir: %w", ErrIO, err)
	}

	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return 0, fmt.Errorf("%w: create output dir: %w", ErrIO, err)
	}

	var suffix func(Entry) string
	if opts.ImagesAsPNG {
		suffix = func(e Entry) string {
			if e.Kind() == KindImage {
				return pngSuffix
			}

			return ""
		}
	}

	names := sanitizeEntryNames(entries, suffix)
	rawNames := make([]string, len(names))
	if opts.ImagesAsPNG {
		images := make([]bool, len(entries))
		for i := range entries {
			images[i] = entries[i].Kind() == KindImage
		}

		rawNames = fallbackNames(names, images, pngSuffix)
	}

	items := make([]extractWorkItem, len(entries))
	for i := range entries {
		if _, err := normalizeExtractName(names[i]); err != nil {
			return 0, fmt.Errorf("%w: entry %s", err, entries[i].Name)
		}

		items[i] = extractWorkItem{entry: entries[i], outName: names[i], rawName: rawNames[i]}
	}

	taskCh := make(chan extractWorkItem)
	eg, ctx := errgroup.WithContext(ctx)

	for range workers {
		eg.Go(func() error {
			copyBuf, release := acquireCopyBuffer()
			defer release()

			for task := range taskCh {
				if err := a.extractEntry(ctx, dstRootAbs, task, opts, copyBuf); err != nil {
					return err
				}
			}

			return nil
		})
	}

	eg.Go(func() error {
		defer close(taskCh)
		for _, task := range items {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		return nil
	})

	if err := eg.Wait(); err != nil {
		a.opts.Logger.Debug("extract failed", "dir", dstRootAbs, "error", err)
		return 0, err
	}

	a.opts.Logger.Debug("archive extracted", "dir", dstRootAbs, "entries", len(items))

	return len(items), nil
}

// extractEntry writes one work item to destination root.
func (a *Archive) extractEntry(
	ctx context.Context,
	dstRootAbs string,
	task extractWorkItem,
	opts ExtractOptions,
	copyBuf []byte,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		src     io.Reader
		outName = task.outName
	)

	if task.rawName != "" {
		encoded, err := a.encodePNG(task.entry)
		if err != nil {
			// Undecodable images are extracted as stored.
			a.opts.Logger.Debug("png conversion skipped", "name", task.entry.Name, "error", err)
			outName = task.rawName
		} else {
			src = bytes.NewReader(encoded)
		}
	}

	if src == nil {
		rc, err := a.openPayload(task.entry)
		if err != nil {
			return err
		}
		defer func() { _ = rc.Close() }()

		src = rc
	}

	outPath := filepath.Join(dstRootAbs, outName)
	file, err := openExtractFile(outPath, opts.Overwrite)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, outPath)
		}

		return fmt.Errorf("%w: open %s: %w", ErrIO, outPath, err)
	}

	written, copyErr := io.CopyBuffer(onlyWriter{file}, src, copyBuf)
	closeErr := file.Close()
	if copyErr != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, task.entry.Name, copyErr)
	}

	if closeErr != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, task.entry.Name, closeErr)
	}

	if opts.OnEntryDone != nil {
		opts.OnEntryDone(task.entry, written, outPath)
	}

	return nil
}

// encodePNG decodes image entry e and encodes it as PNG.
func (a *Archive) encodePNG(e Entry) ([]byte, error) {
	raw, err := a.readPayload(e)
	if err != nil {
		return nil, err
	}

	img, err := a.decodeImageEntry(e, raw)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := img.WritePNG(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// onlyWriter hides io.ReaderFrom so CopyBuffer uses the worker buffer.
type onlyWriter struct {
	io.Writer
}

// openExtractFile creates output file, truncating an existing one only when overwrite is set.
func openExtractFile(path string, overwrite bool) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	return os.OpenFile(path, flags, 0o600)
}

// normalizeExtractName rejects output names that could escape the destination directory.
func normalizeExtractName(name string) (string, error) {
	raw := strings.TrimSpace(name)
	if raw == "" || raw == "." || raw == ".." {
		return "", ErrInvalidExtractPath
	}

	if strings.ContainsAny(raw, "/\\\x00") || filepath.IsAbs(raw) {
		return "", ErrInvalidExtractPath
	}

	return raw, nil
}
