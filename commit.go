// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes all live entries to path, or to the current archive path when
// path is empty. Entries marked for delete are dropped, the rest get
// contiguous indices and packed offsets in index order. The archive is
// written to a temp file and renamed into place; on success the saved file
// becomes the backing storage and dirty flags are cleared. On failure
// in-memory state is left unchanged.
func (a *Archive) Save(path string) (*SaveResult, error) {
	if !a.IsOpen() {
		return nil, ErrNotOpen
	}

	target := path
	if target == "" {
		target = a.path
	}

	if target == "" {
		return nil, fmt.Errorf("%w: no target path for unsaved archive", ErrIO)
	}

	target, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve target path: %w", ErrIO, err)
	}

	plan, dropped := a.savePlan()

	var (
		res     *SaveResult
		written []Entry
	)
	tmpPath, err := writeTemp(target, func(f *os.File) error {
		var writeErr error
		res, written, writeErr = writeArchive(context.Background(), f, a.ra, plan, a.opts)
		return writeErr
	})
	if err != nil {
		a.opts.Logger.Debug("save failed", "path", target, "error", err)
		return nil, err
	}

	// The source handle must be released before the file under it is replaced.
	overwriting := a.file != nil && sameFile(a.path, target)
	if overwriting {
		_ = a.file.Close()
		a.file = nil
	}

	if err := installFile(tmpPath, target, a.opts.BackupKeep); err != nil {
		if overwriting {
			a.reopenBacking()
		}

		return nil, err
	}

	f, size, err := openBacking(target)
	if err != nil {
		// Saved bytes are on disk but cannot back this archive anymore.
		a.reset()
		a.emit(Event{Kind: EventStateChanged, State: StateClosed})
		return nil, err
	}

	if a.file != nil {
		_ = a.file.Close()
	}

	a.file = f
	a.ra = f
	a.size = size
	a.path = target
	a.entries = written

	res.DroppedEntries = dropped
	a.opts.Logger.Debug("archive saved",
		"path", target,
		"entries", res.WrittenEntries,
		"dropped", dropped,
		"bytes", size)

	a.emit(Event{Kind: EventFileListChanged, State: a.State(), Path: target, Files: len(written)})

	return res, nil
}

// savePlan returns live entries in index order and number of dropped entries.
func (a *Archive) savePlan() ([]Entry, int) {
	plan := make([]Entry, 0, len(a.entries))
	dropped := 0
	for i := range a.entries {
		if a.entries[i].ToDelete {
			dropped++
			continue
		}

		plan = append(plan, a.entries[i])
	}

	return sortedByIndex(plan), dropped
}

// reopenBacking restores the source handle after a failed replace.
func (a *Archive) reopenBacking() {
	f, size, err := openBacking(a.path)
	if err != nil {
		a.opts.Logger.Debug("reopen source failed", "path", a.path, "error", err)
		a.ra = nil
		return
	}

	a.file = f
	a.ra = f
	a.size = size
}

// writeFileAtomic writes target through a temp file in the same directory.
func writeFileAtomic(target string, fn func(*os.File) error) error {
	tmpPath, err := writeTemp(target, fn)
	if err != nil {
		return err
	}

	return installFile(tmpPath, target, 0)
}

// writeTemp creates a temp file next to target, fills it with fn, then syncs
// and closes it. The temp file is removed on any failure.
func writeTemp(target string, fn func(*os.File) error) (string, error) {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+"-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", ErrIO, err)
	}
	tmpPath := tmp.Name()

	if err := fn(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: sync temp file: %w", ErrIO, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: close temp file: %w", ErrIO, err)
	}

	return tmpPath, nil
}

// installFile renames tmpPath to target. When keep > 0 and target exists,
// the previous file is rotated into `<target>.bak` generations first.
func installFile(tmpPath string, target string, keep int) error {
	if keep > 0 {
		if _, err := os.Stat(target); err == nil {
			return installWithBackup(tmpPath, target, keep)
		}
	}

	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: rename temp file: %w", ErrIO, err)
	}

	return nil
}

// installWithBackup moves target to backup and tmpPath to target, rolling
// back when the second rename fails.
func installWithBackup(tmpPath string, target string, keep int) error {
	backupPath := target + ".bak"
	if err := prepareBackupSlot(backupPath, keep); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	if err := os.Rename(target, backupPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: move archive to backup: %w", ErrIO, err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		if rollbackErr := rollbackFromBackup(target, backupPath); rollbackErr != nil {
			return fmt.Errorf("%w: rename temp file: %w (rollback failed: %w)", ErrIO, err, rollbackErr)
		}

		return fmt.Errorf("%w: rename temp file: %w", ErrIO, err)
	}

	return nil
}

// prepareBackupSlot rotates/removes existing backup generations before new save.
func prepareBackupSlot(backupPath string, keep int) error {
	if keep <= 1 {
		return removeIfExists(backupPath)
	}

	oldest := fmt.Sprintf("%s.%d", backupPath, keep-1)
	if err := removeIfExists(oldest); err != nil {
		return err
	}

	for i := keep - 2; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", backupPath, i)
		to := fmt.Sprintf("%s.%d", backupPath, i+1)
		if err := renameIfExists(from, to); err != nil {
			return err
		}
	}

	return renameIfExists(backupPath, backupPath+".1")
}

// renameIfExists renames source to destination when source exists.
func renameIfExists(from string, to string) error {
	_, err := os.Stat(from)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", from, err)
	}

	if err := removeIfExists(to); err != nil {
		return err
	}

	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("rename %s to %s: %w", from, to, err)
	}

	return nil
}

// removeIfExists removes file when present.
func removeIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) || err == nil {
		return nil
	}

	return fmt.Errorf("remove %s: %w", path, err)
}

// rollbackFromBackup restores backup on failed save.
func rollbackFromBackup(path string, backupPath string) error {
	_ = os.Remove(path)

	if err := os.Rename(backupPath, path); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}

	return nil
}

// sameFile reports whether both paths name the same file.
func sameFile(a string, b string) bool {
	if a == "" || b == "" {
		return false
	}

	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}

	ai, errA := os.Stat(a)
	bi, errB := os.Stat(b)
	if errA != nil || errB != nil {
		return false
	}

	return os.SameFile(ai, bi)
}
