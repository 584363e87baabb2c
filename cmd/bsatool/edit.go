// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/woozymasta/bsa"
	"github.com/woozymasta/bsa/internal/progress"
)

var (
	editAdd     []string
	editReplace []string
	editRename  []string
	editDelete  []string
	editRestore []string
	editOutput  string
)

var newCmd = &cobra.Command{
	Use:   "new ARCHIVE FILE...",
	Short: "Create an archive from files",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		opts, err := archiveOptions()
		if err != nil {
			return err
		}

		a := bsa.New(opts)
		err = a.Create()
		a.Report(bsa.OpCreate, err).Log(ctx, slog.Default())
		if err != nil {
			return err
		}
		defer closeArchive(ctx, a)

		for _, path := range args[1:] {
			_, err := a.AddFile(path)
			if err != nil {
				a.Report(bsa.OpAdd, err).Log(ctx, slog.Default())
				return err
			}
		}

		return saveArchive(ctx, a, args[0])
	},
}

var editCmd = &cobra.Command{
	Use:   "edit ARCHIVE",
	Short: "Apply edits to an archive and save it",
	Long: `edit applies all requested changes in memory and writes the archive once.

Changes run in this order: delete, restore, rename, replace, add.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := openArchive(ctx, args[0])
		if err != nil {
			return err
		}
		defer closeArchive(ctx, a)

		if err := applyEdits(ctx, a); err != nil {
			return err
		}

		if !a.IsModified() && editOutput == "" {
			slog.Info("No changes to save")
			return nil
		}

		return saveArchive(ctx, a, editOutput)
	},
}

// applyEdits runs flag-requested mutations against a.
func applyEdits(ctx context.Context, a *bsa.Archive) error {
	step := func(op bsa.Operation, err error) error {
		if err != nil {
			a.Report(op, err).Log(ctx, slog.Default())
		}

		return err
	}

	for _, name := range editDelete {
		if _, err := a.Delete(name); step(bsa.OpDelete, err) != nil {
			return err
		}
	}

	for _, name := range editRestore {
		if _, err := a.Restore(name); step(bsa.OpRestore, err) != nil {
			return err
		}
	}

	for _, pair := range editRename {
		from, to, err := splitPair(pair)
		if err != nil {
			return err
		}

		if _, err := a.Rename(from, to); step(bsa.OpRename, err) != nil {
			return err
		}
	}

	for _, pair := range editReplace {
		name, path, err := splitPair(pair)
		if err != nil {
			return err
		}

		if _, err := a.ReplaceFile(name, path); step(bsa.OpReplace, err) != nil {
			return err
		}
	}

	for _, path := range editAdd {
		if _, err := a.AddFile(path); step(bsa.OpAdd, err) != nil {
			return err
		}
	}

	return nil
}

// saveArchive saves a to path with a progress bar and logs the status line.
func saveArchive(ctx context.Context, a *bsa.Archive, path string) error {
	unsubscribe := a.Subscribe(func(ev bsa.Event) {
		slog.Debug("Archive event", "kind", ev.Kind.String(), "state", ev.State.String(), "files", ev.Files)
	})
	defer unsubscribe()

	saveBar = progress.New(a.FileNumber(), "save", cfg.Progress)
	defer func() { saveBar = nil }()

	res, err := a.Save(path)
	if err != nil {
		saveBar.Abort()
	} else {
		saveBar.Finish()
	}

	a.Report(bsa.OpSave, err).Log(ctx, slog.Default())
	if err != nil {
		return err
	}

	slog.Info("Archive written",
		"entries", res.WrittenEntries,
		"dropped", res.DroppedEntries,
		"bytes", res.IndexSize+res.DataSize,
		"duration", res.Duration)

	return nil
}

// splitPair splits "LEFT=RIGHT" flag values.
func splitPair(pair string) (string, string, error) {
	left, right, ok := strings.Cut(pair, "=")
	if !ok || left == "" || right == "" {
		return "", "", fmt.Errorf("expected NAME=VALUE, got %q", pair)
	}

	return left, right, nil
}

func init() {
	editCmd.Flags().StringSliceVar(&editAdd, "add", nil, "files to add")
	editCmd.Flags().StringArrayVar(&editReplace, "replace", nil, "NAME=FILE replacement")
	editCmd.Flags().StringArrayVar(&editRename, "rename", nil, "OLD=NEW rename")
	editCmd.Flags().StringSliceVar(&editDelete, "delete", nil, "entry names to delete")
	editCmd.Flags().StringSliceVar(&editRestore, "restore", nil, "deleted entry names to restore")
	editCmd.Flags().StringVarP(&editOutput, "output", "o", "", "write to this path instead of overwriting the archive")
	rootCmd.AddCommand(newCmd, editCmd)
}
