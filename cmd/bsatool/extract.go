// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/woozymasta/bsa"
	"github.com/woozymasta/bsa/internal/progress"
)

var (
	extractPNG       bool
	extractOverwrite bool
)

var extractCmd = &cobra.Command{
	Use:   "extract ARCHIVE DIR",
	Short: "Extract entries to a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := openArchive(ctx, args[0])
		if err != nil {
			return err
		}
		defer closeArchive(ctx, a)

		rules := selectRules()
		selected, err := a.Select(rules)
		if err != nil {
			return err
		}

		bar := progress.New(len(selected), "extract", cfg.Progress)
		n, err := a.Extract(ctx, args[1], bsa.ExtractOptions{
			Rules:       rules,
			MaxWorkers:  cfg.Workers,
			ImagesAsPNG: extractPNG,
			Overwrite:   extractOverwrite,
			OnEntryDone: func(e bsa.Entry, written int64, outputPath string) {
				bar.Increment(e.Name)
				slog.Debug("extracted", "name", e.Name, "bytes", written, "path", outputPath)
			},
		})
		if err != nil {
			bar.Abort()
		} else {
			bar.Finish()
		}

		a.Report(bsa.OpExtract, err).Log(ctx, slog.Default())
		if err != nil {
			return err
		}

		slog.Info("Extraction finished", "files", n, "dir", args[1])
		return nil
	},
}

func init() {
	addSelectFlags(extractCmd)
	extractCmd.Flags().BoolVar(&extractPNG, "png", false, "convert images to PNG")
	extractCmd.Flags().BoolVar(&extractOverwrite, "overwrite", false, "overwrite existing files")
	rootCmd.AddCommand(extractCmd)
}
