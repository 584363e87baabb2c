// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

// Command bsatool inspects, extracts and edits BSA archives.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/woozymasta/pathrules"

	"github.com/woozymasta/bsa"
	"github.com/woozymasta/bsa/internal/config"
	"github.com/woozymasta/bsa/internal/progress"
)

var (
	cfg     *config.Config
	cfgFile string

	logLevel    string
	logFormat   string
	palettePath string
	workers     int
	backupKeep  int
	noProgress  bool

	includes []string
	excludes []string

	// saveBar receives per-entry save progress; nil outside of saves.
	saveBar *progress.Bar
)

var rootCmd = &cobra.Command{
	Use:   "bsatool",
	Short: "BSA archive inspection and editing tool",
	Long: `bsatool lists, extracts, creates and edits BSA archives.

Edits are applied to a temp copy and renamed over the target only after
the whole archive was written, so an interrupted run never leaves a
half-written archive behind.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}
		if cmd.Flags().Changed("palette") {
			cfg.Palette = palettePath
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = workers
		}
		if cmd.Flags().Changed("backup-keep") {
			cfg.BackupKeep = backupKeep
		}
		if noProgress {
			cfg.Progress = false
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		level, _ := config.ParseLevel(cfg.LogLevel)

		var handler slog.Handler
		if strings.EqualFold(cfg.LogFormat, "json") {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: level,
			})
		}

		slog.SetDefault(slog.New(handler))
		slog.Debug("Configuration",
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat,
			"workers", cfg.Workers,
			"backup_keep", cfg.BackupKeep,
			"palette", cfg.Palette,
			"progress", cfg.Progress)

		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is bsatool.yaml in home or pwd)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&palettePath, "palette", "", "palette .COL file for images without own palette")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "extraction workers (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().IntVar(&backupKeep, "backup-keep", 0, "backup generations kept when overwriting an archive")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}

// addSelectFlags registers include/exclude rule flags on cmd.
func addSelectFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&includes, "include", nil, "glob patterns of entries to include")
	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "glob patterns of entries to exclude")
}

// selectRules builds pathrules from include/exclude flags.
func selectRules() []pathrules.Rule {
	return append(bsa.IncludeRules(includes...), bsa.ExcludeRules(excludes...)...)
}

// archiveOptions builds core options from effective configuration.
func archiveOptions() (bsa.Options, error) {
	opts := bsa.Options{
		Logger:     slog.Default(),
		BackupKeep: cfg.BackupKeep,
	}
	opts.OnEntryDone = func(p bsa.SaveProgress) {
		saveBar.Increment(p.Name)
	}

	if cfg.Palette != "" {
		data, err := os.ReadFile(cfg.Palette)
		if err != nil {
			return opts, fmt.Errorf("read palette: %w", err)
		}

		p, err := bsa.DecodeCOL(data)
		if err != nil {
			return opts, fmt.Errorf("decode palette %s: %w", cfg.Palette, err)
		}

		opts.Palette = &p
	}

	return opts, nil
}

// openArchive opens path and logs the status line.
func openArchive(ctx context.Context, path string) (*bsa.Archive, error) {
	opts, err := archiveOptions()
	if err != nil {
		return nil, err
	}

	a := bsa.New(opts)
	err = a.Open(path)
	a.Report(bsa.OpOpen, err).Log(ctx, slog.Default())
	if err != nil {
		return nil, err
	}

	return a, nil
}

// closeArchive closes a and logs the status line.
func closeArchive(ctx context.Context, a *bsa.Archive) {
	err := a.Close()
	a.Report(bsa.OpClose, err).Log(ctx, slog.Default())
}
