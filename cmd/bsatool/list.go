// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/woozymasta/bsa"
)

var (
	listChecksum bool
	infoHash     bool
)

var listCmd = &cobra.Command{
	Use:   "list ARCHIVE",
	Short: "List archive entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := openArchive(ctx, args[0])
		if err != nil {
			return err
		}
		defer closeArchive(ctx, a)

		entries, err := a.Select(selectRules())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		header := "INDEX\tNAME\tKIND\tSIZE\tOFFSET\tFLAGS"
		if listChecksum {
			header += "\tXXH64"
		}
		_, _ = fmt.Fprintln(tw, header)

		for _, e := range entries {
			line := fmt.Sprintf("%d\t%s\t%s\t%d\t%d\t0x%04x", e.Index, e.Name, e.Kind(), e.Size, e.Offset, uint16(e.Flags))
			if listChecksum {
				sum, err := a.Checksum(e.Name)
				if err != nil {
					return err
				}

				line += fmt.Sprintf("\t%016x", sum)
			}

			_, _ = fmt.Fprintln(tw, line)
		}

		return tw.Flush()
	},
}

var infoCmd = &cobra.Command{
	Use:   "info ARCHIVE",
	Short: "Show archive header and totals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		header, err := bsa.ReadHeader(args[0])
		if err != nil {
			return err
		}

		entries, err := bsa.ListEntries(args[0])
		if err != nil {
			return err
		}

		kinds := make(map[bsa.Kind]int, 4)
		var payload int64
		for _, e := range entries {
			kinds[e.Kind()]++
			payload += int64(e.Size)
		}

		fmt.Printf("version: %d\n", header.Version)
		fmt.Printf("entries: %d\n", header.Count)
		fmt.Printf("payload: %d bytes\n", payload)
		for _, k := range []bsa.Kind{bsa.KindImage, bsa.KindPalette, bsa.KindText, bsa.KindBinary} {
			fmt.Printf("  %-8s %d\n", k.String()+":", kinds[k])
		}

		if infoHash {
			hs, err := bsa.ComputeHashSet(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("hash full:    %016x\n", hs.Full)
			fmt.Printf("hash names:   %016x\n", hs.Names)
			fmt.Printf("hash content: %016x\n", hs.Content)
		}

		return nil
	},
}

func init() {
	addSelectFlags(listCmd)
	listCmd.Flags().BoolVar(&listChecksum, "checksum", false, "print xxHash64 of each payload")
	infoCmd.Flags().BoolVar(&infoHash, "hash", false, "print xxHash64 fingerprints of file, names and content")
	rootCmd.AddCommand(listCmd, infoCmd)
}
