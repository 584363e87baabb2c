// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/woozymasta/bsa"
)

var (
	showPNG   string
	showBytes int
)

var showCmd = &cobra.Command{
	Use:   "show ARCHIVE NAME",
	Short: "Print one entry as text, image info, palette or hex dump",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := openArchive(ctx, args[0])
		if err != nil {
			return err
		}
		defer closeArchive(ctx, a)

		fd, err := a.FileData(bsa.Entry{Name: args[1]})
		if err != nil {
			return err
		}
		if !fd.Entry.Valid() {
			return fmt.Errorf("%w: %s", bsa.ErrNotFound, args[1])
		}

		e := fd.Entry
		fmt.Printf("name:   %s\nkind:   %s\nsize:   %d\noffset: %d\nflags:  0x%04x\n",
			e.Name, fd.Kind, e.Size, e.Offset, uint16(e.Flags))

		switch {
		case fd.DecodeErr != nil:
			slog.Warn("Entry does not decode, showing raw bytes", "name", e.Name, "error", fd.DecodeErr)
			showHex(fd.Raw)
		case fd.Image != nil:
			return showImage(fd.Image)
		case fd.Palette != nil:
			showPalette(fd.Palette)
		case fd.Kind == bsa.KindText:
			fmt.Println()
			fmt.Println(fd.Text)
		default:
			showHex(fd.Raw)
		}

		return nil
	},
}

// showImage prints image geometry and optionally writes a PNG copy.
func showImage(img *bsa.Image) error {
	h := img.Header
	fmt.Printf("image:  %dx%d at %d,%d\n", h.Width, h.Height, h.OffsetX, h.OffsetY)
	if img.HasHeader {
		fmt.Printf("codec:  %s, data %d bytes, inline palette %t\n", h.Compression, h.DataSize, img.HasInlinePalette())
	} else {
		fmt.Println("codec:  raw, no header")
	}

	if showPNG == "" {
		return nil
	}

	f, err := os.Create(showPNG)
	if err != nil {
		return err
	}

	if err := img.WritePNG(f); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// showPalette prints the 256 palette colors in rows of eight.
func showPalette(p *bsa.Palette) {
	fmt.Println()
	for i, c := range p {
		fmt.Printf("%3d:#%02x%02x%02x ", i, c.R, c.G, c.B)
		if i%8 == 7 {
			fmt.Println()
		}
	}
}

// showHex prints a hex dump of at most showBytes bytes.
func showHex(data []byte) {
	if showBytes > 0 && len(data) > showBytes {
		data = data[:showBytes]
	}

	fmt.Println()
	fmt.Print(hex.Dump(data))
}

func init() {
	showCmd.Flags().StringVar(&showPNG, "png", "", "write image entry to this PNG file")
	showCmd.Flags().IntVar(&showBytes, "bytes", 512, "hex dump limit for binary entries (0 = all)")
	rootCmd.AddCommand(showCmd)
}
