// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

/*
Package bsa reads, edits and writes BSA archives: flat containers of named
binary resources (IMG images, COL palettes, CP437 text and opaque data)
addressed by a fixed-size directory.

Opening an archive reads only the header and directory. Payloads are read
lazily through bounded reads from the backing file. Edits (add, replace,
rename, delete) only change the in-memory entry table; nothing touches disk
until Save, which repacks live entries into a temp file and renames it into
place.

Layout (little-endian):

	header    magic "BSA\x1a", u16 version (1), u16 entry count
	directory count x 32-byte records:
	          name[16] NUL-padded, u16 index, u16 flags, u32 size, i64 offset
	payloads  packed in index order after the directory

# Reading

	a := bsa.New(bsa.Options{})
	if err := a.Open("GLOBAL.BSA"); err != nil {
	    return err
	}
	defer a.Close()
	for _, e := range a.LiveEntries() {
	    fd, err := a.FileData(e)
	    if err != nil {
	        return err
	    }
	    switch {
	    case fd.DecodeErr != nil:
	        _ = fd.Raw
	    case fd.Kind == bsa.KindImage:
	        _ = fd.Image
	    case fd.Kind == bsa.KindText:
	        _ = fd.Text
	    }
	}

For metadata-only scans:

	entries, err := bsa.ListEntries("GLOBAL.BSA")

# Editing

	if _, err := a.AddFile("NEW.IMG"); err != nil {
	    return err
	}
	if _, err := a.Rename("OLD.TXT", "NOTES.TXT"); err != nil {
	    return err
	}
	if _, err := a.Delete("UNUSED.CFG"); err != nil {
	    return err
	}
	res, err := a.Save("")

Set Options.BackupKeep to keep previous generations of an overwritten
archive as `<archive>.bak`, `<archive>.bak.1` and so on.

# Extracting

Entries are selected with github.com/woozymasta/pathrules rules:

	n, err := a.Extract(ctx, "out/", bsa.ExtractOptions{
	    Rules:       bsa.IncludeRules("*.IMG"),
	    ImagesAsPNG: true,
	    MaxWorkers:  4,
	})

# Packing

	res, err := bsa.PackFile(ctx, "NEW.BSA", []bsa.Input{
	    {Path: "src/TITLE.IMG"},
	    {Name: "README.TXT", Open: func() (io.ReadCloser, error) { return os.Open("README") }},
	}, bsa.Options{})
*/
package bsa
