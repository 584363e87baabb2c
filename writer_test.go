package bsa

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestCopyPayloadBounded(t *testing.T) {
	t.Parallel()

	t.Run("exact limit", func(t *testing.T) {
		t.Parallel()

		var dst bytes.Buffer
		src := bytes.NewReader([]byte("abc"))
		written, err := copyPayloadBounded(&dst, src, 3, make([]byte, 2))
		if err != nil {
			t.Fatalf("copyPayloadBounded: %v", err)
		}
		if written != 3 {
			t.Fatalf("written=%d, want 3", written)
		}
		if got := dst.String(); got != "abc" {
			t.Fatalf("dst=%q, want %q", got, "abc")
		}
	})

	t.Run("overflow", func(t *testing.T) {
		t.Parallel()

		var dst bytes.Buffer
		src := bytes.NewReader([]byte("abcdef"))
		written, err := copyPayloadBounded(&dst, src, 3, make([]byte, 2))
		if !errors.Is(err, ErrSizeOverflow) {
			t.Fatalf("expected ErrSizeOverflow, got %v", err)
		}
		if written != 3 {
			t.Fatalf("written=%d, want 3", written)
		}
		if got := dst.String(); got != "abc" {
			t.Fatalf("dst=%q, want %q", got, "abc")
		}
	})

	t.Run("short source", func(t *testing.T) {
		t.Parallel()

		var dst bytes.Buffer
		written, err := copyPayloadBounded(&dst, strings.NewReader("ab"), 5, nil)
		if err != nil {
			t.Fatalf("copyPayloadBounded: %v", err)
		}
		if written != 2 {
			t.Fatalf("written=%d, want 2", written)
		}
	})

	t.Run("nil arguments", func(t *testing.T) {
		t.Parallel()

		if _, err := copyPayloadBounded(nil, strings.NewReader("a"), 1, nil); !errors.Is(err, ErrNilWriter) {
			t.Fatalf("expected ErrNilWriter, got %v", err)
		}
		if _, err := copyPayloadBounded(io.Discard, nil, 1, nil); !errors.Is(err, ErrNilReader) {
			t.Fatalf("expected ErrNilReader, got %v", err)
		}
	})
}

func TestPack_RoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []Input{
		bytesInput("ONE.TXT", []byte("first")),
		bytesInput("two.dat", []byte{0, 1, 2, 3}),
		{Name: "RAW.IMG", Flags: FlagRawImage, Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(make([]byte, 64*64))), nil
		}},
	}

	var out bytes.Buffer
	res, err := Pack(context.Background(), &out, inputs, Options{})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if res.WrittenEntries != 3 || res.IndexSize != payloadStart(3) || res.DataSize != 5+4+64*64 {
		t.Fatalf("result=%+v", res)
	}
	if int64(out.Len()) != res.IndexSize+res.DataSize {
		t.Fatalf("output len=%d, want %d", out.Len(), res.IndexSize+res.DataSize)
	}

	a := New(Options{})
	if err := a.OpenReaderAt(bytes.NewReader(out.Bytes()), int64(out.Len())); err != nil {
		t.Fatalf("OpenReaderAt: %v", err)
	}
	defer func() { _ = a.Close() }()

	if names := entryNames(a.Entries()); !slices.Equal(names, []string{"ONE.TXT", "two.dat", "RAW.IMG"}) {
		t.Fatalf("names=%v", names)
	}
	if a.Lookup("RAW.IMG").Flags != FlagRawImage {
		t.Fatal("input flags must be written to the record")
	}

	assertPayload(t, a, "ONE.TXT", "first")
}

func TestPack_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	one := []Input{bytesInput("A.TXT", []byte("a"))}

	if _, err := Pack(ctx, nil, one, Options{}); !errors.Is(err, ErrNilWriter) {
		t.Fatalf("nil writer: expected ErrNilWriter, got %v", err)
	}
	if _, err := Pack(ctx, io.Discard, nil, Options{}); !errors.Is(err, ErrEmptyInputs) {
		t.Fatalf("no inputs: expected ErrEmptyInputs, got %v", err)
	}

	dup := []Input{bytesInput("A.TXT", []byte("a")), bytesInput("dir/A.TXT", []byte("b"))}
	if _, err := Pack(ctx, io.Discard, dup, Options{}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate: expected ErrAlreadyExists, got %v", err)
	}

	bad := []Input{bytesInput("NAME-IS-TOO-LONG", []byte("a"))}
	if _, err := Pack(ctx, io.Discard, bad, Options{}); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("long name: expected ErrInvalidName, got %v", err)
	}

	noSource := []Input{{Name: "A.TXT"}}
	if _, err := Pack(ctx, io.Discard, noSource, Options{}); !errors.Is(err, ErrNilReader) {
		t.Fatalf("no source: expected ErrNilReader, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := Pack(cancelled, io.Discard, one, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled: expected context.Canceled, got %v", err)
	}
}

func TestPack_OnEntryDone(t *testing.T) {
	t.Parallel()

	var progress []SaveProgress
	_, err := Pack(context.Background(), io.Discard, []Input{
		bytesInput("A.TXT", []byte("aa")),
		bytesInput("B.TXT", []byte("bbb")),
	}, Options{
		OnEntryDone: func(p SaveProgress) {
			progress = append(progress, p)
		},
	})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	want := []SaveProgress{
		{Name: "A.TXT", Offset: payloadStart(2), Size: 2, Index: 0, Total: 2},
		{Name: "B.TXT", Offset: payloadStart(2) + 2, Size: 3, Index: 1, Total: 2},
	}
	if !slices.Equal(progress, want) {
		t.Fatalf("progress=%+v, want %+v", progress, want)
	}
}

func TestPack_CustomWriterBuffer(t *testing.T) {
	t.Parallel()

	inputs := []Input{bytesInput("BIG.DAT", bytes.Repeat([]byte{7}, 3*copyBufferSize+11))}

	var pooled, custom bytes.Buffer
	if _, err := Pack(context.Background(), &pooled, inputs, Options{}); err != nil {
		t.Fatalf("Pack pooled: %v", err)
	}
	if _, err := Pack(context.Background(), &custom, inputs, Options{WriterBufferSize: 8192}); err != nil {
		t.Fatalf("Pack custom: %v", err)
	}

	if !bytes.Equal(pooled.Bytes(), custom.Bytes()) {
		t.Fatal("buffer size must not change output")
	}
}

func TestPackFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	if err := os.WriteFile(src, []byte("on disk"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out := filepath.Join(dir, "packed.bsa")
	res, err := PackFile(context.Background(), out, []Input{{Path: src}}, Options{})
	if err != nil {
		t.Fatalf("PackFile: %v", err)
	}
	if res.WrittenEntries != 1 {
		t.Fatalf("WrittenEntries=%d, want 1", res.WrittenEntries)
	}

	a := openTestArchive(t, out)
	assertPayload(t, a, "src.txt", "on disk")

	// A failed pack must leave neither output nor temp files.
	failed := filepath.Join(dir, "failed.bsa")
	if _, err := PackFile(context.Background(), failed, []Input{{Name: "X.TXT"}}, Options{}); err == nil {
		t.Fatal("expected error for input without source")
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(dirEntries) != 2 {
		t.Fatalf("dir entries=%d, want src.txt and packed.bsa", len(dirEntries))
	}
}

func TestCheckedDataSize(t *testing.T) {
	t.Parallel()

	if got, err := checkedDataSize("A", maxPayloadSize); err != nil || got != maxPayloadSize {
		t.Fatalf("max size: got %d err=%v", got, err)
	}
	if _, err := checkedDataSize("A", maxPayloadSize+1); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("expected ErrSizeOverflow, got %v", err)
	}
	if _, err := checkedDataSize("A", -1); !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("expected ErrSizeOverflow, got %v", err)
	}
}

func TestEncodeRecord(t *testing.T) {
	t.Parallel()

	rec := bytes.Repeat([]byte{0xff}, dirRecordSize)
	encodeRecord(rec, Entry{Name: "AB", Index: 0x0102, Flags: 0x0304, Size: 0x05060708, Offset: 0x090a})

	want := make([]byte, dirRecordSize)
	copy(want, "AB")
	copy(want[16:], []byte{0x02, 0x01, 0x04, 0x03, 0x08, 0x07, 0x06, 0x05, 0x0a, 0x09})
	if !bytes.Equal(rec, want) {
		t.Fatalf("record:\n got % x\nwant % x", rec, want)
	}

	e, err := decodeRecord(rec)
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}
	if e.Name != "AB" || e.Index != 0x0102 || e.Flags != 0x0304 || e.Size != 0x05060708 || e.Offset != 0x090a {
		t.Fatalf("decoded=%+v", e)
	}
}
