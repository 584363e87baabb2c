package bsa

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"
)

func TestOpen_InvalidHeader(t *testing.T) {
	t.Parallel()

	valid := buildManualBSA([]manualEntry{{name: "A.TXT", data: []byte("a")}})

	badMagic := bytes.Clone(valid)
	badMagic[3] = 'X'

	badVersion := bytes.Clone(valid)
	binary.LittleEndian.PutUint16(badVersion[4:6], 2)

	testCases := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short header", data: valid[:5]},
		{name: "bad magic", data: badMagic},
		{name: "bad version", data: badVersion},
		{name: "truncated directory", data: valid[:headerSize+10]},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a := New(Options{})
			err := a.Open(writeTestFile(t, "bad.bsa", tc.data))
			if !errors.Is(err, ErrCorruptArchive) {
				t.Fatalf("expected ErrCorruptArchive, got %v", err)
			}
			if a.State() != StateClosed {
				t.Fatalf("state=%s, want closed", a.State())
			}
		})
	}
}

func TestOpen_InvalidRecords(t *testing.T) {
	t.Parallel()

	entries := []manualEntry{
		{name: "A.TXT", data: []byte("aaaa")},
		{name: "B.TXT", data: []byte("bb")},
	}

	testCases := []struct {
		patch func(data []byte)
		name  string
	}{
		{
			name: "payload past eof",
			patch: func(data []byte) {
				binary.LittleEndian.PutUint32(recordAt(data, 1)[20:24], 1000)
			},
		},
		{
			name: "offset before payload region",
			patch: func(data []byte) {
				binary.LittleEndian.PutUint64(recordAt(data, 0)[24:32], 4)
			},
		},
		{
			name: "negative offset",
			patch: func(data []byte) {
				binary.LittleEndian.PutUint64(recordAt(data, 0)[24:32], 1<<63)
			},
		},
		{
			name: "duplicate index",
			patch: func(data []byte) {
				binary.LittleEndian.PutUint16(recordAt(data, 1)[16:18], 0)
			},
		},
		{
			name: "index out of range",
			patch: func(data []byte) {
				binary.LittleEndian.PutUint16(recordAt(data, 1)[16:18], 7)
			},
		},
		{
			name: "duplicate name",
			patch: func(data []byte) {
				copy(recordAt(data, 1)[:nameFieldSize], "A.TXT")
			},
		},
		{
			name: "name without terminator",
			patch: func(data []byte) {
				copy(recordAt(data, 0)[:nameFieldSize], "ABCDEFGHIJKLMNOP")
			},
		},
		{
			name: "name with separator",
			patch: func(data []byte) {
				copy(recordAt(data, 0)[:nameFieldSize], "A/B.TXT")
			},
		},
		{
			name: "empty name",
			patch: func(data []byte) {
				recordAt(data, 0)[0] = 0
			},
		},
		{
			name: "non-zero name padding",
			patch: func(data []byte) {
				recordAt(data, 0)[10] = 'X'
			},
		},
		{
			name: "records out of index order",
			patch: func(data []byte) {
				binary.LittleEndian.PutUint16(recordAt(data, 0)[16:18], 1)
				binary.LittleEndian.PutUint16(recordAt(data, 1)[16:18], 0)
			},
		},
		{
			name: "gap between payloads",
			patch: func(data []byte) {
				rec := recordAt(data, 1)
				binary.LittleEndian.PutUint64(rec[24:32], uint64(payloadStart(2)+5))
				binary.LittleEndian.PutUint32(rec[20:24], 1)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data := buildManualBSA(entries)
			tc.patch(data)

			a := New(Options{})
			err := a.Open(writeTestFile(t, "bad.bsa", data))
			if !errors.Is(err, ErrCorruptArchive) {
				t.Fatalf("expected ErrCorruptArchive, got %v", err)
			}
			if a.State() != StateClosed || a.FileNumber() != 0 {
				t.Fatalf("state=%s files=%d, want closed and empty", a.State(), a.FileNumber())
			}
		})
	}
}

func TestOpen_TrailingBytes(t *testing.T) {
	t.Parallel()

	data := buildManualBSA([]manualEntry{{name: "A.TXT", data: []byte("a")}})
	data = append(data, 0)

	a := New(Options{})
	if err := a.Open(writeTestFile(t, "tail.bsa", data)); !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("expected ErrCorruptArchive, got %v", err)
	}
}

func TestValidateLayout(t *testing.T) {
	t.Parallel()

	start := payloadStart(2)
	packed := []Entry{
		NewEntry(3, start, "A", 0),
		NewEntry(0, start+3, "B", 1),
	}
	if err := validateLayout(packed, start, start+3); err != nil {
		t.Fatalf("packed layout: %v", err)
	}
	if err := validateLayout(nil, headerSize, headerSize); err != nil {
		t.Fatalf("empty layout: %v", err)
	}

	overlap := []Entry{
		NewEntry(3, start, "A", 0),
		NewEntry(3, start, "B", 1),
	}
	if err := validateLayout(overlap, start, start+3); !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("overlap: expected ErrCorruptArchive, got %v", err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	t.Parallel()

	a := New(Options{})
	err := a.Open(filepath.Join(t.TempDir(), "missing.bsa"))
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if a.State() != StateClosed {
		t.Fatalf("state=%s, want closed", a.State())
	}
}

func TestOpen_Directory(t *testing.T) {
	t.Parallel()

	a := New(Options{})
	if err := a.Open(t.TempDir()); !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestOpen_AlreadyOpen(t *testing.T) {
	t.Parallel()

	path := createManualBSA(t, []manualEntry{{name: "A.TXT", data: []byte("a")}})
	a := openTestArchive(t, path)

	if err := a.Open(path); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("Open twice: expected ErrAlreadyOpen, got %v", err)
	}
	if err := a.Create(); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("Create on open: expected ErrAlreadyOpen, got %v", err)
	}
	if a.FileNumber() != 1 {
		t.Fatalf("FileNumber=%d, want 1", a.FileNumber())
	}
}

func TestOpenReaderAt(t *testing.T) {
	t.Parallel()

	data := buildManualBSA([]manualEntry{{name: "A.TXT", data: []byte("abc")}})

	a := New(Options{})
	if err := a.OpenReaderAt(nil, 0); !errors.Is(err, ErrNilReader) {
		t.Fatalf("expected ErrNilReader, got %v", err)
	}

	if err := a.OpenReaderAt(bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("OpenReaderAt: %v", err)
	}
	defer func() { _ = a.Close() }()

	got, err := a.ReadEntry("A.TXT")
	if err != nil {
		t.Fatalf("ReadEntry: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("payload=%q, want abc", got)
	}

	if a.Path() != "" {
		t.Fatalf("Path=%q, want empty", a.Path())
	}
	if _, err := a.Save(""); !errors.Is(err, ErrIO) {
		t.Fatalf("Save without target: expected ErrIO, got %v", err)
	}
}

func TestReadHeaderAndListEntries(t *testing.T) {
	t.Parallel()

	path := createManualBSA(t, []manualEntry{
		{name: "A.TXT", data: []byte("a")},
		{name: "B.IMG", data: []byte("bbb"), flags: FlagRawImage},
	})

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Version != formatVersion || h.Count != 2 {
		t.Fatalf("header=%+v", h)
	}

	listed, err := ListEntries(path)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}

	opened := openTestArchive(t, path).Entries()
	if len(listed) != len(opened) {
		t.Fatalf("listed %d entries, opened %d", len(listed), len(opened))
	}
	for i := range listed {
		if listed[i] != opened[i] {
			t.Fatalf("entry %d: listed %+v, opened %+v", i, listed[i], opened[i])
		}
	}
}

func TestReadHeader_IgnoresBrokenDirectory(t *testing.T) {
	t.Parallel()

	data := buildManualBSA([]manualEntry{{name: "A.TXT", data: []byte("a")}})
	binary.LittleEndian.PutUint32(recordAt(data, 0)[20:24], 999)

	h, err := ReadHeaderFromReaderAt(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ReadHeaderFromReaderAt: %v", err)
	}
	if h.Count != 1 {
		t.Fatalf("Count=%d, want 1", h.Count)
	}

	if _, err := ListEntriesFromReaderAt(bytes.NewReader(data), int64(len(data))); !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("ListEntriesFromReaderAt: expected ErrCorruptArchive, got %v", err)
	}
}

func TestReadEntry_NotFoundAndNotOpen(t *testing.T) {
	t.Parallel()

	a := New(Options{})
	if _, err := a.ReadEntry("A.TXT"); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("closed archive: expected ErrNotOpen, got %v", err)
	}

	a = openTestArchive(t, createManualBSA(t, []manualEntry{{name: "A.TXT", data: []byte("a")}}))
	if _, err := a.ReadEntry("B.TXT"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := a.OpenEntry("B.TXT"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("OpenEntry: expected ErrNotFound, got %v", err)
	}
}

func TestFileData_Kinds(t *testing.T) {
	t.Parallel()

	pal := GrayscalePalette()
	pal[1] = RGB{R: 10, G: 20, B: 30}

	img := buildTestImage(2, 2, CompressionNone, []byte{0, 1, 1, 0}, &pal)
	path := createManualBSA(t, []manualEntry{
		{name: "README.TXT", data: []byte{'c', 'a', 'f', 0x82, 0x1a, 'x'}},
		{name: "MAIN.COL", data: pal.EncodeCOL()},
		{name: "PIC.IMG", data: img},
		{name: "BLOB.DAT", data: []byte{0xde, 0xad}},
		{name: "RAW.IMG", data: bytes.Repeat([]byte{7}, 64*64), flags: FlagRawImage},
	})
	a := openTestArchive(t, path)

	text, err := a.FileData(Entry{Name: "README.TXT"})
	if err != nil {
		t.Fatalf("FileData text: %v", err)
	}
	if text.Kind != KindText || text.Text != "café" {
		t.Fatalf("text: kind=%s text=%q", text.Kind, text.Text)
	}

	col, err := a.FileData(Entry{Name: "MAIN.COL"})
	if err != nil {
		t.Fatalf("FileData palette: %v", err)
	}
	if col.Palette == nil || col.Palette[1] != pal[1] {
		t.Fatalf("palette: %+v", col.Palette)
	}

	pic, err := a.FileData(Entry{Name: "PIC.IMG"})
	if err != nil {
		t.Fatalf("FileData image: %v", err)
	}
	if pic.Image == nil || pic.Image.Header.Width != 2 || !pic.Image.HasInlinePalette() {
		t.Fatalf("image: %+v", pic.Image)
	}
	if !bytes.Equal(pic.Image.Encode(), img) {
		t.Fatal("image re-encode must match payload")
	}

	raw, err := a.FileData(Entry{Name: "RAW.IMG"})
	if err != nil {
		t.Fatalf("FileData raw image: %v", err)
	}
	if raw.Image == nil || raw.Image.HasHeader || raw.Image.Header.Width != 64 || raw.Image.Header.Height != 64 {
		t.Fatalf("raw image: %+v", raw.Image)
	}

	blob, err := a.FileData(Entry{Name: "BLOB.DAT"})
	if err != nil {
		t.Fatalf("FileData binary: %v", err)
	}
	if blob.Kind != KindBinary || !bytes.Equal(blob.Raw, []byte{0xde, 0xad}) {
		t.Fatalf("binary: %+v", blob)
	}

	miss, err := a.FileData(Entry{Name: "NOPE.TXT"})
	if err != nil {
		t.Fatalf("FileData miss: %v", err)
	}
	if miss.Entry.Valid() || miss.Raw != nil {
		t.Fatalf("miss must return invalid entry without data, got %+v", miss)
	}
}

func TestFileData_UndecodableKeepsRaw(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t, createManualBSA(t, []manualEntry{
		{name: "BAD.COL", data: bytes.Repeat([]byte{7}, 13)},
		{name: "BAD.IMG", data: []byte{1, 2, 3}},
		{name: "BAD.TXT", data: []byte("\xff€")},
	}))

	testCases := []struct {
		name string
		size int
		kind Kind
		want error
	}{
		{name: "BAD.COL", size: 13, kind: KindPalette, want: ErrUnsupportedFormat},
		{name: "BAD.IMG", size: 3, kind: KindImage, want: ErrInvalidImage},
	}

	for _, tc := range testCases {
		fd, err := a.FileData(Entry{Name: tc.name})
		if err != nil {
			t.Fatalf("%s: FileData: %v", tc.name, err)
		}
		if !fd.Entry.Valid() || fd.Kind != tc.kind || len(fd.Raw) != tc.size {
			t.Fatalf("%s: got entry=%+v kind=%s raw=%d", tc.name, fd.Entry, fd.Kind, len(fd.Raw))
		}
		if !errors.Is(fd.DecodeErr, tc.want) {
			t.Fatalf("%s: DecodeErr=%v, want %v", tc.name, fd.DecodeErr, tc.want)
		}
		if fd.Image != nil || fd.Palette != nil {
			t.Fatalf("%s: decoded view must stay empty on failure", tc.name)
		}
	}

	// CP437 maps every byte, so text always decodes.
	txt, err := a.FileData(Entry{Name: "BAD.TXT"})
	if err != nil || txt.DecodeErr != nil {
		t.Fatalf("text: err=%v DecodeErr=%v", err, txt.DecodeErr)
	}
}

func TestFileData_UnknownRawImageSize(t *testing.T) {
	t.Parallel()

	a := openTestArchive(t, createManualBSA(t, []manualEntry{
		{name: "ODD.IMG", data: []byte{1, 2, 3}, flags: FlagRawImage},
	}))

	if _, err := a.Image("ODD.IMG"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFileData_CustomRawImageSize(t *testing.T) {
	t.Parallel()

	path := createManualBSA(t, []manualEntry{
		{name: "ODD.IMG", data: []byte{1, 2, 3, 4, 5, 6}, flags: FlagRawImage},
	})

	a := New(Options{
		RawImageSize: func(_ Entry, dataLen int) (uint16, uint16, bool) {
			return 3, uint16(dataLen / 3), true
		},
	})
	if err := a.Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = a.Close() }()

	img, err := a.Image("ODD.IMG")
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Fatalf("bounds=%v, want 3x2", img.Bounds())
	}
}
