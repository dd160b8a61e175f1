package hwp

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/flate"
)

func deflateRaw(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestDecompress_FlagOff(t *testing.T) {
	// WHAT: With the compression flag unset the bytes pass through.
	data := []byte{1, 2, 3}
	out, err := decompress(data, false)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("got %v, want %v", out, data)
	}
}

func TestDecompress_RawDeflate(t *testing.T) {
	// WHAT: Compressed streams inflate with the headerless DEFLATE scheme.
	plain := []byte("body section record stream")
	out, err := decompress(deflateRaw(t, plain), true)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, plain) {
		t.Fatalf("round trip mismatch: %q", out)
	}
}

func TestDecompress_Corrupt(t *testing.T) {
	if _, err := decompress([]byte("definitely not deflate"), true); err == nil {
		t.Fatal("expected inflate error")
	}
}

func TestAssembleSections_Order(t *testing.T) {
	// WHAT: Sections are consumed in ascending index order from 0 and
	// iteration stops at the first absent index.
	streams := map[string][]byte{
		"BodyText/Section0": record(67, 0, codes('o', 'n', 'e')),
		"BodyText/Section1": record(67, 0, codes('t', 'w', 'o')),
		// Section2 missing: Section3 must never be reached.
		"BodyText/Section3": record(67, 0, codes('x')),
	}
	parts := assembleSections(streams, false, discardLogger())
	if got := strings.Join(parts, "|"); got != "one|two" {
		t.Fatalf("sections = %q, want %q", got, "one|two")
	}
}

func TestAssembleSections_CompressedFlag(t *testing.T) {
	// WHAT: The global flag controls inflation of every section.
	stream := record(67, 0, codes('h', 'i'))
	streams := map[string][]byte{
		"BodyText/Section0": deflateRaw(t, stream),
	}
	parts := assembleSections(streams, true, discardLogger())
	if len(parts) != 1 || parts[0] != "hi" {
		t.Fatalf("parts = %v, want [hi]", parts)
	}
}

func TestAssembleSections_CorruptSectionSkipped(t *testing.T) {
	// WHAT: One of three sections fails to inflate; the other two still
	// contribute and no error escapes.
	// WHY: A single corrupt section must not abort the whole document.
	streams := map[string][]byte{
		"BodyText/Section0": deflateRaw(t, record(67, 0, codes('a'))),
		"BodyText/Section1": []byte("corrupt, not deflate data"),
		"BodyText/Section2": deflateRaw(t, record(67, 0, codes('b'))),
	}
	parts := assembleSections(streams, true, discardLogger())
	if got := strings.Join(parts, "|"); got != "a|b" {
		t.Fatalf("sections = %q, want %q", got, "a|b")
	}
}

func TestExtract_NotACompoundFile(t *testing.T) {
	// WHAT: A file with the OLE2 signature but a broken directory fails
	// with ErrInvalidFormat naming the path.
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.hwp")
	data := append(append([]byte{}, oleSignature...), bytes.Repeat([]byte{0}, 100)...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Extract(path, WithLogger(discardLogger()))
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("err = %v, want ErrInvalidFormat", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("error should name the path: %v", err)
	}
}

func TestExtract_UnknownSignature(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.hwp")
	if err := os.WriteFile(path, []byte("just some text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Extract(path); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestSniffImageExt(t *testing.T) {
	tests := []struct {
		data []byte
		ext  string
	}{
		{[]byte("\x89PNG\r\n\x1a\nrest"), "png"},
		{[]byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpg"},
		{[]byte("GIF89a"), "gif"},
		{[]byte("BMxxxx"), "bmp"},
		{[]byte("II*\x00data"), "tiff"},
		{[]byte("MM\x00*data"), "tiff"},
		{[]byte("unknown"), "png"},
	}
	for _, tt := range tests {
		if got := sniffImageExt(tt.data); got != tt.ext {
			t.Errorf("sniffImageExt(%q) = %q, want %q", tt.data[:4], got, tt.ext)
		}
	}
}

func TestSafeJoin(t *testing.T) {
	// WHAT: Generated filenames must stay inside the image directory.
	// WHY: The document base name is attacker-controlled input.
	dir := t.TempDir()
	if _, err := safeJoin(dir, "ok_img_000.png"); err != nil {
		t.Fatalf("plain name rejected: %v", err)
	}
	for _, bad := range []string{"../escape.png", "a/../../b.png"} {
		if _, err := safeJoin(dir, bad); !errors.Is(err, ErrPathTraversal) {
			t.Errorf("safeJoin(%q) err = %v, want ErrPathTraversal", bad, err)
		}
	}
}

func TestExtractBinData(t *testing.T) {
	// WHAT: BinData assets are written with sniffed extensions and
	// sequential names; an undecompressable asset keeps its raw bytes.
	dir := t.TempDir()
	png := []byte("\x89PNG\r\n\x1a\nfakepng")
	raw := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3} // jpg magic, not deflate

	streams := map[string][]byte{
		"BinData/BIN0001.png": deflateRaw(t, png),
		"BinData/BIN0002.jpg": raw,
	}
	images := extractBinData(streams, true, "doc", dir, discardLogger())
	if len(images) != 2 {
		t.Fatalf("images = %d, want 2", len(images))
	}
	if filepath.Base(images[0].Path) != "doc_img_000.png" {
		t.Errorf("first image = %q", images[0].Path)
	}
	if filepath.Base(images[1].Path) != "doc_img_001.jpg" {
		t.Errorf("second image = %q", images[1].Path)
	}
	for _, img := range images {
		if img.Page != 0 {
			t.Errorf("page = %d, want 0", img.Page)
		}
		if _, err := os.Stat(img.Path); err != nil {
			t.Errorf("image not written: %v", err)
		}
	}
}
