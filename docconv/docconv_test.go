package docconv

import (
	"archive/zip"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/renkropod/doc-to-md/convlog"
)

func testPipeline() *Pipeline {
	return New(Config{Logger: slog.New(slog.DiscardHandler)})
}

func TestDetect(t *testing.T) {
	pipe := testPipeline()

	tests := []struct {
		path   string
		format Format
	}{
		{"doc.hwp", FormatHWP},
		{"doc.hwpx", FormatHWPX},
		{"doc.pdf", FormatPDF},
		{"doc.docx", FormatDocx},
		{"doc.xlsx", FormatXLSX},
		{"doc.html", FormatHTML},
		{"doc.htm", FormatHTML},
		{"doc.epub", FormatEPUB},
		{"doc.md", FormatMD},
		{"doc.markdown", FormatMD},
		{"doc.txt", FormatTXT},
		{"doc.csv", FormatCSV},
		{"DOC.HWP", FormatHWP},
	}

	for _, tt := range tests {
		f, err := pipe.Detect(tt.path)
		if err != nil {
			t.Errorf("Detect(%q): %v", tt.path, err)
			continue
		}
		if f != tt.format {
			t.Errorf("Detect(%q) = %q, want %q", tt.path, f, tt.format)
		}
	}

	// Unsupported format.
	if _, err := pipe.Detect("file.xyz"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	if len(formats) != 10 {
		t.Fatalf("expected 10 formats, got %d: %v", len(formats), formats)
	}
	for i := 1; i < len(formats); i++ {
		if formats[i-1] >= formats[i] {
			t.Fatalf("formats not sorted: %v", formats)
		}
	}
}

func TestConvertText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	os.WriteFile(path, []byte("Hello world\n\nsecond paragraph\n"), 0644)

	res, err := testPipeline().Convert(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Format != FormatTXT {
		t.Fatalf("expected txt format, got %s", res.Format)
	}
	if !strings.Contains(res.Markdown, "Hello world") {
		t.Fatalf("expected text content, got %q", res.Markdown)
	}
	if strings.HasPrefix(res.Markdown, "---") {
		t.Fatal("plain text should not gain front matter")
	}
}

func TestConvertMarkdown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.md")
	content := "# My Title\n\nThis is a paragraph.\n\n## Section Two\n\nAnother one.\n"
	os.WriteFile(path, []byte(content), 0644)

	res, err := testPipeline().Convert(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "My Title" {
		t.Fatalf("expected title 'My Title', got %q", res.Title)
	}
	if !strings.Contains(res.Markdown, "## Section Two") {
		t.Fatalf("markdown structure lost: %q", res.Markdown)
	}
}

func TestConvertCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	os.WriteFile(path, []byte("name,qty\napple,3\npear|half,1\n"), 0644)

	res, err := testPipeline().Convert(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(res.Markdown, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 table lines, got %d: %q", len(lines), res.Markdown)
	}
	if lines[0] != "| name | qty |" {
		t.Fatalf("bad header row: %q", lines[0])
	}
	if lines[1] != "| --- | --- |" {
		t.Fatalf("bad separator row: %q", lines[1])
	}
	if !strings.Contains(lines[3], `pear\|half`) {
		t.Fatalf("pipe not escaped: %q", lines[3])
	}
}

func TestConvertDocx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.docx")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)

	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Test Title</w:t></w:r></w:p>
<w:p><w:r><w:t>This is body text.</w:t></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>Section Two</w:t></w:r></w:p>
<w:p><w:r><w:t>More content here.</w:t></w:r></w:p>
</w:body>
</w:document>`
	coreXML := `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
  xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>Test Title</dc:title>
<dc:creator>Jane Doe</dc:creator>
</cp:coreProperties>`

	fw, _ := w.Create("word/document.xml")
	fw.Write([]byte(docXML))
	fw, _ = w.Create("docProps/core.xml")
	fw.Write([]byte(coreXML))
	w.Close()
	f.Close()

	res, err := testPipeline().Convert(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "Test Title" {
		t.Fatalf("expected title 'Test Title', got %q", res.Title)
	}
	if !strings.Contains(res.Markdown, "# Test Title") {
		t.Fatalf("heading not rendered: %q", res.Markdown)
	}
	if !strings.Contains(res.Markdown, "## Section Two") {
		t.Fatalf("second heading not rendered: %q", res.Markdown)
	}
	if !strings.HasPrefix(res.Markdown, "---\n") || !strings.Contains(res.Markdown, "creator: Jane Doe") {
		t.Fatalf("front matter missing: %q", res.Markdown)
	}
}

func TestWithoutFrontMatter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.docx")

	f, _ := os.Create(path)
	w := zip.NewWriter(f)
	fw, _ := w.Create("word/document.xml")
	fw.Write([]byte(`<w:document xmlns:w="x"><w:body><w:p><w:r><w:t>Body.</w:t></w:r></w:p></w:body></w:document>`))
	fw, _ = w.Create("docProps/core.xml")
	fw.Write([]byte(`<p xmlns:dc="d"><dc:creator>Jane</dc:creator></p>`))
	w.Close()
	f.Close()

	res, err := testPipeline().Convert(context.Background(), path, WithoutFrontMatter())
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(res.Markdown, "---") {
		t.Fatalf("front matter should be suppressed: %q", res.Markdown)
	}
	if res.Metadata["creator"] != "Jane" {
		t.Fatalf("metadata should still be returned: %v", res.Metadata)
	}
}

func TestConvertFileDefaultOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	os.WriteFile(path, []byte("content here"), 0644)

	out, err := testPipeline().ConvertFile(context.Background(), path, "")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "note.md")
	if out != want {
		t.Fatalf("expected output %q, got %q", want, out)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "content here") {
		t.Fatalf("written markdown wrong: %q", data)
	}
}

func TestConvertDir(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	os.WriteFile(filepath.Join(inDir, "a.txt"), []byte("alpha"), 0644)
	os.WriteFile(filepath.Join(inDir, "b.md"), []byte("# Beta"), 0644)
	os.WriteFile(filepath.Join(inDir, "skip.xyz"), []byte("ignored"), 0644)
	// Empty text file fails conversion but must not abort the batch.
	os.WriteFile(filepath.Join(inDir, "empty.txt"), []byte("   "), 0644)

	sub := filepath.Join(inDir, "nested")
	os.MkdirAll(sub, 0o755)
	os.WriteFile(filepath.Join(sub, "c.txt"), []byte("gamma"), 0644)

	res, err := testPipeline().ConvertDir(context.Background(), inDir, outDir, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Converted != 3 {
		t.Fatalf("expected 3 converted, got %d", res.Converted)
	}
	if res.Failed != 1 {
		t.Fatalf("expected 1 failure, got %d", res.Failed)
	}
	if res.Total() != 4 {
		t.Fatalf("expected 4 attempted, got %d", res.Total())
	}
	if _, err := os.Stat(filepath.Join(outDir, "nested", "c.md")); err != nil {
		t.Fatalf("nested output missing: %v", err)
	}

	// Non-recursive run ignores the subdirectory.
	outDir2 := t.TempDir()
	res2, err := testPipeline().ConvertDir(context.Background(), inDir, outDir2, false)
	if err != nil {
		t.Fatal(err)
	}
	if res2.Converted != 2 {
		t.Fatalf("expected 2 converted non-recursive, got %d", res2.Converted)
	}
}

func TestConvertHWPXThroughPipeline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.hwpx")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	fw, _ := w.Create("Contents/section0.xml")
	fw.Write([]byte(`<sec><p><run><t>안녕하세요 HWPX</t></run></p></sec>`))
	fw, _ = w.Create("Contents/content.hpf")
	fw.Write([]byte(`<package xmlns:dc="http://purl.org/dc/elements/1.1/"><metadata><dc:title>인사말</dc:title></metadata></package>`))
	w.Close()
	f.Close()

	res, err := testPipeline().Convert(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Format != FormatHWPX {
		t.Fatalf("expected hwpx format, got %s", res.Format)
	}
	if res.Title != "인사말" {
		t.Fatalf("expected title from descriptor, got %q", res.Title)
	}
	if !strings.Contains(res.Markdown, "안녕하세요 HWPX") {
		t.Fatalf("section text missing: %q", res.Markdown)
	}
}

func TestConvertFileTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	os.WriteFile(path, []byte("0123456789"), 0644)

	pipe := New(Config{MaxFileSize: 5, Logger: slog.New(slog.DiscardHandler)})
	if _, err := pipe.Convert(context.Background(), path); err == nil {
		t.Fatal("expected size limit error")
	}
}

func TestConvertRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")
	store, err := convlog.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "note.txt")
	os.WriteFile(path, []byte("hello"), 0644)

	pipe := New(Config{Logger: slog.New(slog.DiscardHandler), History: store})
	if _, err := pipe.Convert(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	if _, err := pipe.Convert(context.Background(), filepath.Join(dir, "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store2, err := convlog.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store2.Close()

	entries, err := store2.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(entries))
	}
	statuses := map[string]bool{}
	for _, e := range entries {
		statuses[e.Status] = true
	}
	if !statuses["success"] || !statuses["failed"] {
		t.Fatalf("expected one success and one failure, got %+v", entries)
	}
}

func TestConvertCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := testPipeline().Convert(ctx, "whatever.txt"); err == nil {
		t.Fatal("expected context error")
	}
}
