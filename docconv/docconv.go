// Package docconv converts document files into normalized Markdown.
//
// Supported formats:
//   - .hwp / .hwpx: Hangul Word Processor (binary record decoder, XML)
//   - .pdf: PDF text extraction (pdfcpu) with quality scoring
//   - .docx: Microsoft Word (word/document.xml)
//   - .xlsx: Excel workbooks, one pipe table per sheet (excelize)
//   - .html / .htm: HTML, sanitized and converted to Markdown
//   - .epub: EPUB (OPF metadata + spine documents)
//   - .md, .txt: passthrough with light structure detection
//   - .csv: rendered as a Markdown pipe table
//
// Usage:
//
//	pipe := docconv.New(docconv.Config{})
//	res, err := pipe.Convert(ctx, "/path/to/report.hwp")
//	fmt.Println(res.Title, len(res.Markdown))
package docconv

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/renkropod/doc-to-md/convlog"
	"github.com/renkropod/doc-to-md/hwp"
)

// Config configures the conversion pipeline.
type Config struct {
	// MaxFileSize is the maximum file size to process (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`

	// History receives one entry per conversion attempt when set.
	History *convlog.Store `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Pipeline is the document conversion engine.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{cfg: cfg, logger: cfg.Logger}
}

// ConvertOption adjusts a single conversion call.
type ConvertOption func(*convertOptions)

type convertOptions struct {
	imageDir      string
	noFrontMatter bool
}

// WithImageDir enables embedded image extraction into dir for formats
// that support it.
func WithImageDir(dir string) ConvertOption {
	return func(o *convertOptions) { o.imageDir = dir }
}

// WithoutFrontMatter omits the YAML metadata header from the Markdown.
func WithoutFrontMatter() ConvertOption {
	return func(o *convertOptions) { o.noFrontMatter = true }
}

var extensionFormats = map[string]Format{
	".pdf":      FormatPDF,
	".docx":     FormatDocx,
	".xlsx":     FormatXLSX,
	".hwp":      FormatHWP,
	".hwpx":     FormatHWPX,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".epub":     FormatEPUB,
	".md":       FormatMD,
	".markdown": FormatMD,
	".txt":      FormatTXT,
	".text":     FormatTXT,
	".csv":      FormatCSV,
}

// Detect returns the document format based on file extension.
func (p *Pipeline) Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensionFormats[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unsupported format: %q", ext)
}

// SupportedFormats returns all supported format names.
func SupportedFormats() []string {
	seen := make(map[Format]bool)
	var formats []string
	for _, f := range extensionFormats {
		if !seen[f] {
			seen[f] = true
			formats = append(formats, string(f))
		}
	}
	sort.Strings(formats)
	return formats
}

// Convert parses a document and returns its Markdown rendition. The
// conversion is recorded in the history store when one is configured.
func (p *Pipeline) Convert(ctx context.Context, path string, opts ...ConvertOption) (*Result, error) {
	start := time.Now()
	res, err := p.convert(ctx, path, opts)
	p.recordHistory(path, res, err, time.Since(start))
	return res, err
}

func (p *Pipeline) convert(ctx context.Context, path string, opts []ConvertOption) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var o convertOptions
	for _, opt := range opts {
		opt(&o)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), p.cfg.MaxFileSize)
	}

	format, err := p.Detect(path)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("converting document", "path", path, "format", format)

	var (
		title   string
		body    string
		meta    map[string]string
		images  []Image
		quality *PDFQuality
	)

	switch format {
	case FormatHWP, FormatHWPX:
		title, body, meta, images, err = p.extractHWP(path, o.imageDir)
	case FormatPDF:
		title, body, quality, err = extractPDF(path)
	case FormatDocx:
		title, body, meta, err = extractDocx(path)
	case FormatXLSX:
		title, body, meta, err = extractXLSX(path)
	case FormatHTML:
		title, body, meta, err = extractHTMLFile(path)
	case FormatEPUB:
		title, body, meta, err = extractEPUB(path)
	case FormatMD:
		title, body, err = extractMarkdownFile(path)
	case FormatTXT:
		title, body, err = extractTextFile(path)
	case FormatCSV:
		title, body, err = extractCSVFile(path)
	default:
		return nil, fmt.Errorf("no parser for format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("convert %s (%s): %w", path, format, err)
	}

	if title == "" && meta["title"] != "" {
		title = meta["title"]
	}

	return &Result{
		Path:     path,
		Format:   format,
		Title:    title,
		Markdown: renderMarkdown(body, meta, o.noFrontMatter),
		Metadata: meta,
		Images:   images,
		Quality:  quality,
	}, nil
}

// extractHWP bridges to the hwp decoder package.
func (p *Pipeline) extractHWP(path, imageDir string) (string, string, map[string]string, []Image, error) {
	opts := []hwp.Option{hwp.WithLogger(p.logger)}
	if imageDir != "" {
		opts = append(opts, hwp.WithImages(imageDir))
	}
	doc, err := hwp.Extract(path, opts...)
	if err != nil {
		return "", "", nil, nil, err
	}
	images := make([]Image, 0, len(doc.Images))
	for _, img := range doc.Images {
		images = append(images, Image{Path: img.Path, Alt: img.Alt, Page: img.Page})
	}
	return doc.Metadata["title"], doc.Content, doc.Metadata, images, nil
}

// ConvertFile converts a document and writes the Markdown next to the
// requested output path, creating parent directories. An empty outPath
// derives the output from the input by swapping the extension to .md.
// It returns the written path.
func (p *Pipeline) ConvertFile(ctx context.Context, path, outPath string, opts ...ConvertOption) (string, error) {
	if outPath == "" {
		ext := filepath.Ext(path)
		outPath = strings.TrimSuffix(path, ext) + ".md"
	}

	res, err := p.Convert(ctx, path, opts...)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(outPath, []byte(res.Markdown), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", outPath, err)
	}
	return outPath, nil
}

// ConvertDir converts every supported file under inDir into outDir,
// mirroring the directory layout. Unsupported files are ignored; failed
// conversions are logged and counted, never fatal for the batch.
func (p *Pipeline) ConvertDir(ctx context.Context, inDir, outDir string, recursive bool, opts ...ConvertOption) (BatchResult, error) {
	var result BatchResult

	err := filepath.WalkDir(inDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != inDir {
				return fs.SkipDir
			}
			return nil
		}
		if _, err := p.Detect(path); err != nil {
			return nil
		}

		rel, err := filepath.Rel(inDir, path)
		if err != nil {
			return err
		}
		out := filepath.Join(outDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".md")

		if _, err := p.ConvertFile(ctx, path, out, opts...); err != nil {
			p.logger.Error("conversion failed", "path", path, "error", err)
			result.Failed++
			return nil
		}
		result.Converted++
		return nil
	})
	return result, err
}

func (p *Pipeline) recordHistory(path string, res *Result, err error, elapsed time.Duration) {
	if p.cfg.History == nil {
		return
	}
	e := &convlog.Entry{
		Path:       path,
		Status:     "success",
		DurationUs: elapsed.Microseconds(),
		Timestamp:  time.Now().UnixMicro(),
	}
	if res != nil {
		e.Format = string(res.Format)
	}
	if err != nil {
		e.Status = "failed"
		e.Error = err.Error()
	}
	p.cfg.History.RecordAsync(e)
}
