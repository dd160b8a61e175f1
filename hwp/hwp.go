// Package hwp decodes Hangul Word Processor documents into plain text,
// metadata and embedded images.
//
// Two container formats exist behind one entry point:
//   - HWP v5 (.hwp): an OLE2 compound file holding record-encoded binary
//     body sections, optionally raw-DEFLATE compressed.
//   - HWPX (.hwpx): a ZIP archive holding XML body sections.
//
// The format is probed from the file's magic bytes, not its extension.
//
// Usage:
//
//	doc, err := hwp.Extract("report.hwp")
//	fmt.Println(doc.Content, doc.Metadata["title"])
//
// Extraction is synchronous and owns the container exclusively for the
// duration of the call; every handle is released before it returns.
// Concurrent calls are safe as long as each opens its own path.
package hwp

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

var (
	// OLE2 compound file signature.
	oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	// ZIP local file header signature.
	zipSignature = []byte("PK\x03\x04")
)

// decoder is the capability shared by the two container formats.
type decoder interface {
	extract(path string) (*Document, error)
}

// Extract decodes the document at path. It returns an error wrapping
// ErrInvalidFormat when the file is neither container format, and one
// wrapping ErrNoText when the container is valid but yields no text.
// Metadata and image failures are never fatal.
func Extract(path string, opts ...Option) (*Document, error) {
	o := newOptions(opts)
	d, err := probe(path, o)
	if err != nil {
		return nil, err
	}
	return d.extract(path)
}

// probe selects a decoder from the file's leading magic bytes.
func probe(path string, o *options) (decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sig [8]byte
	n, _ := io.ReadFull(f, sig[:])
	switch {
	case n >= len(oleSignature) && bytes.Equal(sig[:len(oleSignature)], oleSignature):
		return &v5Decoder{opts: o}, nil
	case n >= len(zipSignature) && bytes.Equal(sig[:len(zipSignature)], zipSignature):
		return &hwpxDecoder{opts: o}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, path)
}
