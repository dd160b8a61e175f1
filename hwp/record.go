package hwp

import (
	"encoding/binary"
	"strings"
)

// Record tag IDs from the HWP v5 body section stream. Only paragraph text
// is decoded today; unknown tags are skipped with their payload intact.
const (
	tagParaText = 67
)

const (
	recordHeaderSize = 4
	// sizeSentinel in the 12-bit size field means the true size follows
	// as an extra 4-byte little-endian integer.
	sizeSentinel = 0xFFF
)

// Record is one self-describing unit of a decompressed body section:
// a 10-bit tag, a 10-bit nesting level and a sized payload.
type Record struct {
	Tag   uint16
	Level uint16
	Data  []byte
}

// RecordScanner walks a flat section buffer record by record, in the style
// of bufio.Scanner. A declared size that would read past the end of the
// buffer terminates the scan cleanly; records decoded before that point
// remain valid.
type RecordScanner struct {
	buf []byte
	off int
	rec Record
}

// NewRecordScanner returns a scanner positioned at the start of buf.
// The scanner does not copy buf; record payloads alias it.
func NewRecordScanner(buf []byte) *RecordScanner {
	return &RecordScanner{buf: buf}
}

// Next advances to the next record. It returns false at the end of the
// buffer or on a truncated header, extended size field or payload.
func (s *RecordScanner) Next() bool {
	if s.off+recordHeaderSize > len(s.buf) {
		return false
	}
	h := binary.LittleEndian.Uint32(s.buf[s.off:])
	s.off += recordHeaderSize

	tag := uint16(h & 0x3FF)
	level := uint16((h >> 10) & 0x3FF)
	size := int((h >> 20) & 0xFFF)

	if size == sizeSentinel {
		if s.off+4 > len(s.buf) {
			s.off = len(s.buf)
			return false
		}
		size = int(binary.LittleEndian.Uint32(s.buf[s.off:]))
		s.off += 4
	}

	if size < 0 || size > len(s.buf)-s.off {
		s.off = len(s.buf)
		return false
	}

	s.rec = Record{Tag: tag, Level: level, Data: s.buf[s.off : s.off+size]}
	s.off += size
	return true
}

// Record returns the record read by the last successful call to Next.
func (s *RecordScanner) Record() Record {
	return s.rec
}

// sectionText decodes all paragraph-text records of one decompressed body
// section and joins the non-empty fragments with a blank line.
func sectionText(data []byte) string {
	var parts []string
	sc := NewRecordScanner(data)
	for sc.Next() {
		rec := sc.Record()
		switch rec.Tag {
		case tagParaText:
			if text := strings.TrimSpace(decodeParaText(rec.Data)); text != "" {
				parts = append(parts, text)
			}
		default:
			// Unhandled tag: payload already skipped by the scanner.
		}
	}
	return strings.Join(parts, "\n\n")
}
