package hwp

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/richardlehane/mscfb"
)

// fileHeaderStream is the fixed-layout header stream of an HWP v5
// compound file. Byte 36, bit 0 carries the global compression flag.
const (
	fileHeaderStream    = "FileHeader"
	compressionFlagByte = 36
	bodySectionPrefix   = "BodyText/Section"
	binDataPrefix       = "BinData/"
)

// v5Decoder reads the binary HWP v5 format: an OLE2 compound file whose
// BodyText/SectionN streams hold record-encoded paragraph text.
type v5Decoder struct {
	opts *options
}

func (d *v5Decoder) extract(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := mscfb.New(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, path, err)
	}

	streams := readStreams(doc)

	header, ok := streams[fileHeaderStream]
	if !ok || len(header) <= compressionFlagByte {
		return nil, fmt.Errorf("%w: %s: missing FileHeader stream", ErrInvalidFormat, path)
	}
	compressed := header[compressionFlagByte]&1 == 1

	parts := assembleSections(streams, compressed, d.opts.logger)
	meta := descriptorMetadata(streams)

	var images []Image
	if d.opts.extractImages && d.opts.imageDir != "" {
		images = extractBinData(streams, compressed, docBase(path), d.opts.imageDir, d.opts.logger)
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoText, path)
	}

	return &Document{
		Content:  strings.Join(parts, "\n\n"),
		Metadata: meta,
		Images:   images,
	}, nil
}

// readStreams drains every stream of the compound file into a map keyed
// by the slash-joined stream path (e.g. "BodyText/Section0"). The file is
// read exactly once; storage entries contribute empty values.
func readStreams(doc *mscfb.Reader) map[string][]byte {
	streams := make(map[string][]byte)
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		name := entry.Name
		if len(entry.Path) > 0 {
			name = strings.Join(entry.Path, "/") + "/" + name
		}
		data, err := io.ReadAll(entry)
		if err != nil {
			continue
		}
		streams[name] = data
	}
	return streams
}

// assembleSections decodes body sections in ascending index order,
// starting at 0 and stopping at the first absent index. A section that
// fails to inflate contributes nothing; the rest of the document is still
// extracted.
func assembleSections(streams map[string][]byte, compressed bool, logger *slog.Logger) []string {
	var parts []string
	for idx := 0; ; idx++ {
		data, ok := streams[fmt.Sprintf("%s%d", bodySectionPrefix, idx)]
		if !ok {
			break
		}
		data, err := decompress(data, compressed)
		if err != nil {
			logger.Debug("hwp: section decompression failed", "section", idx, "error", err)
			continue
		}
		if text := sectionText(data); text != "" {
			parts = append(parts, text)
		}
	}
	return parts
}

// extractBinData writes embedded BinData assets to dir. Inflate failures
// keep the raw bytes; write failures are logged and skipped. The image
// index advances only on successful writes. Asset order inside the
// container carries no page information, so Page is always 0.
func extractBinData(streams map[string][]byte, compressed bool, base, dir string, logger *slog.Logger) []Image {
	names := make([]string, 0, len(streams))
	for name := range streams {
		if strings.HasPrefix(name, binDataPrefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var images []Image
	index := 0
	for _, name := range names {
		data := streams[name]
		if len(data) == 0 {
			continue
		}
		if inflated, err := decompress(data, compressed); err == nil {
			data = inflated
		}
		filename := imageFilename(base, index, sniffImageExt(data))
		path, err := saveImage(data, dir, filename)
		if err != nil {
			logger.Debug("hwp: image write failed", "stream", name, "error", err)
			continue
		}
		images = append(images, Image{Path: path, Alt: fmt.Sprintf("Image %d", index), Page: 0})
		index++
	}
	return images
}
