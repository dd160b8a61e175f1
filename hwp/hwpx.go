package hwp

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// maxXMLDepth bounds XML element nesting in section files. Real sections
// stay well under this; anything deeper is a malformed or hostile file.
const maxXMLDepth = 256

// hwpxImageExts lists archive entry extensions treated as images.
var hwpxImageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tiff": true, ".tif": true, ".wmf": true, ".emf": true,
}

// hwpxDecoder reads the XML-based HWPX format: a ZIP archive whose
// Contents/sectionN.xml entries hold the document body.
type hwpxDecoder struct {
	opts *options
}

func (d *hwpxDecoder) extract(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, path, err)
	}
	defer zr.Close()

	entries := make(map[string][]byte)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		data, err := readZipEntry(f)
		if err != nil {
			d.opts.logger.Debug("hwpx: entry read failed", "entry", f.Name, "error", err)
			continue
		}
		entries[f.Name] = data
	}

	var parts []string
	for _, name := range sectionEntryNames(entries) {
		text, err := sectionTextXML(entries[name])
		if err != nil {
			d.opts.logger.Warn("hwpx: section parse failed", "entry", name, "error", err)
			continue
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	meta := descriptorMetadata(entries)

	var images []Image
	if d.opts.extractImages && d.opts.imageDir != "" {
		images = d.extractArchiveImages(entries, docBase(path))
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

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// sectionEntryNames returns the body section entries in lexical order.
// The standard layout is Contents/sectionN.xml; some producers place the
// sections elsewhere, so any *section*.xml entry is accepted as fallback.
func sectionEntryNames(entries map[string][]byte) []string {
	var names []string
	for name := range entries {
		if strings.HasPrefix(name, "Contents/section") && strings.HasSuffix(name, ".xml") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		for name := range entries {
			lower := strings.ToLower(name)
			if strings.Contains(lower, "section") && strings.HasSuffix(lower, ".xml") {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// sectionTextXML collects all character data of a section document,
// paragraph-separated, walking the token stream without building a tree.
func sectionTextXML(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var parts []string
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxXMLDepth {
				return "", fmt.Errorf("xml nesting depth exceeds %d", maxXMLDepth)
			}
		case xml.EndElement:
			depth--
		case xml.CharData:
			if text := strings.TrimSpace(string(t)); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func (d *hwpxDecoder) extractArchiveImages(entries map[string][]byte, base string) []Image {
	var names []string
	for name := range entries {
		if hwpxImageExts[strings.ToLower(filepath.Ext(name))] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var images []Image
	index := 0
	for _, name := range names {
		data := entries[name]
		if len(data) == 0 {
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
		path, err := saveImage(data, d.opts.imageDir, imageFilename(base, index, ext))
		if err != nil {
			d.opts.logger.Debug("hwpx: image write failed", "entry", name, "error", err)
			continue
		}
		images = append(images, Image{Path: path, Alt: fmt.Sprintf("Image %d", index), Page: 0})
		index++
	}
	return images
}
