package docconv

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDocx converts a .docx file by reading word/document.xml from the
// ZIP archive and rendering paragraphs as Markdown. Heading styles map to
// ATX headings; document properties come from docProps/core.xml.
func extractDocx(path string) (string, string, map[string]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", "", nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	meta := make(map[string]string)
	var docFile *zip.File
	for _, f := range r.File {
		switch f.Name {
		case "word/document.xml":
			docFile = f
		case "docProps/core.xml":
			if data, err := readAllZip(f); err == nil {
				metaFromXML(data, meta)
			}
		}
	}
	if docFile == nil {
		return "", "", nil, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", "", nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	title, body, err := docxBody(rc)
	if err != nil {
		return "", "", nil, err
	}
	if len(meta) == 0 {
		meta = nil
	}
	return title, body, meta, nil
}

func readAllZip(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// docxBody renders the WordprocessingML body as Markdown paragraphs.
func docxBody(r io.Reader) (string, string, error) {
	dec := xml.NewDecoder(r)

	var (
		blocks      []string
		title       string
		text        strings.Builder
		inParagraph bool
		style       string
		depth       int
	)

	flush := func() {
		t := strings.TrimSpace(text.String())
		text.Reset()
		if t == "" {
			return
		}
		if level := docxHeadingLevel(style); level > 0 {
			if title == "" {
				title = t
			}
			blocks = append(blocks, strings.Repeat("#", level)+" "+t)
		} else {
			blocks = append(blocks, t)
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", "", fmt.Errorf("document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxXMLDepth {
				return "", "", fmt.Errorf("document.xml: nesting depth exceeds %d", maxXMLDepth)
			}
			switch t.Name.Local {
			case "p":
				inParagraph = true
				text.Reset()
				style = ""
			case "pStyle":
				if inParagraph {
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" {
							style = attr.Value
						}
					}
				}
			case "br":
				if inParagraph {
					text.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inParagraph {
				text.Write(t)
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				flush()
			}
		}
	}

	return title, strings.Join(blocks, "\n\n"), nil
}

// docxHeadingLevel maps a paragraph style name to a heading level.
// "Heading1"…"Heading6" and localized prefixes count; "Title" is level 1.
func docxHeadingLevel(style string) int {
	lower := strings.ToLower(style)
	switch lower {
	case "title":
		return 1
	case "subtitle":
		return 2
	}
	for _, prefix := range []string{"heading", "titre", "überschrift"} {
		if rest, ok := strings.CutPrefix(lower, prefix); ok {
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}
