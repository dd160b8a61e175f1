package docconv

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"path"
	"sort"
	"strings"
)

// epubPackage is the subset of the OPF package document we care about:
// Dublin Core metadata, the manifest and the spine reading order.
type epubPackage struct {
	Metadata struct {
		Title       string `xml:"title"`
		Creator     string `xml:"creator"`
		Subject     string `xml:"subject"`
		Description string `xml:"description"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID        string `xml:"id,attr"`
			Href      string `xml:"href,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// extractEPUB converts an EPUB archive to Markdown. Chapters are read
// in spine order when the OPF package is usable, otherwise all XHTML
// entries are taken in name order.
func extractEPUB(p string) (string, string, map[string]string, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return "", "", nil, fmt.Errorf("open epub %s: %w", p, err)
	}
	defer zr.Close()

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	pkg, opfDir := readOPF(entries)

	meta := make(map[string]string)
	var title string
	if pkg != nil {
		title = strings.TrimSpace(pkg.Metadata.Title)
		for k, v := range map[string]string{
			"title":       pkg.Metadata.Title,
			"creator":     pkg.Metadata.Creator,
			"subject":     pkg.Metadata.Subject,
			"description": pkg.Metadata.Description,
		} {
			if s := strings.TrimSpace(v); s != "" {
				meta[k] = s
			}
		}
	}
	if len(meta) == 0 {
		meta = nil
	}

	var chapters []string
	for _, name := range epubChapterNames(pkg, opfDir, entries) {
		f, ok := entries[name]
		if !ok {
			continue
		}
		raw, err := readAllZip(f)
		if err != nil {
			continue
		}
		chTitle, md, _, err := htmlToMarkdown(decodeMarkup(raw))
		if err != nil {
			continue
		}
		if title == "" {
			title = chTitle
		}
		chapters = append(chapters, md)
	}
	if len(chapters) == 0 {
		return "", "", nil, fmt.Errorf("no text content found in EPUB %s", p)
	}
	return title, strings.Join(chapters, "\n\n"), meta, nil
}

// readOPF locates and parses the first .opf package document. Returns
// nil when absent or malformed; extraction then falls back to a plain
// entry scan.
func readOPF(entries map[string]*zip.File) (*epubPackage, string) {
	names := make([]string, 0, len(entries))
	for name := range entries {
		if strings.HasSuffix(strings.ToLower(name), ".opf") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		raw, err := readAllZip(entries[name])
		if err != nil {
			continue
		}
		var pkg epubPackage
		if err := xml.Unmarshal(raw, &pkg); err != nil {
			continue
		}
		return &pkg, path.Dir(name)
	}
	return nil, ""
}

// epubChapterNames resolves the spine to archive entry names, or lists
// every XHTML entry sorted by name when the spine is empty.
func epubChapterNames(pkg *epubPackage, opfDir string, entries map[string]*zip.File) []string {
	if pkg != nil && len(pkg.Spine.ItemRefs) > 0 {
		hrefs := make(map[string]string, len(pkg.Manifest.Items))
		for _, item := range pkg.Manifest.Items {
			hrefs[item.ID] = item.Href
		}
		var names []string
		for _, ref := range pkg.Spine.ItemRefs {
			href, ok := hrefs[ref.IDRef]
			if !ok {
				continue
			}
			name := href
			if opfDir != "" && opfDir != "." {
				name = path.Join(opfDir, href)
			}
			if _, ok := entries[name]; ok && isXHTMLName(name) {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			return names
		}
	}
	var names []string
	for name := range entries {
		if isXHTMLName(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func isXHTMLName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".xhtml") ||
		strings.HasSuffix(lower, ".html") ||
		strings.HasSuffix(lower, ".htm")
}
