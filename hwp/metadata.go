package hwp

import (
	"bytes"
	"encoding/xml"
	"sort"
	"strings"

	"github.com/richardlehane/msoleps"
)

// isDescriptorName reports whether a stream or archive entry name looks
// like a document descriptor. There is no fixed descriptor name across
// producers, so matching is heuristic: a .hpf package file, an OLE
// property-set stream (the \x05 name prefix), or anything mentioning
// metadata.
func isDescriptorName(name string) bool {
	if strings.HasPrefix(name, "\x05") {
		return true
	}
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".hpf") ||
		strings.Contains(lower, "meta") ||
		strings.Contains(lower, "summary")
}

// olePropertyKeys maps OLE summary-information property names to the
// metadata keys shared across formats. Author becomes creator to match
// the Dublin Core naming used everywhere else.
var olePropertyKeys = map[string]string{
	"Title":    "title",
	"Author":   "creator",
	"Subject":  "subject",
	"Comments": "description",
	"AppName":  "application",
}

func recognizedMetaTag(name string) bool {
	switch name {
	case "title", "creator", "subject", "description":
		return true
	}
	return false
}

// descriptorMetadata scans candidate descriptor streams and collects
// recognized fields into a flat map. OLE property-set streams (HWP v5's
// \x05HwpSummaryInformation) are parsed as binary property sets; every
// other candidate is tried as a small XML tree. A candidate that fails
// to parse is skipped; if every candidate fails the map is empty. This
// is best-effort and never an error.
func descriptorMetadata(candidates map[string][]byte) map[string]string {
	meta := make(map[string]string)

	names := make([]string, 0, len(candidates))
	for name := range candidates {
		if isDescriptorName(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.HasPrefix(name, "\x05") {
			collectPropertySetMetadata(candidates[name], meta)
			continue
		}
		collectXMLMetadata(candidates[name], meta)
	}
	return meta
}

// collectPropertySetMetadata reads an OLE property set stream and
// records the recognized summary-information properties. A stream that
// does not parse as a property set contributes nothing.
func collectPropertySetMetadata(data []byte, meta map[string]string) {
	props := msoleps.New()
	if err := props.Reset(bytes.NewReader(data)); err != nil {
		return
	}
	for _, p := range props.Property {
		key, ok := olePropertyKeys[p.Name]
		if !ok {
			continue
		}
		if text := strings.TrimSpace(p.String()); text != "" {
			meta[key] = text
		}
	}
}

// collectXMLMetadata token-walks an XML document, recording the character
// data of recognized metadata elements. It stops silently at the first
// decode error, keeping whatever was collected before it.
func collectXMLMetadata(data []byte, meta map[string]string) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var current string
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if recognizedMetaTag(t.Name.Local) {
				current = t.Name.Local
			}
		case xml.CharData:
			if current != "" {
				if text := strings.TrimSpace(string(t)); text != "" {
					meta[current] = text
				}
			}
		case xml.EndElement:
			current = ""
		}
	}
}
