package docconv

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// maxXMLDepth bounds element nesting when token-walking document XML.
const maxXMLDepth = 256

// metaFromXML collects recognized Dublin-Core-style elements (title,
// creator, subject, description) from a small XML document into meta.
// Parse errors stop the walk silently; this is best-effort.
func metaFromXML(data []byte, meta map[string]string) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var current string
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "title", "creator", "subject", "description":
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
