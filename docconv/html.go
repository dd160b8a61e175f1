package docconv

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
)

// mdConverter renders sanitized HTML as CommonMark with table support.
var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// htmlPolicy strips scripts, event handlers and other active content
// before Markdown conversion.
var htmlPolicy = bluemonday.UGCPolicy()

// extractHTMLFile converts an HTML file to Markdown. Title and meta tags
// are read from the parsed DOM; the body is sanitized and converted.
func extractHTMLFile(path string) (string, string, map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", nil, err
	}
	return htmlToMarkdown(decodeMarkup(raw))
}

// htmlToMarkdown converts an HTML string to (title, markdown, metadata).
func htmlToMarkdown(content string) (string, string, map[string]string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", "", nil, fmt.Errorf("parse html: %w", err)
	}
	title := findHTMLTitle(doc)
	meta := htmlMetaTags(doc)
	if title != "" {
		meta["title"] = title
	}
	if len(meta) == 0 {
		meta = nil
	}

	md, err := mdConverter.ConvertString(htmlPolicy.Sanitize(content))
	if err != nil {
		return "", "", nil, fmt.Errorf("markdown conversion: %w", err)
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return "", "", nil, fmt.Errorf("no text content found in HTML")
	}
	return title, md, meta, nil
}

// decodeMarkup decodes file bytes to a UTF-8 string. Korean-produced
// pages frequently ship as UTF-16 with BOM or EUC-KR/CP949 without any
// charset declaration, so those are tried before the Latin-1 fallback.
func decodeMarkup(raw []byte) string {
	if len(raw) >= 2 && (raw[0] == 0xFF && raw[1] == 0xFE || raw[0] == 0xFE && raw[1] == 0xFF) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if out, err := dec.Bytes(raw); err == nil {
			return string(out)
		}
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	// Decoders substitute U+FFFD rather than failing, so a clean
	// EUC-KR round trip is detected by the absence of replacements.
	if out, err := korean.EUCKR.NewDecoder().Bytes(raw); err == nil && !strings.ContainsRune(string(out), '�') {
		return string(out)
	}
	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	return string(out)
}

// findHTMLTitle extracts the <title> text.
func findHTMLTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findHTMLTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// htmlMetaTags collects <meta name=... content=...> pairs for the
// recognized metadata names.
func htmlMetaTags(n *html.Node) map[string]string {
	meta := make(map[string]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Meta {
			var name, content string
			for _, a := range n.Attr {
				switch a.Key {
				case "name":
					name = strings.ToLower(a.Val)
				case "content":
					content = a.Val
				}
			}
			switch name {
			case "author":
				name = "creator"
			case "description", "subject", "creator":
			default:
				name = ""
			}
			if name != "" && strings.TrimSpace(content) != "" {
				meta[name] = strings.TrimSpace(content)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return meta
}
