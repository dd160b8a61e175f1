package docconv

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// renderMarkdown assembles the final Markdown output: an optional YAML
// front matter block followed by the body.
func renderMarkdown(body string, meta map[string]string, noFrontMatter bool) string {
	body = strings.TrimSpace(body)
	if noFrontMatter || len(meta) == 0 {
		return body
	}
	head, err := yaml.Marshal(meta)
	if err != nil {
		return body
	}
	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(head)
	sb.WriteString("---\n\n")
	sb.WriteString(body)
	return sb.String()
}
