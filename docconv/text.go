package docconv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// extractTextFile reads a plain text file as-is, decoding legacy
// encodings when the bytes are not valid UTF-8.
func extractTextFile(path string) (string, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	body := strings.TrimSpace(decodeMarkup(raw))
	if body == "" {
		return "", "", fmt.Errorf("no text content found in %s", path)
	}
	return "", body, nil
}

// extractMarkdownFile passes Markdown through unchanged, taking the
// first level-one heading as the title.
func extractMarkdownFile(path string) (string, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	body := strings.TrimSpace(decodeMarkup(raw))
	if body == "" {
		return "", "", fmt.Errorf("no text content found in %s", path)
	}
	var title string
	for _, line := range strings.Split(body, "\n") {
		if after, ok := strings.CutPrefix(line, "# "); ok {
			title = strings.TrimSpace(after)
			break
		}
	}
	return title, body, nil
}

// extractCSVFile renders a CSV file as a Markdown pipe table. The
// first row is treated as the header.
func extractCSVFile(path string) (string, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return "", "", fmt.Errorf("parse csv %s: %w", path, err)
	}
	if len(rows) == 0 {
		return "", "", fmt.Errorf("no text content found in %s", path)
	}
	return "", markdownTable(rows), nil
}

// markdownTable renders rows as a Markdown pipe table. The first row
// becomes the header; ragged rows are padded to the widest row.
func markdownTable(rows [][]string) string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	var sb strings.Builder
	writeRow := func(row []string) {
		sb.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(row) {
				cell = tableCell(row[i])
			}
			sb.WriteString(" " + cell + " |")
		}
		sb.WriteString("\n")
	}

	writeRow(rows[0])
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
	return strings.TrimSpace(sb.String())
}

// tableCell escapes pipe characters and flattens embedded newlines so
// the cell stays on one table row.
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
