package docconv

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractXLSX renders a workbook as Markdown, one pipe table per
// sheet under a level-two heading with the sheet name. Formula cells
// contribute their cached values.
func extractXLSX(path string) (string, string, map[string]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", "", nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	var parts []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", "", nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		parts = append(parts, "## "+sheet+"\n\n"+markdownTable(rows))
	}
	if len(parts) == 0 {
		return "", "", nil, fmt.Errorf("no text content found in %s", path)
	}

	meta := xlsxDocProps(f)
	return meta["title"], strings.Join(parts, "\n\n"), meta, nil
}

// xlsxDocProps collects the workbook's core document properties under
// the metadata keys shared across formats. Missing properties are
// simply absent.
func xlsxDocProps(f *excelize.File) map[string]string {
	meta := make(map[string]string)
	props, err := f.GetDocProps()
	if err != nil || props == nil {
		return meta
	}
	fields := map[string]string{
		"title":       props.Title,
		"creator":     props.Creator,
		"subject":     props.Subject,
		"description": props.Description,
	}
	for key, value := range fields {
		if value = strings.TrimSpace(value); value != "" {
			meta[key] = value
		}
	}
	return meta
}
