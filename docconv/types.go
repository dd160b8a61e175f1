package docconv

// Format identifies a document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDocx Format = "docx"
	FormatXLSX Format = "xlsx"
	FormatHWP  Format = "hwp"
	FormatHWPX Format = "hwpx"
	FormatHTML Format = "html"
	FormatEPUB Format = "epub"
	FormatMD   Format = "md"
	FormatTXT  Format = "txt"
	FormatCSV  Format = "csv"
)

// Image is a reference to an extracted embedded image.
type Image struct {
	Path string `json:"path"`
	Alt  string `json:"alt"`
	Page int    `json:"page"`
}

// Result is the outcome of converting one document to Markdown.
type Result struct {
	Path     string            `json:"path"`
	Format   Format            `json:"format"`
	Title    string            `json:"title,omitempty"`
	Markdown string            `json:"markdown"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Images   []Image           `json:"images,omitempty"`
	Quality  *PDFQuality       `json:"quality,omitempty"`
}

// BatchResult summarizes a directory conversion run.
type BatchResult struct {
	Converted int `json:"converted"`
	Failed    int `json:"failed"`
}

// Total returns the number of files attempted.
func (r BatchResult) Total() int { return r.Converted + r.Failed }
