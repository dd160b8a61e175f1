package hwp

import "log/slog"

// Document is the result of extracting content from an HWP or HWPX file.
type Document struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Images   []Image           `json:"images,omitempty"`
}

// Image is an embedded binary asset written to disk during extraction.
type Image struct {
	Path string `json:"path"`
	Alt  string `json:"alt"`
	Page int    `json:"page"`
}

// Option configures a single extraction call.
type Option func(*options)

type options struct {
	extractImages bool
	imageDir      string
	logger        *slog.Logger
}

// WithImages enables embedded image extraction into dir.
func WithImages(dir string) Option {
	return func(o *options) {
		o.extractImages = true
		o.imageDir = dir
	}
}

// WithLogger sets the logger for recoverable extraction failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
