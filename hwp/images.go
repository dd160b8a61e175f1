package hwp

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a generated image filename would
// escape the target directory.
var ErrPathTraversal = errors.New("hwp: image path escapes target directory")

// sniffImageExt guesses an image file extension from magic bytes,
// defaulting to png when nothing matches.
func sniffImageExt(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "png"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		return "jpg"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "gif"
	case bytes.HasPrefix(data, []byte("BM")):
		return "bmp"
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return "tiff"
	}
	return "png"
}

func imageFilename(base string, index int, ext string) string {
	return fmt.Sprintf("%s_img_%03d.%s", base, index, ext)
}

// safeJoin joins dir and filename, rejecting any name that would
// resolve outside dir. The document base name feeds into filename, so
// it is treated as untrusted input.
func safeJoin(dir, filename string) (string, error) {
	if strings.Contains(filename, "..") {
		return "", ErrPathTraversal
	}
	cleaned := filepath.Join(dir, filepath.Clean("/"+filename))
	if !strings.HasPrefix(cleaned, filepath.Clean(dir)+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return cleaned, nil
}

// saveImage writes one extracted asset, creating the directory on first
// use, and returns the written path.
func saveImage(data []byte, dir, filename string) (string, error) {
	path, err := safeJoin(dir, filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// docBase returns the document file name without its extension, used as
// the prefix for generated image file names.
func docBase(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return base
}
