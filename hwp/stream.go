package hwp

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// decompress inflates a body or binary stream. HWP v5 compresses streams
// with raw DEFLATE (no zlib header, the windowBits=-15 scheme), gated by a
// single flag in the FileHeader that applies to every stream uniformly.
// With the flag unset the bytes are returned unchanged.
func decompress(data []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return data, nil
	}
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return out, nil
}
