package hwp

import "errors"

var (
	// ErrInvalidFormat is returned when the input is not a valid HWP v5
	// compound file or HWPX archive. The wrapping error names the path.
	ErrInvalidFormat = errors.New("hwp: not a valid HWP document")

	// ErrNoText is returned when the container was valid and every body
	// section was visited, but no section produced any text.
	ErrNoText = errors.New("hwp: no extractable text")
)
