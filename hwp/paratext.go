package hwp

import (
	"encoding/binary"
	"strings"
)

// inlineControlSize is the fixed width of the data block that follows an
// inline or extended control code inside a paragraph text payload. The
// format historically varies this per control; 14 bytes matches every
// control we decode around today and is kept uniform on purpose.
const inlineControlSize = 14

// inlineControls marks the control codes that carry a trailing
// inlineControlSize-byte data block which must not be read as characters.
var inlineControls = [32]bool{
	1: true, 2: true, 3: true,
	11: true, 12: true,
	14: true, 15: true, 16: true, 17: true, 18: true,
	21: true, 22: true, 23: true,
}

// decodeParaText converts a paragraph text payload, a stream of
// little-endian 16-bit codes, into a string. Code 0 ends the text;
// codes below 32 are controls: 10 and 13 become a line break, 30 a
// non-breaking space, and the inline controls skip their data block.
// Everything else below 32 is dropped.
func decodeParaText(data []byte) string {
	var sb strings.Builder
	for i := 0; i+1 < len(data); {
		code := binary.LittleEndian.Uint16(data[i:])
		i += 2

		switch {
		case code == 0:
			return sb.String()
		case code >= 32:
			sb.WriteRune(rune(code))
		case inlineControls[code]:
			i += inlineControlSize
		case code == 10 || code == 13:
			sb.WriteByte('\n')
		case code == 30:
			sb.WriteRune(' ')
		}
	}
	return sb.String()
}
