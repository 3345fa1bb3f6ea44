package tabular

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"
	"unicode/utf8"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// detectAndDecode sniffs the encoding of a legacy export, strips any BOM, and
// returns UTF-8 bytes plus the detected encoding name. Exports from the old
// site show up in UTF-8 (with or without BOM), UTF-16 with BOM, and Latin-1;
// anything that is not valid UTF-8 and carries no BOM is treated as Latin-1,
// which cannot fail since every byte is a code point.
func detectAndDecode(data []byte) ([]byte, string) {
	switch {
	case len(data) == 0:
		return data, "utf-8"
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], "utf-8-bom"
	case bytes.HasPrefix(data, bomUTF16LE):
		return decodeUTF16(data[len(bomUTF16LE):], binary.LittleEndian), "utf-16le"
	case bytes.HasPrefix(data, bomUTF16BE):
		return decodeUTF16(data[len(bomUTF16BE):], binary.BigEndian), "utf-16be"
	case utf8.Valid(data):
		return data, "utf-8"
	default:
		return decodeLatin1(data), "latin-1"
	}
}

func decodeUTF16(data []byte, order binary.ByteOrder) []byte {
	// An odd trailing byte is a truncated code unit; drop it.
	data = data[:len(data)&^1]

	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		units = append(units, order.Uint16(data[i:i+2]))
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for _, r := range utf16.Decode(units) {
		buf.WriteRune(r)
	}
	return buf.Bytes()
}

func decodeLatin1(data []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(data) * 2)
	for _, b := range data {
		buf.WriteRune(rune(b))
	}
	return buf.Bytes()
}
