package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// windows-1252 leaves these byte values unmapped; their presence means the
// file cannot be a valid cp1252 document.
var cp1252Undefined = [...]byte{0x81, 0x8D, 0x8F, 0x90, 0x9D}

// decodeResult carries the decoded text plus which encoding produced it.
type decodeResult struct {
	Text     string
	Encoding string
	Replaced bool
}

// decodeBytes decodes a raw file buffer using an ordered attempt list:
// strict UTF-8, strict windows-1252, latin-1, and finally UTF-8 with byte
// replacement. The final stage never fails; latin-1 is total as well, so the
// replacement fallback is only reached when an earlier attempt is skipped.
func decodeBytes(buf []byte) decodeResult {
	if utf8.Valid(buf) {
		return decodeResult{Text: string(buf), Encoding: "utf-8"}
	}

	if text, err := decodeCP1252(buf); err == nil {
		return decodeResult{Text: text, Encoding: "cp1252"}
	}

	if text, err := decodeLatin1(buf); err == nil {
		return decodeResult{Text: text, Encoding: "latin-1"}
	}

	// Last resort: keep going and replace invalid sequences so a handful of
	// bad bytes can't abort the whole import.
	return decodeResult{
		Text:     strings.ToValidUTF8(string(buf), string(utf8.RuneError)),
		Encoding: "utf-8-replace",
		Replaced: true,
	}
}

// decodeCP1252 decodes windows-1252 strictly: bytes the codepage leaves
// undefined are an error rather than a replacement character.
func decodeCP1252(buf []byte) (string, error) {
	for _, b := range buf {
		for _, undef := range cp1252Undefined {
			if b == undef {
				return "", fmt.Errorf("byte 0x%02X is not valid cp1252", b)
			}
		}
	}

	out, err := charmap.Windows1252.NewDecoder().Bytes(buf)
	if err != nil {
		return "", fmt.Errorf("cp1252 decode failed: %w", err)
	}
	return string(out), nil
}

// decodeLatin1 decodes ISO 8859-1. Every byte value maps to a code point, so
// this cannot fail; the error return keeps the attempt chain uniform.
func decodeLatin1(buf []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(buf)
	if err != nil {
		return "", fmt.Errorf("latin-1 decode failed: %w", err)
	}
	return string(out), nil
}
