// Package textenc implements the byte-level conversions backing the
// TextEncoder/TextDecoder intrinsics: UTF-8 is the only encoding
// TextEncoder.encode produces (per the host contract), but TextDecoder
// accepts the common Unicode encodings a host might hand it, delegating
// the actual transcoding to golang.org/x/text rather than hand-rolling
// a UTF-16 surrogate-pair walker, the way the teacher's own
// internal/interp/encoding.go delegates to the same package for its
// read/write stream helpers.
package textenc

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encode returns the UTF-8 bytes of s — TextEncoder in every host
// environment only ever produces UTF-8.
func Encode(s string) []byte {
	return []byte(s)
}

// Decode transcodes data from the named encoding into a Go string.
// Supported names: "utf-8" (the default), "utf-16le", "utf-16be",
// "utf-16" (BOM-sniffed, defaulting to little-endian).
func Decode(data []byte, name string) (string, error) {
	enc, err := lookup(name)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return string(data), nil
	}
	reader := transform.NewReader(bytes.NewReader(data), enc.NewDecoder())
	out, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("textenc: decode %s: %w", name, err)
	}
	return string(out), nil
}

func lookup(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "utf-16le", "utf16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case "utf-16be", "utf16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	default:
		return nil, fmt.Errorf("textenc: unsupported encoding %q", name)
	}
}
