// Package client holds the pieces of the codesearch CLI that sit between the
// command layer and the backend client: configuration loading and the JSON
// result printer.
package client

import (
	"bytes"
	"codesearch/internal/codesearch"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"
)

// prettyIndent is the indentation unit of pretty output.
const prettyIndent = "    "

// PrintResult writes result to w as a single JSON document followed by a
// newline.
//
// Pretty output is indented and has enumeration codes replaced by their
// symbolic names. Compact output is the plain encoding of result on one line.
// Both keep the field order of result and escape every non-ASCII character
// as \uXXXX.
func PrintResult(w io.Writer, result interface{}, pretty bool) error {
	var (
		out []byte
		err error
	)
	if pretty {
		out, err = encodePretty(result)
	} else {
		out, err = encodeCompact(result)
	}
	if err != nil {
		return err
	}

	_, err = w.Write(out)
	return err
}

func encodeCompact(result interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return []byte(escapeNonASCII(buf.String())), nil
}

func encodePretty(result interface{}) ([]byte, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	tree, err := codesearch.DecodeOrdered(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to re-read result: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", prettyIndent)
	if err := enc.Encode(codesearch.Symbolize(tree)); err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	return []byte(escapeNonASCII(buf.String())), nil
}

// escapeNonASCII rewrites every rune above 0x7f as a JSON \u escape, using
// surrogate pairs outside the basic multilingual plane. Non-ASCII runes can
// only occur inside JSON strings, so the document stays valid.
func escapeNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r < 0x80:
			b.WriteRune(r)
		case r > 0xffff:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
		default:
			fmt.Fprintf(&b, `\u%04x`, r)
		}
	}
	return b.String()
}
