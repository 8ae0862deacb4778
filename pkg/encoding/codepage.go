// Package encoding decodes the fixed-size, NUL-padded string fields found
// in binary asset containers.
package encoding

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultCodePage is the ANSI code page DirectX tooling writes with on
// western Windows installs.
const DefaultCodePage = "windows-1252"

// CodePage converts narrow strings from one legacy encoding to UTF-8.
type CodePage struct {
	name string
	enc  xenc.Encoding
}

// LookupCodePage returns the code page registered under name. Names follow
// the WHATWG encoding labels ("windows-1252", "shift_jis", "euc-kr",
// "utf-8"); "ansi" and "" select DefaultCodePage.
func LookupCodePage(name string) (CodePage, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	switch label {
	case "", "ansi":
		return CodePage{name: DefaultCodePage, enc: charmap.Windows1252}, nil
	case "cp949", "uhc":
		return CodePage{name: "euc-kr", enc: korean.EUCKR}, nil
	case "utf8", "utf-8":
		return CodePage{name: "utf-8", enc: unicode.UTF8}, nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return CodePage{}, fmt.Errorf("unknown code page %q: %w", name, err)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = label
	}
	return CodePage{name: canonical, enc: enc}, nil
}

// Default returns DefaultCodePage.
func Default() CodePage {
	cp, _ := LookupCodePage(DefaultCodePage)
	return cp
}

// Name returns the canonical label of the code page.
func (cp CodePage) Name() string {
	if cp.enc == nil {
		return DefaultCodePage
	}
	return cp.name
}

// Decode converts narrow bytes to a UTF-8 string.
func (cp CodePage) Decode(data []byte) (string, error) {
	enc := cp.enc
	if enc == nil {
		enc = charmap.Windows1252
	}
	result, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(result) {
		return "", fmt.Errorf("decoding %s: invalid UTF-8 result", cp.Name())
	}
	return string(result), nil
}

// TrimNull returns data up to its first NUL byte.
func TrimNull(data []byte) []byte {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return data[:i]
	}
	return data
}

// IsEmptyField reports whether a fixed-size string field holds no text.
func IsEmptyField(data []byte) bool {
	return len(data) == 0 || data[0] == 0
}

// FixedString decodes a NUL-terminated field into a string that fits a
// wide-character buffer of limit UTF-16 units, terminator included.
// ok is false when the field cannot be decoded or would not fit; the
// caller treats that field as absent.
func (cp CodePage) FixedString(field []byte, limit int) (s string, ok bool) {
	decoded, err := cp.Decode(TrimNull(field))
	if err != nil {
		return "", false
	}
	if UTF16Len(decoded)+1 > limit {
		return "", false
	}
	return decoded, true
}

// UTF16Len returns the number of UTF-16 code units needed to encode s.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// NormalizePath converts Windows separators to forward slashes. Texture
// paths inside containers are authored on Windows.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
