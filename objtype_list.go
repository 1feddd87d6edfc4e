package tcltk

import (
	"strings"
	"unicode/utf8"
)

// ListType is the internal representation for list values.
type ListType []*Obj

func (t ListType) Name() string { return "list" }
func (t ListType) UpdateString() string {
	var result strings.Builder
	for i, item := range t {
		if i > 0 {
			result.WriteByte(' ')
		}
		result.WriteString(QuoteElement(item.String()))
	}
	return result.String()
}

func (t ListType) IntoList() ([]*Obj, bool) { return t, true }

// BytesType is the internal representation for binary values.
//
// The string form maps every byte to the code point of the same value, the
// way TCL byte arrays shimmer to strings.
type BytesType []byte

func (t BytesType) Name() string { return "bytearray" }
func (t BytesType) UpdateString() string {
	var b strings.Builder
	b.Grow(len(t))
	for _, c := range t {
		if c < utf8.RuneSelf {
			b.WriteByte(c)
		} else {
			b.WriteRune(rune(c))
		}
	}
	return b.String()
}

func (t BytesType) IntoBytes() ([]byte, bool) { return t, true }
