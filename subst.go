package tcltk

import (
	"fmt"
	"reflect"
	"strings"
)

// fieldKind is the type of value an event substitution produces.
type fieldKind int

const (
	fieldString fieldKind = iota
	fieldInt
	fieldBool
)

func (k fieldKind) String() string {
	switch k {
	case fieldInt:
		return "integer"
	case fieldBool:
		return "boolean"
	}
	return "string"
}

// substCodes lists the %-codes of Tk event bindings and the kind of value
// each one substitutes.
var substCodes = map[byte]fieldKind{
	'#': fieldInt,    // serial
	'b': fieldInt,    // button
	'c': fieldInt,    // count
	'h': fieldInt,    // height
	'k': fieldInt,    // keycode
	't': fieldInt,    // time
	'w': fieldInt,    // width
	'x': fieldInt,    // x
	'y': fieldInt,    // y
	'X': fieldInt,    // root x
	'Y': fieldInt,    // root y
	'D': fieldInt,    // delta
	's': fieldInt,    // state
	'N': fieldInt,    // keysym number
	'i': fieldInt,    // window id
	'B': fieldInt,    // border width
	'M': fieldInt,    // script count
	'T': fieldInt,    // event type
	'o': fieldBool,   // override redirect
	'E': fieldBool,   // send event
	'f': fieldBool,   // focus
	'A': fieldString, // unicode character
	'K': fieldString, // keysym
	'W': fieldString, // window path
	'd': fieldString, // detail / user data
	'm': fieldString, // mode
	'p': fieldString, // place
	'P': fieldString, // property
	'R': fieldString, // root window id
	'S': fieldString, // subwindow id
	'a': fieldString, // above
}

// patternField is one whitespace-separated word of a substitution pattern.
type patternField struct {
	text    string
	kind    fieldKind
	literal bool // no substitution: the word is passed through unchanged
}

// parsePattern splits a substitution pattern such as "%x %y" into fields.
// A word that is exactly one code takes that code's kind; a word mixing
// codes and text (for example "%x,%y") is a string; a word without codes
// is a literal.
func parsePattern(pattern string) ([]patternField, error) {
	words := strings.Fields(pattern)
	fields := make([]patternField, 0, len(words))
	for _, w := range words {
		f := patternField{text: w}
		codes := 0
		for j := 0; j < len(w); j++ {
			if w[j] != '%' {
				continue
			}
			if j+1 == len(w) {
				return nil, fmt.Errorf("tcltk: pattern %q: dangling %% in %q", pattern, w)
			}
			j++
			if w[j] == '%' {
				continue
			}
			kind, ok := substCodes[w[j]]
			if !ok {
				return nil, fmt.Errorf("tcltk: pattern %q: unknown substitution %%%c", pattern, w[j])
			}
			f.kind = kind
			codes++
		}
		switch {
		case codes == 0:
			f.literal = true
			f.kind = fieldString
			f.text = strings.ReplaceAll(w, "%%", "%")
		case codes > 1 || len(w) != 2:
			f.kind = fieldString
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// scriptWord renders the field as it appears in a binding script.
func (f patternField) scriptWord() string {
	if f.literal {
		return strings.ReplaceAll(QuoteElement(f.text), "%", "%%")
	}
	return f.text
}

// accepts reports whether a parameter of type t can receive values of the
// field's kind.
func (f patternField) accepts(t reflect.Type) bool {
	if t == objPtrType || reflect.PointerTo(t).Implements(decoderType) {
		return true
	}
	switch t.Kind() {
	case reflect.Interface:
		return t.NumMethod() == 0
	case reflect.String:
		return true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return f.kind == fieldInt || f.kind == fieldBool || (f.literal && f.decodes(t))
	case reflect.Bool:
		return f.kind == fieldBool || f.kind == fieldInt || (f.literal && f.decodes(t))
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8 && f.kind == fieldString
	}
	return f.literal && f.decodes(t)
}

// decodes reports whether the literal text of the field decodes into t.
func (f patternField) decodes(t reflect.Type) bool {
	return decodeValue(NewString(f.text), reflect.New(t).Elem()) == nil
}
