package tcltk

import (
	"strings"
	"unicode/utf8"
)

// ParseList parses a TCL list string into its elements.
//
// The grammar is the interpreter's own: elements are separated by
// whitespace; an element starting with an open brace extends to the
// matching close brace and is taken literally; an element starting with a
// double quote extends to the next unescaped quote and undergoes backslash
// substitution; any other element extends to the next whitespace and
// undergoes backslash substitution.
//
// A malformed string yields a *NotListError.
//
//	elems, _ := tcltk.ParseList(`a {b c} "d e" f\ g`)
//	// elems == []string{"a", "b c", "d e", "f g"}
func ParseList(s string) ([]string, error) {
	var items []string
	pos := 0
	for {
		for pos < len(s) && isListSpace(s[pos]) {
			pos++
		}
		if pos >= len(s) {
			return items, nil
		}

		var elem string
		switch s[pos] {
		case '{':
			// Braced element
			depth := 1
			start := pos + 1
			pos++
			for pos < len(s) && depth > 0 {
				switch s[pos] {
				case '{':
					depth++
				case '}':
					depth--
				case '\\':
					pos++
				}
				pos++
			}
			if depth != 0 {
				return nil, &NotListError{Value: s, Reason: "unmatched open brace in list", Incomplete: true}
			}
			elem = s[start : pos-1]
			if pos < len(s) && !isListSpace(s[pos]) {
				return nil, &NotListError{Value: s, Reason: "list element in braces followed by \"" + nextWord(s[pos:]) + "\" instead of space"}
			}
		case '"':
			// Quoted element
			start := pos + 1
			pos++
			for pos < len(s) && s[pos] != '"' {
				if s[pos] == '\\' {
					_, n := scanBackslash(s[pos:])
					pos += n
					continue
				}
				pos++
			}
			if pos >= len(s) {
				return nil, &NotListError{Value: s, Reason: "unmatched open quote in list", Incomplete: true}
			}
			elem = substBackslashes(s[start:pos])
			pos++ // skip closing quote
			if pos < len(s) && !isListSpace(s[pos]) {
				return nil, &NotListError{Value: s, Reason: "list element in quotes followed by \"" + nextWord(s[pos:]) + "\" instead of space"}
			}
		default:
			// Bare word
			start := pos
			escaped := false
			for pos < len(s) && !isListSpace(s[pos]) {
				if s[pos] == '\\' {
					_, n := scanBackslash(s[pos:])
					pos += n
					escaped = true
					continue
				}
				pos++
			}
			elem = s[start:pos]
			if escaped {
				elem = substBackslashes(elem)
			}
		}
		items = append(items, elem)
	}
}

// FormatList joins elements into a canonical TCL list string. Parsing the
// result with [ParseList] yields the original elements.
func FormatList(elems []string) string {
	var b strings.Builder
	for i, e := range elems {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(QuoteElement(e))
	}
	return b.String()
}

// QuoteElement returns s quoted so that it forms exactly one list element.
//
// Strings without special characters are returned unchanged. Otherwise the
// element is wrapped in braces when its braces balance and it does not end
// in a lone backslash; failing that every special character is escaped
// with a backslash.
func QuoteElement(s string) string {
	if s == "" {
		return "{}"
	}
	if !needsQuoting(s) {
		return s
	}
	if canBrace(s) {
		return "{" + s + "}"
	}
	return backslashQuote(s)
}

// Concat joins values the way the TCL concat command does: leading and
// trailing whitespace is trimmed from each argument, empty arguments are
// dropped, and the rest are joined with single spaces.
func Concat(values ...*Obj) *Obj {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		s := strings.TrimFunc(v.String(), isListSpaceRune)
		if s != "" {
			parts = append(parts, s)
		}
	}
	return NewString(strings.Join(parts, " "))
}

func isListSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isListSpaceRune(r rune) bool {
	return r < utf8.RuneSelf && isListSpace(byte(r))
}

func nextWord(s string) string {
	end := 0
	for end < len(s) && !isListSpace(s[end]) {
		end++
	}
	return s[:end]
}

func needsQuoting(s string) bool {
	switch s[0] {
	case '{', '"', '#':
		return true
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\v', '\f', '{', '}', '[', ']', '$', ';', '\\', '"':
			return true
		}
	}
	return false
}

// canBrace reports whether s survives being wrapped in braces: its braces
// must balance, it must not end in an unpaired backslash, and it must not
// contain a backslash-newline, which a script parser would collapse.
func canBrace(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		case '\\':
			if i+1 == len(s) || s[i+1] == '\n' {
				return false
			}
			i++
		}
	}
	return depth == 0
}

func backslashQuote(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\v':
			b.WriteString(`\v`)
		case '\f':
			b.WriteString(`\f`)
		case ' ', '{', '}', '[', ']', '$', ';', '\\', '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '#':
			if i == 0 {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// substBackslashes replaces every backslash sequence in s with its value.
func substBackslashes(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			i++
			continue
		}
		repl, n := scanBackslash(s[i:])
		b.WriteString(repl)
		i += n
	}
	return b.String()
}

// scanBackslash decodes the backslash sequence at the start of s and
// returns its replacement text and the number of bytes consumed.
func scanBackslash(s string) (string, int) {
	if len(s) < 2 {
		return `\`, 1
	}
	switch c := s[1]; c {
	case 'a':
		return "\a", 2
	case 'b':
		return "\b", 2
	case 'f':
		return "\f", 2
	case 'n':
		return "\n", 2
	case 'r':
		return "\r", 2
	case 't':
		return "\t", 2
	case 'v':
		return "\v", 2
	case '\n':
		n := 2
		for n < len(s) && (s[n] == ' ' || s[n] == '\t') {
			n++
		}
		return " ", n
	case 'x':
		v, digits := scanHex(s[2:], 2)
		if digits == 0 {
			return "x", 2
		}
		return string(rune(v)), 2 + digits
	case 'u':
		v, digits := scanHex(s[2:], 4)
		if digits == 0 {
			return "u", 2
		}
		return string(rune(v)), 2 + digits
	case 'U':
		v, digits := scanHex(s[2:], 8)
		if digits == 0 {
			return "U", 2
		}
		return string(rune(v)), 2 + digits
	case '0', '1', '2', '3', '4', '5', '6', '7':
		// Up to three octal digits; the value wraps to a single byte.
		v, n := 0, 1
		for n < 4 && n < len(s) && s[n] >= '0' && s[n] <= '7' {
			v = v*8 + int(s[n]-'0')
			n++
		}
		return string(rune(v & 0xff)), n
	default:
		_, size := utf8.DecodeRuneInString(s[1:])
		return s[1 : 1+size], 1 + size
	}
}

// scanHex reads up to max hex digits, stopping early if the value would
// leave the Unicode range.
func scanHex(s string, max int) (rune, int) {
	var v rune
	n := 0
	for n < max && n < len(s) {
		d, ok := hexDigit(s[n])
		if !ok || v<<4|d > utf8.MaxRune {
			break
		}
		v = v<<4 | d
		n++
	}
	return v, n
}

func hexDigit(c byte) (rune, bool) {
	switch {
	case c >= '0' && c <= '9':
		return rune(c - '0'), true
	case c >= 'a' && c <= 'f':
		return rune(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return rune(c-'A') + 10, true
	}
	return 0, false
}
