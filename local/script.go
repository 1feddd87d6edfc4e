package local

import (
	"strings"

	"github.com/feather-lang/tcltk"
)

// evalScript runs each command of script in turn and returns the result of
// the last one.
func (e *Engine) evalScript(script string) (*tcltk.Obj, error) {
	result := tcltk.NewString("")
	for _, text := range splitScript(script) {
		words, err := tcltk.ParseList(text)
		if err != nil {
			return nil, err
		}
		if len(words) == 0 {
			continue
		}
		cmd := make(tcltk.Command, len(words))
		for j, w := range words {
			cmd[j] = tcltk.NewString(w)
		}
		result, err = e.invoke(cmd)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// splitScript breaks a script into command texts at newlines and
// semicolons that are outside braces and quotes. Comment lines are
// dropped.
func splitScript(s string) []string {
	var cmds []string
	start := 0
	depth := 0
	inQuote := false
	atCmdStart := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if atCmdStart {
			if isSpace(c) || c == '\n' || c == ';' {
				start = i + 1
				continue
			}
			atCmdStart = false
			if c == '#' {
				i = skipComment(s, i)
				start = i + 1
				atCmdStart = true
				continue
			}
		}
		switch c {
		case '\\':
			i++
		case '{':
			if !inQuote {
				depth++
			}
		case '}':
			if !inQuote && depth > 0 {
				depth--
			}
		case '"':
			if depth == 0 {
				if inQuote {
					inQuote = false
				} else if i == start || isSpace(s[i-1]) {
					inQuote = true
				}
			}
		case '\n', ';':
			if depth == 0 && !inQuote {
				cmds = appendCommand(cmds, s[start:i])
				start = i + 1
				atCmdStart = true
			}
		}
	}
	if start < len(s) {
		cmds = appendCommand(cmds, s[start:])
	}
	return cmds
}

func appendCommand(cmds []string, text string) []string {
	if strings.TrimSpace(text) == "" {
		return cmds
	}
	return append(cmds, text)
}

// skipComment returns the index of the newline ending the comment that
// starts at i. A backslash-newline continues the comment.
func skipComment(s string, i int) int {
	for ; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '\n':
			return i
		}
	}
	return len(s)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}
