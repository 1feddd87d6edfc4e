package local

import (
	"errors"
	"fmt"
	"strings"

	"github.com/feather-lang/tcltk"
)

// bindTable holds the event bindings of one tag in creation order.
type bindTable struct {
	order   []string
	scripts map[string]string
}

func (t *bindTable) set(seq, script string) {
	if _, ok := t.scripts[seq]; !ok {
		t.order = append(t.order, seq)
	}
	t.scripts[seq] = script
}

func (t *bindTable) remove(seq string) {
	if _, ok := t.scripts[seq]; !ok {
		return
	}
	delete(t.scripts, seq)
	for j, s := range t.order {
		if s == seq {
			t.order = append(t.order[:j], t.order[j+1:]...)
			break
		}
	}
}

// cmdBind implements "bind tag ?sequence? ?+??script??".
func cmdBind(e *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, wrongArgs("bind window ?pattern? ?command?")
	}
	tag := args[0].String()
	table := e.bindings[tag]
	switch len(args) {
	case 1:
		if table == nil {
			return tcltk.NewString(""), nil
		}
		return tcltk.NewStringList(table.order...), nil
	case 2:
		if table == nil {
			return tcltk.NewString(""), nil
		}
		return tcltk.NewString(table.scripts[args[1].String()]), nil
	}

	seq, script := args[1].String(), args[2].String()
	if table == nil {
		table = &bindTable{scripts: make(map[string]string)}
		e.bindings[tag] = table
	}
	switch {
	case script == "":
		table.remove(seq)
	case strings.HasPrefix(script, "+"):
		if prev := table.scripts[seq]; prev != "" {
			table.set(seq, prev+"\n"+script[1:])
		} else {
			table.set(seq, script[1:])
		}
	default:
		table.set(seq, script)
	}
	return nil, nil
}

// eventFields maps "event generate" options to the substitution code they
// supply.
var eventFields = map[string]byte{
	"-x":       'x',
	"-y":       'y',
	"-rootx":   'X',
	"-rooty":   'Y',
	"-button":  'b',
	"-keycode": 'k',
	"-keysym":  'K',
	"-state":   's',
	"-time":    't',
	"-width":   'w',
	"-height":  'h',
	"-data":    'd',
	"-delta":   'D',
	"-count":   'c',
	"-serial":  '#',
}

// cmdEvent implements "event generate tag sequence ?-option value ...?". The
// binding for sequence on tag, if any, runs with its %-codes substituted.
// A binding script that breaks stops processing without error.
func cmdEvent(e *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	if len(args) < 1 {
		return nil, wrongArgs("event option ?arg ...?")
	}
	if sub := args[0].String(); sub != "generate" {
		return nil, fmt.Errorf("bad option %q: must be generate", sub)
	}
	if len(args) < 3 || len(args)%2 == 0 {
		return nil, wrongArgs("event generate window event ?-option value ...?")
	}
	tag, seq := args[1].String(), args[2].String()
	values := map[byte]string{'W': tag}
	for j := 3; j+1 < len(args); j += 2 {
		opt := args[j].String()
		code, ok := eventFields[opt]
		if !ok {
			return nil, fmt.Errorf("bad option %q", opt)
		}
		values[code] = args[j+1].String()
	}
	if k, ok := values['K']; ok && len([]rune(k)) == 1 {
		values['A'] = k
	}

	table := e.bindings[tag]
	if table == nil {
		return nil, nil
	}
	script, ok := table.scripts[seq]
	if !ok {
		return nil, nil
	}
	_, err := e.evalScript(substitute(script, values))
	if errors.Is(err, tcltk.ErrBreak) {
		return nil, nil
	}
	var ret *returnSignal
	if errors.As(err, &ret) {
		return nil, nil
	}
	return nil, err
}

// substitute replaces %-codes in a binding script. Each value is quoted so
// it stays one word; codes without a value become "??".
func substitute(script string, values map[byte]string) string {
	var b strings.Builder
	for i := 0; i < len(script); i++ {
		c := script[i]
		if c != '%' || i+1 == len(script) {
			b.WriteByte(c)
			continue
		}
		i++
		code := script[i]
		if code == '%' {
			b.WriteByte('%')
			continue
		}
		v, ok := values[code]
		if !ok {
			b.WriteString("??")
			continue
		}
		b.WriteString(tcltk.QuoteElement(v))
	}
	return b.String()
}
