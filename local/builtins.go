package local

import (
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/feather-lang/tcltk"
)

var builtins map[string]commandFunc

func init() {
	builtins = map[string]commandFunc{
		"break":    cmdBreak,
		"catch":    cmdCatch,
		"concat":   cmdConcat,
		"continue": cmdContinue,
		"error":    cmdError,
		"eval":     cmdEval,
		"incr":     cmdIncr,
		"info":     cmdInfo,
		"lindex":   cmdLindex,
		"list":     cmdList,
		"llength":  cmdLlength,
		"puts":     cmdPuts,
		"rename":   cmdRename,
		"return":   cmdReturn,
		"set":      cmdSet,
		"string":   cmdString,
		"unset":    cmdUnset,
		"uplevel":  cmdUplevel,
		"bind":     cmdBind,
		"event":    cmdEvent,
	}
}

func wrongArgs(usage string) error {
	return fmt.Errorf("wrong # args: should be %q", usage)
}

func cmdList(_ *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	return tcltk.NewList(args...), nil
}

func cmdLlength(_ *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	if len(args) != 1 {
		return nil, wrongArgs("llength list")
	}
	n, err := args[0].Len()
	if err != nil {
		return nil, err
	}
	return tcltk.NewInt(int64(n)), nil
}

func cmdLindex(_ *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	switch len(args) {
	case 1:
		return args[0], nil
	case 2:
	default:
		return nil, wrongArgs("lindex list ?index ...?")
	}
	items, err := args[0].List()
	if err != nil {
		return nil, err
	}
	idx, err := parseIndex(args[1].String(), len(items))
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(items) {
		return tcltk.NewString(""), nil
	}
	return items[idx], nil
}

// parseIndex accepts an integer, "end" or "end-N".
func parseIndex(s string, n int) (int, error) {
	if s == "end" {
		return n - 1, nil
	}
	if rest, ok := strings.CutPrefix(s, "end-"); ok {
		off, err := strconv.Atoi(rest)
		if err == nil {
			return n - 1 - off, nil
		}
	}
	idx, err := tcltk.AsInt(tcltk.NewString(s))
	if err != nil {
		return 0, fmt.Errorf("bad index %q: must be integer?[+-]integer? or end?[+-]integer?", s)
	}
	return int(idx), nil
}

func cmdConcat(_ *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	return tcltk.Concat(args...), nil
}

func cmdSet(e *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	switch len(args) {
	case 1:
		v, ok := e.vars[args[0].String()]
		if !ok {
			return nil, fmt.Errorf("can't read %q: no such variable", args[0].String())
		}
		return v, nil
	case 2:
		e.vars[args[0].String()] = args[1]
		return args[1], nil
	}
	return nil, wrongArgs("set varName ?newValue?")
}

func cmdUnset(e *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	nocomplain := false
	if len(args) > 0 && args[0].String() == "-nocomplain" {
		nocomplain = true
		args = args[1:]
	}
	for _, a := range args {
		name := a.String()
		if _, ok := e.vars[name]; !ok && !nocomplain {
			return nil, fmt.Errorf("can't unset %q: no such variable", name)
		}
		delete(e.vars, name)
	}
	return nil, nil
}

func cmdIncr(e *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, wrongArgs("incr varName ?increment?")
	}
	step := int64(1)
	if len(args) == 2 {
		n, err := tcltk.AsInt(args[1])
		if err != nil {
			return nil, err
		}
		step = n
	}
	var cur int64
	if v, ok := e.vars[args[0].String()]; ok {
		n, err := tcltk.AsInt(v)
		if err != nil {
			return nil, err
		}
		cur = n
	}
	v := tcltk.NewInt(cur + step)
	e.vars[args[0].String()] = v
	return v, nil
}

func cmdString(_ *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	if len(args) < 1 {
		return nil, wrongArgs("string subcommand ?arg ...?")
	}
	sub := args[0].String()
	args = args[1:]
	switch sub {
	case "length":
		if len(args) != 1 {
			return nil, wrongArgs("string length string")
		}
		return tcltk.NewInt(int64(len([]rune(args[0].String())))), nil
	case "equal":
		if len(args) != 2 {
			return nil, wrongArgs("string equal string1 string2")
		}
		return tcltk.NewBool(tcltk.Equal(args[0], args[1])), nil
	case "toupper":
		if len(args) != 1 {
			return nil, wrongArgs("string toupper string")
		}
		return tcltk.NewString(strings.ToUpper(args[0].String())), nil
	case "tolower":
		if len(args) != 1 {
			return nil, wrongArgs("string tolower string")
		}
		return tcltk.NewString(strings.ToLower(args[0].String())), nil
	}
	return nil, fmt.Errorf("unknown or ambiguous subcommand %q: must be equal, length, tolower, or toupper", sub)
}

func cmdError(_ *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, wrongArgs("error message ?errorInfo? ?errorCode?")
	}
	ie := tcltk.NewInterpError(args[0].String(), nil, nil)
	if len(args) > 1 {
		ie.Info = args[1].String()
	}
	if len(args) > 2 {
		ie.Code = args[2]
	}
	return nil, ie
}

func cmdReturn(_ *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	switch len(args) {
	case 0:
		return nil, &returnSignal{value: tcltk.NewString("")}
	case 1:
		return nil, &returnSignal{value: args[0]}
	}
	return nil, wrongArgs("return ?value?")
}

func cmdBreak(_ *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	if len(args) != 0 {
		return nil, wrongArgs("break")
	}
	return nil, tcltk.ErrBreak
}

func cmdContinue(_ *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	if len(args) != 0 {
		return nil, wrongArgs("continue")
	}
	return nil, tcltk.ErrContinue
}

func cmdEval(e *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	if len(args) == 0 {
		return nil, wrongArgs("eval arg ?arg ...?")
	}
	return e.evalScript(tcltk.Concat(args...).String())
}

// cmdUplevel evaluates at global level. The engine keeps no call frames,
// so every level resolves to the global one.
func cmdUplevel(e *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	if len(args) > 1 && isLevel(args[0].String()) {
		args = args[1:]
	}
	if len(args) == 0 {
		return nil, wrongArgs("uplevel ?level? command ?arg ...?")
	}
	return e.evalScript(tcltk.Concat(args...).String())
}

func isLevel(s string) bool {
	s = strings.TrimPrefix(s, "#")
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

func cmdCatch(e *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, wrongArgs("catch script ?resultVarName? ?optionVarName?")
	}
	v, err := e.evalScript(args[0].String())
	code := tcltk.ReturnOK
	opts := []any{"-code", 0}
	var ret *returnSignal
	var ie *tcltk.InterpError
	switch {
	case err == nil:
	case errors.As(err, &ret):
		code, v = tcltk.ReturnReturn, ret.value
	case errors.Is(err, tcltk.ErrBreak):
		code, v = tcltk.ReturnBreak, tcltk.NewString("")
	case errors.Is(err, tcltk.ErrContinue):
		code, v = tcltk.ReturnContinue, tcltk.NewString("")
	default:
		code, v = tcltk.ReturnError, tcltk.NewString(err.Error())
		errorCode := tcltk.NewString("NONE")
		info := err.Error()
		if errors.As(err, &ie) {
			if ie.Code != nil {
				errorCode = ie.Code
			}
			if ie.Info != "" {
				info = ie.Info
			}
		}
		opts = append(opts, "-errorcode", errorCode, "-errorinfo", info)
	}
	opts[1] = int(code)
	if len(args) > 1 {
		e.vars[args[1].String()] = v
	}
	if len(args) > 2 {
		e.vars[args[2].String()] = tcltk.NewDict(opts...)
	}
	return tcltk.NewInt(int64(code)), nil
}

func cmdPuts(e *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	newline := true
	if len(args) > 0 && args[0].String() == "-nonewline" {
		newline = false
		args = args[1:]
	}
	switch len(args) {
	case 1:
	case 2:
		// The channel is ignored; everything goes to the engine's output.
		args = args[1:]
	default:
		return nil, wrongArgs("puts ?-nonewline? ?channelId? string")
	}
	s := args[0].String()
	if newline {
		s += "\n"
	}
	if _, err := io.WriteString(e.out, s); err != nil {
		return nil, fmt.Errorf("error writing output: %w", err)
	}
	return nil, nil
}

func cmdRename(e *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	if len(args) != 2 {
		return nil, wrongArgs("rename oldName newName")
	}
	oldName, newName := args[0].String(), args[1].String()
	fn, ok := e.commands[oldName]
	if !ok {
		return nil, fmt.Errorf("can't rename %q: command doesn't exist", oldName)
	}
	if newName != "" {
		if _, exists := e.commands[newName]; exists {
			return nil, fmt.Errorf("can't rename to %q: command already exists", newName)
		}
		e.commands[newName] = fn
	}
	delete(e.commands, oldName)
	return nil, nil
}

func cmdInfo(e *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
	if len(args) < 1 {
		return nil, wrongArgs("info subcommand ?arg ...?")
	}
	switch sub := args[0].String(); sub {
	case "commands":
		pattern := "*"
		if len(args) > 1 {
			pattern = args[1].String()
		}
		var names []string
		for name := range e.commands {
			if ok, _ := path.Match(pattern, name); ok {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		return tcltk.NewStringList(names...), nil
	case "exists":
		if len(args) != 2 {
			return nil, wrongArgs("info exists varName")
		}
		_, ok := e.vars[args[1].String()]
		return tcltk.NewBool(ok), nil
	default:
		return nil, fmt.Errorf("unknown or ambiguous subcommand %q: must be commands or exists", sub)
	}
}
