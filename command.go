package tcltk

import "strings"

// Command is one interpreter invocation: the command name followed by its
// arguments, one value per word.
type Command []*Obj

// Name returns the command name, or "" for an empty command.
func (c Command) Name() string {
	if len(c) == 0 {
		return ""
	}
	return c[0].String()
}

// Args returns the words after the command name.
func (c Command) Args() []*Obj {
	if len(c) == 0 {
		return nil
	}
	return c[1:]
}

// String renders the command in list form, the way text transports send it.
func (c Command) String() string {
	var b strings.Builder
	for i, w := range c {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(QuoteElement(w.String()))
	}
	return b.String()
}

// Value returns the command as a list value, suitable for use as a script
// argument of another command.
func (c Command) Value() *Obj {
	return NewList(c...)
}

// Tokener is implemented by arguments that contribute a run of words to a
// command instead of a single one.
type Tokener interface {
	Tokens() []*Obj
}

// Cmd builds a command from a name and arguments.
//
// Arguments appear in the result in the order given. Arguments implementing
// [Tokener] ([ScriptList], [Opt], [OptionList]) contribute each of their
// tokens in order; everything else contributes exactly one word converted
// with [ValueOf]. A nested Command stays a single word in list form.
//
//	cmd := tcltk.Cmd("button", ".b",
//	    tcltk.Options[tcltk.Button](
//	        tcltk.Text[tcltk.Button]("OK"),
//	        tcltk.Width[tcltk.Button](10),
//	    ),
//	)
//	cmd.String() // "button .b -text OK -width 10"
func Cmd(name any, args ...any) Command {
	c := make(Command, 0, 1+len(args))
	c = append(c, ValueOf(name))
	for _, a := range args {
		if t, ok := a.(Tokener); ok {
			c = append(c, t.Tokens()...)
			continue
		}
		c = append(c, ValueOf(a))
	}
	return c
}

// ScriptList is a non-empty run of scripts that Cmd flattens one level into
// consecutive words.
type ScriptList []*Obj

func (s ScriptList) Tokens() []*Obj { return s }

// Scripts groups one or more scripts. At least one script is required by
// the signature. Each argument becomes exactly one word: a Command or list
// value is not spliced further.
//
//	tcltk.Cmd("after", 100, tcltk.Scripts("set a 1", tcltk.Cmd("set", "b", 2)))
//	// after 100 {set a 1} {set b 2}
func Scripts(first any, rest ...any) ScriptList {
	s := make(ScriptList, 0, 1+len(rest))
	s = append(s, ValueOf(first))
	for _, r := range rest {
		s = append(s, ValueOf(r))
	}
	return s
}

// Opt is an option legal for commands tagged C. It contributes two words,
// "-name" then the value.
type Opt[C any] struct {
	name  string
	value *Obj
}

// NewOpt creates an option for commands tagged C. Option constructors with
// capability constraints (see [Text]) are the usual way to obtain one.
func NewOpt[C any](name string, value any) Opt[C] {
	return Opt[C]{name: name, value: ValueOf(value)}
}

// Name returns the option name without the leading dash.
func (o Opt[C]) Name() string { return o.name }

// Value returns the option value.
func (o Opt[C]) Value() *Obj { return o.value }

func (o Opt[C]) Tokens() []*Obj {
	return []*Obj{NewString("-" + o.name), o.value}
}

// OptionList is an ordered set of options for commands tagged C.
type OptionList[C any] []Opt[C]

// Options groups options for commands tagged C. Every element must be an
// Opt[C], so options built for another command tag do not compile.
func Options[C any](opts ...Opt[C]) OptionList[C] {
	return OptionList[C](opts)
}

func (l OptionList[C]) Tokens() []*Obj {
	out := make([]*Obj, 0, 2*len(l))
	for _, o := range l {
		out = append(out, o.Tokens()...)
	}
	return out
}
