// Package local implements an in-process [tcltk.Engine].
//
// The engine dispatches commands to a table of Go procedures. It models the
// boundary protocol, not the TCL language: a script is a sequence of
// list-form commands separated by newlines or semicolons, with no variable
// or command substitution. That is enough to run the scripts the tcltk
// package produces (callback invocations, scheduled scripts, event
// bindings) and to exercise it in tests without a TCL installation.
package local

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/feather-lang/tcltk"
)

// DefaultRecursionLimit is the default maximum nesting of evaluations.
const DefaultRecursionLimit = 1000

// commandFunc is the signature of engine commands. args excludes the
// command name.
type commandFunc func(e *Engine, args []*tcltk.Obj) (*tcltk.Obj, error)

// Engine is an in-process command interpreter.
// It is not safe for concurrent use.
type Engine struct {
	commands       map[string]commandFunc
	vars           map[string]*tcltk.Obj
	bindings       map[string]*bindTable
	out            io.Writer
	log            *slog.Logger
	depth          int
	recursionLimit int
	closed         bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithOutput sets where puts writes. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithRecursionLimit sets the maximum nesting of evaluations.
func WithRecursionLimit(n int) Option {
	return func(e *Engine) {
		if n <= 0 {
			n = DefaultRecursionLimit
		}
		e.recursionLimit = n
	}
}

// New creates an engine with the builtin commands registered.
func New(opts ...Option) *Engine {
	e := &Engine{
		commands:       make(map[string]commandFunc),
		vars:           make(map[string]*tcltk.Obj),
		bindings:       make(map[string]*bindTable),
		out:            os.Stdout,
		log:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		recursionLimit: DefaultRecursionLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	for name, fn := range builtins {
		e.commands[name] = fn
	}
	return e
}

// returnSignal carries the value of the return command up to the
// outermost evaluation.
type returnSignal struct{ value *tcltk.Obj }

func (r *returnSignal) Error() string { return "return" }

// Eval runs one command. Failures are returned as *tcltk.InterpError.
func (e *Engine) Eval(cmd tcltk.Command) (*tcltk.Obj, error) {
	if e.closed {
		return nil, tcltk.ErrClosed
	}
	v, err := e.invoke(cmd)
	return topLevel(v, err)
}

// EvalScript runs a script of list-form commands.
func (e *Engine) EvalScript(script string) (*tcltk.Obj, error) {
	if e.closed {
		return nil, tcltk.ErrClosed
	}
	v, err := e.evalScript(script)
	return topLevel(v, err)
}

func topLevel(v *tcltk.Obj, err error) (*tcltk.Obj, error) {
	if err == nil {
		return v, nil
	}
	var ret *returnSignal
	if errors.As(err, &ret) {
		return ret.value, nil
	}
	var ie *tcltk.InterpError
	switch {
	case errors.As(err, &ie) && ie == err:
		return nil, err
	case errors.Is(err, tcltk.ErrBreak):
		ie = tcltk.NewInterpError(`invoked "break" outside of a loop`, nil, err)
		ie.ReturnCode = tcltk.ReturnBreak
		return nil, ie
	case errors.Is(err, tcltk.ErrContinue):
		ie = tcltk.NewInterpError(`invoked "continue" outside of a loop`, nil, err)
		ie.ReturnCode = tcltk.ReturnContinue
		return nil, ie
	}
	return nil, tcltk.NewInterpError(err.Error(), nil, err)
}

func (e *Engine) invoke(cmd tcltk.Command) (*tcltk.Obj, error) {
	if len(cmd) == 0 {
		return tcltk.NewString(""), nil
	}
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > e.recursionLimit {
		return nil, errors.New("too many nested evaluations (infinite loop?)")
	}
	name := cmd.Name()
	fn, ok := e.commands[name]
	if !ok {
		return nil, fmt.Errorf("invalid command name %q", name)
	}
	v, err := fn(e, cmd.Args())
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = tcltk.NewString("")
	}
	return v, nil
}

// CreateCommand makes proc callable as name, replacing any command of that
// name.
func (e *Engine) CreateCommand(name string, proc tcltk.CommandProc) error {
	if e.closed {
		return tcltk.ErrClosed
	}
	e.commands[name] = func(_ *Engine, args []*tcltk.Obj) (*tcltk.Obj, error) {
		return proc(args)
	}
	e.log.Debug("command created", "name", name)
	return nil
}

// DeleteCommand removes name.
func (e *Engine) DeleteCommand(name string) error {
	if _, ok := e.commands[name]; !ok {
		return fmt.Errorf("can't delete %q: command doesn't exist", name)
	}
	delete(e.commands, name)
	e.log.Debug("command deleted", "name", name)
	return nil
}

// Close marks the engine closed. Further evaluations fail with
// tcltk.ErrClosed.
func (e *Engine) Close() error {
	e.closed = true
	return nil
}

// Var returns the value of a global variable.
func (e *Engine) Var(name string) (*tcltk.Obj, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// SetVar sets a global variable.
func (e *Engine) SetVar(name string, v *tcltk.Obj) {
	e.vars[name] = v
}
