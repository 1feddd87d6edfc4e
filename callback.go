package tcltk

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// RawFunc is a callback that receives its substitution arguments unparsed.
type RawFunc func(args []*Obj) (*Obj, error)

// Callback is a Go closure registered as an interpreter command.
//
// A Callback stays registered until [Callback.Release] is called or the
// Interp is closed. The closure must remain valid for that whole time: the
// interpreter may invoke the command whenever the event loop runs.
type Callback struct {
	interp   *Interp
	name     string
	fields   []patternField
	proc     RawFunc
	detached bool
	released bool
}

// CallbackError reports a callback invocation that was rejected before the
// closure ran, because the interpreter supplied the wrong number of
// arguments or an argument that did not decode into the declared type.
type CallbackError struct {
	Name string
	Err  error
}

func (e *CallbackError) Error() string { return e.Name + ": " + e.Err.Error() }
func (e *CallbackError) Unwrap() error { return e.Err }

// argError marks failures that happen before the closure is called.
type argError struct{ err error }

func (e *argError) Error() string { return e.err.Error() }
func (e *argError) Unwrap() error { return e.err }

// Name returns the command name the callback is registered under.
func (c *Callback) Name() string { return c.name }

// Script returns the command name followed by the substitution pattern, the
// form used as a binding script:
//
//	cb, _ := in.Bind("", "%x %y", func(x, y int) {})
//	cb.Script() // "tcltk::cb1 %x %y"
func (c *Callback) Script() string {
	var b strings.Builder
	b.WriteString(QuoteElement(c.name))
	for _, f := range c.fields {
		b.WriteByte(' ')
		b.WriteString(f.scriptWord())
	}
	return b.String()
}

// Value returns Script as a value, so a Callback can be passed directly as
// a -command option or a binding script.
func (c *Callback) Value() *Obj { return NewString(c.Script()) }

// TclValue implements [Encoder].
func (c *Callback) TclValue() *Obj { return c.Value() }

// Released reports whether the callback has been unregistered.
func (c *Callback) Released() bool { return c.released }

// Release unregisters the callback. Releasing twice is a no-op.
func (c *Callback) Release() {
	if c.released {
		return
	}
	c.released = true
	delete(c.interp.callbacks, c.name)
	if err := c.interp.engine.DeleteCommand(c.name); err != nil {
		c.interp.log.Debug("delete command", "name", c.name, "err", err)
	}
	c.interp.log.Debug("callback released", "name", c.name)
}

// Detach keeps the registration alive past the scope that created it. A
// detached callback in [Interp.WithCallback] is not released when the body
// returns; it lives until Release or Interp.Close.
func (c *Callback) Detach() { c.detached = true }

// -----------------------------------------------------------------------------
// Registration
// -----------------------------------------------------------------------------

// Bind registers fn as the command name. An empty name generates a unique
// one.
//
// pattern lists the event substitutions the interpreter passes, such as
// "%x %y" or "%W %K". Each field is decoded into the matching parameter of
// fn before the call. Bind checks that the number of fields matches fn's
// parameters (at least the fixed ones when fn is variadic) and that each
// parameter can receive its field, so binding "%K" (a keysym) to an int
// fails here rather than on every event. An empty pattern disables the
// check; arguments are then whatever the caller of the command passes.
//
// fn may return nothing, one value, an error, or a value and an error.
// Returning ErrBreak or ErrContinue completes the command with the
// interpreter's break or continue code.
//
// When an argument fails to decode, fn is not called: the invocation fails
// with a *CallbackError, which is also sent to the background error
// handler.
func (i *Interp) Bind(name, pattern string, fn any) (*Callback, error) {
	fields, err := parsePattern(pattern)
	if err != nil {
		return nil, err
	}
	proc, err := wrapFunc(fn, fields)
	if err != nil {
		return nil, err
	}
	return i.register(name, fields, proc)
}

// BindRaw registers fn as the command name. fn receives the substitution
// arguments unparsed, for callbacks that take a variable number of words.
func (i *Interp) BindRaw(name, pattern string, fn RawFunc) (*Callback, error) {
	fields, err := parsePattern(pattern)
	if err != nil {
		return nil, err
	}
	return i.register(name, fields, fn)
}

// WithCallback registers fn under a generated name for the duration of
// body. The callback is released when body returns unless body detaches
// it.
//
//	err := in.WithCallback("", func() { clicked = true }, func(cb *tcltk.Callback) error {
//	    return in.Run(tcltk.Cmd(cb.Name()))
//	})
func (i *Interp) WithCallback(pattern string, fn any, body func(cb *Callback) error) error {
	cb, err := i.Bind("", pattern, fn)
	if err != nil {
		return err
	}
	defer func() {
		if !cb.detached {
			cb.Release()
		}
	}()
	return body(cb)
}

// BindStatic registers fn for the life of the Interp.
//
// The caller asserts that fn, and everything it references, stays valid
// for every future invocation the interpreter may make, which can happen
// long after the registering function has returned (a window close handler,
// for example). The callback is only released by Interp.Close.
func (i *Interp) BindStatic(name, pattern string, fn any) (*Callback, error) {
	cb, err := i.Bind(name, pattern, fn)
	if err != nil {
		return nil, err
	}
	cb.Detach()
	return cb, nil
}

// Callback returns the live callback registered under name.
func (i *Interp) Callback(name string) (*Callback, bool) {
	cb, ok := i.callbacks[name]
	return cb, ok
}

// Callbacks returns the number of live callbacks.
func (i *Interp) Callbacks() int { return len(i.callbacks) }

func (i *Interp) register(name string, fields []patternField, proc RawFunc) (*Callback, error) {
	if i.closed {
		return nil, ErrClosed
	}
	if name == "" {
		for {
			i.nextCallback++
			name = fmt.Sprintf("tcltk::cb%d", i.nextCallback)
			if _, ok := i.callbacks[name]; !ok {
				break
			}
		}
	} else if _, ok := i.callbacks[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrNameInUse, name)
	}

	cb := &Callback{interp: i, name: name, fields: fields, proc: proc}
	if err := i.engine.CreateCommand(name, func(args []*Obj) (*Obj, error) {
		return i.dispatch(cb, args)
	}); err != nil {
		return nil, fmt.Errorf("create command %q: %w", name, err)
	}
	i.callbacks[name] = cb
	i.log.Debug("callback registered", "name", name, "fields", len(fields))
	return cb, nil
}

func (i *Interp) dispatch(cb *Callback, args []*Obj) (*Obj, error) {
	if cb.released {
		return nil, fmt.Errorf("invalid command name %q", cb.name)
	}
	v, err := cb.proc(args)
	var ae *argError
	if errors.As(err, &ae) {
		err = &CallbackError{Name: cb.name, Err: ae.err}
		i.BackgroundError(err)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = NewString("")
	}
	return v, nil
}

// -----------------------------------------------------------------------------
// Reflection wrapper
// -----------------------------------------------------------------------------

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// wrapFunc adapts a Go function to a RawFunc, validating it against the
// pattern fields.
func wrapFunc(fn any, fields []patternField) (RawFunc, error) {
	if raw, ok := fn.(RawFunc); ok {
		return raw, nil
	}
	if raw, ok := fn.(func([]*Obj) (*Obj, error)); ok {
		return raw, nil
	}
	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func || fnVal.IsNil() {
		return nil, fmt.Errorf("tcltk: Bind: expected function, got %T", fn)
	}
	fnType := fnVal.Type()
	numIn := fnType.NumIn()
	isVariadic := fnType.IsVariadic()

	paramType := func(j int) reflect.Type {
		if isVariadic && j >= numIn-1 {
			return fnType.In(numIn - 1).Elem()
		}
		return fnType.In(j)
	}

	if len(fields) > 0 {
		if isVariadic && len(fields) < numIn-1 {
			return nil, fmt.Errorf("tcltk: Bind: pattern has %d fields, function needs at least %d", len(fields), numIn-1)
		}
		if !isVariadic && len(fields) != numIn {
			return nil, fmt.Errorf("tcltk: Bind: pattern has %d fields, function takes %d", len(fields), numIn)
		}
		for j, f := range fields {
			if t := paramType(j); !f.accepts(t) {
				return nil, fmt.Errorf("tcltk: Bind: parameter %d (%s) cannot receive %s field %q", j+1, t, f.kind, f.text)
			}
		}
	}

	switch fnType.NumOut() {
	case 0, 1:
	case 2:
		if fnType.Out(1) != errorType {
			return nil, fmt.Errorf("tcltk: Bind: second result of %s must be error", fnType)
		}
	default:
		return nil, fmt.Errorf("tcltk: Bind: %s returns too many values", fnType)
	}

	return func(args []*Obj) (*Obj, error) {
		if isVariadic {
			if len(args) < numIn-1 {
				return nil, &argError{fmt.Errorf("wrong # args: expected at least %d, got %d", numIn-1, len(args))}
			}
		} else if len(args) != numIn {
			return nil, &argError{fmt.Errorf("wrong # args: expected %d, got %d", numIn, len(args))}
		}

		callArgs := make([]reflect.Value, len(args))
		for j, arg := range args {
			v := reflect.New(paramType(j)).Elem()
			if err := decodeValue(arg, v); err != nil {
				return nil, &argError{fmt.Errorf("argument %d: %w", j+1, err)}
			}
			callArgs[j] = v
		}

		return processResults(fnVal.Call(callArgs), fnType)
	}, nil
}

// processResults converts a Go function's results to a command result.
func processResults(results []reflect.Value, fnType reflect.Type) (*Obj, error) {
	if len(results) == 0 {
		return nil, nil
	}
	last := results[len(results)-1]
	if fnType.Out(fnType.NumOut()-1) == errorType {
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
		results = results[:len(results)-1]
	}
	if len(results) == 0 {
		return nil, nil
	}
	return ValueOf(results[0].Interface()), nil
}
