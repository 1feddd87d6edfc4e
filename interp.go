package tcltk

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/golang/groupcache/lru"
)

// Engine is the interpreter behind an [Interp]. Implementations evaluate
// commands and route calls of created commands back into Go.
type Engine interface {
	// Eval runs one command and returns its result. Failures the
	// interpreter reports should be returned as *InterpError.
	Eval(cmd Command) (*Obj, error)
	// CreateCommand makes proc callable as the command name. proc receives
	// the words after the command name.
	CreateCommand(name string, proc CommandProc) error
	// DeleteCommand removes a command created with CreateCommand.
	DeleteCommand(name string) error
	Close() error
}

// CommandProc implements an interpreter command in Go.
type CommandProc func(args []*Obj) (*Obj, error)

// Attacher is implemented by engines that receive interpreter-initiated
// calls on goroutines other than the event loop's. post schedules a
// function on the loop goroutine.
type Attacher interface {
	Attach(post func(func()))
}

// BackgroundErrorFunc receives errors raised by scheduled scripts and
// callbacks whose caller has already returned.
type BackgroundErrorFunc func(err error)

// DefaultInternCapacity is the number of literals Intern keeps.
const DefaultInternCapacity = 256

// Interp drives an [Engine]: it evaluates commands, owns the registry of Go
// callbacks and runs the event loop with its timer and idle queues.
//
// Create an Interp with [New] and always call [Interp.Close] when done.
// An Interp is not safe for concurrent use; only [Interp.Post] may be
// called from other goroutines.
//
//	in := tcltk.New(local.New())
//	defer in.Close()
//	v, err := in.Evaluate(tcltk.Cmd("llength", tcltk.NewStringList("a", "b")))
type Interp struct {
	engine  Engine
	log     *slog.Logger
	clock   Clock
	bgerror BackgroundErrorFunc

	callbacks    map[string]*Callback
	nextCallback uint64

	sched scheduler

	mu     sync.Mutex
	posted []func()
	wake   chan struct{}

	intern *lru.Cache
	closed bool
}

// Option configures an Interp.
type Option func(*Interp)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interp) { i.log = l }
}

// WithClock sets the event loop's time source.
func WithClock(c Clock) Option {
	return func(i *Interp) { i.clock = c }
}

// WithBackgroundError sets the background error handler.
func WithBackgroundError(fn BackgroundErrorFunc) Option {
	return func(i *Interp) { i.bgerror = fn }
}

// WithInternCapacity sets how many literals Intern keeps.
func WithInternCapacity(n int) Option {
	return func(i *Interp) { i.intern = lru.New(n) }
}

// New creates an Interp over engine.
func New(engine Engine, opts ...Option) *Interp {
	i := &Interp{
		engine:    engine,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:     SystemClock{},
		callbacks: make(map[string]*Callback),
		wake:      make(chan struct{}, 1),
		intern:    lru.New(DefaultInternCapacity),
	}
	i.sched.init()
	for _, opt := range opts {
		opt(i)
	}
	if i.bgerror == nil {
		i.bgerror = i.logBackgroundError
	}
	if a, ok := engine.(Attacher); ok {
		a.Attach(i.Post)
	}
	return i
}

// Close cancels every pending timer, releases every callback (detached ones
// included) and closes the engine. Close is idempotent.
func (i *Interp) Close() error {
	if i.closed {
		return nil
	}
	for _, id := range i.Pending() {
		i.Cancel(id)
	}
	names := make([]string, 0, len(i.callbacks))
	for name := range i.callbacks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		i.callbacks[name].Release()
	}
	i.closed = true
	i.log.Debug("interp closed")
	return i.engine.Close()
}

// Engine returns the underlying engine.
func (i *Interp) Engine() Engine { return i.engine }

// Logger returns the Interp's logger.
func (i *Interp) Logger() *slog.Logger { return i.log }

// Clock returns the event loop's time source.
func (i *Interp) Clock() Clock { return i.clock }

// -----------------------------------------------------------------------------
// Evaluation
// -----------------------------------------------------------------------------

// Evaluate runs cmd and returns its result. Failures are returned as
// *InterpError; a failure that started as a Go error stays reachable
// through errors.Is and errors.As.
func (i *Interp) Evaluate(cmd Command) (*Obj, error) {
	if i.closed {
		return nil, ErrClosed
	}
	if len(cmd) == 0 {
		return NewString(""), nil
	}
	v, err := i.engine.Eval(cmd)
	if err != nil {
		var ie *InterpError
		if errors.As(err, &ie) {
			return nil, err
		}
		return nil, NewInterpError(err.Error(), nil, err)
	}
	if v == nil {
		v = NewString("")
	}
	return v, nil
}

// Run runs cmd for its side effect.
func (i *Interp) Run(cmd Command) error {
	_, err := i.Evaluate(cmd)
	return err
}

// Call is shorthand for Evaluate(Cmd(name, args...)).
func (i *Interp) Call(name string, args ...any) (*Obj, error) {
	return i.Evaluate(Cmd(name, args...))
}

// Intern returns a shared value for the literal s. Repeated calls with the
// same literal return the same *Obj while it stays in the cache.
func (i *Interp) Intern(s string) *Obj {
	if v, ok := i.intern.Get(s); ok {
		return v.(*Obj)
	}
	v := NewString(s)
	i.intern.Add(s, v)
	return v
}

// -----------------------------------------------------------------------------
// Background errors
// -----------------------------------------------------------------------------

// SetBackgroundError replaces the background error handler. A nil fn
// restores the default, which logs at Error level.
func (i *Interp) SetBackgroundError(fn BackgroundErrorFunc) {
	if fn == nil {
		fn = i.logBackgroundError
	}
	i.bgerror = fn
}

// BackgroundError reports err through the background error handler.
func (i *Interp) BackgroundError(err error) {
	if err == nil {
		return
	}
	i.bgerror(err)
}

func (i *Interp) logBackgroundError(err error) {
	attrs := []any{"err", err, "kind", KindOf(err)}
	var ie *InterpError
	if errors.As(err, &ie) && ie.Info != "" {
		attrs = append(attrs, "info", ie.Info)
	}
	i.log.Error("background error", attrs...)
}

// -----------------------------------------------------------------------------
// Cross-goroutine events
// -----------------------------------------------------------------------------

// Post schedules fn to run on the event loop goroutine the next time it
// processes events. Post is safe to call from any goroutine.
func (i *Interp) Post(fn func()) {
	i.mu.Lock()
	i.posted = append(i.posted, fn)
	i.mu.Unlock()
	select {
	case i.wake <- struct{}{}:
	default:
	}
}

func (i *Interp) popPosted() func() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.posted) == 0 {
		return nil
	}
	fn := i.posted[0]
	i.posted[0] = nil
	i.posted = i.posted[1:]
	return fn
}

func (i *Interp) String() string {
	return fmt.Sprintf("tcltk.Interp{callbacks: %d, timers: %d}", len(i.callbacks), len(i.sched.byID))
}
