// Package wish implements a [tcltk.Engine] backed by a tclsh or wish
// subprocess.
//
// The child runs an embedded bootstrap script and talks to the host over
// its stdin and stdout using length-prefixed frames. Commands created from
// Go are interpreter aliases that forward each call to the host and serve
// nested evaluations until the host replies, so callbacks may evaluate
// further commands.
package wish

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/feather-lang/tcltk"
)

//go:embed bootstrap.tcl
var bootstrap string

// Config describes the interpreter process.
type Config struct {
	// Path is the interpreter executable. Defaults to "tclsh".
	Path string
	// Args are extra arguments placed before the bootstrap script.
	Args []string
	// Tk loads Tk into the interpreter.
	Tk bool
	// Stderr receives the child's standard error. Defaults to os.Stderr.
	Stderr io.Writer
	// Logger logs process lifecycle and protocol traffic.
	Logger *slog.Logger
	// StartTimeout bounds the wait for the interpreter to report ready.
	// Defaults to 10 seconds.
	StartTimeout time.Duration
}

type frame struct {
	kind    string
	args    []string
	payload string
}

// Engine is a running interpreter process.
type Engine struct {
	cfg    Config
	log    *slog.Logger
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	w      *bufio.Writer
	wmu    sync.Mutex
	frames chan frame
	inEval atomic.Int32
	post   atomic.Pointer[func(func())]
	procs  map[string]tcltk.CommandProc
	pmu    sync.Mutex
	done   chan struct{}
	closed atomic.Bool
}

// Start launches the interpreter and waits until it is ready.
func Start(cfg Config) (*Engine, error) {
	if cfg.Path == "" {
		cfg.Path = "tclsh"
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = 10 * time.Second
	}

	script, err := os.CreateTemp("", "tcltk-bootstrap-*.tcl")
	if err != nil {
		return nil, fmt.Errorf("writing bootstrap: %w", err)
	}
	defer os.Remove(script.Name())
	if _, err := script.WriteString(bootstrap); err != nil {
		script.Close()
		return nil, fmt.Errorf("writing bootstrap: %w", err)
	}
	if err := script.Close(); err != nil {
		return nil, fmt.Errorf("writing bootstrap: %w", err)
	}

	args := append(append([]string{}, cfg.Args...), script.Name())
	if cfg.Tk {
		args = append(args, "-tk")
	}
	cmd := exec.Command(cfg.Path, args...)
	cmd.Stderr = cfg.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", cfg.Path, err)
	}

	e := &Engine{
		cfg:    cfg,
		log:    cfg.Logger,
		cmd:    cmd,
		stdin:  stdin,
		w:      bufio.NewWriter(stdin),
		frames: make(chan frame, 16),
		procs:  make(map[string]tcltk.CommandProc),
		done:   make(chan struct{}),
	}
	r := bufio.NewReader(stdout)

	ready := make(chan error, 1)
	go func() {
		f, err := readFrame(r)
		if err == nil && f.kind != "ready" {
			err = fmt.Errorf("unexpected %q frame", f.kind)
		}
		ready <- err
		if err == nil {
			e.readLoop(r)
		}
	}()

	select {
	case err := <-ready:
		if err != nil {
			e.kill()
			return nil, fmt.Errorf("waiting for %s: %w", cfg.Path, err)
		}
	case <-time.After(cfg.StartTimeout):
		e.kill()
		return nil, fmt.Errorf("waiting for %s: timed out after %s", cfg.Path, cfg.StartTimeout)
	}
	e.log.Info("interpreter started", "path", cfg.Path, "pid", cmd.Process.Pid, "tk", cfg.Tk)
	return e, nil
}

// Attach implements [tcltk.Attacher]. Calls the interpreter makes while no
// evaluation is in progress (Tk events, interpreter-side timers) are posted
// through post.
func (e *Engine) Attach(post func(func())) {
	e.post.Store(&post)
}

func (e *Engine) readLoop(r *bufio.Reader) {
	defer close(e.frames)
	defer close(e.done)
	for {
		f, err := readFrame(r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				e.log.Error("reading frame", "err", err)
			}
			return
		}
		e.log.Debug("frame", "kind", f.kind, "len", len(f.payload))
		if f.kind == "cb" && e.inEval.Load() == 0 {
			if p := e.post.Load(); p != nil {
				(*p)(func() { e.serveCallback(f.payload) })
				continue
			}
		}
		e.frames <- f
	}
}

func readFrame(r *bufio.Reader) (frame, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return frame{}, err
	}
	fields := strings.Fields(header)
	if len(fields) < 2 {
		return frame{}, fmt.Errorf("malformed frame header %q", header)
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil || n < 0 {
		return frame{}, fmt.Errorf("malformed frame length in %q", header)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return frame{}, fmt.Errorf("reading %d byte payload: %w", n, err)
	}
	return frame{kind: fields[0], args: fields[1 : len(fields)-1], payload: string(buf)}, nil
}

func (e *Engine) send(header string, payload string) error {
	e.wmu.Lock()
	defer e.wmu.Unlock()
	if _, err := fmt.Fprintf(e.w, "%s %d\n", header, len(payload)); err != nil {
		return err
	}
	if _, err := e.w.WriteString(payload); err != nil {
		return err
	}
	return e.w.Flush()
}

// Eval sends cmd to the interpreter and waits for its result, serving any
// callbacks it makes meanwhile.
func (e *Engine) Eval(cmd tcltk.Command) (*tcltk.Obj, error) {
	if e.closed.Load() {
		return nil, tcltk.ErrClosed
	}
	e.inEval.Add(1)
	defer e.inEval.Add(-1)
	if err := e.send("eval", cmd.String()); err != nil {
		return nil, fmt.Errorf("sending command: %w", err)
	}
	for f := range e.frames {
		switch f.kind {
		case "ok":
			return tcltk.NewString(f.payload), nil
		case "err":
			return nil, decodeError(f.payload)
		case "cb":
			e.serveCallback(f.payload)
		default:
			e.log.Warn("unexpected frame", "kind", f.kind)
		}
	}
	return nil, errors.New("interpreter exited")
}

// decodeError turns an err frame payload {message errorcode errorinfo
// ?returncode?} into an InterpError.
func decodeError(payload string) error {
	parts, err := tcltk.ParseList(payload)
	if err != nil || len(parts) < 3 {
		return tcltk.NewInterpError(payload, nil, nil)
	}
	ie := tcltk.NewInterpError(parts[0], tcltk.NewString(parts[1]), nil)
	ie.Info = parts[2]
	if len(parts) > 3 {
		if c, err := strconv.Atoi(parts[3]); err == nil {
			ie.ReturnCode = tcltk.ReturnCode(c)
		}
	}
	return ie
}

func (e *Engine) serveCallback(payload string) {
	code, result := e.runCallback(payload)
	if err := e.send("ret "+strconv.Itoa(int(code)), result); err != nil {
		e.log.Error("sending callback result", "err", err)
	}
}

func (e *Engine) runCallback(payload string) (tcltk.ReturnCode, string) {
	words, err := tcltk.ParseList(payload)
	if err != nil || len(words) == 0 {
		return tcltk.ReturnError, tcltk.FormatList([]string{"malformed callback request", "NONE"})
	}
	e.pmu.Lock()
	proc, ok := e.procs[words[0]]
	e.pmu.Unlock()
	if !ok {
		return tcltk.ReturnError, tcltk.FormatList([]string{fmt.Sprintf("invalid command name %q", words[0]), "NONE"})
	}
	args := make([]*tcltk.Obj, len(words)-1)
	for j, w := range words[1:] {
		args[j] = tcltk.NewString(w)
	}
	v, err := proc(args)
	switch {
	case err == nil:
		return tcltk.ReturnOK, v.String()
	case errors.Is(err, tcltk.ErrBreak):
		return tcltk.ReturnBreak, ""
	case errors.Is(err, tcltk.ErrContinue):
		return tcltk.ReturnContinue, ""
	}
	code := "NONE"
	var ie *tcltk.InterpError
	if errors.As(err, &ie) && ie.Code != nil {
		code = ie.Code.String()
	}
	return tcltk.ReturnError, tcltk.FormatList([]string{err.Error(), code})
}

// CreateCommand makes proc callable as name inside the interpreter.
func (e *Engine) CreateCommand(name string, proc tcltk.CommandProc) error {
	e.pmu.Lock()
	e.procs[name] = proc
	e.pmu.Unlock()
	_, err := e.Eval(tcltk.Cmd("interp", "alias", "", name, "", "::tcltk::invoke", name))
	if err != nil {
		e.pmu.Lock()
		delete(e.procs, name)
		e.pmu.Unlock()
	}
	return err
}

// DeleteCommand removes a command created with CreateCommand.
func (e *Engine) DeleteCommand(name string) error {
	e.pmu.Lock()
	delete(e.procs, name)
	e.pmu.Unlock()
	if e.closed.Load() {
		return nil
	}
	_, err := e.Eval(tcltk.Cmd("rename", name, ""))
	return err
}

// Close ends the interpreter by closing its input and waits for it to exit.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.stdin.Close()
	select {
	case <-e.done:
	case <-time.After(5 * time.Second):
		e.log.Warn("interpreter did not exit, killing", "pid", e.cmd.Process.Pid)
		e.cmd.Process.Kill()
	}
	err := e.cmd.Wait()
	e.log.Info("interpreter exited", "pid", e.cmd.Process.Pid, "err", err)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("interpreter exited: %w", err)
	}
	return err
}

func (e *Engine) kill() {
	e.closed.Store(true)
	e.stdin.Close()
	e.cmd.Process.Kill()
	e.cmd.Wait()
}
