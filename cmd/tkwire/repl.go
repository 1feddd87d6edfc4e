package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/feather-lang/tcltk"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	promptReady    = "% "
	promptContinue = "> "
)

// lineReader is satisfied by term.Terminal and by plainReader.
type lineReader interface {
	ReadLine() (string, error)
	SetPrompt(prompt string)
}

// plainReader reads lines from a pipe or file, writing prompts to out.
type plainReader struct {
	scanner *bufio.Scanner
	out     io.Writer
	prompt  string
}

func (r *plainReader) SetPrompt(prompt string) { r.prompt = prompt }

func (r *plainReader) ReadLine() (string, error) {
	if r.out != nil {
		fmt.Fprint(r.out, r.prompt)
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func newReplCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Run an interactive loop",
		Long: `Run an interactive loop. Each complete input is evaluated at global level
inside the event loop, so timers and idle scripts fire between inputs.

Meta-commands:
  :update               process all pending events
  :after MS SCRIPT...   schedule SCRIPT after MS milliseconds
  :pending              list pending timers
  :quit                 exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			fd := int(os.Stdin.Fd())
			var (
				reader lineReader
				out    io.Writer = os.Stdout
			)
			if term.IsTerminal(fd) {
				oldState, err := term.MakeRaw(fd)
				if err != nil {
					return fmt.Errorf("entering raw mode: %w", err)
				}
				defer term.Restore(fd, oldState)
				t := term.NewTerminal(struct {
					io.Reader
					io.Writer
				}{os.Stdin, os.Stdout}, promptReady)
				reader, out = t, t
			} else {
				reader = &plainReader{scanner: bufio.NewScanner(os.Stdin)}
			}

			log := cfg.Logger(os.Stderr)
			in, err := openInterp(cfg, out, log)
			if err != nil {
				return err
			}
			defer in.Close()
			in.SetBackgroundError(func(err error) {
				fmt.Fprintf(out, "background error: %v\n", err)
			})
			if t, ok := reader.(*term.Terminal); ok {
				t.AutoCompleteCallback = completer(in)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			r := &repl{in: in, out: out}
			go r.read(reader)
			if err := in.MainLoop(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

type repl struct {
	in  *tcltk.Interp
	out io.Writer
}

// read collects complete inputs and runs each one on the event loop,
// waiting for it to finish before prompting again.
func (r *repl) read(reader lineReader) {
	var buf strings.Builder
	done := make(chan bool)
	for {
		line, err := reader.ReadLine()
		if err != nil {
			r.in.Post(func() { r.in.Close() })
			return
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)

		var nl *tcltk.NotListError
		if _, err := tcltk.ParseList(buf.String()); errors.As(err, &nl) && nl.Incomplete {
			reader.SetPrompt(promptContinue)
			continue
		}
		input := buf.String()
		buf.Reset()
		reader.SetPrompt(promptReady)

		r.in.Post(func() { done <- r.handle(input) })
		if quit := <-done; quit {
			r.in.Post(func() { r.in.Close() })
			return
		}
	}
}

// handle evaluates one input and reports whether the loop should end.
func (r *repl) handle(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, ":") {
		return r.meta(trimmed)
	}
	v, err := r.in.Evaluate(tcltk.Cmd("uplevel", "#0", input))
	if err != nil {
		r.printf("error: %v\n", describe(err))
		return false
	}
	if s := v.String(); s != "" {
		r.printf("%s\n", s)
	}
	return false
}

func (r *repl) meta(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":update":
		r.in.Update()
	case ":pending":
		for _, id := range r.in.Pending() {
			info, _ := r.in.Info(id)
			r.printf("%s %s %s\n", id, info.Kind, tcltk.QuoteElement(info.Script.String()))
		}
	case ":after":
		if len(fields) < 3 {
			r.printf("usage: :after MS SCRIPT...\n")
			return false
		}
		ms, err := strconv.Atoi(fields[1])
		if err != nil {
			r.printf("error: bad delay %q\n", fields[1])
			return false
		}
		rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line[len(fields[0]):]), fields[1]))
		id, err := r.in.After(time.Duration(ms)*time.Millisecond, rest)
		if err != nil {
			r.printf("error: %v\n", err)
			return false
		}
		r.printf("%s\n", id)
	default:
		r.printf("unknown meta-command %s\n", fields[0])
	}
	return false
}

func (r *repl) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// completer completes the first word of a line with matching command names.
func completer(in *tcltk.Interp) func(line string, pos int, key rune) (string, int, bool) {
	return func(line string, pos int, key rune) (string, int, bool) {
		if key != '\t' || strings.ContainsAny(line[:pos], " \t") {
			return "", 0, false
		}
		prefix := line[:pos]
		done := make(chan []string, 1)
		in.Post(func() {
			v, err := in.Evaluate(tcltk.Cmd("info", "commands", prefix+"*"))
			if err != nil {
				done <- nil
				return
			}
			names, _ := tcltk.Decode[[]string](v)
			done <- names
		})
		var names []string
		select {
		case names = <-done:
		case <-time.After(time.Second):
		}
		if len(names) != 1 {
			return "", 0, false
		}
		return names[0] + " " + line[pos:], len(names[0]) + 1, true
	}
}
