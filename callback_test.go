package tcltk_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/feather-lang/tcltk"
	"github.com/feather-lang/tcltk/local"
	"github.com/google/go-cmp/cmp"
)

// newInterp returns an Interp over a local engine, closed at test end.
func newInterp(t *testing.T, opts ...tcltk.Option) *tcltk.Interp {
	t.Helper()
	in := tcltk.New(local.New(local.WithOutput(&bytes.Buffer{})), opts...)
	t.Cleanup(func() { in.Close() })
	return in
}

// bgErrors collects background errors.
type bgErrors struct{ errs []error }

func (b *bgErrors) record(err error) { b.errs = append(b.errs, err) }

// =============================================================================
// Substitution patterns
// =============================================================================

func TestBindPattern(t *testing.T) {
	var bg bgErrors
	in := newInterp(t, tcltk.WithBackgroundError(bg.record))

	var got []int
	cb, err := in.Bind("", "%x %y", func(x, y int) { got = append(got, x, y) })
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if cb.Script() != "tcltk::cb1 %x %y" {
		t.Errorf("expected script %q, got %q", "tcltk::cb1 %x %y", cb.Script())
	}
	if err := in.Run(tcltk.Cmd("bind", ".c", "<Motion>", cb)); err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	t.Run("Decoded", func(t *testing.T) {
		err := in.Run(tcltk.Cmd("event", "generate", ".c", "<Motion>", "-x", 10, "-y", 20))
		if err != nil {
			t.Fatalf("event generate failed: %v", err)
		}
		if diff := cmp.Diff([]int{10, 20}, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("DecodeFailure", func(t *testing.T) {
		got = nil
		err := in.Run(tcltk.Cmd("event", "generate", ".c", "<Motion>", "-x", 10, "-y", "abc"))
		if err == nil {
			t.Fatal("expected error")
		}
		if got != nil {
			t.Errorf("closure must not run, got %v", got)
		}
		var ce *tcltk.CallbackError
		if !errors.As(err, &ce) || ce.Name != cb.Name() {
			t.Fatalf("expected CallbackError for %s, got %v", cb.Name(), err)
		}
		if !errors.Is(err, tcltk.ErrDecode) {
			t.Errorf("expected decode error in chain, got %v", err)
		}
		if !strings.Contains(err.Error(), "argument 2") {
			t.Errorf("expected argument index in message, got %q", err.Error())
		}
		if len(bg.errs) != 1 {
			t.Fatalf("expected 1 background error, got %d", len(bg.errs))
		}
		if !errors.As(bg.errs[0], &ce) {
			t.Errorf("background error should be a CallbackError, got %v", bg.errs[0])
		}
	})

	t.Run("WrongArgCount", func(t *testing.T) {
		bg.errs = nil
		_, err := in.Call(cb.Name(), 1)
		if err == nil || !strings.Contains(err.Error(), "wrong # args: expected 2, got 1") {
			t.Errorf("expected arity error, got %v", err)
		}
		if len(bg.errs) != 1 {
			t.Errorf("expected 1 background error, got %d", len(bg.errs))
		}
	})
}

func TestBindLiteralsAndStrings(t *testing.T) {
	in := newInterp(t)

	var gotW, gotWhat, gotKey string
	cb, err := in.Bind("", "%W click %K", func(w, what, key string) {
		gotW, gotWhat, gotKey = w, what, key
	})
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := in.Run(tcltk.Cmd("bind", ".b", "<Key>", cb)); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if err := in.Run(tcltk.Cmd("event", "generate", ".b", "<Key>", "-keysym", "a b")); err != nil {
		t.Fatalf("event generate failed: %v", err)
	}
	if gotW != ".b" || gotWhat != "click" || gotKey != "a b" {
		t.Errorf("got %q %q %q", gotW, gotWhat, gotKey)
	}
}

func TestBindValidation(t *testing.T) {
	in := newInterp(t)

	tests := []struct {
		name    string
		pattern string
		fn      any
		want    string
	}{
		{"keysym to int", "%K", func(int) {}, "cannot receive string field"},
		{"too few params", "%x %y", func(int) {}, "pattern has 2 fields, function takes 1"},
		{"too many params", "%x", func(int, int) {}, "pattern has 1 fields, function takes 2"},
		{"variadic minimum", "%x", func(int, int, ...string) {}, "needs at least 2"},
		{"unknown code", "%Q", func(string) {}, "unknown substitution %Q"},
		{"dangling percent", "%", func(string) {}, "dangling %"},
		{"not a function", "", 42, "expected function"},
		{"bad second result", "", func() (int, int) { return 0, 0 }, "must be error"},
		{"literal not int", "abc", func(int) {}, "cannot receive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := in.Bind("", tt.pattern, tt.fn)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
	if in.Callbacks() != 0 {
		t.Errorf("failed binds must not register, got %d callbacks", in.Callbacks())
	}

	ok := []struct {
		pattern string
		fn      any
	}{
		{"%x", func(x int) {}},
		{"%x", func(x float64) {}},
		{"%x", func(x string) {}},
		{"%x", func(x *tcltk.Obj) {}},
		{"%f", func(b bool) {}},
		{"%x %y %W", func(x int, rest ...string) {}},
		{"%x,%y", func(s string) {}},
		{"42", func(n int) {}},
		{"%W", func(r tcltk.Relief) {}},
	}
	for _, tt := range ok {
		if _, err := in.Bind("", tt.pattern, tt.fn); err != nil {
			t.Errorf("Bind(%q, %T) failed: %v", tt.pattern, tt.fn, err)
		}
	}
}

// =============================================================================
// Results
// =============================================================================

func TestCallbackResults(t *testing.T) {
	in := newInterp(t)
	errBoom := errors.New("boom")

	_, err := in.Bind("add", "", func(a, b int) int { return a + b })
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	v, err := in.Call("add", 2, 3)
	if err != nil || v.String() != "5" {
		t.Errorf("add = %v, %v; want 5", v, err)
	}

	_, err = in.Bind("fail", "", func() (string, error) { return "", errBoom })
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	_, err = in.Call("fail")
	if !errors.Is(err, errBoom) {
		t.Errorf("expected boom in chain, got %v", err)
	}
	var ie *tcltk.InterpError
	if !errors.As(err, &ie) || ie.Message != "boom" {
		t.Errorf("expected InterpError 'boom', got %v", err)
	}

	_, err = in.Bind("words", "", func(xs ...string) []string { return xs })
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	v, err = in.Call("words", "a b", "c")
	if err != nil || v.String() != "{a b} c" {
		t.Errorf("words = %v, %v", v, err)
	}

	_, err = in.BindRaw("raw", "", func(args []*tcltk.Obj) (*tcltk.Obj, error) {
		return tcltk.NewInt(int64(len(args))), nil
	})
	if err != nil {
		t.Fatalf("BindRaw failed: %v", err)
	}
	v, err = in.Call("raw", 1, 2, 3)
	if err != nil || v.String() != "3" {
		t.Errorf("raw = %v, %v", v, err)
	}
}

func TestCallbackBreak(t *testing.T) {
	in := newInterp(t)
	calls := 0
	cb, err := in.Bind("", "", func() error {
		calls++
		return tcltk.ErrBreak
	})
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := in.Run(tcltk.Cmd("bind", ".b", "<1>", cb)); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if err := in.Run(tcltk.Cmd("bind", ".b", "<1>", "+error unreachable")); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if err := in.Run(tcltk.Cmd("event", "generate", ".b", "<1>")); err != nil {
		t.Errorf("break should end the binding quietly, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}

	_, err = in.Call(cb.Name())
	var ie *tcltk.InterpError
	if !errors.As(err, &ie) || ie.ReturnCode != tcltk.ReturnBreak {
		t.Errorf("expected break return code at top level, got %v", err)
	}
}

// =============================================================================
// Lifetime
// =============================================================================

func TestCallbackLifetime(t *testing.T) {
	t.Run("Release", func(t *testing.T) {
		in := newInterp(t)
		cb, err := in.Bind("hello", "", func() string { return "hi" })
		if err != nil {
			t.Fatalf("Bind failed: %v", err)
		}
		if _, ok := in.Callback("hello"); !ok {
			t.Fatal("callback not registered")
		}
		cb.Release()
		cb.Release()
		if !cb.Released() || in.Callbacks() != 0 {
			t.Errorf("expected released callback and empty registry")
		}
		_, err = in.Call("hello")
		if err == nil || !strings.Contains(err.Error(), `invalid command name "hello"`) {
			t.Errorf("expected invalid command name, got %v", err)
		}
		if _, err := in.Bind("hello", "", func() {}); err != nil {
			t.Errorf("name should be free after release: %v", err)
		}
	})

	t.Run("NameInUse", func(t *testing.T) {
		in := newInterp(t)
		if _, err := in.Bind("dup", "", func() {}); err != nil {
			t.Fatalf("Bind failed: %v", err)
		}
		_, err := in.Bind("dup", "", func() {})
		if !errors.Is(err, tcltk.ErrNameInUse) {
			t.Errorf("expected ErrNameInUse, got %v", err)
		}
	})

	t.Run("WithCallback", func(t *testing.T) {
		in := newInterp(t)
		clicked := false
		var name string
		err := in.WithCallback("", func() { clicked = true }, func(cb *tcltk.Callback) error {
			name = cb.Name()
			return in.Run(tcltk.Cmd(cb.Name()))
		})
		if err != nil {
			t.Fatalf("WithCallback failed: %v", err)
		}
		if !clicked {
			t.Error("callback did not run")
		}
		if _, ok := in.Callback(name); ok {
			t.Error("callback should be released after the body returns")
		}
	})

	t.Run("WithCallbackDetach", func(t *testing.T) {
		in := newInterp(t)
		var kept *tcltk.Callback
		err := in.WithCallback("", func() {}, func(cb *tcltk.Callback) error {
			cb.Detach()
			kept = cb
			return nil
		})
		if err != nil {
			t.Fatalf("WithCallback failed: %v", err)
		}
		if kept.Released() {
			t.Error("detached callback should survive the body")
		}
		in.Close()
		if !kept.Released() {
			t.Error("Close should release detached callbacks")
		}
	})

	t.Run("BindStatic", func(t *testing.T) {
		in := newInterp(t)
		cb, err := in.BindStatic("onclose", "", func() {})
		if err != nil {
			t.Fatalf("BindStatic failed: %v", err)
		}
		in.Close()
		if !cb.Released() || in.Callbacks() != 0 {
			t.Error("Close should release static callbacks")
		}
		if _, err := in.Bind("", "", func() {}); !errors.Is(err, tcltk.ErrClosed) {
			t.Errorf("expected ErrClosed after Close, got %v", err)
		}
		if _, err := in.Call("list"); !errors.Is(err, tcltk.ErrClosed) {
			t.Errorf("expected ErrClosed after Close, got %v", err)
		}
	})
}

func TestIntern(t *testing.T) {
	in := newInterp(t, tcltk.WithInternCapacity(2))
	a := in.Intern("-text")
	if in.Intern("-text") != a {
		t.Error("expected the same value for a repeated literal")
	}
	in.Intern("b")
	in.Intern("c")
	if in.Intern("-text") == a {
		t.Error("expected eviction beyond capacity")
	}
}
