package tcltk_test

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/feather-lang/tcltk"
	"github.com/google/go-cmp/cmp"
)

// =============================================================================
// List grammar
// =============================================================================

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"a b c", []string{"a", "b", "c"}},
		{"  a\tb\nc  ", []string{"a", "b", "c"}},
		{"{a b} c", []string{"a b", "c"}},
		{"{a {b c}} d", []string{"a {b c}", "d"}},
		{`"a b" c`, []string{"a b", "c"}},
		{`"a\tb"`, []string{"a\tb"}},
		{`a\ b`, []string{"a b"}},
		{`{a\}b}`, []string{`a\}b`}},
		{`\x41é\101`, []string{"Aé" + "A"}},
		{`{}`, []string{""}},
		{`{} {}`, []string{"", ""}},
		{"a\\\n   b c", []string{"a b", "c"}},
	}
	for _, tt := range tests {
		got, err := tcltk.ParseList(tt.in)
		if err != nil {
			t.Errorf("ParseList(%q) failed: %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseList(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestParseListErrors(t *testing.T) {
	tests := []struct {
		in         string
		reason     string
		incomplete bool
	}{
		{"{a b", "unmatched open brace in list", true},
		{`"a b`, "unmatched open quote in list", true},
		{"{a}b", `list element in braces followed by "b" instead of space`, false},
		{`"a"b c`, `list element in quotes followed by "b" instead of space`, false},
	}
	for _, tt := range tests {
		_, err := tcltk.ParseList(tt.in)
		var nl *tcltk.NotListError
		if !errors.As(err, &nl) {
			t.Errorf("ParseList(%q): expected *NotListError, got %v", tt.in, err)
			continue
		}
		if nl.Reason != tt.reason {
			t.Errorf("ParseList(%q): expected reason %q, got %q", tt.in, tt.reason, nl.Reason)
		}
		if nl.Incomplete != tt.incomplete {
			t.Errorf("ParseList(%q): expected Incomplete=%v", tt.in, tt.incomplete)
		}
		if !errors.Is(err, tcltk.ErrNotList) {
			t.Errorf("ParseList(%q): error does not match ErrNotList", tt.in)
		}
	}
}

func TestQuoteElement(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "{}"},
		{"abc", "abc"},
		{"a b", "{a b}"},
		{"#x", "{#x}"},
		{"a{b", `a\{b`},
		{"}", `\}`},
		{`a\`, `a\\`},
		{"a\\\nb", `a\\\nb`},
		{"{a} {b}", "{{a} {b}}"},
		{`$x`, `{$x}`},
	}
	for _, tt := range tests {
		if got := tcltk.QuoteElement(tt.in); got != tt.want {
			t.Errorf("QuoteElement(%q): expected %q, got %q", tt.in, tt.want, got)
		}
		elems, err := tcltk.ParseList(tcltk.QuoteElement(tt.in))
		if err != nil || len(elems) != 1 || elems[0] != tt.in {
			t.Errorf("QuoteElement(%q) does not parse back: %q, %v", tt.in, elems, err)
		}
	}
}

const roundTripAlphabet = "ab {}\\\"$[];#\n\t\r\v\fxé"

func randomLeaf(r *rand.Rand) *tcltk.Obj {
	n := r.Intn(7)
	alphabet := []rune(roundTripAlphabet)
	var b strings.Builder
	for j := 0; j < n; j++ {
		b.WriteRune(alphabet[r.Intn(len(alphabet))])
	}
	return tcltk.NewString(b.String())
}

func randomValue(r *rand.Rand, depth int) *tcltk.Obj {
	if depth == 0 || r.Intn(3) == 0 {
		return randomLeaf(r)
	}
	items := make([]*tcltk.Obj, r.Intn(5))
	for j := range items {
		items[j] = randomValue(r, depth-1)
	}
	return tcltk.NewList(items...)
}

// sameShape compares a constructed value with the value parsed back from
// its string form, descending into constructed lists.
func sameShape(t *testing.T, want, got *tcltk.Obj) bool {
	t.Helper()
	if want.Kind() != tcltk.KindList {
		return want.String() == got.String()
	}
	wantItems, _ := want.List()
	gotItems, err := got.List()
	if err != nil || len(wantItems) != len(gotItems) {
		return false
	}
	for j := range wantItems {
		if !sameShape(t, wantItems[j], gotItems[j]) {
			return false
		}
	}
	return true
}

func TestListRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for n := 0; n < 2000; n++ {
		v := randomValue(r, 3)
		parsed := tcltk.NewString(v.String())
		if !sameShape(t, v, parsed) {
			t.Fatalf("round trip failed for %q", v.String())
		}
	}
}

func TestFormatList(t *testing.T) {
	elems := []string{"a b", "", "{", `\`, "#", "plain"}
	got, err := tcltk.ParseList(tcltk.FormatList(elems))
	if err != nil {
		t.Fatalf("ParseList failed: %v", err)
	}
	if diff := cmp.Diff(elems, got); diff != "" {
		t.Errorf("FormatList round trip (-want +got):\n%s", diff)
	}
}

func TestConcat(t *testing.T) {
	got := tcltk.Concat(tcltk.NewString("  a b "), tcltk.NewString(""), tcltk.NewString("c\n"))
	if got.String() != "a b c" {
		t.Errorf("expected %q, got %q", "a b c", got.String())
	}
}

// =============================================================================
// Values
// =============================================================================

func TestObjConstructors(t *testing.T) {
	t.Run("Int", func(t *testing.T) {
		v := tcltk.NewInt(42)
		if v.String() != "42" || v.Type() != "int" || v.Kind() != tcltk.KindString {
			t.Errorf("unexpected int value %q type %q kind %v", v.String(), v.Type(), v.Kind())
		}
	})
	t.Run("Double", func(t *testing.T) {
		if got := tcltk.NewDouble(3).String(); got != "3.0" {
			t.Errorf("expected '3.0', got %q", got)
		}
		if got := tcltk.NewDouble(math.Inf(1)).String(); got != "Inf" {
			t.Errorf("expected 'Inf', got %q", got)
		}
	})
	t.Run("List", func(t *testing.T) {
		v := tcltk.NewList(tcltk.NewString("a b"), tcltk.NewInt(1), nil)
		if v.String() != "{a b} 1 {}" {
			t.Errorf("expected '{a b} 1 {}', got %q", v.String())
		}
		if v.Kind() != tcltk.KindList {
			t.Errorf("expected list kind, got %v", v.Kind())
		}
		n, _ := v.Len()
		if n != 3 {
			t.Errorf("expected 3 items, got %d", n)
		}
		out, _ := v.Index(5)
		if out.String() != "" {
			t.Errorf("expected empty out-of-range element, got %q", out.String())
		}
	})
	t.Run("Bytes", func(t *testing.T) {
		v := tcltk.NewBytes([]byte{0, 'a', 0xff})
		if v.Kind() != tcltk.KindBytes {
			t.Errorf("expected bytes kind, got %v", v.Kind())
		}
		if v.String() != "\x00aÿ" {
			t.Errorf("unexpected string form %q", v.String())
		}
		back := tcltk.AsBytes(tcltk.NewString(v.String()))
		if diff := cmp.Diff([]byte{0, 'a', 0xff}, back); diff != "" {
			t.Errorf("bytes round trip (-want +got):\n%s", diff)
		}
	})
	t.Run("Dict", func(t *testing.T) {
		v := tcltk.NewDict("name", "Alice Smith", "age", 30, "name", "Bob")
		if v.String() != "name Bob age 30" {
			t.Errorf("expected 'name Bob age 30', got %q", v.String())
		}
		d, err := tcltk.NewString("a 1 b {2 3}").Dict()
		if err != nil {
			t.Fatalf("Dict failed: %v", err)
		}
		if d.Items["b"].String() != "2 3" {
			t.Errorf("expected '2 3', got %q", d.Items["b"].String())
		}
	})
	t.Run("DictIsCopy", func(t *testing.T) {
		v := tcltk.NewDict("a", 1)
		_ = v.String()
		d, err := v.Dict()
		if err != nil {
			t.Fatalf("Dict failed: %v", err)
		}
		d.Items["a"] = tcltk.NewInt(2)
		d.Order = append(d.Order, "b")
		d.Items["b"] = tcltk.NewInt(3)

		items, err := v.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if v.String() != "a 1" || tcltk.NewList(items...).String() != "a 1" {
			t.Errorf("dict changed through Dict result: string %q, list %q", v.String(), tcltk.NewList(items...).String())
		}
		again, _ := v.Dict()
		if len(again.Order) != 1 || again.Items["a"].String() != "1" {
			t.Errorf("expected {a 1}, got %v", again.Order)
		}
	})
	t.Run("Equal", func(t *testing.T) {
		if !tcltk.Equal(tcltk.NewInt(7), tcltk.NewString("7")) {
			t.Error("expected int 7 to equal string 7")
		}
	})
}

type celsius float64

type point struct{ x, y int }

func (p point) TclValue() *tcltk.Obj { return tcltk.NewList(tcltk.NewInt(int64(p.x)), tcltk.NewInt(int64(p.y))) }

func TestValueOf(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"bool", true, "1"},
		{"int8", int8(-5), "-5"},
		{"uint64 max", uint64(math.MaxUint64), "18446744073709551615"},
		{"float", 2.5, "2.5"},
		{"named float", celsius(20), "20.0"},
		{"string", "a b", "a b"},
		{"strings", []string{"a b", ""}, "{a b} {}"},
		{"ints", []int{1, 2, 3}, "1 2 3"},
		{"nested", [][]string{{"a", "b"}, {"c"}}, "{a b} c"},
		{"map", map[string]int{"b": 2, "a": 1}, "a 1 b 2"},
		{"encoder", point{3, 4}, "3 4"},
		{"command", tcltk.Cmd("set", "x", "a b"), "set x {a b}"},
		{"nil int pointer", (*int)(nil), ""},
		{"nil stringer pointer", (*time.Time)(nil), ""},
		{"nil encoder pointer", (*tcltk.Callback)(nil), ""},
		{"nil obj", (*tcltk.Obj)(nil), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tcltk.ValueOf(tt.in).String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// =============================================================================
// Decoding
// =============================================================================

func TestDecodeScalars(t *testing.T) {
	t.Run("Int", func(t *testing.T) {
		for in, want := range map[string]int{"42": 42, " -7 ": -7, "0x1F": 31, "0b101": 5, "0o17": 15, "+3": 3} {
			got, err := tcltk.Decode[int](tcltk.NewString(in))
			if err != nil || got != want {
				t.Errorf("Decode[int](%q) = %d, %v; want %d", in, got, err, want)
			}
		}
	})
	t.Run("IntGrammar", func(t *testing.T) {
		for _, in := range []string{"abc", "", "1.5", "12abc", "--1"} {
			_, err := tcltk.Decode[int](tcltk.NewString(in))
			if tcltk.KindOf(err) != tcltk.ErrKindDecode {
				t.Errorf("Decode[int](%q): expected decode error, got %v", in, err)
			}
			if errors.Is(err, tcltk.ErrNotList) {
				t.Errorf("Decode[int](%q): decode error must not match ErrNotList", in)
			}
		}
		_, err := tcltk.Decode[int](tcltk.NewString("xyz"))
		if err == nil || err.Error() != `expected integer but got "xyz"` {
			t.Errorf("unexpected message: %v", err)
		}
	})
	t.Run("IntRange", func(t *testing.T) {
		cases := []func() error{
			func() error { _, err := tcltk.Decode[uint8](tcltk.NewString("300")); return err },
			func() error { _, err := tcltk.Decode[int8](tcltk.NewString("-129")); return err },
			func() error { _, err := tcltk.Decode[uint](tcltk.NewString("-1")); return err },
			func() error { _, err := tcltk.Decode[int64](tcltk.NewString("99999999999999999999")); return err },
			func() error { _, err := tcltk.Decode[int16](tcltk.NewInt(1 << 20)); return err },
		}
		for j, c := range cases {
			err := c()
			if !errors.Is(err, tcltk.ErrNumeric) {
				t.Errorf("case %d: expected numeric error, got %v", j, err)
			}
		}
		v, err := tcltk.Decode[int8](tcltk.NewString("-128"))
		if err != nil || v != -128 {
			t.Errorf("Decode[int8](-128) = %d, %v", v, err)
		}
		u, err := tcltk.Decode[uint64](tcltk.NewString("18446744073709551615"))
		if err != nil || u != math.MaxUint64 {
			t.Errorf("Decode[uint64](max) = %d, %v", u, err)
		}
	})
	t.Run("Float", func(t *testing.T) {
		f, err := tcltk.Decode[float64](tcltk.NewString("1.5e3"))
		if err != nil || f != 1500 {
			t.Errorf("Decode[float64] = %v, %v", f, err)
		}
		f, err = tcltk.Decode[float64](tcltk.NewString("0x10"))
		if err != nil || f != 16 {
			t.Errorf("Decode[float64](0x10) = %v, %v", f, err)
		}
		if _, err := tcltk.Decode[float32](tcltk.NewString("1e39")); !errors.Is(err, tcltk.ErrNumeric) {
			t.Errorf("expected numeric error for float32 overflow, got %v", err)
		}
		if _, err := tcltk.Decode[float64](tcltk.NewString("1e400")); !errors.Is(err, tcltk.ErrNumeric) {
			t.Errorf("expected numeric error for float64 overflow, got %v", err)
		}
		if _, err := tcltk.Decode[float64](tcltk.NewString("pi")); !errors.Is(err, tcltk.ErrDecode) {
			t.Errorf("expected decode error, got %v", err)
		}
	})
	t.Run("Bool", func(t *testing.T) {
		for _, in := range []string{"1", "yes", "YES", "true", "True", "on", "t", "y", "2", "0.5"} {
			b, err := tcltk.Decode[bool](tcltk.NewString(in))
			if err != nil || !b {
				t.Errorf("Decode[bool](%q) = %v, %v; want true", in, b, err)
			}
		}
		for _, in := range []string{"0", "no", "NO", "false", "off", "OFF", "of", "f", "n", "0.0"} {
			b, err := tcltk.Decode[bool](tcltk.NewString(in))
			if err != nil || b {
				t.Errorf("Decode[bool](%q) = %v, %v; want false", in, b, err)
			}
		}
		for _, in := range []string{"", "o", "maybe"} {
			if _, err := tcltk.Decode[bool](tcltk.NewString(in)); !errors.Is(err, tcltk.ErrDecode) {
				t.Errorf("Decode[bool](%q): expected decode error, got %v", in, err)
			}
		}
	})
	t.Run("Obj", func(t *testing.T) {
		src := tcltk.NewString("x")
		got, err := tcltk.Decode[*tcltk.Obj](src)
		if err != nil || got != src {
			t.Errorf("Decode[*Obj] should return the value itself")
		}
	})
}

func TestDecodeCompound(t *testing.T) {
	t.Run("Slice", func(t *testing.T) {
		got, err := tcltk.Decode[[]int](tcltk.NewString("1 2 3"))
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if diff := cmp.Diff([]int{1, 2, 3}, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})
	t.Run("EmptyList", func(t *testing.T) {
		got, err := tcltk.Decode[[]string](tcltk.NewString(""))
		if err != nil || len(got) != 0 {
			t.Errorf("expected empty list, got %q, %v", got, err)
		}
	})
	t.Run("NotList", func(t *testing.T) {
		_, err := tcltk.Decode[[]int](tcltk.NewString("1 {2"))
		if tcltk.KindOf(err) != tcltk.ErrKindNotList {
			t.Errorf("expected not-list error, got %v", err)
		}
	})
	t.Run("ElementError", func(t *testing.T) {
		_, err := tcltk.Decode[[]int](tcltk.NewString("1 x 3"))
		if tcltk.KindOf(err) != tcltk.ErrKindDecode {
			t.Errorf("expected decode error, got %v", err)
		}
		if err == nil || !strings.HasPrefix(err.Error(), "element 1: ") {
			t.Errorf("expected element index in message, got %v", err)
		}
		var de *tcltk.DecodeError
		if !errors.As(err, &de) || de.Value != "x" {
			t.Errorf("expected DecodeError for \"x\", got %#v", de)
		}
	})
	t.Run("Nested", func(t *testing.T) {
		got, err := tcltk.Decode[[][]string](tcltk.NewString("{a b} {} {{c d} e}"))
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		want := [][]string{{"a", "b"}, {}, {"c d", "e"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})
	t.Run("Array", func(t *testing.T) {
		got, err := tcltk.Decode[[2]int](tcltk.NewString("4 5"))
		if err != nil || got != [2]int{4, 5} {
			t.Errorf("Decode[[2]int] = %v, %v", got, err)
		}
		if _, err := tcltk.Decode[[2]int](tcltk.NewString("4 5 6")); !errors.Is(err, tcltk.ErrDecode) {
			t.Errorf("expected decode error for wrong length, got %v", err)
		}
	})
	t.Run("Map", func(t *testing.T) {
		got, err := tcltk.Decode[map[string]int](tcltk.NewString("a 1 b 2"))
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if diff := cmp.Diff(map[string]int{"a": 1, "b": 2}, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
		if _, err := tcltk.Decode[map[string]int](tcltk.NewString("a 1 b")); !errors.Is(err, tcltk.ErrDecode) {
			t.Errorf("expected decode error for odd dict, got %v", err)
		}
	})
	t.Run("Pointer", func(t *testing.T) {
		got, err := tcltk.Decode[*int](tcltk.NewString("9"))
		if err != nil || got == nil || *got != 9 {
			t.Errorf("Decode[*int] = %v, %v", got, err)
		}
	})
}

func TestDecodeEnum(t *testing.T) {
	r, err := tcltk.Decode[tcltk.Relief](tcltk.NewString("sunk"))
	if err != nil || r != tcltk.ReliefSunken {
		t.Errorf("expected sunken, got %q, %v", r, err)
	}

	_, err = tcltk.Decode[tcltk.Relief](tcltk.NewString("wavy"))
	want := `bad relief "wavy": must be flat, groove, raised, ridge, solid, or sunken`
	if err == nil || err.Error() != want {
		t.Errorf("expected %q, got %v", want, err)
	}
	if tcltk.KindOf(err) != tcltk.ErrKindDecode {
		t.Errorf("expected decode kind, got %v", tcltk.KindOf(err))
	}

	_, err = tcltk.Decode[tcltk.Relief](tcltk.NewString("r"))
	if err == nil || !strings.HasPrefix(err.Error(), `ambiguous relief "r"`) {
		t.Errorf("expected ambiguous error, got %v", err)
	}

	anchors, err := tcltk.Decode[[]tcltk.Anchor](tcltk.NewString("n center se"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if diff := cmp.Diff([]tcltk.Anchor{tcltk.AnchorN, tcltk.AnchorCenter, tcltk.AnchorSE}, anchors); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

// =============================================================================
// Error kinds
// =============================================================================

func TestErrorKinds(t *testing.T) {
	cause := &tcltk.DecodeError{Value: "x", Type: "integer"}
	ie := tcltk.NewInterpError("failed", tcltk.NewStringList("TCL", "VALUE"), cause)

	tests := []struct {
		name string
		err  error
		want tcltk.ErrorKind
	}{
		{"nil", nil, tcltk.ErrKindNone},
		{"plain", errors.New("x"), tcltk.ErrKindNone},
		{"decode", cause, tcltk.ErrKindDecode},
		{"wrapped numeric", fmt.Errorf("context: %w", &tcltk.NumericError{Value: "300", Type: "uint8"}), tcltk.ErrKindNumeric},
		{"interp outermost", ie, tcltk.ErrKindInterp},
		{"joined", errors.Join(errors.New("a"), &tcltk.NotListError{Reason: "r"}), tcltk.ErrKindNotList},
	}
	for _, tt := range tests {
		if got := tcltk.KindOf(tt.err); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}

	if !errors.Is(ie, tcltk.ErrInterp) || !errors.Is(ie, tcltk.ErrDecode) {
		t.Error("interp error should match both ErrInterp and its cause's kind")
	}
	var de *tcltk.DecodeError
	if !errors.As(ie, &de) || de != cause {
		t.Error("cause should stay reachable")
	}
	if ie.Code.String() != "TCL VALUE" {
		t.Errorf("expected code 'TCL VALUE', got %q", ie.Code.String())
	}
}
