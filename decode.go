package tcltk

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Decoder is implemented by types that can extract themselves from an
// interpreter value. DecodeValue should return a *DecodeError (or
// *NumericError, *NotListError) so callers can classify the failure.
type Decoder interface {
	DecodeValue(v *Obj) error
}

// Decode converts v to a T.
//
// Errors:
//   - *DecodeError when the text does not match the grammar of T;
//   - *NumericError when a valid integer does not fit T;
//   - *NotListError when T is a slice, array or map and v is not a list.
//
// Element failures inside lists keep their kind and are wrapped with the
// element index.
//
//	xs, err := tcltk.Decode[[]int](tcltk.NewString("1 2 3"))
func Decode[T any](v *Obj) (T, error) {
	var out T
	err := DecodeInto(v, &out)
	return out, err
}

// DecodeInto converts v into the value ptr points to.
func DecodeInto(v *Obj, ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("tcltk: DecodeInto requires a non-nil pointer, got %T", ptr)
	}
	if v == nil {
		v = NewString("")
	}
	return decodeValue(v, rv.Elem())
}

var (
	decoderType = reflect.TypeOf((*Decoder)(nil)).Elem()
	objPtrType  = reflect.TypeOf((**Obj)(nil)).Elem()
)

func decodeValue(v *Obj, dst reflect.Value) error {
	if dst.CanAddr() && dst.Addr().Type().Implements(decoderType) {
		return dst.Addr().Interface().(Decoder).DecodeValue(v)
	}
	if dst.Type() == objPtrType {
		dst.Set(reflect.ValueOf(v))
		return nil
	}

	t := dst.Type()
	switch t.Kind() {
	case reflect.String:
		dst.SetString(v.String())
	case reflect.Bool:
		b, err := AsBool(v)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := asSigned(v, t.Bits(), t.Kind().String())
		if err != nil {
			return err
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := asUnsigned(v, t.Bits(), t.Kind().String())
		if err != nil {
			return err
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := AsDouble(v)
		if err != nil {
			return err
		}
		if t.Kind() == reflect.Float32 && !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			return &NumericError{Value: v.String(), Type: "float32"}
		}
		dst.SetFloat(f)
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			dst.Set(reflect.ValueOf(AsBytes(v)).Convert(t))
			return nil
		}
		items, err := v.List()
		if err != nil {
			return err
		}
		s := reflect.MakeSlice(t, len(items), len(items))
		for j, item := range items {
			if err := decodeValue(item, s.Index(j)); err != nil {
				return fmt.Errorf("element %d: %w", j, err)
			}
		}
		dst.Set(s)
	case reflect.Array:
		items, err := v.List()
		if err != nil {
			return err
		}
		if len(items) != t.Len() {
			return &DecodeError{Value: v.String(), Type: fmt.Sprintf("list of length %d", t.Len())}
		}
		for j, item := range items {
			if err := decodeValue(item, dst.Index(j)); err != nil {
				return fmt.Errorf("element %d: %w", j, err)
			}
		}
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return fmt.Errorf("tcltk: cannot decode into %s: map key must be a string kind", t)
		}
		d, err := v.Dict()
		if err != nil {
			return err
		}
		m := reflect.MakeMapWithSize(t, len(d.Order))
		for _, k := range d.Order {
			elem := reflect.New(t.Elem()).Elem()
			if err := decodeValue(d.Items[k], elem); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			m.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), elem)
		}
		dst.Set(m)
	case reflect.Pointer:
		if dst.IsNil() {
			dst.Set(reflect.New(t.Elem()))
		}
		return decodeValue(v, dst.Elem())
	case reflect.Interface:
		if t.NumMethod() != 0 {
			return fmt.Errorf("tcltk: cannot decode into interface %s", t)
		}
		dst.Set(reflect.ValueOf(v))
	default:
		return fmt.Errorf("tcltk: cannot decode into %s", t)
	}
	return nil
}

// AsInt converts o to int64.
func AsInt(o *Obj) (int64, error) {
	return asSigned(o, 64, "int64")
}

// AsUint converts o to uint64. Negative numbers yield a *NumericError.
func AsUint(o *Obj) (uint64, error) {
	return asUnsigned(o, 64, "uint64")
}

func asSigned(o *Obj, bits int, name string) (int64, error) {
	if c, ok := o.InternalRep().(IntoInt); ok {
		if v, ok := c.IntoInt(); ok {
			if bits < 64 && (v < -1<<(bits-1) || v > 1<<(bits-1)-1) {
				return 0, &NumericError{Value: o.String(), Type: name}
			}
			return v, nil
		}
	}
	s := o.String()
	neg, mag, err := scanInteger(s)
	if err != nil {
		return 0, intError(s, name, err)
	}
	limit := uint64(1) << (bits - 1)
	if neg {
		if mag > limit {
			return 0, &NumericError{Value: s, Type: name}
		}
		return int64(-mag), nil
	}
	if mag > limit-1 {
		return 0, &NumericError{Value: s, Type: name}
	}
	return int64(mag), nil
}

func asUnsigned(o *Obj, bits int, name string) (uint64, error) {
	if c, ok := o.InternalRep().(IntoInt); ok {
		if v, ok := c.IntoInt(); ok {
			if v < 0 || (bits < 64 && uint64(v) > 1<<bits-1) {
				return 0, &NumericError{Value: o.String(), Type: name}
			}
			return uint64(v), nil
		}
	}
	s := o.String()
	neg, mag, err := scanInteger(s)
	if err != nil {
		return 0, intError(s, name, err)
	}
	if neg && mag != 0 {
		return 0, &NumericError{Value: s, Type: name}
	}
	if bits < 64 && mag > 1<<bits-1 {
		return 0, &NumericError{Value: s, Type: name}
	}
	return mag, nil
}

func intError(s, name string, err error) error {
	if err == strconv.ErrRange {
		return &NumericError{Value: s, Type: name, Err: err}
	}
	return &DecodeError{Value: s, Type: "integer", Msg: fmt.Sprintf("expected integer but got %q", s)}
}

// scanInteger parses TCL integer syntax: optional surrounding whitespace,
// an optional sign, then decimal digits or 0x/0o/0b/0d prefixed digits.
func scanInteger(s string) (neg bool, mag uint64, err error) {
	t := strings.TrimFunc(s, isListSpaceRune)
	if t == "" {
		return false, 0, strconv.ErrSyntax
	}
	switch t[0] {
	case '-':
		neg = true
		t = t[1:]
	case '+':
		t = t[1:]
	}
	base := 10
	if len(t) > 2 && t[0] == '0' {
		switch t[1] {
		case 'x', 'X':
			base, t = 16, t[2:]
		case 'o', 'O':
			base, t = 8, t[2:]
		case 'b', 'B':
			base, t = 2, t[2:]
		case 'd', 'D':
			t = t[2:]
		}
	}
	if t == "" || t[0] == '+' || t[0] == '-' {
		return false, 0, strconv.ErrSyntax
	}
	mag, err = strconv.ParseUint(t, base, 64)
	if err != nil {
		return false, 0, err.(*strconv.NumError).Err
	}
	return neg, mag, nil
}

// AsDouble converts o to float64. Integer syntax is accepted.
func AsDouble(o *Obj) (float64, error) {
	if c, ok := o.InternalRep().(IntoDouble); ok {
		if v, ok := c.IntoDouble(); ok {
			return v, nil
		}
	}
	s := o.String()
	t := strings.TrimFunc(s, isListSpaceRune)
	if t != "" && strings.IndexByte(t, '_') < 0 {
		f, err := strconv.ParseFloat(t, 64)
		if err == nil {
			return f, nil
		}
		if err.(*strconv.NumError).Err == strconv.ErrRange {
			if !math.IsInf(f, 0) {
				return f, nil // underflow rounds toward zero
			}
			return 0, &NumericError{Value: s, Type: "double", Err: strconv.ErrRange}
		}
		if neg, mag, err := scanInteger(t); err == nil {
			if neg {
				return -float64(mag), nil
			}
			return float64(mag), nil
		}
	}
	return 0, &DecodeError{Value: s, Type: "double", Msg: fmt.Sprintf("expected floating-point number but got %q", s)}
}

// AsBool converts o to a boolean using TCL rules: any number (non-zero is
// true), or yes/no, true/false, on/off in any case and any unambiguous
// prefix.
func AsBool(o *Obj) (bool, error) {
	if c, ok := o.InternalRep().(IntoBool); ok {
		if v, ok := c.IntoBool(); ok {
			return v, nil
		}
	}
	s := o.String()
	if _, mag, err := scanInteger(s); err == nil {
		return mag != 0, nil
	}
	low := strings.ToLower(s)
	switch {
	case low == "":
	case strings.HasPrefix("yes", low), strings.HasPrefix("true", low):
		return true, nil
	case strings.HasPrefix("no", low), strings.HasPrefix("false", low):
		return false, nil
	case low == "on":
		return true, nil
	case len(low) >= 2 && strings.HasPrefix("off", low):
		return false, nil
	default:
		if f, err := AsDouble(o); err == nil {
			return f != 0, nil
		}
	}
	return false, &DecodeError{Value: s, Type: "boolean", Msg: fmt.Sprintf("expected boolean value but got %q", s)}
}

// AsBytes returns the binary form of o. Binary values return a copy of
// their payload; strings contribute the low byte of each code point.
func AsBytes(o *Obj) []byte {
	if c, ok := o.InternalRep().(IntoBytes); ok {
		if b, ok := c.IntoBytes(); ok {
			return slices.Clone(b)
		}
	}
	s := o.String()
	out := make([]byte, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		out = append(out, byte(r))
	}
	return out
}

// DecodeEnum matches v against the legal tokens of an enumeration, accepting
// an exact match or a unique prefix. name describes the enumeration in the
// error message.
//
//	r, err := tcltk.DecodeEnum(v, "relief", tcltk.ReliefFlat, tcltk.ReliefRaised)
//	// err: bad relief "x": must be flat or raised
func DecodeEnum[T ~string](v *Obj, name string, legal ...T) (T, error) {
	s := v.String()
	var match T
	matches := 0
	for _, l := range legal {
		if string(l) == s {
			return l, nil
		}
		if strings.HasPrefix(string(l), s) {
			match = l
			matches++
		}
	}
	if matches == 1 && s != "" {
		return match, nil
	}
	adj := "bad"
	if matches > 1 {
		adj = "ambiguous"
	}
	names := make([]string, len(legal))
	for j, l := range legal {
		names[j] = string(l)
	}
	return "", &DecodeError{
		Value: s,
		Type:  name,
		Msg:   fmt.Sprintf("%s %s %q: must be %s", adj, name, s, alternatives(names)),
	}
}

func alternatives(names []string) string {
	switch len(names) {
	case 0:
		return "nothing"
	case 1:
		return names[0]
	case 2:
		return names[0] + " or " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + ", or " + names[len(names)-1]
}
