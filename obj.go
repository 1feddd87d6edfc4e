package tcltk

import (
	"slices"
	"sync/atomic"
)

// Obj is a Tcl value.
// It follows TCL semantics where values have both a string representation
// and an optional internal representation that can be lazily computed.
//
// An Obj is immutable once constructed. The string representation and the
// parsed list form of a pure string are computed on first use and cached,
// so a single *Obj may be shared freely between commands, callbacks and
// goroutines.
type Obj struct {
	bytes  atomic.Pointer[string] // cached string representation
	intrep ObjType                // internal representation (nil = pure string)
	list   atomic.Pointer[[]*Obj] // cached list form of a pure string
}

// ObjType defines the core behavior for an internal representation.
type ObjType interface {
	// Name returns the type name (e.g., "int", "list").
	Name() string

	// UpdateString regenerates string representation from this internal rep.
	UpdateString() string
}

// IntoInt can convert directly to int64.
type IntoInt interface {
	IntoInt() (int64, bool)
}

// IntoDouble can convert directly to float64.
type IntoDouble interface {
	IntoDouble() (float64, bool)
}

// IntoList can convert directly to a list.
type IntoList interface {
	IntoList() ([]*Obj, bool)
}

// IntoBool can convert directly to a boolean.
type IntoBool interface {
	IntoBool() (bool, bool)
}

// IntoBytes can convert directly to a byte slice.
type IntoBytes interface {
	IntoBytes() ([]byte, bool)
}

// Kind is the discriminant of a value crossing the interpreter boundary.
type Kind int

const (
	// KindString is a scalar: a string, or a number cached as int/double.
	KindString Kind = iota
	// KindList is an ordered sequence of child values.
	KindList
	// KindBytes is a binary payload.
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindBytes:
		return "bytes"
	default:
		return "string"
	}
}

// NewString creates a new object with a string value.
func NewString(s string) *Obj {
	o := &Obj{}
	o.bytes.Store(&s)
	return o
}

// NewInt creates a new object with an integer value.
func NewInt(v int64) *Obj {
	return &Obj{intrep: IntType(v)}
}

// NewDouble creates a new object with a floating-point value.
func NewDouble(v float64) *Obj {
	return &Obj{intrep: DoubleType(v)}
}

// NewBool creates a boolean object, stored as int 1 (true) or 0 (false).
//
// TCL has no native boolean type; booleans are represented as integers.
func NewBool(v bool) *Obj {
	if v {
		return NewInt(1)
	}
	return NewInt(0)
}

// NewList creates a list object from the given items.
// The slice is copied; nil items become empty strings.
//
//	list := tcltk.NewList(tcltk.NewString("a b"), tcltk.NewInt(1))
//	list.String() // "{a b} 1"
func NewList(items ...*Obj) *Obj {
	elems := make([]*Obj, len(items))
	for i, item := range items {
		if item == nil {
			item = NewString("")
		}
		elems[i] = item
	}
	return &Obj{intrep: ListType(elems)}
}

// NewStringList creates a list object whose elements are the given strings.
func NewStringList(items ...string) *Obj {
	elems := make([]*Obj, len(items))
	for i, s := range items {
		elems[i] = NewString(s)
	}
	return &Obj{intrep: ListType(elems)}
}

// NewBytes creates a binary object. The slice is copied.
func NewBytes(b []byte) *Obj {
	return &Obj{intrep: BytesType(slices.Clone(b))}
}

// NewObj creates an object with a custom ObjType internal representation.
//
// Use this when a host type has a natural string form the interpreter
// should see:
//
//	type ColorType struct{ r, g, b uint8 }
//	func (t ColorType) Name() string         { return "color" }
//	func (t ColorType) UpdateString() string { return fmt.Sprintf("#%02x%02x%02x", t.r, t.g, t.b) }
//
//	obj := tcltk.NewObj(ColorType{255, 0, 0})
func NewObj(intrep ObjType) *Obj {
	return &Obj{intrep: intrep}
}

// String returns the string representation of the object.
// If there is no cached string, it is regenerated from the internal rep.
func (o *Obj) String() string {
	if o == nil {
		return ""
	}
	if p := o.bytes.Load(); p != nil {
		return *p
	}
	var s string
	if o.intrep != nil {
		s = o.intrep.UpdateString()
	}
	o.bytes.Store(&s)
	return s
}

// Type returns the type name of the object.
// Returns "string" for pure string objects (no internal representation).
func (o *Obj) Type() string {
	if o == nil || o.intrep == nil {
		return "string"
	}
	return o.intrep.Name()
}

// Kind reports whether the value is a scalar, a list or a binary payload.
func (o *Obj) Kind() Kind {
	if o == nil {
		return KindString
	}
	switch o.intrep.(type) {
	case ListType, *DictType:
		return KindList
	case BytesType:
		return KindBytes
	}
	return KindString
}

// InternalRep returns the internal representation of the object.
// Returns nil for pure string objects.
func (o *Obj) InternalRep() ObjType {
	if o == nil {
		return nil
	}
	return o.intrep
}

// IsEmpty reports whether the string representation is empty.
func (o *Obj) IsEmpty() bool {
	if o == nil {
		return true
	}
	if l, ok := o.intrep.(ListType); ok {
		return len(l) == 0
	}
	return o.String() == ""
}

// Int returns the integer value of this object.
func (o *Obj) Int() (int64, error) {
	return AsInt(o)
}

// Double returns the float64 value of this object.
func (o *Obj) Double() (float64, error) {
	return AsDouble(o)
}

// Bool returns the boolean value of this object using TCL boolean rules.
func (o *Obj) Bool() (bool, error) {
	return AsBool(o)
}

// Bytes returns the binary payload of this object.
func (o *Obj) Bytes() []byte {
	return AsBytes(o)
}

// List returns the list elements of this object.
// A pure string is parsed with the TCL list grammar on first use; a
// malformed string yields a *NotListError. The returned slice is a copy.
func (o *Obj) List() ([]*Obj, error) {
	if o == nil {
		return nil, nil
	}
	if c, ok := o.intrep.(IntoList); ok {
		if items, ok := c.IntoList(); ok {
			return slices.Clone(items), nil
		}
	}
	if p := o.list.Load(); p != nil {
		return slices.Clone(*p), nil
	}
	elems, err := ParseList(o.String())
	if err != nil {
		return nil, err
	}
	items := make([]*Obj, len(elems))
	for i, s := range elems {
		items[i] = NewString(s)
	}
	o.list.Store(&items)
	return slices.Clone(items), nil
}

// Len returns the number of list elements.
func (o *Obj) Len() (int, error) {
	items, err := o.List()
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Index returns the list element at position i, or an empty value when i
// is out of range (TCL lindex semantics).
func (o *Obj) Index(i int) (*Obj, error) {
	items, err := o.List()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(items) {
		return NewString(""), nil
	}
	return items[i], nil
}

// Equal reports whether two values are equal. Interpreter values compare by
// their string representations.
func Equal(a, b *Obj) bool {
	if a == b {
		return true
	}
	return a.String() == b.String()
}
