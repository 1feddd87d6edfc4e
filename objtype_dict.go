package tcltk

import (
	"fmt"
	"strings"
)

// DictType is the internal representation for dictionary values.
// A dict is a list with an even number of elements whose keys are unique.
type DictType struct {
	Items map[string]*Obj
	Order []string
}

func (t *DictType) Name() string { return "dict" }

func (t *DictType) UpdateString() string {
	var result strings.Builder
	for i, key := range t.Order {
		if i > 0 {
			result.WriteByte(' ')
		}
		result.WriteString(QuoteElement(key))
		result.WriteByte(' ')
		result.WriteString(QuoteElement(t.Items[key].String()))
	}
	return result.String()
}

func (t *DictType) clone() *DictType {
	c := &DictType{Items: make(map[string]*Obj, len(t.Items)), Order: append([]string(nil), t.Order...)}
	for k, v := range t.Items {
		c.Items[k] = v
	}
	return c
}

func (t *DictType) IntoList() ([]*Obj, bool) {
	list := make([]*Obj, 0, len(t.Order)*2)
	for _, k := range t.Order {
		list = append(list, NewString(k), t.Items[k])
	}
	return list, true
}

// NewDict creates a dict object from alternating key-value pairs.
//
// Keys should be strings (non-strings are converted via fmt.Sprint).
// Values are converted with [ValueOf]. A repeated key keeps its first
// position and its last value.
//
//	d := tcltk.NewDict("name", "Alice", "age", 30)
//	d.String() // "name Alice age 30"
func NewDict(kvs ...any) *Obj {
	d := &DictType{Items: make(map[string]*Obj, len(kvs)/2)}
	for j := 0; j+1 < len(kvs); j += 2 {
		key, ok := kvs[j].(string)
		if !ok {
			key = fmt.Sprint(kvs[j])
		}
		if _, exists := d.Items[key]; !exists {
			d.Order = append(d.Order, key)
		}
		d.Items[key] = ValueOf(kvs[j+1])
	}
	return &Obj{intrep: d}
}

// Dict returns the dict form of this object.
// The value must be a well-formed list with an even number of elements.
// The result is a copy; changing it does not change o.
func (o *Obj) Dict() (*DictType, error) {
	if d, ok := o.InternalRep().(*DictType); ok {
		return d.clone(), nil
	}
	items, err := o.List()
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, &DecodeError{Value: o.String(), Type: "dict", Msg: "missing value to go with key"}
	}
	d := &DictType{Items: make(map[string]*Obj, len(items)/2)}
	for j := 0; j < len(items); j += 2 {
		key := items[j].String()
		if _, exists := d.Items[key]; !exists {
			d.Order = append(d.Order, key)
		}
		d.Items[key] = items[j+1]
	}
	return d, nil
}
