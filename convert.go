package tcltk

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// Encoder is implemented by types that know their own interpreter value.
type Encoder interface {
	TclValue() *Obj
}

// ValueOf converts a Go value to an *Obj. It never fails.
//
// Supported types:
//   - nil -> empty string
//   - *Obj -> returned unchanged
//   - Encoder -> TclValue()
//   - Command -> the command in list form
//   - string, []byte, bool, all integer and float kinds
//   - fmt.Stringer -> String()
//   - slices and arrays -> list, element-wise
//   - maps with string keys -> key/value list with keys sorted
//   - pointers -> the pointed-to value; nil pointers -> the empty string
//
// Anything else is formatted with %v.
func ValueOf(v any) *Obj {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return NewString("")
	}
	switch val := v.(type) {
	case nil:
		return NewString("")
	case *Obj:
		if val == nil {
			return NewString("")
		}
		return val
	case Encoder:
		return val.TclValue()
	case Command:
		return val.Value()
	case string:
		return NewString(val)
	case []byte:
		return NewBytes(val)
	case bool:
		return NewBool(val)
	case int:
		return NewInt(int64(val))
	case int8:
		return NewInt(int64(val))
	case int16:
		return NewInt(int64(val))
	case int32:
		return NewInt(int64(val))
	case int64:
		return NewInt(val)
	case uint:
		return fromUint(uint64(val))
	case uint8:
		return NewInt(int64(val))
	case uint16:
		return NewInt(int64(val))
	case uint32:
		return NewInt(int64(val))
	case uint64:
		return fromUint(val)
	case float32:
		return NewDouble(float64(val))
	case float64:
		return NewDouble(val)
	case []string:
		return NewStringList(val...)
	case []*Obj:
		return NewList(val...)
	case fmt.Stringer:
		return NewString(val.String())
	}
	return valueOfReflect(reflect.ValueOf(v))
}

func fromUint(u uint64) *Obj {
	if u > math.MaxInt64 {
		return NewString(strconv.FormatUint(u, 10))
	}
	return NewInt(int64(u))
}

func valueOfReflect(rv reflect.Value) *Obj {
	switch rv.Kind() {
	case reflect.Invalid:
		return NewString("")
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NewString("")
		}
		return ValueOf(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		items := make([]*Obj, rv.Len())
		for j := range items {
			items[j] = ValueOf(rv.Index(j).Interface())
		}
		return &Obj{intrep: ListType(items)}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		kvs := make([]any, 0, len(keys)*2)
		for _, k := range keys {
			kvs = append(kvs, k, rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
		}
		return NewDict(kvs...)
	// Named basic types (type Relief string, type Pixels int, ...)
	case reflect.String:
		return NewString(rv.String())
	case reflect.Bool:
		return NewBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fromUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return NewDouble(rv.Float())
	}
	return NewString(fmt.Sprintf("%v", rv.Interface()))
}
