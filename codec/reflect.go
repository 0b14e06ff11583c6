package codec

import (
	"bytes"
	"reflect"

	"github.com/pkg/errors"
)

// ErrCycle is the cause of an EncodeError for a value that refers back to itself.
var ErrCycle = errors.New("value contains a cycle")

// ErrNullValue is the cause of a DecodeError when a null payload is decoded
// into a type that cannot hold null.
var ErrNullValue = errors.New("null payload for non-nullable type")

type visit struct {
	ptr uintptr
	len int
	typ reflect.Type
}

// checkCycles walks the exported graph reachable from v and reports a pointer,
// map or slice that appears again below itself.
func checkCycles(v any) error {
	return walkCycles(reflect.ValueOf(v), make(map[visit]struct{}))
}

func walkCycles(v reflect.Value, path map[visit]struct{}) error {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return nil
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if v.Kind() == reflect.Slice {
			key.len = v.Len()
		}
		if _, ok := path[key]; ok {
			return errors.Wrapf(ErrCycle, "at %s", v.Type())
		}
		path[key] = struct{}{}
		defer delete(path, key)

		switch v.Kind() {
		case reflect.Pointer:
			return walkCycles(v.Elem(), path)
		case reflect.Map:
			iter := v.MapRange()
			for iter.Next() {
				if err := walkCycles(iter.Key(), path); err != nil {
					return err
				}
				if err := walkCycles(iter.Value(), path); err != nil {
					return err
				}
			}
			return nil
		default:
			return walkElems(v, path)
		}

	case reflect.Array:
		return walkElems(v, path)

	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return walkCycles(v.Elem(), path)

	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if err := walkCycles(v.Field(i), path); err != nil {
				return err
			}
		}
	}
	return nil
}

func walkElems(v reflect.Value, path map[visit]struct{}) error {
	for i := 0; i < v.Len(); i++ {
		if err := walkCycles(v.Index(i), path); err != nil {
			return err
		}
	}
	return nil
}

// nullable reports whether the zero value of V is a legitimate decode of null.
func nullable[V any]() bool {
	switch reflect.TypeOf((*V)(nil)).Elem().Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	default:
		return false
	}
}

var (
	jsonNull      = []byte("null")
	cborNull      = []byte{0xf6}
	cborUndefined = []byte{0xf7}
)

func isNullPayload(payload []byte, nulls ...[]byte) bool {
	for _, n := range nulls {
		if bytes.Equal(payload, n) {
			return true
		}
	}
	return false
}
