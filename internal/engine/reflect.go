package engine

import (
	"errors"
	"reflect"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/typeinfo/internal/ir"
)

// PackedLayout is a zero-size marker. A struct with a field of this type is
// described under the Packed policy instead of Natural:
//
//	type Header struct {
//		_     engine.PackedLayout
//		Tag   uint8
//		Width uint32
//	}
//
// The marker itself is not a field of the descriptor. The descriptor then
// describes the packed encoding of the struct, not Go's in-memory layout,
// which is always natural.
type PackedLayout struct{}

var packedLayoutType = reflect.TypeFor[PackedLayout]()

type typeEntry struct {
	once sync.Once
	t    ir.Type
	err  error
}

// typeCache maps reflect.Type to *typeEntry for the life of the process.
var typeCache sync.Map

// TypeOf returns the descriptor of a Go type.
//
// Booleans, sized integers and floats map to the matching scalar; int, uint
// and uintptr map to ISize and USize. Go arrays become arrays and structs
// become compounds. Anything without a fixed-size plain representation
// (pointers, slices, maps, strings, interfaces, channels, functions, complex
// numbers, unsafe.Pointer) is UnsupportedType, with the field path of the
// offending member. Blank fields keep their bytes and are named "_" followed
// by their field index.
//
// The result is computed from field types alone and is not checked against
// the compiler: a struct ending in a zero-size field, such as
// struct{ A int64; B [0]byte }, gets trailing padding from Go (unsafe.Sizeof
// is 16) that the descriptor does not have (size 8).
//
// Each Go type is computed once, even under concurrent first use; failures
// are remembered as well.
func TypeOf(rt reflect.Type) (ir.Type, error) {
	if rt == nil {
		return nil, ir.Unsupported("nil", "no Go type")
	}

	v, _ := typeCache.LoadOrStore(rt, &typeEntry{})
	e := v.(*typeEntry)
	e.once.Do(func() {
		e.t, e.err = buildGoType(rt)
		if e.err != nil {
			Logger().Debug("go type unsupported", zap.Stringer("go_type", rt), zap.Error(e.err))
			return
		}
		Logger().Debug("go type described",
			zap.Stringer("go_type", rt),
			zap.Int("size", e.t.Size()),
			zap.Int("align", e.t.Align()),
		)
	})
	return e.t, e.err
}

// Of returns the descriptor of T. See TypeOf.
func Of[T any]() (ir.Type, error) {
	return TypeOf(reflect.TypeFor[T]())
}

// MustOf is like Of but panics on error.
func MustOf[T any]() ir.Type {
	t, err := Of[T]()
	if err != nil {
		panic(err)
	}
	return t
}

func buildGoType(rt reflect.Type) (ir.Type, error) {
	switch rt.Kind() {
	case reflect.Bool:
		return ir.Bool, nil
	case reflect.Int8:
		return ir.Int8, nil
	case reflect.Int16:
		return ir.Int16, nil
	case reflect.Int32:
		return ir.Int32, nil
	case reflect.Int64:
		return ir.Int64, nil
	case reflect.Int:
		return ir.ISize, nil
	case reflect.Uint8:
		return ir.UInt8, nil
	case reflect.Uint16:
		return ir.UInt16, nil
	case reflect.Uint32:
		return ir.UInt32, nil
	case reflect.Uint64:
		return ir.UInt64, nil
	case reflect.Uint, reflect.Uintptr:
		return ir.USize, nil
	case reflect.Float32:
		return ir.Float32, nil
	case reflect.Float64:
		return ir.Float64, nil

	case reflect.Array:
		elem, err := TypeOf(rt.Elem())
		if err != nil {
			return nil, err
		}
		return ir.NewArray(elem, rt.Len())

	case reflect.Struct:
		return buildGoStruct(rt)

	default:
		return nil, ir.Unsupported(rt.String(), rt.Kind().String()+" has no fixed-size plain representation")
	}
}

func buildGoStruct(rt reflect.Type) (ir.Type, error) {
	policy := ir.Natural
	fields := make([]FieldDecl, 0, rt.NumField())

	for i := range rt.NumField() {
		sf := rt.Field(i)
		if sf.Type == packedLayoutType {
			policy = ir.Packed
			continue
		}

		name := sf.Name
		if name == "_" {
			name = "_" + strconv.Itoa(i)
		}

		ft, err := TypeOf(sf.Type)
		if err != nil {
			return nil, prefixPath(name, err)
		}
		fields = append(fields, FieldDecl{Name: name, Type: ft})
	}

	return Layout(fields, policy)
}

// prefixPath returns err with field prepended to its path. The cached error
// of the field's own type is left untouched.
func prefixPath(field string, err error) error {
	var ie *ir.Error
	if !errors.As(err, &ie) {
		return err
	}
	cp := *ie
	cp.Path = append([]string{field}, ie.Path...)
	return &cp
}
