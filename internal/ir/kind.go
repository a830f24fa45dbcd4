package ir

import (
	"strconv"
	"strings"
)

// Kind identifies the shape of a descriptor.
type Kind int

const (
	KindBool Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindISize
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindUSize
	KindFloat32
	KindFloat64
	KindChar
	KindArray
	KindCompound
)

var kindNames = [...]string{
	KindBool:     "Bool",
	KindInt8:     "Int8",
	KindInt16:    "Int16",
	KindInt32:    "Int32",
	KindInt64:    "Int64",
	KindISize:    "ISize",
	KindUInt8:    "UInt8",
	KindUInt16:   "UInt16",
	KindUInt32:   "UInt32",
	KindUInt64:   "UInt64",
	KindUSize:    "USize",
	KindFloat32:  "Float32",
	KindFloat64:  "Float64",
	KindChar:     "Char",
	KindArray:    "Array",
	KindCompound: "Compound",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// IsScalar reports whether k is one of the fixed-size scalar kinds.
func (k Kind) IsScalar() bool {
	return k >= KindBool && k <= KindChar
}

// wordSize is the size of isize/usize on the host.
const wordSize = strconv.IntSize / 8

// scalarSize returns the intrinsic size of a scalar kind.
func scalarSize(k Kind) int {
	switch k {
	case KindBool, KindInt8, KindUInt8:
		return 1
	case KindInt16, KindUInt16:
		return 2
	case KindInt32, KindUInt32, KindFloat32, KindChar:
		return 4
	case KindInt64, KindUInt64, KindFloat64:
		return 8
	case KindISize, KindUSize:
		return wordSize
	default:
		return 0
	}
}

// scalarSpellings maps lower-cased schema spellings to scalar kinds.
var scalarSpellings = map[string]Kind{
	"bool":    KindBool,
	"i8":      KindInt8,
	"int8":    KindInt8,
	"i16":     KindInt16,
	"int16":   KindInt16,
	"i32":     KindInt32,
	"int32":   KindInt32,
	"i64":     KindInt64,
	"int64":   KindInt64,
	"isize":   KindISize,
	"u8":      KindUInt8,
	"uint8":   KindUInt8,
	"byte":    KindUInt8,
	"u16":     KindUInt16,
	"uint16":  KindUInt16,
	"u32":     KindUInt32,
	"uint32":  KindUInt32,
	"u64":     KindUInt64,
	"uint64":  KindUInt64,
	"usize":   KindUSize,
	"f32":     KindFloat32,
	"float32": KindFloat32,
	"f64":     KindFloat64,
	"float64": KindFloat64,
	"char":    KindChar,
	"rune":    KindChar,
}

// LookupScalar resolves a scalar type name as written in schema files.
// Canonical names ("UInt16") and short spellings ("u16") are both accepted.
func LookupScalar(name string) (Scalar, bool) {
	k, ok := scalarSpellings[strings.ToLower(name)]
	if !ok {
		return Scalar{}, false
	}
	return Scalar{kind: k}, true
}
