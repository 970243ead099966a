package codec

import (
	"fmt"
	"strings"
)

// Type is the one-byte tag that precedes every attribute value on the wire
type Type uint8

// Scalar tags
const (
	TypeU16    Type = 0x01
	TypeI16    Type = 0x02
	TypeU32    Type = 0x03
	TypeI32    Type = 0x04
	TypeString Type = 0x05
	TypeIPAddr Type = 0x06
	TypeI64    Type = 0x07
	TypeU64    Type = 0x08
	TypeBool   Type = 0x09
	TypeByte   Type = 0x0A
	TypeFloat  Type = 0x0B
	TypeDouble Type = 0x0C
)

// Plain array tags: scalar tag + 0x80
const (
	TypeU16Array    Type = 0x81
	TypeI16Array    Type = 0x82
	TypeU32Array    Type = 0x83
	TypeI32Array    Type = 0x84
	TypeStringArray Type = 0x85
	TypeIPAddrArray Type = 0x86
	TypeI64Array    Type = 0x87
	TypeU64Array    Type = 0x88
	TypeBoolArray   Type = 0x89
	TypeByteArray   Type = 0x8A
	TypeFloatArray  Type = 0x8B
	TypeDoubleArray Type = 0x8C
)

// Nullable array tags. The band follows the plain arrays; IPv4 was added
// last and therefore sits at the end.
const (
	TypeNullableU16Array    Type = 0x8D
	TypeNullableI16Array    Type = 0x8E
	TypeNullableU32Array    Type = 0x8F
	TypeNullableI32Array    Type = 0x90
	TypeNullableStringArray Type = 0x91
	TypeNullableI64Array    Type = 0x92
	TypeNullableU64Array    Type = 0x93
	TypeNullableBoolArray   Type = 0x94
	TypeNullableByteArray   Type = 0x95
	TypeNullableFloatArray  Type = 0x96
	TypeNullableDoubleArray Type = 0x97
	TypeNullableIPAddrArray Type = 0x98
)

// TypeUndefined marks malformed or unknown input
const TypeUndefined Type = 0xFF

const arrayBit = 0x80

var nullableByBase = map[Type]Type{
	TypeU16:    TypeNullableU16Array,
	TypeI16:    TypeNullableI16Array,
	TypeU32:    TypeNullableU32Array,
	TypeI32:    TypeNullableI32Array,
	TypeString: TypeNullableStringArray,
	TypeI64:    TypeNullableI64Array,
	TypeU64:    TypeNullableU64Array,
	TypeBool:   TypeNullableBoolArray,
	TypeByte:   TypeNullableByteArray,
	TypeFloat:  TypeNullableFloatArray,
	TypeDouble: TypeNullableDoubleArray,
	TypeIPAddr: TypeNullableIPAddrArray,
}

var baseByNullable = func() map[Type]Type {
	m := make(map[Type]Type, len(nullableByBase))
	for base, n := range nullableByBase {
		m[n] = base
	}
	return m
}()

// names holds the ESF spelling of each scalar type
var names = map[Type]string{
	TypeU16:    "uint16",
	TypeI16:    "int16",
	TypeU32:    "uint32",
	TypeI32:    "int32",
	TypeString: "string",
	TypeIPAddr: "ip_addr",
	TypeI64:    "int64",
	TypeU64:    "uint64",
	TypeBool:   "boolean",
	TypeByte:   "byte",
	TypeFloat:  "float",
	TypeDouble: "double",
}

var byName = func() map[string]Type {
	m := make(map[string]Type, len(names))
	for t, n := range names {
		m[n] = t
	}
	return m
}()

// IsScalar reports whether t is one of the twelve scalar tags
func (t Type) IsScalar() bool {
	return t >= TypeU16 && t <= TypeDouble
}

// IsArray reports whether t is a plain array tag
func (t Type) IsArray() bool {
	return t >= TypeU16Array && t <= TypeDoubleArray
}

// IsNullableArray reports whether t is a nullable array tag
func (t Type) IsNullableArray() bool {
	_, ok := baseByNullable[t]
	return ok
}

// Valid reports whether t is any known tag other than TypeUndefined
func (t Type) Valid() bool {
	return t.IsScalar() || t.IsArray() || t.IsNullableArray()
}

// Base returns the element type of an array tag, or t itself for scalars.
// Unknown tags map to TypeUndefined.
func (t Type) Base() Type {
	switch {
	case t.IsScalar():
		return t
	case t.IsArray():
		return t &^ arrayBit
	}
	if b, ok := baseByNullable[t]; ok {
		return b
	}
	return TypeUndefined
}

// ArrayOf returns the plain array tag for a scalar tag
func (t Type) ArrayOf() Type {
	if !t.IsScalar() {
		return TypeUndefined
	}
	return t | arrayBit
}

// NullableOf returns the nullable array tag for a scalar tag
func (t Type) NullableOf() Type {
	if n, ok := nullableByBase[t]; ok {
		return n
	}
	return TypeUndefined
}

// Size returns the fixed wire width of a scalar value, or 0 for strings
// and non-scalar tags.
func (t Type) Size() int {
	switch t {
	case TypeBool, TypeByte:
		return 1
	case TypeU16, TypeI16:
		return 2
	case TypeU32, TypeI32, TypeIPAddr, TypeFloat:
		return 4
	case TypeU64, TypeI64, TypeDouble:
		return 8
	}
	return 0
}

// String returns the ESF spelling: "uint16", "uint16[]", "nullable uint16[]"
func (t Type) String() string {
	switch {
	case t.IsScalar():
		return names[t]
	case t.IsArray():
		return names[t.Base()] + "[]"
	case t.IsNullableArray():
		return "nullable " + names[t.Base()] + "[]"
	}
	return fmt.Sprintf("undefined(0x%02x)", uint8(t))
}

// ParseType resolves a type written the way String renders it
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	nullable := false
	if rest, ok := strings.CutPrefix(s, "nullable "); ok {
		nullable = true
		s = strings.TrimSpace(rest)
	}
	array := false
	if rest, ok := strings.CutSuffix(s, "[]"); ok {
		array = true
		s = rest
	}
	base, ok := byName[s]
	if !ok {
		return TypeUndefined, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	switch {
	case nullable:
		return base.NullableOf(), nil
	case array:
		return base.ArrayOf(), nil
	}
	return base, nil
}

// LookupScalar returns the scalar tag for an ESF type keyword
func LookupScalar(name string) (Type, bool) {
	t, ok := byName[name]
	return t, ok
}
