package event

import (
	"fmt"
	"net/netip"
	"reflect"
	"strings"

	"github.com/ssargent/lwes/pkg/codec"
)

// Primitive is the set of Go types an attribute value can be built from.
// Each maps to exactly one scalar wire type.
type Primitive interface {
	uint16 | int16 | uint32 | int32 | uint64 | int64 |
		bool | byte | float32 | float64 | netip.Addr | string
}

// Attribute is a typed attribute value. The payload is always the Go type
// bound to the tag:
//
//	scalar          T
//	plain array     []T
//	nullable array  []*T, nil for absent elements
//
// Attributes are only built through Scalar, Array and Nullable, which copy
// their input, so an Attribute owns its payload and the tag can never
// disagree with it.
type Attribute struct {
	typ   codec.Type
	value any
}

func typeOf[T Primitive]() codec.Type {
	var zero T
	switch any(zero).(type) {
	case uint16:
		return codec.TypeU16
	case int16:
		return codec.TypeI16
	case uint32:
		return codec.TypeU32
	case int32:
		return codec.TypeI32
	case uint64:
		return codec.TypeU64
	case int64:
		return codec.TypeI64
	case bool:
		return codec.TypeBool
	case byte:
		return codec.TypeByte
	case float32:
		return codec.TypeFloat
	case float64:
		return codec.TypeDouble
	case netip.Addr:
		return codec.TypeIPAddr
	case string:
		return codec.TypeString
	}
	return codec.TypeUndefined
}

// Scalar builds a scalar attribute
func Scalar[T Primitive](v T) Attribute {
	return Attribute{typ: typeOf[T](), value: v}
}

// Array builds a plain array attribute from a copy of vs
func Array[T Primitive](vs []T) Attribute {
	cp := make([]T, len(vs))
	copy(cp, vs)
	return Attribute{typ: typeOf[T]().ArrayOf(), value: cp}
}

// Nullable builds a nullable array attribute. Present values are copied
// into one backing slice; nil elements stay nil.
func Nullable[T Primitive](vs []*T) Attribute {
	present := 0
	for _, p := range vs {
		if p != nil {
			present++
		}
	}
	block := make([]T, 0, present)
	cp := make([]*T, len(vs))
	for i, p := range vs {
		if p != nil {
			block = append(block, *p)
			cp[i] = &block[len(block)-1]
		}
	}
	return Attribute{typ: typeOf[T]().NullableOf(), value: cp}
}

// fromWire wraps a value produced by the codec, which already carries the
// Go type bound to typ
func fromWire(typ codec.Type, v any) Attribute {
	return Attribute{typ: typ, value: v}
}

// Type returns the attribute's wire type
func (a Attribute) Type() codec.Type {
	return a.typ
}

// Value returns the payload. Slices alias the attribute's storage and
// must not be modified.
func (a Attribute) Value() any {
	return a.value
}

// Len returns the element count of an array attribute, 0 for scalars
func (a Attribute) Len() int {
	if !a.typ.IsArray() && !a.typ.IsNullableArray() {
		return 0
	}
	return reflect.ValueOf(a.value).Len()
}

// Equal reports whether both attributes have the same type and value.
// Nullable arrays compare by null pattern and present values.
func (a Attribute) Equal(b Attribute) bool {
	return a.typ == b.typ && reflect.DeepEqual(a.value, b.value)
}

// As returns the payload of a as a T
func As[T any](a Attribute) (T, bool) {
	v, ok := a.value.(T)
	return v, ok
}

// check verifies that the payload can be encoded
func (a Attribute) check() error {
	if !a.typ.Valid() || a.value == nil {
		return fmt.Errorf("invalid attribute type %s", a.typ)
	}
	if a.Len() > codec.MaxArrayLength {
		return fmt.Errorf("%d elements: %w", a.Len(), codec.ErrArrayTooLong)
	}
	switch v := a.value.(type) {
	case string:
		return checkString(v)
	case netip.Addr:
		return checkAddr(v)
	case []string:
		for _, s := range v {
			if err := checkString(s); err != nil {
				return err
			}
		}
	case []*string:
		for _, s := range v {
			if s != nil {
				if err := checkString(*s); err != nil {
					return err
				}
			}
		}
	case []netip.Addr:
		for _, ip := range v {
			if err := checkAddr(ip); err != nil {
				return err
			}
		}
	case []*netip.Addr:
		for _, ip := range v {
			if ip != nil {
				if err := checkAddr(*ip); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkString(s string) error {
	if len(s) > codec.MaxLongString {
		return fmt.Errorf("%d bytes: %w", len(s), codec.ErrStringTooLong)
	}
	return nil
}

func checkAddr(ip netip.Addr) error {
	if !ip.Unmap().Is4() {
		return fmt.Errorf("%v: %w", ip, codec.ErrInvalidAddress)
	}
	return nil
}

// wireSize returns the encoded size of the value, excluding the tag
func (a Attribute) wireSize() int {
	switch {
	case a.typ.IsArray():
		return codec.ArrayValueSize(a.typ, a.value)
	case a.typ.IsNullableArray():
		return codec.NullableArrayValueSize(a.typ, a.value)
	}
	return codec.ScalarSize(a.typ, a.value)
}

// String formats the value the way event dumps print it
func (a Attribute) String() string {
	switch {
	case a.typ.IsNullableArray():
		rv := reflect.ValueOf(a.value)
		parts := make([]string, rv.Len())
		for i := range parts {
			if p := rv.Index(i); p.IsNil() {
				parts[i] = "null"
			} else {
				parts[i] = formatScalar(p.Elem().Interface())
			}
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case a.typ.IsArray():
		rv := reflect.ValueOf(a.value)
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = formatScalar(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return formatScalar(a.value)
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case byte:
		return fmt.Sprintf("0x%02x", x)
	}
	return fmt.Sprint(v)
}
