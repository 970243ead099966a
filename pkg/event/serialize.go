package event

import (
	"github.com/ssargent/lwes/pkg/codec"
)

// Size returns the exact number of bytes ToBytes writes
func (e *Event) Size() int {
	size := 1 + len(e.name) + 2
	en := e.attrs.Keys()
	for k, ok := en.Next(); ok; k, ok = en.Next() {
		a, _ := e.attrs.Get(k)
		size += 1 + len(k) + 1 + a.wireSize()
	}
	return size
}

// ToBytes serializes the event into buf starting at offset and returns the
// number of bytes written. The enc attribute, if set, is written first;
// the rest follow in attribute table order.
//
// On failure it returns 0 and an *Error whose Code names the field that
// did not fit. Bytes already written to buf are not usable.
func (e *Event) ToBytes(buf []byte, offset int) (int, error) {
	const op = "to bytes"
	w := codec.NewWriter(buf, offset)

	if _, err := w.PutShortString(e.name); err != nil {
		return 0, fail(CodeEventName, op, "", err)
	}
	if _, err := w.PutUint16(uint16(e.attrs.Len())); err != nil {
		return 0, fail(CodeAttrCount, op, "", err)
	}

	if enc, ok := e.attrs.Get(EncodingAttr); ok {
		if _, err := w.PutShortString(EncodingAttr); err != nil {
			return 0, fail(CodeEncodingName, op, EncodingAttr, err)
		}
		if _, err := w.PutType(enc.typ); err != nil {
			return 0, fail(CodeEncodingType, op, EncodingAttr, err)
		}
		if _, err := w.PutScalar(enc.typ, enc.value); err != nil {
			return 0, fail(CodeEncodingValue, op, EncodingAttr, err)
		}
	}

	en := e.attrs.Keys()
	for k, ok := en.Next(); ok; k, ok = en.Next() {
		if k == EncodingAttr {
			continue
		}
		a, _ := e.attrs.Get(k)
		if err := writeAttribute(w, k, a); err != nil {
			return 0, err
		}
	}
	return w.Offset() - offset, nil
}

func writeAttribute(w *codec.Writer, name string, a Attribute) error {
	const op = "to bytes"
	if _, err := w.PutShortString(name); err != nil {
		return fail(CodeAttrName, op, name, err)
	}
	if _, err := w.PutType(a.typ); err != nil {
		return fail(CodeAttrType, op, name, err)
	}
	var err error
	switch {
	case a.typ.IsArray():
		_, err = w.PutArrayValue(a.typ, a.value)
	case a.typ.IsNullableArray():
		_, err = w.PutNullableArrayValue(a.typ, a.value)
	default:
		_, err = w.PutScalar(a.typ, a.value)
	}
	if err != nil {
		return fail(valueCode(a.typ), op, name, err)
	}
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler
func (e *Event) MarshalBinary() ([]byte, error) {
	buf := make([]byte, e.Size())
	n, err := e.ToBytes(buf, 0)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// AppendBinary appends the serialized event to dst
func (e *Event) AppendBinary(dst []byte) ([]byte, error) {
	start := len(dst)
	dst = append(dst, make([]byte, e.Size())...)
	n, err := e.ToBytes(dst, start)
	if err != nil {
		return dst[:start], err
	}
	return dst[:start+n], nil
}
