package event

import (
	"fmt"

	"github.com/ssargent/lwes/pkg/codec"
)

// FromBytesLax decodes an event from buf, starting at offset, into e.
// len(buf) is the total input length: attributes are decoded until it is
// reached, whatever count the header declares. The declared count is
// returned for the caller to check.
//
// Each attribute goes through Set, so a schema attached to e still
// applies. If e already has a name, the wire name must match it.
//
// On failure e is left partially populated and must be discarded.
func (e *Event) FromBytesLax(buf []byte, offset int) (n int, declared uint16, err error) {
	const op = "from bytes"
	r := codec.NewReader(buf, offset)

	name, err := r.ReadShortString()
	if err != nil {
		return 0, 0, fail(CodeEventName, op, "", err)
	}
	if e.nameSet {
		if e.name != name {
			return 0, 0, fail(CodeNameAlreadySet, op, "",
				fmt.Errorf("event is %q, input is %q", e.name, name))
		}
	} else if err := e.SetName(name); err != nil {
		return 0, 0, err
	}

	declared, err = r.ReadUint16()
	if err != nil {
		return 0, 0, fail(CodeAttrCount, op, "", err)
	}

	for r.Remaining() > 0 {
		if err := readAttribute(r, e); err != nil {
			return 0, declared, err
		}
	}
	return r.Offset() - offset, declared, nil
}

func readAttribute(r *codec.Reader, e *Event) error {
	const op = "from bytes"
	name, err := r.ReadShortString()
	if err != nil {
		return fail(CodeAttrName, op, "", err)
	}
	typ, err := r.ReadType()
	if err != nil {
		return fail(CodeAttrType, op, name, err)
	}

	var v any
	switch {
	case typ.IsScalar():
		v, err = r.ReadScalar(typ)
	case typ.IsArray():
		v, err = r.ReadArrayValue(typ)
	case typ.IsNullableArray():
		v, err = r.ReadNullableArrayValue(typ)
	default:
		return fail(CodeUnknownType, op, name,
			fmt.Errorf("tag 0x%02x: %w", uint8(typ), codec.ErrUnknownType))
	}
	if err != nil {
		if name == EncodingAttr {
			return fail(CodeEncodingValue, op, name, err)
		}
		return fail(valueCode(typ), op, name, err)
	}

	_, err = e.Set(name, fromWire(typ, v))
	return err
}

// FromBytes decodes like FromBytesLax and then fails with ErrCountMismatch
// unless the declared count equals the number of distinct attributes
// stored. Repeated attribute names collapse into one, so they trip this
// check.
func (e *Event) FromBytes(buf []byte, offset int) (int, error) {
	n, declared, err := e.FromBytesLax(buf, offset)
	if err != nil {
		return 0, err
	}
	if int(declared) != e.Count() {
		return 0, fail(CodeCountMismatch, "from bytes", "",
			fmt.Errorf("declared %d, decoded %d", declared, e.Count()))
	}
	return n, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using the strict
// decoder. e must be empty.
func (e *Event) UnmarshalBinary(data []byte) error {
	_, err := e.FromBytes(data, 0)
	return err
}

// Decode strictly decodes data into a new event checked against schema,
// which may be nil
func Decode(data []byte, schema Schema) (*Event, error) {
	e := NewWithSchema("", schema)
	if _, err := e.FromBytes(data, 0); err != nil {
		return nil, err
	}
	return e, nil
}

// DecodeLax decodes data without enforcing the declared count, which is
// returned alongside the event
func DecodeLax(data []byte, schema Schema) (*Event, uint16, error) {
	e := NewWithSchema("", schema)
	_, declared, err := e.FromBytesLax(data, 0)
	if err != nil {
		return nil, declared, err
	}
	return e, declared, nil
}

// PeekName returns the name of a serialized event without decoding its
// attributes. Names longer than the scratch buffer are truncated.
func PeekName(data []byte) (string, error) {
	var scratch [codec.MaxShortString + 1]byte
	n, err := codec.NewReader(data, 0).ReadShortStringInto(scratch[:])
	if err != nil {
		return "", fail(CodeEventName, "peek name", "", err)
	}
	return string(scratch[:n]), nil
}
