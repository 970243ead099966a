// Package codec provides the primitive and array marshalling used by the
// lwes event wire format.
//
// Every value on the wire is self-describing: an attribute is written as
// a name, a one-byte type tag and a value whose layout depends on the tag.
// This package implements the value layouts; package event assembles them
// into whole events.
//
// # Primitive Format
//
// All multi-byte integers are big-endian.
//
//	uint16/int16            2 bytes
//	uint32/int32/float      4 bytes
//	uint64/int64/double     8 bytes
//	boolean/byte            1 byte
//	ip_addr                 4 bytes, network order
//	short string            [len(1), 1..254][bytes]
//	long string             [len(2), 0..65534][bytes]
//
// Strings are not terminated on the wire.
//
// # Array Format
//
// Plain arrays:
//
//	[tag][count(2)][element]...
//
// Nullable arrays carry a presence bitmap, least significant bit first,
// and only the present values:
//
//	[tag][count(2)][bitmap(ceil(count/8))][present element]...
//
// # Cursor Contract
//
// Writer and Reader wrap a caller-owned buffer and an offset. A failed
// call never moves the offset and never writes past len(buf), so callers
// can attribute a failure to the exact field that did not fit. Writer
// methods return the number of bytes written, which is 0 on failure.
//
// # Usage
//
//	buf := make([]byte, 64)
//	w := codec.NewWriter(buf, 0)
//	if _, err := w.PutShortString("Sample::Event"); err != nil {
//	    return err
//	}
//	if _, err := w.PutUint16(3); err != nil {
//	    return err
//	}
//
//	r := codec.NewReader(w.Bytes(), 0)
//	name, err := r.ReadShortString()
//
// # Thread Safety
//
// Writer and Reader are not safe for concurrent use. Type and the helper
// functions are stateless.
package codec
