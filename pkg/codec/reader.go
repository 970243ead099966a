package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"net/netip"
)

// Reader decodes primitives from a caller-owned buffer. len(buf) is the
// total length of valid input.
//
// On failure a Read method returns a non-nil error and leaves the read
// offset unchanged, so a caller can report exactly which field ran past
// the end of the input.
type Reader struct {
	buf []byte
	off int
}

// NewReader creates a reader that starts decoding at offset
func NewReader(buf []byte, offset int) *Reader {
	return &Reader{buf: buf, off: offset}
}

// Offset returns the current read offset
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int {
	if r.off >= len(r.buf) {
		return 0
	}
	return len(r.buf) - r.off
}

// Seek moves the read offset
func (r *Reader) Seek(offset int) {
	r.off = offset
}

func (r *Reader) peek(op string, n int) ([]byte, error) {
	if r.off < 0 || n > r.Remaining() {
		return nil, fmt.Errorf("%s: need %d bytes at offset %d, have %d: %w",
			op, n, r.off, r.Remaining(), ErrShortBuffer)
	}
	return r.buf[r.off : r.off+n], nil
}

// ReadUint8 reads a single byte
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.peek("read uint8", 1)
	if err != nil {
		return 0, err
	}
	r.off++
	return b[0], nil
}

// ReadByte reads a single byte attribute value
func (r *Reader) ReadByte() (byte, error) {
	return r.ReadUint8()
}

// ReadBool reads a single byte, any non-zero value is true
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadUint8()
	return b != 0, err
}

// ReadUint16 reads a big-endian uint16
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.peek("read uint16", 2)
	if err != nil {
		return 0, err
	}
	r.off += 2
	return binary.BigEndian.Uint16(b), nil
}

// ReadInt16 reads a big-endian int16
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a big-endian uint32
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.peek("read uint32", 4)
	if err != nil {
		return 0, err
	}
	r.off += 4
	return binary.BigEndian.Uint32(b), nil
}

// ReadInt32 reads a big-endian int32
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a big-endian uint64
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.peek("read uint64", 8)
	if err != nil {
		return 0, err
	}
	r.off += 8
	return binary.BigEndian.Uint64(b), nil
}

// ReadInt64 reads a big-endian int64
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadFloat reads a float32 from its IEEE-754 bits
func (r *Reader) ReadFloat() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadDouble reads a float64 from its IEEE-754 bits
func (r *Reader) ReadDouble() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadIPAddr reads a 4-byte IPv4 address in network order
func (r *Reader) ReadIPAddr() (netip.Addr, error) {
	b, err := r.peek("read ip_addr", 4)
	if err != nil {
		return netip.Addr{}, err
	}
	r.off += 4
	return netip.AddrFrom4([4]byte{b[0], b[1], b[2], b[3]}), nil
}

// ReadType reads a type tag. Unknown tags are returned as-is; callers
// decide whether they are fatal.
func (r *Reader) ReadType() (Type, error) {
	b, err := r.ReadUint8()
	return Type(b), err
}

// stringBytes reads a length prefix of prefixLen bytes and returns the
// body without advancing the offset, plus the full wire length.
func (r *Reader) stringBytes(op string, prefixLen int) ([]byte, int, error) {
	head, err := r.peek(op, prefixLen)
	if err != nil {
		return nil, 0, err
	}
	var n int
	if prefixLen == 1 {
		n = int(head[0])
		if n == 0 {
			return nil, 0, fmt.Errorf("%s at offset %d: %w", op, r.off, ErrEmptyString)
		}
	} else {
		n = int(binary.BigEndian.Uint16(head))
	}
	whole, err := r.peek(op, prefixLen+n)
	if err != nil {
		return nil, 0, err
	}
	return whole[prefixLen:], prefixLen + n, nil
}

// ReadShortString reads a 1-byte length prefixed string. A zero length
// prefix is rejected.
func (r *Reader) ReadShortString() (string, error) {
	body, n, err := r.stringBytes("read short string", 1)
	if err != nil {
		return "", err
	}
	r.off += n
	return string(body), nil
}

// ReadLongString reads a 2-byte length prefixed string
func (r *Reader) ReadLongString() (string, error) {
	body, n, err := r.stringBytes("read long string", 2)
	if err != nil {
		return "", err
	}
	r.off += n
	return string(body), nil
}

// ReadShortStringInto copies a short string into dst without allocating.
// When the wire value does not fit, it is truncated to len(dst)-1 bytes.
// dst is always zero-terminated after the copied bytes, and the offset
// advances by the full wire length so following fields stay aligned.
// It returns the number of bytes copied, excluding the terminator.
func (r *Reader) ReadShortStringInto(dst []byte) (int, error) {
	return r.readInto("read short string", 1, dst)
}

// ReadLongStringInto is the long string counterpart of ReadShortStringInto
func (r *Reader) ReadLongStringInto(dst []byte) (int, error) {
	return r.readInto("read long string", 2, dst)
}

func (r *Reader) readInto(op string, prefixLen int, dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, fmt.Errorf("%s: destination has no capacity: %w", op, ErrShortBuffer)
	}
	body, n, err := r.stringBytes(op, prefixLen)
	if err != nil {
		return 0, err
	}
	copied := copy(dst[:len(dst)-1], body)
	dst[copied] = 0
	r.off += n
	return copied, nil
}

// ReadScalar decodes a value of scalar tag t and returns it as the Go
// type bound to t.
func (r *Reader) ReadScalar(t Type) (any, error) {
	switch t {
	case TypeU16:
		return r.ReadUint16()
	case TypeI16:
		return r.ReadInt16()
	case TypeU32:
		return r.ReadUint32()
	case TypeI32:
		return r.ReadInt32()
	case TypeU64:
		return r.ReadUint64()
	case TypeI64:
		return r.ReadInt64()
	case TypeBool:
		return r.ReadBool()
	case TypeByte:
		return r.ReadByte()
	case TypeFloat:
		return r.ReadFloat()
	case TypeDouble:
		return r.ReadDouble()
	case TypeIPAddr:
		return r.ReadIPAddr()
	case TypeString:
		return r.ReadLongString()
	}
	return nil, fmt.Errorf("read scalar %s: %w", t, ErrUnknownType)
}
