package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"net/netip"
)

// Writer encodes primitives into a caller-owned, fixed-capacity buffer.
// The capacity is len(buf); the writer never grows or reallocates it.
//
// Every Put method returns the number of bytes written. On failure it
// returns 0 and a non-nil error, and the write offset is left unchanged.
type Writer struct {
	buf []byte
	off int
}

// NewWriter creates a writer that starts encoding at offset
func NewWriter(buf []byte, offset int) *Writer {
	return &Writer{buf: buf, off: offset}
}

// Offset returns the current write offset
func (w *Writer) Offset() int {
	return w.off
}

// Available returns the number of bytes left before the buffer is full
func (w *Writer) Available() int {
	if w.off >= len(w.buf) {
		return 0
	}
	return len(w.buf) - w.off
}

// Bytes returns the buffer up to the current offset
func (w *Writer) Bytes() []byte {
	if w.off > len(w.buf) {
		return w.buf
	}
	return w.buf[:w.off]
}

// reserve returns the next n bytes of the buffer without advancing
func (w *Writer) reserve(op string, n int) ([]byte, error) {
	if w.off < 0 || n > w.Available() {
		return nil, fmt.Errorf("%s: need %d bytes at offset %d, have %d: %w",
			op, n, w.off, w.Available(), ErrShortBuffer)
	}
	return w.buf[w.off : w.off+n], nil
}

// PutUint8 writes a single byte
func (w *Writer) PutUint8(v uint8) (int, error) {
	b, err := w.reserve("put uint8", 1)
	if err != nil {
		return 0, err
	}
	b[0] = v
	w.off++
	return 1, nil
}

// PutByte is an alias for PutUint8 used for the byte attribute type
func (w *Writer) PutByte(v byte) (int, error) {
	return w.PutUint8(v)
}

// PutBool writes 1 for true and 0 for false
func (w *Writer) PutBool(v bool) (int, error) {
	var b uint8
	if v {
		b = 1
	}
	return w.PutUint8(b)
}

// PutUint16 writes a big-endian uint16
func (w *Writer) PutUint16(v uint16) (int, error) {
	b, err := w.reserve("put uint16", 2)
	if err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint16(b, v)
	w.off += 2
	return 2, nil
}

// PutInt16 writes a big-endian int16
func (w *Writer) PutInt16(v int16) (int, error) {
	return w.PutUint16(uint16(v))
}

// PutUint32 writes a big-endian uint32
func (w *Writer) PutUint32(v uint32) (int, error) {
	b, err := w.reserve("put uint32", 4)
	if err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint32(b, v)
	w.off += 4
	return 4, nil
}

// PutInt32 writes a big-endian int32
func (w *Writer) PutInt32(v int32) (int, error) {
	return w.PutUint32(uint32(v))
}

// PutUint64 writes a big-endian uint64
func (w *Writer) PutUint64(v uint64) (int, error) {
	b, err := w.reserve("put uint64", 8)
	if err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint64(b, v)
	w.off += 8
	return 8, nil
}

// PutInt64 writes a big-endian int64
func (w *Writer) PutInt64(v int64) (int, error) {
	return w.PutUint64(uint64(v))
}

// PutFloat writes the IEEE-754 bits of v
func (w *Writer) PutFloat(v float32) (int, error) {
	return w.PutUint32(math.Float32bits(v))
}

// PutDouble writes the IEEE-754 bits of v
func (w *Writer) PutDouble(v float64) (int, error) {
	return w.PutUint64(math.Float64bits(v))
}

// PutIPAddr writes an IPv4 address as 4 bytes in network order.
// IPv4-mapped IPv6 addresses are accepted and unmapped first.
func (w *Writer) PutIPAddr(ip netip.Addr) (int, error) {
	ip = ip.Unmap()
	if !ip.Is4() {
		return 0, fmt.Errorf("put ip_addr %v: %w", ip, ErrInvalidAddress)
	}
	b, err := w.reserve("put ip_addr", 4)
	if err != nil {
		return 0, err
	}
	a := ip.As4()
	copy(b, a[:])
	w.off += 4
	return 4, nil
}

// PutShortString writes a 1-byte length prefix followed by the raw bytes.
// The length must be in [1, MaxShortString].
func (w *Writer) PutShortString(s string) (int, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("put short string: %w", ErrEmptyString)
	}
	if len(s) > MaxShortString {
		return 0, fmt.Errorf("put short string of %d bytes: %w", len(s), ErrStringTooLong)
	}
	b, err := w.reserve("put short string", 1+len(s))
	if err != nil {
		return 0, err
	}
	b[0] = uint8(len(s))
	copy(b[1:], s)
	w.off += len(b)
	return len(b), nil
}

// PutLongString writes a 2-byte length prefix followed by the raw bytes.
// The length must be in [0, MaxLongString].
func (w *Writer) PutLongString(s string) (int, error) {
	if len(s) > MaxLongString {
		return 0, fmt.Errorf("put long string of %d bytes: %w", len(s), ErrStringTooLong)
	}
	b, err := w.reserve("put long string", 2+len(s))
	if err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint16(b, uint16(len(s)))
	copy(b[2:], s)
	w.off += len(b)
	return len(b), nil
}

// PutType writes a type tag
func (w *Writer) PutType(t Type) (int, error) {
	return w.PutUint8(uint8(t))
}

// PutScalar writes v using the encoding of the scalar tag t. The dynamic
// type of v must be the Go type bound to t.
func (w *Writer) PutScalar(t Type, v any) (int, error) {
	switch t {
	case TypeU16:
		if x, ok := v.(uint16); ok {
			return w.PutUint16(x)
		}
	case TypeI16:
		if x, ok := v.(int16); ok {
			return w.PutInt16(x)
		}
	case TypeU32:
		if x, ok := v.(uint32); ok {
			return w.PutUint32(x)
		}
	case TypeI32:
		if x, ok := v.(int32); ok {
			return w.PutInt32(x)
		}
	case TypeU64:
		if x, ok := v.(uint64); ok {
			return w.PutUint64(x)
		}
	case TypeI64:
		if x, ok := v.(int64); ok {
			return w.PutInt64(x)
		}
	case TypeBool:
		if x, ok := v.(bool); ok {
			return w.PutBool(x)
		}
	case TypeByte:
		if x, ok := v.(byte); ok {
			return w.PutByte(x)
		}
	case TypeFloat:
		if x, ok := v.(float32); ok {
			return w.PutFloat(x)
		}
	case TypeDouble:
		if x, ok := v.(float64); ok {
			return w.PutDouble(x)
		}
	case TypeIPAddr:
		if x, ok := v.(netip.Addr); ok {
			return w.PutIPAddr(x)
		}
	case TypeString:
		if x, ok := v.(string); ok {
			return w.PutLongString(x)
		}
	default:
		return 0, fmt.Errorf("put scalar %s: %w", t, ErrUnknownType)
	}
	return 0, fmt.Errorf("put scalar %s with %T: %w", t, v, ErrTypeMismatch)
}

// ScalarSize returns the number of bytes PutScalar would write for v
func ScalarSize(t Type, v any) int {
	if t == TypeString {
		s, _ := v.(string)
		return 2 + len(s)
	}
	return t.Size()
}
