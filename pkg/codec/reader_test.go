package codec

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_Integers(t *testing.T) {
	data := []byte{
		0x12, 0x34,
		0xff, 0xfe,
		0xde, 0xad, 0xbe, 0xef,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}
	r := NewReader(data, 0)

	u16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	i16, err := r.ReadInt16()
	require.NoError(t, err)
	assert.Equal(t, int16(-2), i16)

	u32, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)

	i64, err := r.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), i64)

	assert.Equal(t, 0, r.Remaining())

	_, err = r.ReadUint8()
	assert.ErrorIs(t, err, ErrShortBuffer)
	assert.Equal(t, len(data), r.Offset())
}

func TestReader_ShortInputLeavesOffset(t *testing.T) {
	r := NewReader([]byte{0, 1, 2}, 1)

	_, err := r.ReadUint32()
	assert.ErrorIs(t, err, ErrShortBuffer)
	assert.Equal(t, 1, r.Offset())

	_, err = r.ReadIPAddr()
	assert.ErrorIs(t, err, ErrShortBuffer)
	assert.Equal(t, 1, r.Offset())

	v, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), v)
}

func TestReader_IPAddr(t *testing.T) {
	r := NewReader([]byte{10, 1, 2, 3}, 0)
	ip, err := r.ReadIPAddr()
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("10.1.2.3"), ip)
}

func TestReader_Bool(t *testing.T) {
	r := NewReader([]byte{0, 1, 7}, 0)
	for _, want := range []bool{false, true, true} {
		got, err := r.ReadBool()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReader_Strings(t *testing.T) {
	t.Run("short", func(t *testing.T) {
		r := NewReader([]byte{3, 'a', 'b', 'c', 9}, 0)
		s, err := r.ReadShortString()
		require.NoError(t, err)
		assert.Equal(t, "abc", s)
		assert.Equal(t, 4, r.Offset())
	})

	t.Run("short empty rejected", func(t *testing.T) {
		r := NewReader([]byte{0, 'a'}, 0)
		_, err := r.ReadShortString()
		assert.ErrorIs(t, err, ErrEmptyString)
		assert.Equal(t, 0, r.Offset())
	})

	t.Run("short truncated input", func(t *testing.T) {
		r := NewReader([]byte{5, 'a', 'b'}, 0)
		_, err := r.ReadShortString()
		assert.ErrorIs(t, err, ErrShortBuffer)
		assert.Equal(t, 0, r.Offset())
	})

	t.Run("long", func(t *testing.T) {
		r := NewReader([]byte{0, 0, 0, 2, 'h', 'i'}, 0)
		s, err := r.ReadLongString()
		require.NoError(t, err)
		assert.Equal(t, "", s)
		s, err = r.ReadLongString()
		require.NoError(t, err)
		assert.Equal(t, "hi", s)
	})
}

func TestReader_StringIntoTruncates(t *testing.T) {
	data := []byte{6, 'a', 'b', 'c', 'd', 'e', 'f', 0x00, 0x2a}
	r := NewReader(data, 0)

	dst := make([]byte, 4)
	n, err := r.ReadShortStringInto(dst)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{'a', 'b', 'c', 0}, dst)

	// the cursor skipped the whole wire value
	assert.Equal(t, 7, r.Offset())
	v, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(42), v)
}

func TestReader_StringIntoFits(t *testing.T) {
	r := NewReader([]byte{0, 2, 'o', 'k'}, 0)
	dst := make([]byte, 8)
	n, err := r.ReadLongStringInto(dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "ok", string(dst[:n]))
	assert.Equal(t, byte(0), dst[n])

	_, err = NewReader([]byte{1, 'x'}, 0).ReadShortStringInto(nil)
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestReader_ReadScalar(t *testing.T) {
	w := NewWriter(make([]byte, 64), 0)
	values := []struct {
		typ Type
		val any
	}{
		{TypeU16, uint16(65535)},
		{TypeI16, int16(-32768)},
		{TypeU32, uint32(4000000000)},
		{TypeI32, int32(-5)},
		{TypeU64, uint64(1 << 63)},
		{TypeI64, int64(-1 << 40)},
		{TypeBool, true},
		{TypeByte, byte(0xab)},
		{TypeFloat, float32(3.25)},
		{TypeDouble, 2.5e-10},
		{TypeIPAddr, netip.MustParseAddr("127.0.0.1")},
		{TypeString, "value"},
	}
	for _, v := range values {
		_, err := w.PutScalar(v.typ, v.val)
		require.NoError(t, err, v.typ.String())
	}

	r := NewReader(w.Bytes(), 0)
	for _, v := range values {
		got, err := r.ReadScalar(v.typ)
		require.NoError(t, err, v.typ.String())
		assert.Equal(t, v.val, got, v.typ.String())
	}

	_, err := r.ReadScalar(TypeUndefined)
	assert.ErrorIs(t, err, ErrUnknownType)
}
