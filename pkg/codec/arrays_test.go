package codec

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestPutArray_U16(t *testing.T) {
	w := NewWriter(make([]byte, 16), 0)
	n, err := w.PutArray(TypeU16Array, []uint16{1, 2, 0xffff})
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, []byte{0x81, 0x00, 0x03, 0x00, 0x01, 0x00, 0x02, 0xff, 0xff}, w.Bytes())
	assert.Equal(t, n-1, ArrayValueSize(TypeU16Array, []uint16{1, 2, 0xffff}))
}

func TestPutArray_Strings(t *testing.T) {
	w := NewWriter(make([]byte, 32), 0)
	values := []string{"a", "", "bc"}
	n, err := w.PutArray(TypeStringArray, values)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x85, 0, 3, 0, 1, 'a', 0, 0, 0, 2, 'b', 'c'}, w.Bytes())
	assert.Equal(t, n-1, ArrayValueSize(TypeStringArray, values))
}

func TestPutArray_Errors(t *testing.T) {
	t.Run("wrong element type", func(t *testing.T) {
		w := NewWriter(make([]byte, 32), 0)
		_, err := w.PutArray(TypeU32Array, []uint16{1})
		assert.ErrorIs(t, err, ErrTypeMismatch)
		assert.Equal(t, 0, w.Offset())
	})

	t.Run("scalar tag", func(t *testing.T) {
		w := NewWriter(make([]byte, 32), 0)
		_, err := w.PutArrayValue(TypeU16, []uint16{1})
		assert.ErrorIs(t, err, ErrUnknownType)
	})

	t.Run("too long", func(t *testing.T) {
		w := NewWriter(make([]byte, 1<<18), 0)
		_, err := w.PutArray(TypeByteArray, make([]byte, MaxArrayLength+1))
		assert.ErrorIs(t, err, ErrArrayTooLong)
		assert.Equal(t, 0, w.Offset())
	})

	t.Run("runs out mid array", func(t *testing.T) {
		for size := 0; size < 9; size++ {
			w := NewWriter(make([]byte, size), 0)
			n, err := w.PutArray(TypeU16Array, []uint16{1, 2, 3})
			assert.ErrorIs(t, err, ErrShortBuffer, "size %d", size)
			assert.Equal(t, 0, n)
			assert.Equal(t, 0, w.Offset())
		}
	})
}

func TestReadArray_RoundTrip(t *testing.T) {
	cases := []struct {
		typ    Type
		values any
	}{
		{TypeU16Array, []uint16{1, 65535}},
		{TypeI16Array, []int16{-1, 1}},
		{TypeU32Array, []uint32{0, 1 << 31}},
		{TypeI32Array, []int32{-7}},
		{TypeU64Array, []uint64{1 << 60}},
		{TypeI64Array, []int64{-1 << 60, 3}},
		{TypeBoolArray, []bool{true, false, true}},
		{TypeByteArray, []byte{0, 1, 254}},
		{TypeFloatArray, []float32{1.25, -2}},
		{TypeDoubleArray, []float64{3.5}},
		{TypeIPAddrArray, []netip.Addr{netip.MustParseAddr("1.2.3.4"), netip.MustParseAddr("8.8.8.8")}},
		{TypeStringArray, []string{"one", "", "three"}},
		{TypeU16Array, []uint16{}},
	}

	for _, tc := range cases {
		t.Run(tc.typ.String(), func(t *testing.T) {
			w := NewWriter(make([]byte, 128), 0)
			_, err := w.PutArray(tc.typ, tc.values)
			require.NoError(t, err)

			r := NewReader(w.Bytes(), 0)
			typ, got, err := r.ReadArray()
			require.NoError(t, err)
			assert.Equal(t, tc.typ, typ)
			assert.Equal(t, tc.values, got)
			assert.Equal(t, 0, r.Remaining())
		})
	}
}

func TestReadArray_Truncated(t *testing.T) {
	w := NewWriter(make([]byte, 64), 0)
	_, err := w.PutArray(TypeStringArray, []string{"alpha", "beta"})
	require.NoError(t, err)
	full := w.Bytes()

	for cut := 0; cut < len(full); cut++ {
		r := NewReader(full[:cut], 0)
		_, v, err := r.ReadArray()
		assert.ErrorIs(t, err, ErrShortBuffer, "cut %d", cut)
		assert.Nil(t, v)
		assert.Equal(t, 0, r.Offset())
	}
}

func TestReadArray_ImplausibleCount(t *testing.T) {
	r := NewReader([]byte{0xff, 0xff, 0, 0}, 0)
	_, err := r.ReadArrayValue(TypeU64Array)
	assert.ErrorIs(t, err, ErrShortBuffer)
	assert.Equal(t, 0, r.Offset())
}

func TestNullableArray_KnownEncoding(t *testing.T) {
	values := []*uint16{ptr[uint16](123), nil, ptr[uint16](5432), nil, ptr[uint16](54321), nil, nil, nil, nil}
	want := []byte{0x8d, 0x00, 0x09, 0x15, 0x00, 0x00, 0x7b, 0x15, 0x38, 0xd4, 0x31}

	w := NewWriter(make([]byte, 32), 0)
	n, err := w.PutNullableArray(TypeNullableU16Array, values)
	require.NoError(t, err)
	assert.Equal(t, len(want), n)
	assert.Equal(t, want, w.Bytes())
	assert.Equal(t, n-1, NullableArrayValueSize(TypeNullableU16Array, values))

	r := NewReader(want, 0)
	typ, got, err := r.ReadNullableArray()
	require.NoError(t, err)
	assert.Equal(t, TypeNullableU16Array, typ)

	decoded, ok := got.([]*uint16)
	require.True(t, ok)
	require.Len(t, decoded, 9)
	for i, v := range values {
		if v == nil {
			assert.Nil(t, decoded[i], "index %d", i)
			continue
		}
		require.NotNil(t, decoded[i], "index %d", i)
		assert.Equal(t, *v, *decoded[i], "index %d", i)
	}
}

func TestNullableArray_StringsShareBlock(t *testing.T) {
	values := []*string{nil, ptr("x"), ptr(""), nil, ptr("yz")}
	w := NewWriter(make([]byte, 64), 0)
	_, err := w.PutNullableArray(TypeNullableStringArray, values)
	require.NoError(t, err)

	_, got, err := NewReader(w.Bytes(), 0).ReadNullableArray()
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestNullableArray_AllAbsentAndEmpty(t *testing.T) {
	w := NewWriter(make([]byte, 16), 0)
	_, err := w.PutNullableArray(TypeNullableDoubleArray, []*float64{nil, nil, nil})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x97, 0, 3, 0}, w.Bytes())

	w = NewWriter(make([]byte, 16), 0)
	_, err = w.PutNullableArray(TypeNullableI32Array, []*int32{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x90, 0, 0}, w.Bytes())
}

func TestNullableArray_Truncated(t *testing.T) {
	values := []*uint32{ptr[uint32](1), nil, ptr[uint32](3)}
	w := NewWriter(make([]byte, 32), 0)
	_, err := w.PutNullableArray(TypeNullableU32Array, values)
	require.NoError(t, err)
	full := w.Bytes()

	for cut := 0; cut < len(full); cut++ {
		r := NewReader(full[:cut], 0)
		_, v, err := r.ReadNullableArray()
		assert.ErrorIs(t, err, ErrShortBuffer, "cut %d", cut)
		assert.Nil(t, v)
		assert.Equal(t, 0, r.Offset())

		w := NewWriter(make([]byte, cut), 0)
		n, err := w.PutNullableArray(TypeNullableU32Array, values)
		assert.ErrorIs(t, err, ErrShortBuffer, "cut %d", cut)
		assert.Equal(t, 0, n)
	}
}

func TestNullableArray_WrongType(t *testing.T) {
	w := NewWriter(make([]byte, 32), 0)
	_, err := w.PutNullableArray(TypeNullableU16Array, []uint16{1})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = w.PutNullableArray(TypeU16Array, []*uint16{nil})
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Equal(t, 0, w.Offset())
}
