package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_Bands(t *testing.T) {
	scalars := []Type{
		TypeU16, TypeI16, TypeU32, TypeI32, TypeString, TypeIPAddr,
		TypeI64, TypeU64, TypeBool, TypeByte, TypeFloat, TypeDouble,
	}
	seen := map[Type]bool{}
	for _, s := range scalars {
		assert.True(t, s.IsScalar(), s.String())
		assert.Equal(t, s, s.Base())

		arr := s.ArrayOf()
		assert.True(t, arr.IsArray(), arr.String())
		assert.Equal(t, s, arr.Base())
		assert.Equal(t, Type(s+0x80), arr)

		n := s.NullableOf()
		assert.True(t, n.IsNullableArray(), n.String())
		assert.Equal(t, s, n.Base())

		for _, tag := range []Type{s, arr, n} {
			assert.False(t, seen[tag], "duplicate tag 0x%02x", uint8(tag))
			seen[tag] = true
		}
	}

	assert.False(t, TypeUndefined.Valid())
	assert.Equal(t, TypeUndefined, TypeUndefined.Base())
	assert.Equal(t, TypeUndefined, TypeU16Array.ArrayOf())
	assert.Equal(t, TypeUndefined, TypeU16Array.NullableOf())
	assert.Equal(t, Type(0x8d), TypeNullableU16Array)
}

func TestType_Size(t *testing.T) {
	assert.Equal(t, 1, TypeBool.Size())
	assert.Equal(t, 1, TypeByte.Size())
	assert.Equal(t, 2, TypeI16.Size())
	assert.Equal(t, 4, TypeIPAddr.Size())
	assert.Equal(t, 4, TypeFloat.Size())
	assert.Equal(t, 8, TypeDouble.Size())
	assert.Equal(t, 0, TypeString.Size())
	assert.Equal(t, 0, TypeU16Array.Size())
}

func TestParseType(t *testing.T) {
	cases := map[string]Type{
		"uint16":            TypeU16,
		"ip_addr":           TypeIPAddr,
		"boolean":           TypeBool,
		"string[]":          TypeStringArray,
		"nullable int64[]":  TypeNullableI64Array,
		" nullable double ": TypeNullableDoubleArray,
	}
	for in, want := range cases {
		got, err := ParseType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseType("uint128")
	assert.ErrorIs(t, err, ErrUnknownType)

	for _, typ := range []Type{TypeU32, TypeFloatArray, TypeNullableIPAddrArray} {
		got, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	assert.Contains(t, Type(0x42).String(), "undefined")
}
