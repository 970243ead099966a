package event

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/ssargent/lwes/pkg/codec"
	"github.com/ssargent/lwes/pkg/hashmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapSchema is a minimal Schema backed by nested maps, with "" as the
// meta entry
type mapSchema map[string]map[string]codec.Type

func (s mapSchema) AttributeType(event, attr string) (codec.Type, bool) {
	if t, ok := s[event][attr]; ok {
		return t, true
	}
	t, ok := s[""][attr]
	return t, ok
}

func ptr[T any](v T) *T { return &v }

func TestEvent_SetAndGet(t *testing.T) {
	e := New("Test::Event")

	count, err := e.Set("a_u16", Scalar(uint16(65535)))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = e.Set("a_string", Scalar("hello"))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	a, err := e.Get("a_u16", codec.TypeU16)
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), a.Value())

	s, err := Lookup[string](e, "a_string", codec.TypeString)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	assert.True(t, e.Has("a_u16"))
	assert.False(t, e.Has("missing"))
}

func TestEvent_GetNotFound(t *testing.T) {
	e := New("Test::Event")
	_, err := e.Set("x", Scalar(int32(-4)))
	require.NoError(t, err)

	_, err = e.Get("y", codec.TypeI32)
	assert.ErrorIs(t, err, ErrNotFound)

	// present but stored with another type
	_, err = e.Get("x", codec.TypeU32)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, CodeNotFound, CodeOf(err))

	_, err = Lookup[uint32](e, "x", codec.TypeU32)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEvent_ReplaceKeepsCount(t *testing.T) {
	e := New("Test::Event")
	_, err := e.Set("x", Scalar(uint32(1)))
	require.NoError(t, err)
	_, err = e.Set("y", Scalar(true))
	require.NoError(t, err)

	count, err := e.Set("x", Scalar(uint32(2)))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, e.Count())

	v, err := Lookup[uint32](e, "x", codec.TypeU32)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), v)

	// a replacement may change the type
	_, err = e.Set("x", Scalar("now a string"))
	require.NoError(t, err)
	_, err = e.Get("x", codec.TypeU32)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, e.Count())
}

func TestEvent_ArraysAreCopied(t *testing.T) {
	e := New("Test::Event")
	src := []int64{1, 2, 3}
	_, err := e.Set("arr", Array(src))
	require.NoError(t, err)
	src[0] = 99

	got, err := Lookup[[]int64](e, "arr", codec.TypeI64Array)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, got)

	x := uint16(7)
	_, err = e.Set("sparse", Nullable([]*uint16{&x, nil}))
	require.NoError(t, err)
	x = 8

	sparse, err := Lookup[[]*uint16](e, "sparse", codec.TypeNullableU16Array)
	require.NoError(t, err)
	require.Len(t, sparse, 2)
	assert.Equal(t, uint16(7), *sparse[0])
	assert.Nil(t, sparse[1])

	a, _ := e.Attribute("sparse")
	assert.Equal(t, 2, a.Len())
}

func TestEvent_SetRejectsInvalidValues(t *testing.T) {
	e := New("Test::Event")
	cases := map[string]struct {
		name string
		attr Attribute
	}{
		"empty name":      {"", Scalar(uint16(1))},
		"long name":       {strings.Repeat("n", 255), Scalar(uint16(1))},
		"zero attribute":  {"z", Attribute{}},
		"ipv6 address":    {"ip", Scalar(netip.MustParseAddr("::1"))},
		"long string":     {"s", Scalar(strings.Repeat("s", codec.MaxLongString+1))},
		"oversized array": {"a", Array(make([]byte, codec.MaxArrayLength+1))},
	}
	for desc, tc := range cases {
		t.Run(desc, func(t *testing.T) {
			_, err := e.Set(tc.name, tc.attr)
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}
	assert.Equal(t, 0, e.Count())
}

func TestEvent_SchemaGating(t *testing.T) {
	schema := mapSchema{
		"":            {"SenderPort": codec.TypeU16, EncodingAttr: codec.TypeI16},
		"Test::Event": {"count": codec.TypeU32},
	}
	e := NewWithSchema("Test::Event", schema)

	_, err := e.Set("count", Scalar(uint32(3)))
	require.NoError(t, err)
	_, err = e.Set("SenderPort", Scalar(uint16(9191)))
	require.NoError(t, err, "meta attributes are allowed on every event")

	_, err = e.Set("unknown", Scalar(uint32(1)))
	assert.ErrorIs(t, err, ErrUnknownAttribute)

	_, err = e.Set("count", Scalar(int32(1)))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	assert.Equal(t, 2, e.Count())
	v, _ := Lookup[uint32](e, "count", codec.TypeU32)
	assert.Equal(t, uint32(3), v)
}

func TestEvent_NameSetOnce(t *testing.T) {
	e := New("")
	assert.Equal(t, "", e.Name())

	require.NoError(t, e.SetName("First"))
	assert.Equal(t, "First", e.Name())

	err := e.SetName("Second")
	assert.ErrorIs(t, err, ErrNameAlreadySet)
	assert.Equal(t, "First", e.Name())

	err = New("Named").SetName("Other")
	assert.ErrorIs(t, err, ErrNameAlreadySet)

	err = New("").SetName("")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestEvent_EncodingSetOnce(t *testing.T) {
	e := New("Test::Event")
	_, ok := e.Encoding()
	assert.False(t, ok)

	require.NoError(t, e.SetEncoding(EncodingUTF8))
	enc, ok := e.Encoding()
	assert.True(t, ok)
	assert.Equal(t, EncodingUTF8, enc)

	err := e.SetEncoding(EncodingISO8859_1)
	assert.ErrorIs(t, err, ErrEncodingAlreadySet)

	_, err = e.Set(EncodingAttr, Scalar(int16(0)))
	assert.ErrorIs(t, err, ErrEncodingAlreadySet)

	// removing or clearing enc does not allow a second write
	assert.True(t, e.Remove(EncodingAttr))
	err = e.SetEncoding(EncodingISO8859_1)
	assert.ErrorIs(t, err, ErrEncodingAlreadySet)
	_, ok = e.Encoding()
	assert.False(t, ok)

	e.Clear()
	err = e.SetEncoding(EncodingUTF8)
	assert.ErrorIs(t, err, ErrEncodingAlreadySet)
	assert.Equal(t, 0, e.Count())

	_, err = New("E").Set(EncodingAttr, Scalar(uint16(1)))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestEvent_RemoveAndNames(t *testing.T) {
	e := NewWithConfig("Test::Event", Config{Bins: 1, Hash: hashmap.Murmur3})
	for _, n := range []string{"c", "a", "b"} {
		_, err := e.Set(n, Scalar(true))
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "b", "c"}, e.SortedNames())

	names := e.Names()
	assert.Equal(t, 3, names.Len())

	assert.True(t, e.Remove("b"))
	assert.False(t, e.Remove("b"))
	assert.Equal(t, 2, e.Count())

	// the enumerator still walks its snapshot
	seen := 0
	for _, ok := names.Next(); ok; _, ok = names.Next() {
		seen++
	}
	assert.Equal(t, 3, seen)
}

func TestEvent_Close(t *testing.T) {
	e := New("Test::Event")
	_, err := e.Set("x", Scalar(uint16(1)))
	require.NoError(t, err)

	require.NoError(t, e.Close())
	assert.Equal(t, 0, e.Count())
	require.NoError(t, e.Close())

	_, err = e.Set("y", Scalar(uint16(1)))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEvent_Validate(t *testing.T) {
	schema := mapSchema{"Test::Event": {"count": codec.TypeU32}}
	e := New("Test::Event")
	_, _ = e.Set("count", Scalar(uint32(3)))
	assert.NoError(t, e.Validate(schema))

	_, _ = e.Set("extra", Scalar(uint32(3)))
	_, _ = e.Set("count", Scalar(uint64(3)))
	err := e.Validate(schema)
	assert.ErrorIs(t, err, ErrUnknownAttribute)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestEvent_String(t *testing.T) {
	e := New("Test::Event")
	_, _ = e.Set("b", Scalar(byte(0x0f)))
	_, _ = e.Set("s", Scalar("hi"))
	_, _ = e.Set("n", Nullable([]*int32{ptr(int32(5)), nil}))
	_, _ = e.Set("ip", Scalar(netip.MustParseAddr("10.0.0.1")))

	want := "Test::Event[4]\n{\n" +
		"\tb = 0x0f;\n" +
		"\tip = 10.0.0.1;\n" +
		"\tn = [5, null];\n" +
		"\ts = \"hi\";\n" +
		"}"
	assert.Equal(t, want, e.String())
}

func TestEvent_Equal(t *testing.T) {
	a := New("E")
	b := New("E")
	_, _ = a.Set("x", Array([]string{"p", "q"}))
	_, _ = a.Set("y", Scalar(1.5))
	_, _ = b.Set("y", Scalar(1.5))
	_, _ = b.Set("x", Array([]string{"p", "q"}))
	assert.True(t, a.Equal(b))

	_, _ = b.Set("y", Scalar(float32(1.5)))
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(New("F")))
}

func TestError_Message(t *testing.T) {
	err := fail(CodeU32, "to bytes", "count", codec.ErrShortBuffer)
	assert.Equal(t, `event: to bytes: uint32 value (attribute "count"): insufficient buffer space`, err.Error())
	assert.ErrorIs(t, err, codec.ErrShortBuffer)
	assert.Equal(t, "code -999", Code(-999).String())
	assert.Equal(t, Code(0), CodeOf(codec.ErrShortBuffer))
}
