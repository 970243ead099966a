package event

import (
	"net/netip"
	"testing"

	"github.com/ssargent/lwes/pkg/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serializedWithRoom(t *testing.T, e *Event, room int) ([]byte, int) {
	t.Helper()
	buf := make([]byte, e.Size()+room)
	n, err := e.ToBytes(buf, 0)
	require.NoError(t, err)
	return buf, n
}

func TestAddReceiptHeaders(t *testing.T) {
	e := New("Test::Event")
	_, _ = e.Set("user", Scalar("alice"))
	buf, length := serializedWithRoom(t, e, 128)

	sender := netip.MustParseAddr("10.1.2.3")
	newLength, err := AddReceiptHeaders(buf, length, 1700000000123, sender, 9191)
	require.NoError(t, err)
	assert.Equal(t, length+ReceiptHeadersSize, newLength)
	assert.Equal(t, 49, ReceiptHeadersSize)
	assert.True(t, HasReceiptHeaders(buf, newLength))

	decoded, err := Decode(buf[:newLength], nil)
	require.NoError(t, err, "count must have been patched")
	assert.Equal(t, 4, decoded.Count())

	receipt, err := Lookup[int64](decoded, ReceiptTimeAttr, codec.TypeI64)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), receipt)
	ip, err := Lookup[netip.Addr](decoded, SenderIPAttr, codec.TypeIPAddr)
	require.NoError(t, err)
	assert.Equal(t, sender, ip)
	port, err := Lookup[uint16](decoded, SenderPortAttr, codec.TypeU16)
	require.NoError(t, err)
	assert.Equal(t, uint16(9191), port)
}

func TestAddReceiptHeaders_Idempotent(t *testing.T) {
	e := New("Test::Event")
	_, _ = e.Set("n", Scalar(uint32(1)))
	buf, length := serializedWithRoom(t, e, 2*ReceiptHeadersSize)

	first, err := AddReceiptHeaders(buf, length, 1, netip.MustParseAddr("1.2.3.4"), 1)
	require.NoError(t, err)
	snapshot := append([]byte{}, buf[:first]...)

	second, err := AddReceiptHeaders(buf, first, 2, netip.MustParseAddr("5.6.7.8"), 2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, buf[:second])

	decoded, err := Decode(buf[:second], nil)
	require.NoError(t, err)
	receipt, _ := Lookup[int64](decoded, ReceiptTimeAttr, codec.TypeI64)
	assert.Equal(t, int64(1), receipt)
}

func TestAddReceiptHeaders_AlreadyPresentFromSerializer(t *testing.T) {
	// an event serialized with SenderPort as its only attribute ends the
	// way an injected buffer does
	e := New("E")
	_, _ = e.Set(SenderPortAttr, Scalar(uint16(1)))
	buf, length := serializedWithRoom(t, e, ReceiptHeadersSize)

	got, err := AddReceiptHeaders(buf, length, 1, netip.MustParseAddr("1.2.3.4"), 1)
	require.NoError(t, err)
	assert.Equal(t, length, got)
}

func TestAddReceiptHeaders_Errors(t *testing.T) {
	e := New("Test::Event")
	_, _ = e.Set("n", Scalar(uint32(1)))

	t.Run("no room", func(t *testing.T) {
		buf, length := serializedWithRoom(t, e, ReceiptHeadersSize-1)
		before := append([]byte{}, buf[:length]...)
		got, err := AddReceiptHeaders(buf, length, 1, netip.MustParseAddr("1.2.3.4"), 1)
		assert.ErrorIs(t, err, codec.ErrShortBuffer)
		assert.Equal(t, CodeReceiptHeaders, CodeOf(err))
		assert.Equal(t, length, got)
		assert.Equal(t, before, buf[:length])
	})

	t.Run("ipv6 sender", func(t *testing.T) {
		buf, length := serializedWithRoom(t, e, ReceiptHeadersSize)
		_, err := AddReceiptHeaders(buf, length, 1, netip.MustParseAddr("::2"), 1)
		assert.ErrorIs(t, err, codec.ErrInvalidAddress)
	})

	t.Run("truncated event", func(t *testing.T) {
		buf := make([]byte, 64)
		buf[0] = 20
		_, err := AddReceiptHeaders(buf, 4, 1, netip.MustParseAddr("1.2.3.4"), 1)
		assert.Equal(t, CodeAttrCount, CodeOf(err))
	})

	t.Run("length beyond buffer", func(t *testing.T) {
		_, err := AddReceiptHeaders(make([]byte, 4), 5, 1, netip.MustParseAddr("1.2.3.4"), 1)
		assert.Equal(t, CodeReceiptHeaders, CodeOf(err))
	})
}
