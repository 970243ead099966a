package event

import (
	"fmt"
	"net/netip"

	"github.com/ssargent/lwes/pkg/codec"
)

// Encoded sizes of the three receipt header attributes:
// [name length][name][type tag][value]
const (
	receiptTimeSize = 1 + len(ReceiptTimeAttr) + 1 + 8
	senderIPSize    = 1 + len(SenderIPAttr) + 1 + 4
	senderPortSize  = 1 + len(SenderPortAttr) + 1 + 2

	// ReceiptHeadersSize is the number of bytes AddReceiptHeaders appends
	ReceiptHeadersSize = receiptTimeSize + senderIPSize + senderPortSize
)

// Where each header name starts, counted back from the end of a buffer
// whose headers are already in place
var receiptNameOffsets = []struct {
	name string
	back int
}{
	{SenderPortAttr, senderPortSize - 1},
	{SenderIPAttr, senderPortSize + senderIPSize - 1},
	{ReceiptTimeAttr, ReceiptHeadersSize - 1},
}

// HasReceiptHeaders reports whether any receipt header name sits where
// AddReceiptHeaders would have put it in buf[:length]
func HasReceiptHeaders(buf []byte, length int) bool {
	for _, h := range receiptNameOffsets {
		pos := length - h.back
		if pos < 0 || pos+len(h.name) > length {
			continue
		}
		if string(buf[pos:pos+len(h.name)]) == h.name {
			return true
		}
	}
	return false
}

// AddReceiptHeaders appends ReceiptTime, SenderIP and SenderPort to the
// serialized event in buf[:length] and bumps its attribute count by three,
// without decoding the event. len(buf) is the capacity. It returns the
// new length.
//
// If any of the three names is already at its expected position near the
// end of the buffer the headers are assumed present and length is
// returned unchanged, so relays can call this on every hop.
func AddReceiptHeaders(buf []byte, length int, receipt int64, ip netip.Addr, port uint16) (int, error) {
	const op = "add receipt headers"
	if length < 0 || length > len(buf) {
		return length, fail(CodeReceiptHeaders, op, "",
			fmt.Errorf("length %d outside buffer of %d: %w", length, len(buf), codec.ErrShortBuffer))
	}
	if HasReceiptHeaders(buf, length) {
		return length, nil
	}
	if err := checkAddr(ip); err != nil {
		return length, fail(CodeIPAddr, op, SenderIPAttr, err)
	}

	r := codec.NewReader(buf[:length], 0)
	nameLen, err := r.ReadUint8()
	if err != nil {
		return length, fail(CodeEventName, op, "", err)
	}
	countOff := 1 + int(nameLen)
	r.Seek(countOff)
	count, err := r.ReadUint16()
	if err != nil {
		return length, fail(CodeAttrCount, op, "", err)
	}
	if int(count)+3 > MaxAttributes {
		return length, fail(CodeTooManyAttributes, op, "", nil)
	}
	if len(buf)-length < ReceiptHeadersSize {
		return length, fail(CodeReceiptHeaders, op, "",
			fmt.Errorf("need %d bytes, have %d: %w", ReceiptHeadersSize, len(buf)-length, codec.ErrShortBuffer))
	}

	w := codec.NewWriter(buf, length)
	for _, step := range []struct {
		name string
		typ  codec.Type
		v    any
	}{
		{ReceiptTimeAttr, codec.TypeI64, receipt},
		{SenderIPAttr, codec.TypeIPAddr, ip},
		{SenderPortAttr, codec.TypeU16, port},
	} {
		if err := writeAttribute(w, step.name, Attribute{typ: step.typ, value: step.v}); err != nil {
			return length, err
		}
	}
	if _, err := codec.NewWriter(buf, countOff).PutUint16(count + 3); err != nil {
		return length, fail(CodeAttrCount, op, "", err)
	}
	return w.Offset(), nil
}
