package journal

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/ssargent/lwes/pkg/codec"
	"github.com/ssargent/lwes/pkg/event"
)

// Journal record layout, big-endian like the event wire format:
//
//	[u16 size][i64 receipt ms][4 sender ip][u16 sender port][u16 site id][u32 reserved][size bytes of event]
const HeaderSize = 22

// MaxEventSize is the largest event a record can carry
const MaxEventSize = 65535

// Record is one received datagram with its receipt metadata
type Record struct {
	ReceiptTime int64 // milliseconds since the Unix epoch
	SenderIP    netip.Addr
	SenderPort  uint16
	SiteID      uint16
	Data        []byte // serialized event, without receipt headers
}

// Time returns the receipt time
func (r *Record) Time() time.Time {
	return time.UnixMilli(r.ReceiptTime)
}

// EncodeHeader writes the record header into buf, which must hold at
// least HeaderSize bytes
func (r *Record) EncodeHeader(buf []byte) error {
	if len(r.Data) > MaxEventSize {
		return fmt.Errorf("event of %d bytes: %w", len(r.Data), ErrRecordTooLarge)
	}
	ip := r.senderIP()
	w := codec.NewWriter(buf, 0)
	steps := []func() (int, error){
		func() (int, error) { return w.PutUint16(uint16(len(r.Data))) },
		func() (int, error) { return w.PutInt64(r.ReceiptTime) },
		func() (int, error) { return w.PutIPAddr(ip) },
		func() (int, error) { return w.PutUint16(r.SenderPort) },
		func() (int, error) { return w.PutUint16(r.SiteID) },
		func() (int, error) { return w.PutUint32(0) },
	}
	for _, step := range steps {
		if _, err := step(); err != nil {
			return fmt.Errorf("failed to encode record header: %w", err)
		}
	}
	return nil
}

// senderIP returns the sender address, 0.0.0.0 when unset
func (r *Record) senderIP() netip.Addr {
	if !r.SenderIP.IsValid() {
		return netip.IPv4Unspecified()
	}
	return r.SenderIP
}

// decodeHeader fills r from a HeaderSize header and returns the event size
func (r *Record) decodeHeader(header []byte) (int, error) {
	rd := codec.NewReader(header, 0)
	size, err := rd.ReadUint16()
	if err != nil {
		return 0, err
	}
	if r.ReceiptTime, err = rd.ReadInt64(); err != nil {
		return 0, err
	}
	if r.SenderIP, err = rd.ReadIPAddr(); err != nil {
		return 0, err
	}
	if r.SenderPort, err = rd.ReadUint16(); err != nil {
		return 0, err
	}
	if r.SiteID, err = rd.ReadUint16(); err != nil {
		return 0, err
	}
	return int(size), nil
}

// Event decodes the record's event with the receipt headers injected
func (r *Record) Event(schema event.Schema) (*event.Event, error) {
	buf := make([]byte, len(r.Data)+event.ReceiptHeadersSize)
	copy(buf, r.Data)
	n, err := event.AddReceiptHeaders(buf, len(r.Data), r.ReceiptTime, r.senderIP(), r.SenderPort)
	if err != nil {
		return nil, err
	}
	return event.Decode(buf[:n], schema)
}
