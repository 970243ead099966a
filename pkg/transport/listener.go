package transport

import (
	"context"
	"fmt"
	"io"
	"net/netip"
	"time"

	"github.com/ssargent/lwes/pkg/event"
	"go.uber.org/zap"
)

// Datagram is one received event before decoding.
type Datagram struct {
	Data       []byte // event bytes as sent, without receipt headers
	From       netip.AddrPort
	ReceivedAt time.Time
}

// Listener receives datagrams and decodes them into events, stamping
// each with ReceiptTime, SenderIP and SenderPort.
//
// A Listener reuses its receive buffer and must not be shared between
// goroutines.
type Listener struct {
	receiver Receiver
	schema   event.Schema
	logger   *zap.Logger
	now      func() time.Time
	buf      []byte
}

// ListenerOption configures a Listener
type ListenerOption func(*Listener)

// WithSchema validates decoded events against schema
func WithSchema(schema event.Schema) ListenerOption {
	return func(l *Listener) { l.schema = schema }
}

// WithListenerLogger sets the listener logger
func WithListenerLogger(logger *zap.Logger) ListenerOption {
	return func(l *Listener) { l.logger = logger }
}

// WithClock overrides the receipt clock
func WithClock(now func() time.Time) ListenerOption {
	return func(l *Listener) { l.now = now }
}

// NewListener creates a listener over receiver.
func NewListener(receiver Receiver, opts ...ListenerOption) *Listener {
	l := &Listener{
		receiver: receiver,
		logger:   zap.NewNop(),
		now:      time.Now,
		buf:      make([]byte, MaxDatagramSize+event.ReceiptHeadersSize),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ReadDatagram blocks for the next datagram and returns a private copy.
func (l *Listener) ReadDatagram(ctx context.Context) (*Datagram, error) {
	n, from, err := l.receiver.Receive(ctx, l.buf[:MaxDatagramSize])
	if err != nil {
		return nil, err
	}
	d := &Datagram{
		Data:       make([]byte, n),
		From:       from,
		ReceivedAt: l.now(),
	}
	copy(d.Data, l.buf[:n])
	return d, nil
}

// Decode injects the receipt headers and decodes the datagram.
func (l *Listener) Decode(d *Datagram) (*event.Event, error) {
	n := copy(l.buf, d.Data)
	ip := d.From.Addr().Unmap()
	if !ip.Is4() {
		ip = netip.IPv4Unspecified()
	}
	n, err := event.AddReceiptHeaders(l.buf, n, d.ReceivedAt.UnixMilli(), ip, d.From.Port())
	if err != nil {
		return nil, err
	}
	return event.Decode(l.buf[:n], l.schema)
}

// Next returns the next event. The datagram is returned alongside any
// decode error so callers can still record what arrived.
func (l *Listener) Next(ctx context.Context) (*event.Event, *Datagram, error) {
	d, err := l.ReadDatagram(ctx)
	if err != nil {
		return nil, nil, err
	}
	e, err := l.Decode(d)
	if err != nil {
		l.logger.Debug("failed to decode datagram",
			zap.String("sender", d.From.String()),
			zap.Int("bytes", len(d.Data)),
			zap.Error(err))
		return nil, d, fmt.Errorf("datagram from %s: %w", d.From, err)
	}
	return e, d, nil
}

// Close closes the receiver when it is an io.Closer
func (l *Listener) Close() error {
	if closer, ok := l.receiver.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
