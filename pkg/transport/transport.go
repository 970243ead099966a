// Package transport moves serialized events over UDP.
//
// One datagram carries exactly one event. Senders and receivers work with
// unicast and IPv4 multicast destinations; the multicast controls (group
// membership, TTL, outgoing interface) go through golang.org/x/net/ipv4.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"
)

// MaxDatagramSize is the largest event a single datagram carries
const MaxDatagramSize = 65535

// Sender transmits one serialized event per call.
type Sender interface {
	Send(ctx context.Context, data []byte) error
}

// Receiver reads one datagram into buf and reports who sent it.
type Receiver interface {
	Receive(ctx context.Context, buf []byte) (int, netip.AddrPort, error)
}

// Compile-time interface checks.
var (
	_ Sender   = (*UDPSender)(nil)
	_ Receiver = (*UDPReceiver)(nil)
)

var (
	// ErrTimeout is returned by Receive when the receive timeout elapses
	ErrTimeout = errors.New("receive timed out")
	// ErrShortWrite is returned when the kernel accepted fewer bytes than the datagram
	ErrShortWrite = errors.New("short datagram write")
	// ErrTooLarge is returned for payloads that cannot fit in one datagram
	ErrTooLarge = errors.New("datagram too large")
	// ErrAlreadyStarted is returned by a second Emitter.Start
	ErrAlreadyStarted = errors.New("emitter already started")
)

// Config describes one UDP endpoint.
type Config struct {
	Address        string        // unicast host or IPv4 multicast group
	Port           int           // UDP port, 0 picks one when receiving
	Interface      string        // network interface name for multicast, empty for the default route
	TTL            int           // multicast hop limit, 0 leaves the system default
	ReceiveTimeout time.Duration // 0 blocks until the context is done
	BufferSize     int           // socket receive buffer, 0 leaves the system default
}

// endpoint resolves Address and Port into an IPv4 address and port.
func (c Config) endpoint() (netip.AddrPort, error) {
	if c.Port < 0 || c.Port > 65535 {
		return netip.AddrPort{}, fmt.Errorf("invalid port %d", c.Port)
	}
	host := c.Address
	if host == "" {
		host = "0.0.0.0"
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		ips, lookupErr := net.DefaultResolver.LookupNetIP(context.Background(), "ip4", host)
		if lookupErr != nil || len(ips) == 0 {
			return netip.AddrPort{}, fmt.Errorf("failed to resolve %q: %w", host, lookupErr)
		}
		addr = ips[0]
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return netip.AddrPort{}, fmt.Errorf("address %s is not IPv4", addr)
	}
	return netip.AddrPortFrom(addr, uint16(c.Port)), nil
}

// iface returns the configured interface, nil for the default.
func (c Config) iface() (*net.Interface, error) {
	if c.Interface == "" {
		return nil, nil
	}
	ifi, err := net.InterfaceByName(c.Interface)
	if err != nil {
		return nil, fmt.Errorf("failed to find interface %q: %w", c.Interface, err)
	}
	return ifi, nil
}

// deadline returns the tighter of the context deadline and timeout.
// A zero result clears any previous deadline.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	var d time.Time
	if timeout > 0 {
		d = time.Now().Add(timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (d.IsZero() || ctxDeadline.Before(d)) {
		d = ctxDeadline
	}
	return d
}
