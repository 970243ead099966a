package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"time"

	"golang.org/x/net/ipv4"
)

// UDPSender writes events to a fixed unicast or multicast destination.
type UDPSender struct {
	conn *net.UDPConn
	dst  netip.AddrPort
}

// NewUDPSender opens an unbound socket aimed at the configured destination.
// For multicast groups the TTL and outgoing interface are applied and
// loopback stays enabled so local listeners see the traffic.
func NewUDPSender(config Config) (*UDPSender, error) {
	dst, err := config.endpoint()
	if err != nil {
		return nil, err
	}
	if dst.Port() == 0 {
		return nil, fmt.Errorf("destination %s has no port", dst.Addr())
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, err
	}

	if dst.Addr().IsMulticast() {
		pc := ipv4.NewPacketConn(conn)
		if config.TTL > 0 {
			if err := pc.SetMulticastTTL(config.TTL); err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("failed to set multicast ttl: %w", err)
			}
		}
		ifi, err := config.iface()
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		if ifi != nil {
			if err := pc.SetMulticastInterface(ifi); err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("failed to set multicast interface: %w", err)
			}
		}
		if err := pc.SetMulticastLoopback(true); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to enable multicast loopback: %w", err)
		}
	}

	return &UDPSender{conn: conn, dst: dst}, nil
}

// Send writes data as one datagram.
func (s *UDPSender) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(data) > MaxDatagramSize {
		return fmt.Errorf("%d bytes: %w", len(data), ErrTooLarge)
	}
	if err := s.conn.SetWriteDeadline(deadline(ctx, 0)); err != nil {
		return err
	}
	n, err := s.conn.WriteToUDPAddrPort(data, s.dst)
	if err != nil {
		return err
	}
	if n != len(data) {
		return ErrShortWrite
	}
	return nil
}

// Destination returns where datagrams are sent
func (s *UDPSender) Destination() netip.AddrPort {
	return s.dst
}

// Close closes the socket
func (s *UDPSender) Close() error {
	return s.conn.Close()
}

// UDPReceiver reads datagrams from a bound port, joining the group first
// when the configured address is multicast.
type UDPReceiver struct {
	conn    *net.UDPConn
	pc      *ipv4.PacketConn
	group   *net.UDPAddr
	ifi     *net.Interface
	timeout time.Duration
}

// NewUDPReceiver binds the configured port.
func NewUDPReceiver(config Config) (*UDPReceiver, error) {
	local, err := config.endpoint()
	if err != nil {
		return nil, err
	}

	r := &UDPReceiver{timeout: config.ReceiveTimeout}

	if local.Addr().IsMulticast() {
		r.ifi, err = config.iface()
		if err != nil {
			return nil, err
		}
		r.conn, err = net.ListenUDP("udp4", &net.UDPAddr{Port: int(local.Port())})
		if err != nil {
			return nil, err
		}
		r.pc = ipv4.NewPacketConn(r.conn)
		r.group = &net.UDPAddr{IP: net.IP(local.Addr().AsSlice())}
		if err := r.pc.JoinGroup(r.ifi, r.group); err != nil {
			_ = r.conn.Close()
			return nil, fmt.Errorf("failed to join group %s: %w", local.Addr(), err)
		}
	} else {
		r.conn, err = net.ListenUDP("udp4", net.UDPAddrFromAddrPort(local))
		if err != nil {
			return nil, err
		}
	}

	if config.BufferSize > 0 {
		if err := r.conn.SetReadBuffer(config.BufferSize); err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("failed to set receive buffer: %w", err)
		}
	}

	return r, nil
}

// Receive blocks for the next datagram. It returns ctx.Err() once the
// context is done and ErrTimeout when the receive timeout elapses first.
// Datagrams longer than buf are truncated by the kernel.
func (r *UDPReceiver) Receive(ctx context.Context, buf []byte) (int, netip.AddrPort, error) {
	if err := ctx.Err(); err != nil {
		return 0, netip.AddrPort{}, err
	}
	if err := r.conn.SetReadDeadline(deadline(ctx, r.timeout)); err != nil {
		return 0, netip.AddrPort{}, err
	}

	// Unblock the read when the context is cancelled without a deadline.
	stop := context.AfterFunc(ctx, func() {
		_ = r.conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	n, from, err := r.conn.ReadFromUDPAddrPort(buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, netip.AddrPort{}, ctxErr
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			// the socket deadline can fire just before the context notices
			if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
				return 0, netip.AddrPort{}, context.DeadlineExceeded
			}
			return 0, netip.AddrPort{}, ErrTimeout
		}
		return 0, netip.AddrPort{}, err
	}
	return n, netip.AddrPortFrom(from.Addr().Unmap(), from.Port()), nil
}

// LocalAddr returns the bound address, useful when the port was 0
func (r *UDPReceiver) LocalAddr() netip.AddrPort {
	return r.conn.LocalAddr().(*net.UDPAddr).AddrPort()
}

// Close leaves the multicast group, if any, and closes the socket
func (r *UDPReceiver) Close() error {
	if r.pc != nil {
		_ = r.pc.LeaveGroup(r.ifi, r.group)
	}
	return r.conn.Close()
}
