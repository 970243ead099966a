package transport

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/ssargent/lwes/pkg/event"
	"go.uber.org/zap"
)

// System event names sent by an emitter about itself.
const (
	StartupEvent   = "System::Startup"
	HeartbeatEvent = "System::Heartbeat"
	ShutdownEvent  = "System::Shutdown"
)

// Heartbeat attribute names.
const (
	FreqAttr  = "freq"
	SeqAttr   = "seq"
	CountAttr = "count"
	TotalAttr = "total"
)

// Emitter serializes events and hands them to a Sender. It can announce
// itself with System::Startup, periodic System::Heartbeat events carrying
// its counters, and System::Shutdown on Close.
//
// Emitter is safe for concurrent use.
type Emitter struct {
	sender Sender
	logger *zap.Logger
	freq   time.Duration

	mutex   sync.Mutex
	buf     []byte
	seq     int64 // heartbeats sent
	count   int64 // events since the last heartbeat
	total   int64 // events since start
	started bool
	closing bool
	closed  bool

	stop chan struct{}
	done chan struct{}
}

// EmitterOption configures an Emitter
type EmitterOption func(*Emitter)

// WithHeartbeat sends a heartbeat every freq once Start is called
func WithHeartbeat(freq time.Duration) EmitterOption {
	return func(e *Emitter) { e.freq = freq }
}

// WithLogger sets the emitter logger
func WithLogger(logger *zap.Logger) EmitterOption {
	return func(e *Emitter) { e.logger = logger }
}

// NewEmitter creates an emitter over sender.
func NewEmitter(sender Sender, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		sender: sender,
		logger: zap.NewNop(),
		buf:    make([]byte, MaxDatagramSize),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start sends System::Startup and, with a heartbeat configured, begins
// sending System::Heartbeat in the background. It may be called once.
func (e *Emitter) Start(ctx context.Context) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.closed || e.closing {
		return event.ErrClosed
	}
	if e.started {
		return ErrAlreadyStarted
	}

	startup := event.New(StartupEvent)
	if e.freq > 0 {
		if _, err := startup.Set(FreqAttr, event.Scalar(e.freqSeconds())); err != nil {
			return err
		}
	}
	if err := e.sendLocked(ctx, startup, false); err != nil {
		return fmt.Errorf("failed to send startup event: %w", err)
	}
	e.started = true

	if e.freq > 0 {
		e.stop = make(chan struct{})
		e.done = make(chan struct{})
		go e.heartbeatLoop(e.stop, e.done)
	}
	return nil
}

func (e *Emitter) heartbeatLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.freq)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := e.Heartbeat(context.Background()); err != nil {
				e.logger.Warn("heartbeat failed", zap.Error(err))
			}
		}
	}
}

// Emit serializes ev and sends it.
func (e *Emitter) Emit(ctx context.Context, ev *event.Event) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.closed {
		return event.ErrClosed
	}
	return e.sendLocked(ctx, ev, true)
}

// EmitBytes sends an already serialized event.
func (e *Emitter) EmitBytes(ctx context.Context, data []byte) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.closed {
		return event.ErrClosed
	}
	if err := e.sender.Send(ctx, data); err != nil {
		return err
	}
	e.count++
	e.total++
	return nil
}

// sendLocked serializes ev into the shared buffer and sends it. Counted
// events contribute to the heartbeat counters; system events do not. The
// caller holds the mutex.
func (e *Emitter) sendLocked(ctx context.Context, ev *event.Event, counted bool) error {
	n, err := ev.ToBytes(e.buf, 0)
	if err != nil {
		return err
	}
	if err := e.sender.Send(ctx, e.buf[:n]); err != nil {
		return err
	}
	if counted {
		e.count++
		e.total++
	}
	e.logger.Debug("event sent", zap.String("event", ev.Name()), zap.Int("bytes", n))
	return nil
}

// Heartbeat sends System::Heartbeat now and resets the per-interval count.
// The counters are read, sent and reset under one lock so no concurrent
// Emit falls between two heartbeats.
func (e *Emitter) Heartbeat(ctx context.Context) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.closed {
		return event.ErrClosed
	}

	if err := e.sendLocked(ctx, e.counters(HeartbeatEvent, e.seq+1), false); err != nil {
		return err
	}
	e.seq++
	e.count = 0
	return nil
}

// counters builds a system event carrying the current counters. The
// caller holds the mutex.
func (e *Emitter) counters(name string, seq int64) *event.Event {
	ev := event.New(name)
	// Names and values here always satisfy Set's checks.
	_, _ = ev.Set(FreqAttr, event.Scalar(e.freqSeconds()))
	_, _ = ev.Set(SeqAttr, event.Scalar(seq))
	_, _ = ev.Set(CountAttr, event.Scalar(e.count))
	_, _ = ev.Set(TotalAttr, event.Scalar(e.total))
	return ev
}

// freqSeconds is the heartbeat frequency as sent on the wire
func (e *Emitter) freqSeconds() uint16 {
	secs := e.freq / time.Second
	if secs > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(secs)
}

// Stats returns the heartbeat sequence, events since the last heartbeat
// and events since start.
func (e *Emitter) Stats() (seq, count, total int64) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.seq, e.count, e.total
}

// Close stops the heartbeat, sends System::Shutdown and closes the
// sender when it is an io.Closer. Only the first call does any work.
func (e *Emitter) Close(ctx context.Context) error {
	e.mutex.Lock()
	if e.closed || e.closing {
		e.mutex.Unlock()
		return nil
	}
	e.closing = true
	stop, done := e.stop, e.done
	e.mutex.Unlock()

	// the loop takes the mutex for each heartbeat, so it is stopped unlocked
	if stop != nil {
		close(stop)
		<-done
	}

	e.mutex.Lock()
	sendErr := e.sendLocked(ctx, e.counters(ShutdownEvent, e.seq), false)
	e.closed = true
	e.mutex.Unlock()

	if closer, ok := e.sender.(io.Closer); ok {
		if err := closer.Close(); err != nil && sendErr == nil {
			return err
		}
	}
	return sendErr
}
