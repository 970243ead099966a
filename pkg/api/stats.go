package api

import (
	"net/netip"
	"sync"
	"time"
)

// Sink names used with RecordSinkWrite
const (
	SinkJournal = "journal"
	SinkArchive = "archive"
)

// Stats counts listener activity and mirrors it into Metrics when set.
// It is safe for concurrent use.
type Stats struct {
	metrics *Metrics
	now     func() time.Time

	mutex    sync.Mutex
	snapshot Snapshot
}

// NewStats creates stats starting now. metrics may be nil.
func NewStats(metrics *Metrics) *Stats {
	s := &Stats{metrics: metrics, now: time.Now}
	s.snapshot.StartedAt = s.now()
	s.snapshot.Events = make(map[string]uint64)
	return s
}

// RecordDatagram records a received datagram
func (s *Stats) RecordDatagram(n int, from netip.AddrPort) {
	s.mutex.Lock()
	s.snapshot.Datagrams++
	s.snapshot.Bytes += uint64(n)
	s.snapshot.LastSender = from.String()
	s.mutex.Unlock()

	if s.metrics != nil {
		s.metrics.RecordDatagram(n)
	}
}

// RecordEvent records a decoded event
func (s *Stats) RecordEvent(name string) {
	s.mutex.Lock()
	s.snapshot.Decoded++
	s.snapshot.Events[name]++
	s.snapshot.LastEvent = name
	s.mutex.Unlock()

	if s.metrics != nil {
		s.metrics.RecordEvent(name)
	}
}

// RecordDecodeFailure records a datagram that failed to decode
func (s *Stats) RecordDecodeFailure(err error) {
	s.mutex.Lock()
	s.snapshot.Failed++
	s.snapshot.LastError = err.Error()
	s.mutex.Unlock()

	if s.metrics != nil {
		s.metrics.RecordDecodeFailure(err)
	}
}

// RecordSinkWrite records a journal or archive write; err is nil on success
func (s *Stats) RecordSinkWrite(sink string, err error) {
	s.mutex.Lock()
	switch {
	case err != nil:
		s.snapshot.SinkErrors++
		s.snapshot.LastError = err.Error()
	case sink == SinkJournal:
		s.snapshot.JournalWrites++
	case sink == SinkArchive:
		s.snapshot.ArchiveWrites++
	}
	s.mutex.Unlock()

	if s.metrics != nil {
		s.metrics.RecordSinkWrite(sink, err == nil)
	}
}

// Uptime returns how long the stats have been collecting
func (s *Stats) Uptime() time.Duration {
	return s.now().Sub(s.snapshot.StartedAt).Round(time.Second)
}

// Snapshot returns a copy of the current counters
func (s *Stats) Snapshot() Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	snap := s.snapshot
	snap.Uptime = s.Uptime().String()
	snap.Events = make(map[string]uint64, len(s.snapshot.Events))
	for name, n := range s.snapshot.Events {
		snap.Events[name] = n
	}
	return snap
}
