package api

import (
	"net/netip"
)

// Recorder receives listener activity
type Recorder interface {
	RecordDatagram(n int, from netip.AddrPort)
	RecordEvent(name string)
	RecordDecodeFailure(err error)
	RecordSinkWrite(sink string, err error)
}

// SnapshotProvider supplies the data served on /stats
type SnapshotProvider interface {
	Snapshot() Snapshot
}

// Compile-time interface checks.
var (
	_ Recorder         = (*Stats)(nil)
	_ SnapshotProvider = (*Stats)(nil)
)
