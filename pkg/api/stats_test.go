package api

import (
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStats_Snapshot(t *testing.T) {
	stats := NewStats(nil)
	start := stats.Snapshot().StartedAt
	stats.now = func() time.Time { return start.Add(90 * time.Second) }

	stats.RecordEvent("A")
	stats.RecordSinkWrite(SinkArchive, nil)
	stats.RecordSinkWrite(SinkJournal, errors.New("disk full"))

	snap := stats.Snapshot()
	assert.Equal(t, "1m30s", snap.Uptime)
	assert.Equal(t, uint64(1), snap.ArchiveWrites)
	assert.Equal(t, uint64(0), snap.JournalWrites)
	assert.Equal(t, uint64(1), snap.SinkErrors)
	assert.Equal(t, "disk full", snap.LastError)

	// snapshots do not alias the live map
	snap.Events["A"] = 100
	assert.Equal(t, uint64(1), stats.Snapshot().Events["A"])
}

func TestStats_Concurrent(t *testing.T) {
	stats := NewStats(NewMetrics())
	from := netip.MustParseAddrPort("127.0.0.1:1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				stats.RecordDatagram(10, from)
				stats.RecordEvent("E")
				_ = stats.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := stats.Snapshot()
	assert.Equal(t, uint64(800), snap.Datagrams)
	assert.Equal(t, uint64(8000), snap.Bytes)
	assert.Equal(t, uint64(800), snap.Events["E"])
}
