// Package storage archives received events in pebble.
//
// Keys are KSUIDs minted from the receipt time, so iteration order is
// receipt order at one-second resolution and a time range maps onto a
// key range.
package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
)

// ErrNotFound is returned when no event is stored under an id
var ErrNotFound = errors.New("event not found")

// Archive stores serialized events.
type Archive struct {
	db   *pebble.DB
	sync bool
}

// Options configures an Archive
type Options struct {
	// Sync makes every write durable before returning
	Sync bool
}

// NewArchive opens or creates an archive in dir.
func NewArchive(dir string, opts Options) (*Archive, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return &Archive{db: db, sync: opts.Sync}, nil
}

func (a *Archive) writeOpts() *pebble.WriteOptions {
	if a.sync {
		return pebble.Sync
	}
	return pebble.NoSync
}

// Put stores data received at receivedAt and returns its id.
func (a *Archive) Put(data []byte, receivedAt time.Time) (ksuid.KSUID, error) {
	id, err := ksuid.NewRandomWithTime(receivedAt)
	if err != nil {
		return ksuid.Nil, err
	}
	if err := a.db.Set(id.Bytes(), data, a.writeOpts()); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

// Get returns a copy of the event stored under id.
func (a *Archive) Get(id ksuid.KSUID) ([]byte, error) {
	data, closer, err := a.db.Get(id.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Delete removes the event stored under id
func (a *Archive) Delete(id ksuid.KSUID) error {
	return a.db.Delete(id.Bytes(), a.writeOpts())
}

// Scan calls fn for each event received in [from, to), oldest first.
// The data slice is only valid during the call. Returning an error from
// fn stops the scan and returns that error.
func (a *Archive) Scan(from, to time.Time, fn func(id ksuid.KSUID, data []byte) error) error {
	lower, err := boundary(from)
	if err != nil {
		return err
	}
	upper, err := boundary(to)
	if err != nil {
		return err
	}

	iter, err := a.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			return fmt.Errorf("corrupt archive key: %w", err)
		}
		if err := fn(id, iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Count returns how many events were received in [from, to)
func (a *Archive) Count(from, to time.Time) (int, error) {
	n := 0
	err := a.Scan(from, to, func(ksuid.KSUID, []byte) error {
		n++
		return nil
	})
	return n, err
}

// boundary is the smallest key for events received at t.
func boundary(t time.Time) ([]byte, error) {
	id, err := ksuid.FromParts(t, make([]byte, 16))
	if err != nil {
		return nil, err
	}
	return id.Bytes(), nil
}

// Close flushes and closes the archive
func (a *Archive) Close() error {
	return a.db.Close()
}
