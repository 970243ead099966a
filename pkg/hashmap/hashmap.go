// Package hashmap implements the string-keyed chained hash map that backs
// event attribute storage.
//
// The bin count is fixed at construction and the table never resizes.
// Enumeration works on a snapshot: the number of keys an Enumerator yields
// is fixed when it is created.
//
// A Map is not safe for concurrent use.
package hashmap

import (
	"errors"

	"github.com/spaolacci/murmur3"
)

// DefaultBins is the bin count used when Config.Bins is zero
const DefaultBins = 31

var (
	// ErrNotEmpty is returned by Close while entries remain
	ErrNotEmpty = errors.New("hashmap: map is not empty")
	// ErrClosed is returned when writing to a closed map
	ErrClosed = errors.New("hashmap: map is closed")
)

// HashFunc maps a key to a hash value; the map reduces it modulo the bin count
type HashFunc func(key string) uint32

// SumOfSquares sums the squares of the key's byte values
func SumOfSquares(key string) uint32 {
	var h uint32
	for i := 0; i < len(key); i++ {
		c := uint32(key[i])
		h += c * c
	}
	return h
}

// Murmur3 hashes the key with 32-bit murmur3. It spreads similar attribute
// names across bins better than SumOfSquares, at a higher per-call cost.
func Murmur3(key string) uint32 {
	return murmur3.Sum32([]byte(key))
}

// Config holds configuration for a Map
type Config struct {
	Bins int      // Number of bins, DefaultBins if zero
	Hash HashFunc // Hash function, SumOfSquares if nil
}

type entry[V any] struct {
	key   string
	value V
	next  *entry[V]
}

// Map is a chained hash map from string keys to values of type V
type Map[V any] struct {
	bins   []*entry[V]
	count  int
	hash   HashFunc
	closed bool
}

// New creates an empty map
func New[V any](config Config) *Map[V] {
	bins := config.Bins
	if bins <= 0 {
		bins = DefaultBins
	}
	hash := config.Hash
	if hash == nil {
		hash = SumOfSquares
	}
	return &Map[V]{
		bins: make([]*entry[V], bins),
		hash: hash,
	}
}

func (m *Map[V]) bin(key string) int {
	return int(m.hash(key) % uint32(len(m.bins)))
}

func (m *Map[V]) find(key string) *entry[V] {
	if m.closed {
		return nil
	}
	for e := m.bins[m.bin(key)]; e != nil; e = e.next {
		if e.key == key {
			return e
		}
	}
	return nil
}

// Put stores value under key. If the key was already present its value
// is replaced in place, the original key is kept, and the previous value
// is returned with replaced set to true.
func (m *Map[V]) Put(key string, value V) (prev V, replaced bool, err error) {
	if m.closed {
		return prev, false, ErrClosed
	}
	if e := m.find(key); e != nil {
		prev, e.value = e.value, value
		return prev, true, nil
	}
	b := m.bin(key)
	m.bins[b] = &entry[V]{key: key, value: value, next: m.bins[b]}
	m.count++
	return prev, false, nil
}

// Get returns the value stored under key
func (m *Map[V]) Get(key string) (V, bool) {
	if e := m.find(key); e != nil {
		return e.value, true
	}
	var zero V
	return zero, false
}

// Contains reports whether key is present
func (m *Map[V]) Contains(key string) bool {
	return m.find(key) != nil
}

// Remove deletes key and returns the value it held
func (m *Map[V]) Remove(key string) (V, bool) {
	var zero V
	if m.closed {
		return zero, false
	}
	b := m.bin(key)
	for link := &m.bins[b]; *link != nil; link = &(*link).next {
		if e := *link; e.key == key {
			*link = e.next
			m.count--
			return e.value, true
		}
	}
	return zero, false
}

// Len returns the number of entries
func (m *Map[V]) Len() int {
	return m.count
}

// Clear removes every entry
func (m *Map[V]) Clear() {
	if m.closed {
		return
	}
	clear(m.bins)
	m.count = 0
}

// Close releases the table. It refuses to close a map that still holds
// entries; callers must empty it first.
func (m *Map[V]) Close() error {
	if m.closed {
		return nil
	}
	if m.count > 0 {
		return ErrNotEmpty
	}
	m.bins = nil
	m.closed = true
	return nil
}

// Keys returns an enumerator over the keys present right now
func (m *Map[V]) Keys() *Enumerator {
	keys := make([]string, 0, m.count)
	for _, head := range m.bins {
		for e := head; e != nil; e = e.next {
			keys = append(keys, e.key)
		}
	}
	return &Enumerator{keys: keys}
}

// Enumerator walks a snapshot of a map's keys in bin order, then chain
// order within a bin. It yields exactly as many keys as the map held when
// the enumerator was created, regardless of later changes to the map.
type Enumerator struct {
	keys []string
	pos  int
}

// Next returns the next key, or false once the snapshot is exhausted
func (en *Enumerator) Next() (string, bool) {
	if en.pos >= len(en.keys) {
		return "", false
	}
	k := en.keys[en.pos]
	en.pos++
	return k, true
}

// Len returns the number of keys in the snapshot
func (en *Enumerator) Len() int {
	return len(en.keys)
}
