// Package history keeps the most recent captured requests in memory.
//
// DESIGN: A fixed-capacity ring buffer. Append is the only way in; once the
// buffer is full each append overwrites the oldest record, one per append.
// Oldest-first iteration order is part of the contract.
//
// The store is guarded by a mutex so concurrent captures stay atomic, even
// though the capture path itself is synchronous.
package history

import (
	"sync"

	"github.com/normalform/request-capture/capture"
)

// DefaultSize is the history capacity used when none is configured.
const DefaultSize = 3

// Store is a bounded FIFO of captured requests.
type Store struct {
	mu      sync.Mutex
	records []capture.Record // ring buffer, len == capacity
	head    int              // index of the oldest record
	count   int
}

// New creates a store holding at most size records. A size below 1 falls
// back to DefaultSize.
func New(size int) *Store {
	if size < 1 {
		size = DefaultSize
	}
	return &Store{records: make([]capture.Record, size)}
}

// Append adds rec as the newest record, evicting the oldest one when the
// store is already full. O(1).
func (s *Store) Append(rec capture.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count < len(s.records) {
		s.records[(s.head+s.count)%len(s.records)] = rec
		s.count++
		return
	}
	s.records[s.head] = rec
	s.head = (s.head + 1) % len(s.records)
}

// Snapshot returns a copy of all current records, oldest first. Mutating
// the returned slice does not affect the store.
func (s *Store) Snapshot() []capture.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]capture.Record, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = s.records[(s.head+i)%len(s.records)]
	}
	return out
}

// Last returns the newest record. The second return value is false when the
// store is empty.
func (s *Store) Last() (capture.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 {
		return capture.Record{}, false
	}
	return s.records[(s.head+s.count-1)%len(s.records)], true
}

// Clear removes all records immediately.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Drop references so evicted payloads can be collected.
	for i := range s.records {
		s.records[i] = capture.Record{}
	}
	s.head = 0
	s.count = 0
}

// Len returns the number of records currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.count
}

// Cap returns the configured maximum length.
func (s *Store) Cap() int {
	return len(s.records)
}

// Ensure Store satisfies the capture sink contract.
var _ capture.Sink = (*Store)(nil)
