// Package dedup tracks chunk content hashes so identical content is
// embedded once. Stores are insert-if-absent: the first writer of a hash
// wins, later writers learn which chunk already owns the content.
package dedup

import (
	"encoding/hex"
	"sync"

	"github.com/zeebo/blake3"
)

// Hash computes the Blake3 content hash used for deduplication.
func Hash(content []byte) [32]byte {
	return blake3.Sum256(content)
}

// HashHex returns the hex form of the content hash.
func HashHex(content []byte) string {
	sum := Hash(content)
	return hex.EncodeToString(sum[:])
}

// Store records which chunk first carried a given content hash.
// Implementations must be safe for concurrent use.
type Store interface {
	// Seen returns the chunk ID that first recorded the hash.
	Seen(sum [32]byte) (chunkID string, ok bool)

	// Record stores the hash if absent. It returns true when this call
	// was the first writer.
	Record(sum [32]byte, chunkID string) bool

	// Len returns the number of distinct hashes recorded.
	Len() int

	// Close releases resources. A closed store rejects writes.
	Close() error
}

// MemoryStore is the in-process store used for single-run dedup.
type MemoryStore struct {
	mu     sync.Mutex
	seen   map[[32]byte]string
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[[32]byte]string)}
}

func (s *MemoryStore) Seen(sum [32]byte) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.seen[sum]
	return id, ok
}

func (s *MemoryStore) Record(sum [32]byte, chunkID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if _, ok := s.seen[sum]; ok {
		return false
	}
	s.seen[sum] = chunkID
	return true
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
