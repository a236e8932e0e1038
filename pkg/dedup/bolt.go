package dedup

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/codesplice/codesplice/pkg/types"
)

var dedupBucket = []byte("chunk_hashes")

// BoltStore persists content hashes across runs in a bbolt database.
// bbolt serializes writers internally, so the store is safe for
// concurrent use without extra locking.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the dedup database at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open dedup store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(dedupBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init dedup store: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Seen(sum [32]byte) (string, bool) {
	var id string
	var ok bool
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(dedupBucket).Get(sum[:]); v != nil {
			id = string(v)
			ok = true
		}
		return nil
	})
	return id, ok
}

func (s *BoltStore) Record(sum [32]byte, chunkID string) bool {
	first := false
	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(dedupBucket)
		if b.Get(sum[:]) != nil {
			return nil
		}
		first = true
		return b.Put(sum[:], []byte(chunkID))
	})
	return first
}

func (s *BoltStore) Len() int {
	n := 0
	s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(dedupBucket).Stats().KeyN
		return nil
	})
	return n
}

func (s *BoltStore) Close() error {
	if s.db == nil {
		return types.ErrStoreClosed
	}
	err := s.db.Close()
	s.db = nil
	return err
}
