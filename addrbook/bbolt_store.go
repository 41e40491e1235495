// Package addrbook is the concrete, persistent collab.AddressBook: a
// bbolt-backed bucket of signed peeraddr.PeerAddress records keyed by peer
// id, with an in-process LRU read-through cache in front of it. Shape
// (bolt.Open(path, 0o600, &bolt.Options{Timeout: ...}), bucket-per-concern)
// is carried directly from the teacher's node/store/db.go.
package addrbook

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	bolt "go.etcd.io/bbolt"

	"rubin.dev/peeragent/peeraddr"
)

var bucketAddresses = []byte("peer_addresses_by_id")

// Store is a bbolt-backed collab.AddressBook.
type Store struct {
	db    *bolt.DB
	cache *lru.Cache[peeraddr.PeerID, peeraddr.PeerAddress]
}

// Open opens (creating if absent) the bbolt database at
// filepath.Join(datadir, "addrbook.db") and wraps it with a cacheSize-entry
// LRU read-through cache.
func Open(datadir string, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = 4096
	}
	path := filepath.Join(datadir, "addrbook.db")
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("addrbook: open bbolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAddresses)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("addrbook: create bucket: %w", err)
	}
	cache, err := lru.New[peeraddr.PeerID, peeraddr.PeerAddress](cacheSize)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("addrbook: new cache: %w", err)
	}
	return &Store{db: db, cache: cache}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get implements collab.AddressBook.
func (s *Store) Get(id peeraddr.PeerID) (peeraddr.PeerAddress, bool) {
	if addr, ok := s.cache.Get(id); ok {
		return addr, true
	}
	var out peeraddr.PeerAddress
	found := false
	_ = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAddresses)
		raw := b.Get(id[:])
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
		found = true
		return nil
	})
	if found {
		s.cache.Add(id, out)
	}
	return out, found
}

// Query implements collab.AddressBook.
func (s *Store) Query(protocolMask []peeraddr.Protocol, serviceMask peeraddr.Services, maxCount int) []peeraddr.PeerAddress {
	allowed := make(map[peeraddr.Protocol]bool, len(protocolMask))
	for _, p := range protocolMask {
		allowed[p] = true
	}
	var out []peeraddr.PeerAddress
	_ = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAddresses)
		c := b.Cursor()
		for k, raw := c.First(); k != nil && len(out) < maxCount; k, raw = c.Next() {
			var addr peeraddr.PeerAddress
			if err := json.Unmarshal(raw, &addr); err != nil {
				continue
			}
			if len(allowed) > 0 && !allowed[addr.Protocol] {
				continue
			}
			if !addr.Services.Has(serviceMask) {
				continue
			}
			out = append(out, addr)
			s.cache.Add(addr.ID, addr)
		}
		return nil
	})
	return out
}

// Add implements collab.AddressBook. source is ignored: it is neither
// logged nor persisted.
func (s *Store) Add(source string, list []peeraddr.PeerAddress) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAddresses)
		for _, addr := range list {
			raw, err := json.Marshal(addr)
			if err != nil {
				return fmt.Errorf("addrbook: marshal %s: %w", addr.ID, err)
			}
			if err := b.Put(addr.ID[:], raw); err != nil {
				return fmt.Errorf("addrbook: put %s: %w", addr.ID, err)
			}
			s.cache.Add(addr.ID, addr)
		}
		return nil
	})
}
