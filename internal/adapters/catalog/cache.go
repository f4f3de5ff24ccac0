package catalog

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Cache stores raw catalog responses by query.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
}

// BadgerCache persists responses on disk across runs.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadgerCache opens (or creates) a cache directory. A zero ttl keeps
// entries forever.
func OpenBadgerCache(dir string, ttl time.Duration) (*BadgerCache, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open catalog cache: %w", err)
	}
	return &BadgerCache{db: db, ttl: ttl}, nil
}

// Get returns a cached response.
func (c *BadgerCache) Get(key string) ([]byte, bool) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false
	}
	return out, true
}

// Set stores a response.
func (c *BadgerCache) Set(key string, value []byte) error {
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Close flushes and closes the cache.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}
