// Package cache keeps recently used encoded records in memory. It never
// owns data: callers write the record to storage first and then Set it
// here, so dropping the cache at any moment loses nothing.
package cache

import (
	"go-btreedb/util/helpers"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
)

const minCounters = 1024

// New returns a cache holding at most maxCost bytes of records.
func New(maxCost int64) (*Cache, error) {
	if maxCost <= 0 {
		return nil, errors.Errorf("invalid cache size %d", maxCost)
	}

	c, err := ristretto.NewCache(&ristretto.Config[uint64, []byte]{
		// ~10 counters per expected entry, entries assumed >= 64 bytes
		NumCounters:        helpers.Max(maxCost/64*10, minCounters),
		MaxCost:            maxCost,
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create record cache")
	}

	return &Cache{c: c}, nil
}

// Cache maps record ids to their encoded bytes.
type Cache struct {
	c *ristretto.Cache[uint64, []byte]
}

func (c *Cache) Get(id uint64) ([]byte, bool) {
	return c.c.Get(id)
}

// Set stores the record and waits until it is visible to Get. The record
// may still be rejected by the admission policy.
func (c *Cache) Set(id uint64, d []byte) {
	c.c.Set(id, d, int64(len(d)))
	c.c.Wait()
}

func (c *Cache) Del(id uint64) {
	c.c.Del(id)
}

func (c *Cache) Clear() {
	c.c.Clear()
}

// Stats returns hit and miss counters since creation.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.c.Metrics.Hits(), c.c.Metrics.Misses()
}

func (c *Cache) Close() {
	c.c.Close()
}
