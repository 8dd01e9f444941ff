// Package repository stores JSON-encoded records in a tree keyed by record
// id. Ids come from a monotonic counter that resumes after the largest id
// already stored.
package repository

import (
	"encoding/json"
	"sync"

	"go-btreedb/config"
	"go-btreedb/pkg/btree"
	"go-btreedb/util/logger"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Entity is a record with a repository assigned id. Implementations are
// pointer types so that decoding can fill them in.
type Entity interface {
	ID() uint64
	SetID(id uint64)
}

type Repository[E Entity] struct {
	tree   *btree.Tree[uint64, json.RawMessage]
	newFn  func() E
	mu     *sync.Mutex
	nextID uint64
	log    *logrus.Entry
}

// Open opens a repository backed by a paged tree as described by cfg.
func Open[E Entity](cfg *config.StoreConfig, newFn func() E) (*Repository[E], error) {
	store, err := btree.OpenPagedStore[uint64, json.RawMessage](
		cfg.Dir,
		cfg.MetaFile,
		&btree.PagedOptions{CacheSize: cfg.CacheSize},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open store at '%s'", cfg.Dir)
	}

	tree, err := btree.New[uint64, json.RawMessage](cfg.Degree, store)
	if err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "failed to open tree")
	}

	return New(tree, newFn)
}

// NewMemory returns a repository whose tree lives in memory only.
func NewMemory[E Entity](degree int, newFn func() E) (*Repository[E], error) {
	tree, err := btree.New[uint64, json.RawMessage](degree, btree.NewMemoryStore[uint64, json.RawMessage]())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tree")
	}
	return New(tree, newFn)
}

// New wraps an existing tree. newFn must return a fresh, non-nil record to
// decode into.
func New[E Entity](tree *btree.Tree[uint64, json.RawMessage], newFn func() E) (*Repository[E], error) {
	r := &Repository[E]{
		tree:   tree,
		newFn:  newFn,
		mu:     &sync.Mutex{},
		nextID: 1,
		log:    logger.For("repository"),
	}

	last, _, found, err := tree.Max()
	if err != nil {
		return nil, errors.Wrap(err, "failed to find last id")
	}
	if found {
		r.nextID = last + 1
	}

	r.log.WithField("next_id", r.nextID).Debug("seeded id allocator")
	return r, nil
}

// Add assigns the record a new id and stores it.
func (r *Repository[E]) Add(e E) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	e.SetID(id)

	d, err := json.Marshal(e)
	if err != nil {
		return 0, errors.Wrap(err, "failed to encode record")
	}

	if err := r.tree.Insert(id, d); err != nil {
		return 0, errors.Wrapf(err, "failed to add record %d", id)
	}

	r.nextID++
	return id, nil
}

// Update replaces the stored record with the same id.
func (r *Repository[E]) Update(e E) (bool, error) {
	d, err := json.Marshal(e)
	if err != nil {
		return false, errors.Wrap(err, "failed to encode record")
	}

	updated, err := r.tree.UpdateValue(e.ID(), d)
	if err != nil {
		return false, errors.Wrapf(err, "failed to update record %d", e.ID())
	}
	return updated, nil
}

func (r *Repository[E]) GetByID(id uint64) (E, bool, error) {
	var zero E

	d, found, err := r.tree.Search(id)
	if err != nil {
		return zero, false, errors.Wrapf(err, "failed to get record %d", id)
	}
	if !found {
		return zero, false, nil
	}

	e, err := r.decode(d)
	if err != nil {
		return zero, false, err
	}
	return e, true, nil
}

// GetAll returns every record in id order.
func (r *Repository[E]) GetAll() ([]E, error) {
	return r.Filter(func(E) bool { return true })
}

// Filter returns the records satisfying pred in id order.
func (r *Repository[E]) Filter(pred func(e E) bool) ([]E, error) {
	result := []E{}

	err := r.tree.Scan(func(_ uint64, d json.RawMessage) (bool, error) {
		e, err := r.decode(d)
		if err != nil {
			return false, err
		}

		if pred(e) {
			result = append(result, e)
		}
		return true, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan records")
	}

	return result, nil
}

func (r *Repository[E]) Delete(id uint64) (bool, error) {
	deleted, err := r.tree.Delete(id)
	if err != nil {
		return false, errors.Wrapf(err, "failed to delete record %d", id)
	}
	return deleted, nil
}

// DeleteAll removes every record. Ids keep counting from where they were.
func (r *Repository[E]) DeleteAll() error {
	if err := r.tree.DeleteAll(); err != nil {
		return errors.Wrap(err, "failed to delete records")
	}
	return nil
}

func (r *Repository[E]) Count() (int, error) {
	return r.tree.CountAll()
}

func (r *Repository[E]) Close() error {
	return r.tree.Close()
}

func (r *Repository[E]) decode(d json.RawMessage) (E, error) {
	e := r.newFn()
	if err := json.Unmarshal(d, e); err != nil {
		var zero E
		return zero, errors.Wrap(err, "failed to decode record")
	}
	return e, nil
}
