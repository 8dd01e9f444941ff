// Package btree implements a B+ tree whose nodes live behind a NodeStore,
// either in memory or paged one record per node to a directory.
package btree

import (
	"fmt"
	"sync"

	"go-btreedb/util/helpers"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Tree is a B+ tree of minimum degree t: every node other than the root
// holds between t-1 and 2t-1 keys. Values live in the leaves only, and
// leaves are chained left to right. Duplicate keys are allowed; each insert
// creates a distinct entry.
type Tree[K, V any] struct {
	degree int
	store  NodeStore[K, V]
	cmp    func(a, b K) int
	mu     *sync.RWMutex
	meta   Meta
}

// New returns a tree over a naturally ordered key type.
func New[K constraints.Ordered, V any](degree int, store NodeStore[K, V]) (*Tree[K, V], error) {
	return NewFunc(degree, store, helpers.Compare[K])
}

// NewFunc returns a tree ordering keys with cmp, which must return a
// negative number, zero or a positive number like strings.Compare. If the
// store holds no tree yet an empty root leaf is created.
func NewFunc[K, V any](degree int, store NodeStore[K, V], cmp func(a, b K) int) (*Tree[K, V], error) {
	if degree < 2 {
		return nil, errors.Wrapf(ErrInvalidDegree, "got %d", degree)
	}

	meta, err := store.Meta()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tree metadata")
	}

	if meta.Degree != 0 && meta.Degree != degree {
		return nil, errors.Wrapf(ErrDegreeMismatch, "store has %d, got %d", meta.Degree, degree)
	}
	meta.Degree = degree

	t := &Tree[K, V]{
		degree: degree,
		store:  store,
		cmp:    cmp,
		mu:     &sync.RWMutex{},
		meta:   meta,
	}

	if t.meta.Root == nil {
		if err := t.bootstrap(); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// bootstrap creates an empty root leaf and records it as the first leaf.
func (t *Tree[K, V]) bootstrap() error {
	h, err := t.store.Save(newNode[K, V](true))
	if err != nil {
		return errors.Wrap(err, "failed to create root")
	}

	t.meta.Root = h
	t.meta.FirstLeaf = h
	return t.saveMeta()
}

func (t *Tree[K, V]) Degree() int { return t.degree }

// Search returns the value of the oldest entry with key k.
func (t *Tree[K, V]) Search(k K) (V, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var zero V
	leaf, idx, found, err := t.findFirst(k)
	if err != nil || !found {
		return zero, false, err
	}
	return leaf.values[idx], true, nil
}

// UpdateValue overwrites the value of the oldest entry with key k. Only the
// leaf holding the entry is written.
func (t *Tree[K, V]) UpdateValue(k K, v V) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkEntry(k, v); err != nil {
		return false, err
	}

	leaf, idx, found, err := t.findFirst(k)
	if err != nil || !found {
		return false, err
	}

	leaf.values[idx] = v
	if _, err := t.store.Save(leaf); err != nil {
		return false, errors.Wrap(err, "failed to save leaf")
	}
	return true, nil
}

// Min returns the smallest entry.
func (t *Tree[K, V]) Min() (K, V, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var (
		zeroK K
		zeroV V
	)

	leaf, err := t.load(t.meta.FirstLeaf)
	if err != nil {
		return zeroK, zeroV, false, err
	}
	if len(leaf.keys) == 0 {
		return zeroK, zeroV, false, nil
	}
	return leaf.keys[0].key, leaf.values[0], true, nil
}

// Max returns the largest entry, descending along the rightmost path.
func (t *Tree[K, V]) Max() (K, V, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var (
		zeroK K
		zeroV V
	)

	n, err := t.load(t.meta.Root)
	if err != nil {
		return zeroK, zeroV, false, err
	}

	for !n.leaf {
		if n, err = t.load(n.children[len(n.children)-1]); err != nil {
			return zeroK, zeroV, false, err
		}
	}

	if len(n.keys) == 0 {
		return zeroK, zeroV, false, nil
	}
	last := len(n.keys) - 1
	return n.keys[last].key, n.values[last], true, nil
}

// DeleteAll drops every node of the tree and starts over with an empty
// root leaf.
func (t *Tree[K, V]) DeleteAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Clear(); err != nil {
		return errors.Wrap(err, "failed to clear store")
	}

	t.meta = Meta{Degree: t.degree}
	return t.bootstrap()
}

func (t *Tree[K, V]) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.store.Close()
}

func (t *Tree[K, V]) String() string {
	count, err := t.CountAll()
	if err != nil {
		return fmt.Sprintf("Tree{degree=%d, err=%v}", t.degree, err)
	}
	return fmt.Sprintf("Tree{degree=%d, count=%d, root=%v}", t.degree, count, t.meta.Root)
}

// findLeaf descends to the leaf that would hold target and returns the
// position of the first entry not less than target. The position is past
// the end of the leaf only when no such entry exists in the whole tree.
func (t *Tree[K, V]) findLeaf(target entryKey[K]) (*Node[K, V], int, error) {
	n, err := t.load(t.meta.Root)
	if err != nil {
		return nil, 0, err
	}

	for !n.leaf {
		if n, err = t.load(n.children[n.childIndex(target, t.compare)]); err != nil {
			return nil, 0, err
		}
	}

	idx, _ := n.search(target, t.compare)
	if idx == len(n.keys) && n.next != nil {
		// the first entry >= target may open the next leaf
		if n, err = t.load(n.next); err != nil {
			return nil, 0, err
		}
		idx = 0
	}

	return n, idx, nil
}

// findFirst locates the oldest entry with key k.
func (t *Tree[K, V]) findFirst(k K) (*Node[K, V], int, bool, error) {
	leaf, idx, err := t.findLeaf(entryKey[K]{key: k})
	if err != nil {
		return nil, 0, false, err
	}

	found := idx < len(leaf.keys) && t.cmp(leaf.keys[idx].key, k) == 0
	return leaf, idx, found, nil
}

func (t *Tree[K, V]) compare(a, b entryKey[K]) int {
	if c := t.cmp(a.key, b.key); c != 0 {
		return c
	}
	return helpers.Compare(a.seq, b.seq)
}

func (t *Tree[K, V]) load(h Handle) (*Node[K, V], error) {
	if h == nil {
		return nil, errors.Wrap(ErrInvariantViolation, "nil node handle")
	}
	return t.store.Load(h)
}

// loadIn is load for nodes that may already be part of b.
func (t *Tree[K, V]) loadIn(b *batch[K, V], h Handle) (*Node[K, V], error) {
	if n, ok := b.byH[h]; ok {
		return n, nil
	}
	return t.load(h)
}

func (t *Tree[K, V]) checkEntry(k K, v V) error {
	if c, ok := t.store.(EntryChecker[K, V]); ok {
		return c.CheckEntry(k, v)
	}
	return nil
}

// batch collects the nodes touched by one operation so that each of them
// is written once, when the operation is done. Until then the store holds
// stale copies, so touched nodes must be loaded through the batch.
type batch[K, V any] struct {
	nodes   []*Node[K, V]
	keep    map[*Node[K, V]]bool
	byH     map[Handle]*Node[K, V]
	dropped []Handle
}

func newBatch[K, V any]() *batch[K, V] {
	return &batch[K, V]{
		keep: map[*Node[K, V]]bool{},
		byH:  map[Handle]*Node[K, V]{},
	}
}

func (b *batch[K, V]) touch(nodes ...*Node[K, V]) {
	for _, n := range nodes {
		if _, ok := b.keep[n]; !ok {
			b.nodes = append(b.nodes, n)
			b.keep[n] = true
			b.byH[n.handle] = n
		}
	}
}

// drop schedules the node for deletion instead of a write.
func (b *batch[K, V]) drop(n *Node[K, V]) {
	b.keep[n] = false
	b.dropped = append(b.dropped, n.handle)
}

// commit writes the batch and then the tree metadata.
func (t *Tree[K, V]) commit(b *batch[K, V]) error {
	for _, n := range b.nodes {
		if !b.keep[n] {
			continue
		}
		if _, err := t.store.Save(n); err != nil {
			return errors.Wrapf(err, "failed to save node %v", n.handle)
		}
	}

	for _, h := range b.dropped {
		if err := t.store.Delete(h); err != nil {
			return errors.Wrapf(err, "failed to drop node %v", h)
		}
	}

	return t.saveMeta()
}

func (t *Tree[K, V]) alloc(n *Node[K, V]) error {
	if _, err := t.store.Alloc(n); err != nil {
		return errors.Wrap(err, "failed to allocate node")
	}
	return nil
}

func (t *Tree[K, V]) saveMeta() error {
	if err := t.store.SetMeta(t.meta); err != nil {
		return errors.Wrap(err, "failed to save tree metadata")
	}
	return nil
}

func (t *Tree[K, V]) maxKeys() int { return 2*t.degree - 1 }
func (t *Tree[K, V]) minKeys() int { return t.degree - 1 }
