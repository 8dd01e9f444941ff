package btree

import (
	"fmt"

	"go-btreedb/pkg/tuple"

	"github.com/pkg/errors"
)

// entryKey is the key a node actually orders by: the user key plus the
// sequence number of the insert that created the entry. Sequence numbers
// start at 1, so {key, 0} sorts before every entry with that key.
type entryKey[K any] struct {
	key K
	seq uint64
}

func (k entryKey[K]) MarshalJSON() ([]byte, error) {
	return tuple.Tag(k.key, k.seq)
}

func (k *entryKey[K]) UnmarshalJSON(d []byte) error {
	items, err := tuple.Items(d)
	if err != nil {
		return err
	}
	if len(items) != 2 {
		return errors.Errorf("entry key must have 2 items, got %d", len(items))
	}

	if k.key, err = tuple.Decode[K](items[0]); err != nil {
		return errors.Wrap(err, "failed to decode key")
	}
	if k.seq, err = tuple.Decode[uint64](items[1]); err != nil {
		return errors.Wrap(err, "failed to decode key sequence")
	}
	return nil
}

// Node is a single page of the tree. Leaves hold entries (keys and values)
// and are chained left to right through next; internal nodes hold routing
// keys and len(keys)+1 children. A Node is only ever handled by the engine
// and its store.
type Node[K, V any] struct {
	handle   Handle
	leaf     bool
	keys     []entryKey[K]
	values   []V
	children []Handle
	next     Handle
}

func newNode[K, V any](leaf bool) *Node[K, V] {
	return &Node[K, V]{
		leaf: leaf,
		keys: make([]entryKey[K], 0),
	}
}

// search performs a binary search for k and returns the index of the first
// key not less than k and whether that key equals k.
func (n *Node[K, V]) search(k entryKey[K], cmp func(a, b entryKey[K]) int) (idx int, found bool) {
	left, right := 0, len(n.keys)-1

	for left <= right {
		idx = (right + left) / 2

		c := cmp(k, n.keys[idx])
		if c == 0 {
			return idx, true
		} else if c > 0 {
			left = idx + 1
		} else {
			right = idx - 1
		}
	}

	return left, false
}

// childIndex returns the child to descend into for k: keys equal to a
// routing key live in its right subtree.
func (n *Node[K, V]) childIndex(k entryKey[K], cmp func(a, b entryKey[K]) int) int {
	idx, found := n.search(k, cmp)
	if found {
		return idx + 1
	}
	return idx
}

func (n *Node[K, V]) insertEntry(idx int, k entryKey[K], v V) {
	n.keys = insertAt(n.keys, idx, k)
	n.values = insertAt(n.values, idx, v)
}

func (n *Node[K, V]) removeEntry(idx int) (entryKey[K], V) {
	k, v := n.keys[idx], n.values[idx]
	n.keys = removeAt(n.keys, idx)
	n.values = removeAt(n.values, idx)
	return k, v
}

func (n *Node[K, V]) String() string {
	s := "{"
	for _, k := range n.keys {
		s += fmt.Sprintf("'%v' ", k.key)
	}
	s += "} "
	s += fmt.Sprintf(
		"[handle=%v, size=%d, leaf=%t, next=%v]",
		n.handle, len(n.keys), n.leaf, n.next,
	)

	return s
}

func insertAt[T any](s []T, idx int, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[idx+1:], s[idx:])
	s[idx] = v
	return s
}

func removeAt[T any](s []T, idx int) []T {
	var zero T
	copy(s[idx:], s[idx+1:])
	s[len(s)-1] = zero
	return s[:len(s)-1]
}
