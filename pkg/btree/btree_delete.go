package btree

import (
	"github.com/pkg/errors"
)

// Delete removes the oldest entry with key k and reports whether there was
// one. Deleting a missing key changes nothing.
func (t *Tree[K, V]) Delete(k K) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	leaf, idx, found, err := t.findFirst(k)
	if err != nil || !found {
		return false, err
	}

	meta := t.meta
	if err := t.remove(leaf.keys[idx]); err != nil {
		t.meta = meta
		return false, err
	}
	return true, nil
}

// remove deletes the entry target on the way down from the root. Every
// child descended into is first brought up to at least t keys, so the leaf
// can lose an entry without underflowing. A routing key equal to target is
// replaced by its successor once the entry is gone. Nodes are written when
// the descent is complete.
func (t *Tree[K, V]) remove(target entryKey[K]) error {
	b := newBatch[K, V]()

	n, err := t.loadIn(b, t.meta.Root)
	if err != nil {
		return err
	}

	var (
		sepNode *Node[K, V]
		sepIdx  int
	)

	for !n.leaf {
		i := n.childIndex(target, t.compare)

		child, err := t.loadIn(b, n.children[i])
		if err != nil {
			return err
		}

		if len(child.keys) <= t.minKeys() {
			if i, child, err = t.fill(b, n, i, child); err != nil {
				return err
			}

			if len(n.keys) == 0 {
				// only the root can run out of keys: its last two children merged
				b.drop(n)
				t.meta.Root = child.handle
				n = child
				continue
			}
		}

		if i > 0 && t.compare(n.keys[i-1], target) == 0 {
			sepNode, sepIdx = n, i-1
		}
		n = child
	}

	idx, found := n.search(target, t.compare)
	if !found {
		return errors.Wrapf(ErrInvariantViolation, "entry %v not in leaf %v", target.key, n.handle)
	}

	n.removeEntry(idx)
	b.touch(n)

	if sepNode != nil && idx == 0 && len(n.keys) > 0 {
		sepNode.keys[sepIdx] = n.keys[0]
		b.touch(sepNode)
	}

	return t.commit(b)
}

// fill gives the child at index i of parent at least t keys, borrowing
// from a sibling that can spare one or merging with a sibling otherwise.
// It returns the index and node to continue the descent with, which differ
// from the input when child was merged into its left sibling.
func (t *Tree[K, V]) fill(b *batch[K, V], parent *Node[K, V], i int, child *Node[K, V]) (int, *Node[K, V], error) {
	var left *Node[K, V]

	if i > 0 {
		var err error
		if left, err = t.loadIn(b, parent.children[i-1]); err != nil {
			return 0, nil, err
		}

		if len(left.keys) > t.minKeys() {
			t.borrowFromLeft(b, parent, i, left, child)
			return i, child, nil
		}
	}

	if i < len(parent.children)-1 {
		right, err := t.loadIn(b, parent.children[i+1])
		if err != nil {
			return 0, nil, err
		}

		if len(right.keys) > t.minKeys() {
			t.borrowFromRight(b, parent, i, child, right)
			return i, child, nil
		}
		t.mergeWithRight(b, parent, i, child, right)
		return i, child, nil
	}

	t.mergeWithRight(b, parent, i-1, left, child)
	return i - 1, left, nil
}

// borrowFromLeft moves the last entry of left to the front of child.
func (t *Tree[K, V]) borrowFromLeft(b *batch[K, V], parent *Node[K, V], i int, left, child *Node[K, V]) {
	if child.leaf {
		k, v := left.removeEntry(len(left.keys) - 1)
		child.insertEntry(0, k, v)
		parent.keys[i-1] = child.keys[0]
	} else {
		last := len(left.keys) - 1
		child.keys = insertAt(child.keys, 0, parent.keys[i-1])
		child.children = insertAt(child.children, 0, left.children[last+1])
		parent.keys[i-1] = left.keys[last]
		left.keys = removeAt(left.keys, last)
		left.children = removeAt(left.children, last+1)
	}

	b.touch(left, child, parent)
}

// borrowFromRight moves the first entry of right to the end of child.
func (t *Tree[K, V]) borrowFromRight(b *batch[K, V], parent *Node[K, V], i int, child, right *Node[K, V]) {
	if child.leaf {
		k, v := right.removeEntry(0)
		child.insertEntry(len(child.keys), k, v)
		parent.keys[i] = right.keys[0]
	} else {
		child.keys = append(child.keys, parent.keys[i])
		child.children = append(child.children, right.children[0])
		parent.keys[i] = right.keys[0]
		right.keys = removeAt(right.keys, 0)
		right.children = removeAt(right.children, 0)
	}

	b.touch(right, child, parent)
}

// mergeWithRight moves everything from right, the child at index i+1, into
// left and drops right from parent and from the store. Internal nodes pull
// the separator down between the two halves.
func (t *Tree[K, V]) mergeWithRight(b *batch[K, V], parent *Node[K, V], i int, left, right *Node[K, V]) {
	if left.leaf {
		left.keys = append(left.keys, right.keys...)
		left.values = append(left.values, right.values...)
		left.next = right.next
	} else {
		left.keys = append(left.keys, parent.keys[i])
		left.keys = append(left.keys, right.keys...)
		left.children = append(left.children, right.children...)
	}

	parent.keys = removeAt(parent.keys, i)
	parent.children = removeAt(parent.children, i+1)

	b.touch(left, parent)
	b.drop(right)
}
