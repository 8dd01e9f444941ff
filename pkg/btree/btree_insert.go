package btree

import (
	"slices"

	"github.com/pkg/errors"
)

// Insert adds a new entry. Inserting an existing key adds another entry
// after the existing ones instead of replacing it; use UpdateValue for that.
func (t *Tree[K, V]) Insert(k K, v V) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkEntry(k, v); err != nil {
		return err
	}

	meta := t.meta
	if err := t.insert(k, v); err != nil {
		t.meta = meta
		return err
	}
	return nil
}

func (t *Tree[K, V]) insert(k K, v V) error {
	t.meta.Seq++
	e := entryKey[K]{key: k, seq: t.meta.Seq}
	b := newBatch[K, V]()

	n, err := t.loadIn(b, t.meta.Root)
	if err != nil {
		return err
	}

	if len(n.keys) >= t.maxKeys() {
		root := newNode[K, V](false)
		if err := t.alloc(root); err != nil {
			return err
		}
		root.children = []Handle{n.handle}

		if _, err := t.splitChild(b, root, 0, n); err != nil {
			return errors.Wrap(err, "failed to split root")
		}
		t.meta.Root = root.handle
		n = root
	}

	for !n.leaf {
		i := n.childIndex(e, t.compare)

		child, err := t.loadIn(b, n.children[i])
		if err != nil {
			return err
		}

		if len(child.keys) >= t.maxKeys() {
			sib, err := t.splitChild(b, n, i, child)
			if err != nil {
				return err
			}
			if t.compare(e, n.keys[i]) >= 0 {
				child = sib
			}
		}

		n = child
	}

	idx, _ := n.search(e, t.compare)
	n.insertEntry(idx, e, v)
	b.touch(n)

	return t.commit(b)
}

// splitChild splits the full child at index i of parent and returns the new
// right sibling. A leaf keeps t entries and the separator is a copy of the
// sibling's first key; an internal node moves its median up into parent.
// All three nodes are added to b.
func (t *Tree[K, V]) splitChild(b *batch[K, V], parent *Node[K, V], i int, child *Node[K, V]) (*Node[K, V], error) {
	sib := newNode[K, V](child.leaf)
	if err := t.alloc(sib); err != nil {
		return nil, err
	}

	var sep entryKey[K]
	if child.leaf {
		sib.keys = slices.Clone(child.keys[t.degree:])
		sib.values = slices.Clone(child.values[t.degree:])
		child.keys = child.keys[:t.degree]
		child.values = child.values[:t.degree]
		sep = sib.keys[0]

		sib.next = child.next
		child.next = sib.handle
	} else {
		sep = child.keys[t.degree-1]
		sib.keys = slices.Clone(child.keys[t.degree:])
		sib.children = slices.Clone(child.children[t.degree:])
		child.keys = child.keys[:t.degree-1]
		child.children = child.children[:t.degree]
	}

	parent.keys = insertAt(parent.keys, i, sep)
	parent.children = insertAt(parent.children, i+1, sib.handle)

	b.touch(sib, child, parent)
	return sib, nil
}
