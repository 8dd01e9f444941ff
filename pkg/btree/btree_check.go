package btree

import (
	"go-btreedb/pkg/stack"

	"github.com/pkg/errors"
)

// CountNodes returns the number of nodes reachable from the root.
func (t *Tree[K, V]) CountNodes() (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := stack.New[Handle](16)
	s.Push(t.meta.Root)

	count := 0
	for !s.Empty() {
		n, err := t.load(s.Pop())
		if err != nil {
			return 0, err
		}

		count++
		if !n.leaf {
			s.Push(n.children...)
		}
	}

	return count, nil
}

type checkFrame[K any] struct {
	h      Handle
	depth  int
	lo, hi *entryKey[K]
}

// CheckConsistency walks the whole tree and verifies its structure: key
// counts, key order and routing bounds, child counts, equal leaf depth and
// the leaf chain. The first violation found is returned wrapped in
// ErrInvariantViolation.
func (t *Tree[K, V]) CheckConsistency() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var (
		leafDepth = -1
		leaves    []*Node[K, V]
	)

	s := stack.New[checkFrame[K]](16)
	s.Push(checkFrame[K]{h: t.meta.Root})

	for !s.Empty() {
		f := s.Pop()

		n, err := t.load(f.h)
		if err != nil {
			return err
		}

		if err := t.checkNode(n, f); err != nil {
			return err
		}

		if n.leaf {
			if leafDepth == -1 {
				leafDepth = f.depth
			} else if leafDepth != f.depth {
				return violation(n, "leaf at depth %d, expected %d", f.depth, leafDepth)
			}
			leaves = append(leaves, n)
			continue
		}

		// pushed right to left so children are visited left to right
		for i := len(n.children) - 1; i >= 0; i-- {
			child := checkFrame[K]{h: n.children[i], depth: f.depth + 1, lo: f.lo, hi: f.hi}
			if i > 0 {
				child.lo = &n.keys[i-1]
			}
			if i < len(n.keys) {
				child.hi = &n.keys[i]
			}
			s.Push(child)
		}
	}

	if len(leaves) == 0 || leaves[0].handle != t.meta.FirstLeaf {
		return errors.Wrapf(ErrInvariantViolation, "first leaf %v is not the leftmost leaf", t.meta.FirstLeaf)
	}

	for i, leaf := range leaves {
		var want Handle
		if i+1 < len(leaves) {
			want = leaves[i+1].handle
		}
		if leaf.next != want {
			return violation(leaf, "next is %v, expected %v", leaf.next, want)
		}
	}

	return nil
}

func (t *Tree[K, V]) checkNode(n *Node[K, V], f checkFrame[K]) error {
	if len(n.keys) > t.maxKeys() {
		return violation(n, "%d keys, at most %d allowed", len(n.keys), t.maxKeys())
	}
	if f.depth > 0 && len(n.keys) < t.minKeys() {
		return violation(n, "%d keys, at least %d required", len(n.keys), t.minKeys())
	}

	if n.leaf {
		if len(n.values) != len(n.keys) {
			return violation(n, "%d keys but %d values", len(n.keys), len(n.values))
		}
	} else {
		if len(n.keys) == 0 {
			return violation(n, "internal node without keys")
		}
		if len(n.children) != len(n.keys)+1 {
			return violation(n, "%d keys but %d children", len(n.keys), len(n.children))
		}
	}

	for i, k := range n.keys {
		if i > 0 && t.compare(n.keys[i-1], k) >= 0 {
			return violation(n, "keys %d and %d out of order", i-1, i)
		}
		if f.lo != nil && t.compare(k, *f.lo) < 0 {
			return violation(n, "key %v below lower bound %v", k.key, f.lo.key)
		}
		if f.hi != nil && t.compare(k, *f.hi) >= 0 {
			return violation(n, "key %v not below upper bound %v", k.key, f.hi.key)
		}
	}

	return nil
}

func violation[K, V any](n *Node[K, V], format string, args ...any) error {
	return errors.Wrapf(ErrInvariantViolation, "node %v: "+format, append([]any{n.handle}, args...)...)
}
