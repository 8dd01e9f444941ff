package btree

import (
	"github.com/pkg/errors"
)

// NewMemoryStore returns a store whose handles are the node pointers
// themselves. Nodes are mutated in place; Save and Delete do no I/O.
func NewMemoryStore[K, V any]() *MemoryStore[K, V] {
	return &MemoryStore[K, V]{}
}

type MemoryStore[K, V any] struct {
	meta   Meta
	closed bool
}

func (s *MemoryStore[K, V]) Load(h Handle) (*Node[K, V], error) {
	if s.closed {
		return nil, ErrClosed
	}

	n, ok := h.(*Node[K, V])
	if !ok || n == nil {
		return nil, errors.Wrapf(ErrStorageCorruption, "unresolvable handle %v", h)
	}
	return n, nil
}

func (s *MemoryStore[K, V]) Alloc(n *Node[K, V]) (Handle, error) {
	if s.closed {
		return nil, ErrClosed
	}

	n.handle = n
	return n.handle, nil
}

func (s *MemoryStore[K, V]) Save(n *Node[K, V]) (Handle, error) {
	if n.handle == nil {
		return s.Alloc(n)
	}
	if s.closed {
		return nil, ErrClosed
	}
	return n.handle, nil
}

func (s *MemoryStore[K, V]) Delete(Handle) error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *MemoryStore[K, V]) Meta() (Meta, error) {
	if s.closed {
		return Meta{}, ErrClosed
	}
	return s.meta, nil
}

func (s *MemoryStore[K, V]) SetMeta(m Meta) error {
	if s.closed {
		return ErrClosed
	}
	s.meta = m
	return nil
}

// Clear forgets the root; the old nodes become garbage.
func (s *MemoryStore[K, V]) Clear() error {
	if s.closed {
		return ErrClosed
	}
	s.meta = Meta{}
	return nil
}

func (s *MemoryStore[K, V]) Close() error {
	s.closed = true
	return nil
}
