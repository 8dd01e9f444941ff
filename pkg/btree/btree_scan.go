package btree

// Item is a key-value pair as returned by TraverseKeys.
type Item[K, V any] struct {
	Key   K
	Value V
}

// Scan calls fn for every entry in ascending key order, following the leaf
// chain. Entries with equal keys are visited in insertion order. Scanning
// stops when fn returns false or an error.
func (t *Tree[K, V]) Scan(fn func(k K, v V) (bool, error)) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.scan(fn)
}

func (t *Tree[K, V]) scan(fn func(k K, v V) (bool, error)) error {
	h := t.meta.FirstLeaf

	for h != nil {
		n, err := t.load(h)
		if err != nil {
			return err
		}

		for i := range n.keys {
			if ok, err := fn(n.keys[i].key, n.values[i]); err != nil || !ok {
				return err
			}
		}

		h = n.next
	}

	return nil
}

// TraverseFunc returns the values satisfying pred in ascending key order.
// Every call walks the whole tree again.
func (t *Tree[K, V]) TraverseFunc(pred func(v V) bool) ([]V, error) {
	result := []V{}

	err := t.Scan(func(_ K, v V) (bool, error) {
		if pred(v) {
			result = append(result, v)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// TraverseKeys returns all entries in ascending key order.
func (t *Tree[K, V]) TraverseKeys() ([]Item[K, V], error) {
	items := []Item[K, V]{}

	err := t.Scan(func(k K, v V) (bool, error) {
		items = append(items, Item[K, V]{Key: k, Value: v})
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// CountAll counts the entries by walking every leaf.
func (t *Tree[K, V]) CountAll() (int, error) {
	count := 0

	err := t.Scan(func(K, V) (bool, error) {
		count++
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}
