package btree

import (
	"encoding/json"
	"reflect"
	"unicode/utf8"

	"go-btreedb/pkg/tuple"

	"github.com/pkg/errors"
)

// nodeRecord is the persisted form of a node. Entry keys are written as
// tagged tuples {key, seq}.
type nodeRecord struct {
	Leaf     bool              `json:"leaf"`
	Keys     []json.RawMessage `json:"keys"`
	Values   []json.RawMessage `json:"values,omitempty"`
	Children []uint64          `json:"children,omitempty"`
	Next     *uint64           `json:"next,omitempty"`
}

func encodeNode[K, V any](n *Node[K, V]) ([]byte, error) {
	rec := nodeRecord{
		Leaf: n.leaf,
		Keys: make([]json.RawMessage, len(n.keys)),
	}

	for i, k := range n.keys {
		if err := checkEncodable(k.key); err != nil {
			return nil, errors.Wrapf(err, "key %d", i)
		}

		b, err := json.Marshal(k)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode key %d", i)
		}
		rec.Keys[i] = b
	}

	if n.leaf {
		rec.Values = make([]json.RawMessage, len(n.values))
		for i, v := range n.values {
			if err := checkEncodable(v); err != nil {
				return nil, errors.Wrapf(err, "value %d", i)
			}

			b, err := json.Marshal(v)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to encode value %d", i)
			}
			rec.Values[i] = b
		}

		if n.next != nil {
			next, err := nodeID(n.next)
			if err != nil {
				return nil, errors.Wrap(err, "failed to encode next leaf")
			}
			rec.Next = &next
		}
	} else {
		rec.Children = make([]uint64, len(n.children))
		for i, h := range n.children {
			id, err := nodeID(h)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to encode child %d", i)
			}
			rec.Children[i] = id
		}
	}

	return json.Marshal(rec)
}

func decodeNode[K, V any](d []byte) (*Node[K, V], error) {
	var rec nodeRecord
	if err := json.Unmarshal(d, &rec); err != nil {
		return nil, errors.Wrap(err, "failed to decode node record")
	}

	n := newNode[K, V](rec.Leaf)
	n.keys = make([]entryKey[K], len(rec.Keys))
	for i, raw := range rec.Keys {
		if err := json.Unmarshal(raw, &n.keys[i]); err != nil {
			return nil, errors.Wrapf(err, "failed to decode key %d", i)
		}
	}

	if rec.Leaf {
		if len(rec.Values) != len(rec.Keys) {
			return nil, errors.Errorf("leaf has %d keys but %d values", len(rec.Keys), len(rec.Values))
		}

		n.values = make([]V, len(rec.Values))
		for i, raw := range rec.Values {
			v, err := tuple.Decode[V](raw)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to decode value %d", i)
			}
			n.values[i] = v
		}

		if rec.Next != nil {
			n.next = NodeID(*rec.Next)
		}
	} else {
		if len(rec.Children) != len(rec.Keys)+1 {
			return nil, errors.Errorf("internal node has %d keys but %d children", len(rec.Keys), len(rec.Children))
		}

		n.children = make([]Handle, len(rec.Children))
		for i, id := range rec.Children {
			n.children[i] = NodeID(id)
		}
	}

	return n, nil
}

func nodeID(h Handle) (uint64, error) {
	id, ok := h.(NodeID)
	if !ok {
		return 0, errors.Wrapf(ErrInvariantViolation, "handle %v (%T) is not a NodeID", h, h)
	}
	return uint64(id), nil
}

const maxEncodeDepth = 64

// checkEncodable fails with ErrUnencodable when v holds a string that is
// not valid UTF-8. encoding/json would silently replace the bad bytes, so
// the decoded key or value would differ from the one stored.
func checkEncodable(v any) error {
	return checkStrings(reflect.ValueOf(v), 0)
}

func checkStrings(v reflect.Value, depth int) error {
	if depth > maxEncodeDepth {
		return errors.Wrap(ErrUnencodable, "value nested too deeply")
	}

	switch v.Kind() {
	case reflect.String:
		if !utf8.ValidString(v.String()) {
			return errors.Wrapf(ErrUnencodable, "invalid UTF-8 in %q", v.String())
		}
	case reflect.Interface, reflect.Pointer:
		if !v.IsNil() {
			return checkStrings(v.Elem(), depth+1)
		}
	case reflect.Slice, reflect.Array:
		// byte slices are written as base64 or raw JSON
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := checkStrings(v.Index(i), depth+1); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := checkStrings(iter.Key(), depth+1); err != nil {
				return err
			}
			if err := checkStrings(iter.Value(), depth+1); err != nil {
				return err
			}
		}
	case reflect.Struct:
		typ := v.Type()
		for i := 0; i < v.NumField(); i++ {
			f := typ.Field(i)
			if !f.IsExported() || f.Tag.Get("json") == "-" {
				continue
			}
			if err := checkStrings(v.Field(i), depth+1); err != nil {
				return err
			}
		}
	}

	return nil
}
