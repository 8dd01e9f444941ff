// Package tuple encodes fixed-arity ordered groups so that a JSON decoder can
// tell them apart from ordinary arrays. A tuple is written as
//
//	{"__tuple__":true,"items":[...]}
//
// and decoded back into a Tuple, also when nested inside maps, slices or
// other tuples.
package tuple

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

const (
	tagKey   = "__tuple__"
	itemsKey = "items"
)

var ErrNotTagged = errors.New("value is not a tagged tuple")

// Tuple is an ordered group of scalars or nested tuples.
type Tuple []any

type tagged struct {
	Tuple bool              `json:"__tuple__"`
	Items []json.RawMessage `json:"items"`
}

// Tag encodes items as a tagged tuple.
func Tag(items ...any) ([]byte, error) {
	t := tagged{
		Tuple: true,
		Items: make([]json.RawMessage, len(items)),
	}

	for i, itm := range items {
		b, err := json.Marshal(itm)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode tuple item %d", i)
		}
		t.Items[i] = b
	}

	return json.Marshal(t)
}

// Items returns the still encoded items of a tagged tuple.
func Items(d []byte) ([]json.RawMessage, error) {
	var t tagged
	if err := json.Unmarshal(d, &t); err != nil {
		return nil, errors.Wrap(err, "failed to decode tuple")
	}
	if !t.Tuple {
		return nil, ErrNotTagged
	}
	return t.Items, nil
}

func (t Tuple) MarshalJSON() ([]byte, error) {
	return Tag(t...)
}

func (t *Tuple) UnmarshalJSON(d []byte) error {
	if t == nil {
		return errors.New("cannot unmarshal into nil tuple")
	}

	items, err := Items(d)
	if err != nil {
		return err
	}

	*t = make(Tuple, len(items))
	for i, raw := range items {
		v, err := decodeAny(raw)
		if err != nil {
			return errors.Wrapf(err, "failed to decode tuple item %d", i)
		}
		(*t)[i] = v
	}
	return nil
}

// Untag walks a value produced by decoding JSON into an interface and
// replaces every tagged object with a Tuple and every json.Number with an
// int64, uint64 or float64.
func Untag(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if isTuple, _ := val[tagKey].(bool); isTuple {
			items, _ := val[itemsKey].([]any)
			t := make(Tuple, len(items))
			for i := range items {
				t[i] = Untag(items[i])
			}
			return t
		}
		for k := range val {
			val[k] = Untag(val[k])
		}
		return val
	case []any:
		for i := range val {
			val[i] = Untag(val[i])
		}
		return val
	case json.Number:
		return numberValue(val)
	default:
		return v
	}
}

// Decode unmarshals d into a T. When T is an interface type numbers keep
// their integer precision and the decoded value is untagged.
func Decode[T any](d []byte) (T, error) {
	var v T

	if p, ok := any(&v).(*any); ok {
		val, err := decodeAny(d)
		if err != nil {
			return v, err
		}
		*p = val
		return v, nil
	}

	if err := json.Unmarshal(d, &v); err != nil {
		return v, err
	}
	return v, nil
}

func decodeAny(d []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after value")
	}

	return Untag(v), nil
}

// numberValue keeps integers exact: int64 when it fits, uint64 above that,
// float64 for everything else.
func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return u
	}
	f, _ := n.Float64()
	return f
}
