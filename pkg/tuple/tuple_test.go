package tuple

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTupleMarshal(t *testing.T) {
	b, err := json.Marshal(Tuple{"17", 3})
	require.NoError(t, err)
	require.JSONEq(t, `{"__tuple__":true,"items":["17",3]}`, string(b))

	b, err = json.Marshal(Tuple{1, Tuple{"a", true}})
	require.NoError(t, err)
	require.JSONEq(t,
		`{"__tuple__":true,"items":[1,{"__tuple__":true,"items":["a",true]}]}`,
		string(b),
	)
}

func TestTupleRoundTrip(t *testing.T) {
	original := Tuple{"meter-1", 2.5, Tuple{"nested", nil}, false}

	b, err := json.Marshal(original)
	require.NoError(t, err)

	var got Tuple
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, original, got)

	// encoding the decoded value reproduces the same bytes
	again, err := json.Marshal(got)
	require.NoError(t, err)
	require.Equal(t, string(b), string(again))
}

func TestTupleUnmarshalRejectsPlainArray(t *testing.T) {
	var got Tuple
	require.Error(t, json.Unmarshal([]byte(`[1,2]`), &got))
	require.ErrorIs(t, json.Unmarshal([]byte(`{"items":[1]}`), &got), ErrNotTagged)
}

func TestDecodeUntagsInterfaces(t *testing.T) {
	d := []byte(`{"id":"5","pos":{"__tuple__":true,"items":[1,2]},"list":[{"__tuple__":true,"items":["x"]}]}`)

	v, err := Decode[any](d)
	require.NoError(t, err)

	m := v.(map[string]any)
	require.Equal(t, "5", m["id"])
	require.Equal(t, Tuple{int64(1), int64(2)}, m["pos"])
	require.Equal(t, []any{Tuple{"x"}}, m["list"])

	// plain arrays stay arrays
	v, err = Decode[any]([]byte(`[1,"a"]`))
	require.NoError(t, err)
	require.Equal(t, []any{int64(1), "a"}, v)
}

func TestTupleIntegers(t *testing.T) {
	original := Tuple{int64(1<<53 + 1), int64(-5), uint64(math.MaxUint64), 1.5, int64(math.MinInt64)}

	b, err := json.Marshal(original)
	require.NoError(t, err)

	var got Tuple
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, original, got)

	again, err := json.Marshal(got)
	require.NoError(t, err)
	require.Equal(t, string(b), string(again))

	// unsigned items above 2^53 come back as int64 but stay distinct
	b, err = json.Marshal(Tuple{uint64(1<<53 + 1)})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, Tuple{int64(1<<53 + 1)}, got)
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	_, err := Decode[any]([]byte(`{"a":1} {"b":2}`))
	require.Error(t, err)
}

func TestDecodeTyped(t *testing.T) {
	type reading struct {
		MeterID string  `json:"meterId"`
		Value   float64 `json:"value"`
	}

	r, err := Decode[reading]([]byte(`{"meterId":"m1","value":12.5}`))
	require.NoError(t, err)
	require.Equal(t, reading{"m1", 12.5}, r)

	_, err = Decode[reading]([]byte(`{"value":"oops"}`))
	require.Error(t, err)
}

func TestItems(t *testing.T) {
	d, err := Tag("k", uint64(9))
	require.NoError(t, err)

	items, err := Items(d)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, `"k"`, string(items[0]))
	require.Equal(t, `9`, string(items[1]))
}

func TestCompare(t *testing.T) {
	require.Equal(t, 0, Compare(Tuple{1, "a"}, Tuple{1.0, "a"}))
	require.Equal(t, -1, Compare(Tuple{1, "a"}, Tuple{1, "b"}))
	require.Equal(t, 1, Compare(Tuple{2}, Tuple{1, "z"}))
	require.Equal(t, -1, Compare(Tuple{1}, Tuple{1, "a"}))
	require.Equal(t, -1, Compare(Tuple{nil}, Tuple{false}))
	require.Equal(t, -1, Compare(Tuple{false}, Tuple{true}))
	require.Equal(t, -1, Compare(Tuple{true}, Tuple{0}))
	require.Equal(t, -1, Compare(Tuple{99}, Tuple{"0"}))
	require.Equal(t, -1, Compare(Tuple{"z"}, Tuple{Tuple{}}))
	require.Equal(t, 1, Compare(Tuple{Tuple{2}}, Tuple{Tuple{1, 5}}))

	require.Equal(t, 1, Compare(Tuple{int64(1<<53 + 1)}, Tuple{int64(1 << 53)}))
	require.Equal(t, 1, Compare(Tuple{uint64(1<<53 + 1)}, Tuple{int64(1 << 53)}))
	require.Equal(t, -1, Compare(Tuple{int64(-1)}, Tuple{uint64(math.MaxUint64)}))
	require.Equal(t, -1, Compare(Tuple{int64(math.MinInt64)}, Tuple{int8(-1)}))
	require.Equal(t, 0, Compare(Tuple{int64(7)}, Tuple{uint8(7)}))
	require.Equal(t, -1, Compare(Tuple{int64(2)}, Tuple{2.5}))
}
