package tuple

import "go-btreedb/util/helpers"

// value kinds in their sort order
const (
	kindNil = iota
	kindBool
	kindNumber
	kindString
	kindTuple
	kindOther
)

// Compare orders tuples item by item. Items of different kinds sort as
// nil < bool < number < string < tuple; integers and floats compare as
// numbers, two integers compare exactly. A tuple that is a prefix of
// another sorts first.
func Compare(a, b Tuple) int {
	n := helpers.Min(len(a), len(b))
	for i := 0; i < n; i++ {
		if cmp := compareItems(a[i], b[i]); cmp != 0 {
			return cmp
		}
	}
	return helpers.Compare(len(a), len(b))
}

func compareItems(a, b any) int {
	ka, kb := kind(a), kind(b)
	if ka != kb {
		return helpers.Compare(ka, kb)
	}

	switch ka {
	case kindBool:
		ab, bb := a.(bool), b.(bool)
		if ab == bb {
			return 0
		} else if !ab {
			return -1
		}
		return 1
	case kindNumber:
		return compareNumbers(a, b)
	case kindString:
		return helpers.Compare(a.(string), b.(string))
	case kindTuple:
		return Compare(a.(Tuple), b.(Tuple))
	}
	return 0
}

func kind(v any) int {
	if v == nil {
		return kindNil
	}
	if _, ok := number(v); ok {
		return kindNumber
	}

	switch v.(type) {
	case bool:
		return kindBool
	case string:
		return kindString
	case Tuple:
		return kindTuple
	}
	return kindOther
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func compareNumbers(a, b any) int {
	aNeg, aMag, aInt := integer(a)
	bNeg, bMag, bInt := integer(b)

	if !aInt || !bInt {
		af, _ := number(a)
		bf, _ := number(b)
		return helpers.Compare(af, bf)
	}

	switch {
	case aNeg && !bNeg:
		return -1
	case !aNeg && bNeg:
		return 1
	case aNeg:
		return helpers.Compare(bMag, aMag)
	}
	return helpers.Compare(aMag, bMag)
}

// integer splits an integer of any width into sign and magnitude.
func integer(v any) (neg bool, mag uint64, ok bool) {
	var i int64
	switch n := v.(type) {
	case int:
		i = int64(n)
	case int8:
		i = int64(n)
	case int16:
		i = int64(n)
	case int32:
		i = int64(n)
	case int64:
		i = n
	case uint:
		return false, uint64(n), true
	case uint8:
		return false, uint64(n), true
	case uint16:
		return false, uint64(n), true
	case uint32:
		return false, uint64(n), true
	case uint64:
		return false, n, true
	default:
		return false, 0, false
	}

	if i < 0 {
		return true, uint64(-(i + 1)) + 1, true
	}
	return false, uint64(i), true
}
