package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheSetGetDel(t *testing.T) {
	c, err := New(1 << 20)
	require.NoError(t, err)
	defer c.Close()

	c.Set(7, []byte(`{"leaf":true}`))
	d, ok := c.Get(7)
	require.True(t, ok)
	require.Equal(t, []byte(`{"leaf":true}`), d)

	// overwrite is visible immediately
	c.Set(7, []byte(`{"leaf":false}`))
	d, ok = c.Get(7)
	require.True(t, ok)
	require.Equal(t, []byte(`{"leaf":false}`), d)

	c.Del(7)
	_, ok = c.Get(7)
	require.False(t, ok)

	hits, misses := c.Stats()
	require.Equal(t, uint64(2), hits)
	require.Equal(t, uint64(1), misses)
}

func TestCacheClear(t *testing.T) {
	c, err := New(1 << 20)
	require.NoError(t, err)
	defer c.Close()

	for i := uint64(0); i < 10; i++ {
		c.Set(i, []byte("record"))
	}
	c.Clear()

	for i := uint64(0); i < 10; i++ {
		_, ok := c.Get(i)
		require.False(t, ok)
	}
}

func TestCacheInvalidSize(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)
}
