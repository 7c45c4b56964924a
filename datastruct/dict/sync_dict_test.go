package dict

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSyncDict(t *testing.T) {
	d := MakeSyncDict()
	require.Equal(t, 1, d.Put("a", 1))
	require.Equal(t, 0, d.Put("a", 2))
	require.Equal(t, 1, d.Put("b", 3))

	v, ok := d.Get("a")
	require.True(t, ok)
	require.Equal(t, 2, v)
	require.Equal(t, 2, d.Len())

	keys := d.Keys()
	sort.Strings(keys)
	require.Equal(t, []string{"a", "b"}, keys)

	visited := 0
	d.ForEach(func(key string, val interface{}) bool {
		visited++
		return false
	})
	require.Equal(t, 1, visited)

	require.Equal(t, 1, d.Remove("a"))
	require.Equal(t, 0, d.Remove("a"))

	d.Clear()
	require.Zero(t, d.Len())
}
