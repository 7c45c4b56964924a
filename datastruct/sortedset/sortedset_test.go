package sortedset

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(s *SortedSet, start, stop int64) []string {
	var members []string
	s.Range(start, stop, func(e Element) bool {
		members = append(members, e.Member)
		return true
	})
	return members
}

func TestAddOrdersByScoreThenMember(t *testing.T) {
	s := Make()
	require.True(t, s.Add("b", 2))
	require.True(t, s.Add("a", 2))
	require.True(t, s.Add("c", 1))
	require.False(t, s.Add("c", 3))
	require.False(t, s.Add("c", 3))

	require.EqualValues(t, 3, s.Len())
	require.Equal(t, []string{"a", "b", "c"}, collect(s, 0, -1))
	score, ok := s.Score("c")
	require.True(t, ok)
	require.Equal(t, 3.0, score)
}

func TestRangeBounds(t *testing.T) {
	s := Make()
	for i := 0; i < 5; i++ {
		s.Add(fmt.Sprintf("m%d", i), float64(i))
	}
	require.Equal(t, []string{"m1", "m2"}, collect(s, 1, 2))
	require.Equal(t, []string{"m3", "m4"}, collect(s, -2, -1))
	require.Equal(t, []string{"m0", "m1", "m2", "m3", "m4"}, collect(s, -100, 100))
	require.Nil(t, collect(s, 3, 1))
	require.Nil(t, collect(s, 5, 10))

	var first []string
	s.Range(0, -1, func(e Element) bool {
		first = append(first, e.Member)
		return false
	})
	require.Equal(t, []string{"m0"}, first)
}

func TestRemoveKeepsOrder(t *testing.T) {
	s := Make()
	want := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		member := fmt.Sprintf("k%03d", i)
		s.Add(member, float64(i%7))
		want = append(want, member)
	}
	for i := 0; i < 200; i += 3 {
		require.True(t, s.Remove(fmt.Sprintf("k%03d", i)))
	}
	require.False(t, s.Remove("k000"))

	var remaining []string
	for _, m := range want {
		if _, ok := s.Score(m); ok {
			remaining = append(remaining, m)
		}
	}
	sort.Slice(remaining, func(i, j int) bool {
		si, _ := s.Score(remaining[i])
		sj, _ := s.Score(remaining[j])
		if si != sj {
			return si < sj
		}
		return remaining[i] < remaining[j]
	})
	require.EqualValues(t, len(remaining), s.Len())
	require.Equal(t, remaining, collect(s, 0, -1))
}
