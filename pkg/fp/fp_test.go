package fp_test

import (
	"sync"
	"testing"

	"github.com/leighmacdonald/demoinspect/pkg/fp"
	"github.com/stretchr/testify/require"
)

func TestUniq(t *testing.T) {
	require.Equal(t, []int{3, 1, 2}, fp.Uniq([]int{3, 1, 3, 2, 1}))
	require.Nil(t, fp.Uniq([]string{}))
}

func TestNumbers(t *testing.T) {
	require.Equal(t, 6, fp.Sum(1, 2, 3))
	require.InDelta(t, 2.5, fp.Avg([]float64{2, 3}), 0.001)
	require.Equal(t, 0, fp.Avg([]int{}))
	require.Equal(t, -1, fp.Max(-3, -1, -2))
}

func TestCountBy(t *testing.T) {
	words := []string{"scout", "soldier", "spy", "medic", "", "sniper"}
	counts := fp.CountBy(words, func(word string) (byte, bool) {
		if word == "" {
			return 0, false
		}

		return word[0], true
	})

	require.Equal(t, map[byte]int{'s': 4, 'm': 1}, counts)
	require.Equal(t, []fp.Pair[byte, int]{{Key: 's', Value: 4}}, fp.TopN(counts, 1))
	require.Len(t, fp.TopN(counts, 10), 2)
	require.Len(t, fp.Filter(words, func(word string) bool { return word != "" }), 5)
}

func TestMutexMap(t *testing.T) {
	store := fp.NewMutexMap[int, string]()

	var wg sync.WaitGroup
	for idx := range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			store.Set(idx, "x")
		}()
	}

	wg.Wait()

	value, found := store.Get(3)
	require.True(t, found)
	require.Equal(t, "x", value)
	require.Len(t, store.Snapshot(), 10)

	store.Delete(3)
	_, found = store.Get(3)
	require.False(t, found)
	require.Equal(t, 9, store.Len())
}
