package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCacheRunsOpOnce(t *testing.T) {
	c := NewComputeCache[string, int]()
	var calls int32

	var wg sync.WaitGroup
	results := make([]int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Compute("key", func(string) int {
				atomic.AddInt32(&calls, 1)
				time.Sleep(10 * time.Millisecond)
				return 42
			})
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, calls)
	for _, r := range results {
		assert.Equal(t, 42, r)
	}
}

func TestComputeCacheRetainsResultAfterCompletion(t *testing.T) {
	c := NewComputeCache[string, int]()
	var calls int32

	first := c.Compute("key", func(string) int {
		atomic.AddInt32(&calls, 1)
		return 7
	})
	require.Equal(t, 7, first)

	time.Sleep(20 * time.Millisecond)

	second := c.Compute("key", func(string) int {
		atomic.AddInt32(&calls, 1)
		return 9
	})
	assert.Equal(t, 7, second)
	assert.EqualValues(t, 1, calls)
}

func TestComputeCachePeek(t *testing.T) {
	c := NewComputeCache[string, int]()
	_, ok := c.Peek("key")
	assert.False(t, ok)

	c.Compute("key", func(string) int { return 1 })
	v, ok := c.Peek("key")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestComputeCacheDistinctKeysRunIndependently(t *testing.T) {
	c := NewComputeCache[string, int]()
	a := c.Compute("a", func(string) int { return 1 })
	b := c.Compute("b", func(string) int { return 2 })
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}
