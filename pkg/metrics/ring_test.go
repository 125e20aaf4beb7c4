package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingKeepsOrderBeforeWrap(t *testing.T) {
	r := NewRing[int](3)
	_, ok := r.Last()
	assert.False(t, ok)

	r.Push(1)
	r.Push(2)

	assert.Equal(t, []int{1, 2}, r.Snapshot())
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 3, r.Cap())
}

func TestRingOverwritesOldest(t *testing.T) {
	r := NewRing[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}

	assert.Equal(t, []int{3, 4, 5}, r.Snapshot())
	assert.Equal(t, 3, r.Len())
	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, 5, last)
}

func TestRingConcurrentPush(t *testing.T) {
	r := NewRing[int](100)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				r.Push(i)
				_ = r.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, r.Len())
}

func TestNewRingClampsCapacity(t *testing.T) {
	r := NewRing[string](0)
	r.Push("a")
	r.Push("b")
	assert.Equal(t, []string{"b"}, r.Snapshot())
}
