package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotPreservesInsertionOrder(t *testing.T) {
	r := New[int]()
	for i := range 5 {
		r.Add(i)
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, r.Snapshot())
}

func TestRemoveDeletesOnlyItsEntry(t *testing.T) {
	r := New[string]()
	r.Add("a")
	removeB := r.Add("b")
	r.Add("c")

	removeB()

	assert.Equal(t, []string{"a", "c"}, r.Snapshot())
	assert.Equal(t, 2, r.Len())
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := New[string]()
	remove := r.Add("only")

	remove()
	remove()

	assert.Empty(t, r.Snapshot())
}

func TestDuplicateValuesRemoveIndependently(t *testing.T) {
	r := New[string]()
	removeFirst := r.Add("dup")
	r.Add("dup")

	removeFirst()

	require.Equal(t, 1, r.Len())
	assert.Equal(t, []string{"dup"}, r.Snapshot())
}

func TestSnapshotIsACopy(t *testing.T) {
	r := New[int]()
	r.Add(1)
	r.Add(2)

	snap := r.Snapshot()
	snap[0] = 99

	assert.Equal(t, []int{1, 2}, r.Snapshot())
}

func TestConcurrentAddAndRemove(t *testing.T) {
	r := New[int]()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			remove := r.Add(i)
			if i%2 == 0 {
				remove()
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 25, r.Len())
}
