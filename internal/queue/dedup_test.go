package queue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupIndex_Admit(t *testing.T) {
	t.Run("first caller wins", func(t *testing.T) {
		index := NewDedupIndex()

		assert.True(t, index.Admit("job-1"))
		assert.False(t, index.Admit("job-1"))
		assert.True(t, index.Admit("job-2"))
		assert.Equal(t, 2, index.Size())
	})

	t.Run("seen reflects admissions", func(t *testing.T) {
		index := NewDedupIndex()

		assert.False(t, index.Seen("job-1"))
		index.Admit("job-1")
		assert.True(t, index.Seen("job-1"))
	})
}

func TestDedupIndex_ConcurrentAdmit(t *testing.T) {
	index := NewDedupIndex()

	const goroutines = 50
	const jobs = 20

	var wins sync.Map
	var wg sync.WaitGroup

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < jobs; j++ {
				jobID := fmt.Sprintf("job-%d", j)
				if index.Admit(jobID) {
					count, _ := wins.LoadOrStore(jobID, new(int))
					*count.(*int)++
				}
			}
		}()
	}
	wg.Wait()

	// Exactly one goroutine must win each job ID.
	assert.Equal(t, jobs, index.Size())
	for j := 0; j < jobs; j++ {
		count, ok := wins.Load(fmt.Sprintf("job-%d", j))
		assert.True(t, ok)
		assert.Equal(t, 1, *count.(*int))
	}
}
