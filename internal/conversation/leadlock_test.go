package conversation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadLockerSerializesSameKey(t *testing.T) {
	locker := newLeadLocker()

	const workers = 20
	counter := 0
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := locker.Lock("tenant:lead-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestLeadLockerIndependentKeys(t *testing.T) {
	locker := newLeadLocker()

	unlockA := locker.Lock("tenant:lead-a")
	// A held lock on one lead must not block another lead.
	unlockB := locker.Lock("tenant:lead-b")
	unlockB()
	unlockA()
}

func TestLeadLockerCleansUpEntries(t *testing.T) {
	locker := newLeadLocker()

	unlock := locker.Lock("tenant:lead-1")
	unlock()

	locker.mu.Lock()
	defer locker.mu.Unlock()
	assert.Empty(t, locker.locks)
}
