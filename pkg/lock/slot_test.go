package lock

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotLock(t *testing.T) {
	t.Run("Second acquire fails until release", func(t *testing.T) {
		l := New()
		assert.True(t, l.TryAcquire())
		assert.False(t, l.TryAcquire())
		assert.True(t, l.Held())

		l.Release()
		assert.False(t, l.Held())
		assert.True(t, l.TryAcquire())
	})

	t.Run("Release of unheld slot is a no-op", func(t *testing.T) {
		l := New()
		l.Release()
		assert.True(t, l.TryAcquire())
	})

	t.Run("Exactly one winner under contention", func(t *testing.T) {
		l := New()
		var winners atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if l.TryAcquire() {
					winners.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), winners.Load())
	})
}
