package application

import (
	"sync"
	"sync/atomic"
	"testing"

	"promptcanvas/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTracker_Lifecycle(t *testing.T) {
	tracker := NewSessionTracker()
	key := "guild:user"

	assert.Equal(t, domain.StateIdle, tracker.Get(key).State)

	require.NoError(t, tracker.Begin(key))
	assert.Equal(t, domain.StateLoading, tracker.Get(key).State)
	assert.ErrorIs(t, tracker.Begin(key), domain.ErrBusy)

	result := &domain.GenerationResult{State: domain.StateSuccess, Caption: "c"}
	tracker.Finish(key, result)
	s := tracker.Get(key)
	assert.Equal(t, domain.StateSuccess, s.State)
	assert.Same(t, result, s.Result)

	// 次のリクエストで前回の結果は消える
	require.NoError(t, tracker.Begin(key))
	s = tracker.Get(key)
	assert.Equal(t, domain.StateLoading, s.State)
	assert.Nil(t, s.Result)

	tracker.Finish(key, nil)
	assert.Equal(t, domain.StateIdle, tracker.Get(key).State)

	require.NoError(t, tracker.Begin(key))
	tracker.Reset(key)
	assert.Equal(t, domain.StateIdle, tracker.Get(key).State)
}

func TestSessionTracker_IndependentUsers(t *testing.T) {
	tracker := NewSessionTracker()
	require.NoError(t, tracker.Begin("g:a"))
	assert.NoError(t, tracker.Begin("g:b"))
	assert.NoError(t, tracker.Begin("dm:a"))
}

func TestSessionTracker_ConcurrentBegin(t *testing.T) {
	tracker := NewSessionTracker()
	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tracker.Begin("g:u") == nil {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), accepted.Load())
}
