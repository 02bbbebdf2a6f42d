package worker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PulsaGit/promo_api/internal/utils"
)

func TestRunStateSingleFlight(t *testing.T) {
	state := NewRunState("isimple", 15*time.Minute)

	require.NoError(t, state.TryStart())
	assert.Equal(t, RunRunning, state.Snapshot().Status)

	err := state.TryStart()
	assert.Equal(t, utils.ErrAlreadyRunning, err)
}

func TestRunStateConcurrentStart(t *testing.T) {
	state := NewRunState("isimple", 15*time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	rejected := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := state.TryStart()
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				started++
			} else {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, started)
	assert.Equal(t, 9, rejected)
}

func TestRunStateStaleTakeover(t *testing.T) {
	state := NewRunState("isimple", 50*time.Millisecond)

	require.NoError(t, state.TryStart())
	state.SetTotal(100)
	state.Advance(10, 10, "08123")

	// A run older than the stale threshold loses its slot.
	time.Sleep(80 * time.Millisecond)

	require.NoError(t, state.TryStart())
	snap := state.Snapshot()
	assert.Equal(t, RunRunning, snap.Status)
	assert.Equal(t, 0, snap.Processed)
	assert.Equal(t, 0, snap.Total)
	assert.Empty(t, snap.CurrentNumber)
}

func TestRunStateStaleTakeoverKeyedOnStart(t *testing.T) {
	state := NewRunState("isimple", 60*time.Millisecond)
	require.NoError(t, state.TryStart())

	// Keep the run heartbeating well past the threshold; staleness is
	// measured from start, so the next claim still wins.
	for i := 1; i <= 5; i++ {
		time.Sleep(25 * time.Millisecond)
		state.Advance(i, i, "08123")
	}

	require.NoError(t, state.TryStart())
	assert.Equal(t, 0, state.Snapshot().Processed)
}

func TestRunStateFinishIdleVsStopped(t *testing.T) {
	state := NewRunState("tri", 15*time.Minute)

	require.NoError(t, state.TryStart())
	state.Finish()
	assert.Equal(t, RunIdle, state.Snapshot().Status)

	require.NoError(t, state.TryStart())
	assert.True(t, state.RequestStop())
	state.Finish()
	assert.Equal(t, RunStopped, state.Snapshot().Status)
}

func TestRunStateStopWhenIdle(t *testing.T) {
	state := NewRunState("tri", 15*time.Minute)
	assert.False(t, state.RequestStop())
}

func TestRunStateFail(t *testing.T) {
	state := NewRunState("isimple", 15*time.Minute)

	require.NoError(t, state.TryStart())
	state.Fail("remote rejected token")

	snap := state.Snapshot()
	assert.Equal(t, RunError, snap.Status)
	assert.Equal(t, "remote rejected token", snap.ErrorMessage)

	// The slot is free again after failure.
	require.NoError(t, state.TryStart())
}

func TestRunStateSnapshotClearsCurrentNumber(t *testing.T) {
	state := NewRunState("isimple", 15*time.Minute)

	require.NoError(t, state.TryStart())
	state.Advance(5, 5, "0812345")
	assert.Equal(t, "0812345", state.Snapshot().CurrentNumber)

	state.Finish()
	assert.Empty(t, state.Snapshot().CurrentNumber)
}

func TestRunRegistryPerName(t *testing.T) {
	reg := NewRunRegistry(15 * time.Minute)

	isimple := reg.Get("isimple")
	tri := reg.Get("tri")
	assert.NotSame(t, isimple, tri)
	assert.Same(t, isimple, reg.Get("isimple"))

	// Runs are independent per provider.
	require.NoError(t, isimple.TryStart())
	require.NoError(t, tri.TryStart())
}
