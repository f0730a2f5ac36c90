package game

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerScheduleReplacesSameKey(t *testing.T) {
	reg := NewTimerRegistry()
	var first, second atomic.Int32

	reg.Schedule("k", 5*time.Millisecond, func() { first.Add(1) })
	reg.Schedule("k", 5*time.Millisecond, func() { second.Add(1) })

	require.Eventually(t, func() bool {
		return second.Load() == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, int32(0), first.Load(), "replaced timer must not fire")
}

func TestTimerCancel(t *testing.T) {
	reg := NewTimerRegistry()
	var fired atomic.Int32

	reg.Schedule("k", 10*time.Millisecond, func() { fired.Add(1) })
	reg.Cancel("k")

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	// Cancelling an unknown key is a no-op.
	reg.Cancel("missing")
}

func TestCancelMatchStopsAllMatchTimers(t *testing.T) {
	reg := NewTimerRegistry()
	matchID := uuid.New()
	otherID := uuid.New()
	var mine, other atomic.Int32

	reg.Schedule(transitionKey(matchID), 10*time.Millisecond, func() { mine.Add(1) })
	reg.Schedule(graceKey(matchID, uuid.New()), 10*time.Millisecond, func() { mine.Add(1) })
	reg.Schedule(botKey(otherID), 10*time.Millisecond, func() { other.Add(1) })

	reg.CancelMatch(matchID)

	require.Eventually(t, func() bool {
		return other.Load() == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, int32(0), mine.Load())
}
