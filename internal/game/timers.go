package game

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TimerRegistry tracks the one-shot timers a match may have in flight
// (presentation delay, grace window, bot think delay, end cleanup) under
// explicit keys, so a rejoin or forfeit can cancel them deterministically.
// Cancelling a fired or unknown timer is a no-op.
type TimerRegistry struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{timers: make(map[string]*time.Timer)}
}

// Schedule arms fn to run after d, replacing any timer already armed under
// the same key.
func (r *TimerRegistry) Schedule(key string, d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.timers[key]; ok {
		old.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		r.mu.Lock()
		if r.timers[key] == t {
			delete(r.timers, key)
		}
		r.mu.Unlock()
		fn()
	})
	r.timers[key] = t
}

// Cancel stops a timer by key.
func (r *TimerRegistry) Cancel(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[key]; ok {
		t.Stop()
		delete(r.timers, key)
	}
}

// CancelMatch stops every timer keyed to a match.
func (r *TimerRegistry) CancelMatch(matchID uuid.UUID) {
	prefix := matchID.String() + ":"
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, t := range r.timers {
		if strings.HasPrefix(key, prefix) {
			t.Stop()
			delete(r.timers, key)
		}
	}
}

func transitionKey(matchID uuid.UUID) string {
	return matchID.String() + ":transition"
}

func graceKey(matchID, playerID uuid.UUID) string {
	return matchID.String() + ":grace:" + playerID.String()
}

func botKey(matchID uuid.UUID) string {
	return matchID.String() + ":bot"
}

func cleanupKey(matchID uuid.UUID) string {
	return matchID.String() + ":cleanup"
}
