package game

import (
	"sync"

	"github.com/google/uuid"
)

// Roster is the in-memory registry of everything live: session players, the
// FIFO waiting list, matches, and the player->match index. It replaces
// scattered global maps with one RWMutex-guarded structure; match internals
// stay protected by each match's own lock.
type Roster struct {
	mu      sync.RWMutex
	players map[uuid.UUID]*Player
	waiting []*Player
	matches map[uuid.UUID]*Match
	matchOf map[uuid.UUID]uuid.UUID
}

func NewRoster() *Roster {
	return &Roster{
		players: make(map[uuid.UUID]*Player),
		matches: make(map[uuid.UUID]*Match),
		matchOf: make(map[uuid.UUID]uuid.UUID),
	}
}

// Register makes a session player findable by id.
func (r *Roster) Register(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[p.ID] = p
}

// Enqueue appends a player to the waiting list. Pair eligibility is the
// matchmaker's concern, not the roster's.
func (r *Roster) Enqueue(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[p.ID] = p
	r.waiting = append(r.waiting, p)
}

// Waiting returns a snapshot of the queue in FIFO order.
func (r *Roster) Waiting() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Player(nil), r.waiting...)
}

// TakeWaiting removes the given players from the queue, returning false if
// any of them had already been taken by a concurrent pairing.
func (r *Roster) TakeWaiting(ids ...uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := make(map[uuid.UUID]int, len(ids))
	for _, id := range ids {
		idx[id] = -1
	}
	for i, p := range r.waiting {
		if _, want := idx[p.ID]; want {
			idx[p.ID] = i
		}
	}
	for _, i := range idx {
		if i < 0 {
			return false
		}
	}

	kept := r.waiting[:0]
	for _, p := range r.waiting {
		if _, taken := idx[p.ID]; !taken {
			kept = append(kept, p)
		}
	}
	r.waiting = kept
	return true
}

// AddMatch registers a match and indexes its participants.
func (r *Roster) AddMatch(m *Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[m.ID] = m
	for _, p := range m.Players {
		r.players[p.ID] = p
		r.matchOf[p.ID] = m.ID
	}
}

// Match looks up a match by id.
func (r *Roster) Match(id uuid.UUID) *Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.matches[id]
}

// MatchOf returns the match a player is in, if any.
func (r *Roster) MatchOf(playerID uuid.UUID) *Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matchID, ok := r.matchOf[playerID]
	if !ok {
		return nil
	}
	return r.matches[matchID]
}

// Player looks up a session player by id.
func (r *Roster) Player(id uuid.UUID) *Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.players[id]
}

// RemoveParticipant purges a player from the queue and indices. When they
// were the last human indexed to a match, the whole match is dropped.
func (r *Roster) RemoveParticipant(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.waiting[:0]
	for _, p := range r.waiting {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	r.waiting = kept

	matchID, inMatch := r.matchOf[id]
	delete(r.matchOf, id)
	delete(r.players, id)

	if !inMatch {
		return
	}
	m, ok := r.matches[matchID]
	if !ok {
		return
	}
	for _, p := range m.Players {
		if p.Bot || p.ID == id {
			continue
		}
		if indexed, still := r.matchOf[p.ID]; still && indexed == matchID {
			return // a human remains attached
		}
	}
	r.removeMatchLocked(matchID)
}

// RemoveMatch drops a match and every index pointing at it.
func (r *Roster) RemoveMatch(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeMatchLocked(id)
}

func (r *Roster) removeMatchLocked(id uuid.UUID) {
	m, ok := r.matches[id]
	if !ok {
		return
	}
	for _, p := range m.Players {
		if r.matchOf[p.ID] == id {
			delete(r.matchOf, p.ID)
		}
		delete(r.players, p.ID)
	}
	delete(r.matches, id)
}

// ActiveMatches snapshots matches currently in round play, for the presence
// sweep.
func (r *Roster) ActiveMatches() []*Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Match
	for _, m := range r.matches {
		out = append(out, m)
	}
	return out
}

// Counts reports queue and match sizes for logging.
func (r *Roster) Counts() (waiting, matches int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.waiting), len(r.matches)
}
