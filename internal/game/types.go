package game

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/exportnine/server/internal/valuation"
)

// MatchState is the lifecycle of a match.
type MatchState string

const (
	MatchWaiting  MatchState = "waiting"
	MatchActive   MatchState = "active"
	MatchPaused   MatchState = "paused"
	MatchFinished MatchState = "finished"
)

// PlayerState is the lifecycle of a participant within the session layer.
type PlayerState string

const (
	PlayerWaiting      PlayerState = "waiting"
	PlayerActive       PlayerState = "active"
	PlayerDisconnected PlayerState = "disconnected"
)

// TieWinner marks a round where the top valuation was shared.
const TieWinner = "tie"

// Forfeit reasons surfaced in match_forfeited broadcasts.
const (
	ReasonDisconnect = "disconnect"
	ReasonInactivity = "inactivity"
	ReasonLeft       = "left"
)

var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrNotYourMatch   = errors.New("participant is not in this match")
	ErrMatchNotActive = errors.New("match is not active")
	ErrRoundNotStarted = errors.New("round has not started")
	ErrTokenNotInHand = errors.New("region token is not in hand")
	ErrAlreadyPlayed  = errors.New("already played this round")
	ErrMatchFinished  = errors.New("match already finished")
	ErrMatchForfeited = errors.New("match was forfeited after a disconnect")
	ErrAlreadyInMatch = errors.New("participant is already in a match")
)

// Card is one region token in a player's hand.
type Card struct {
	Country valuation.Country
	Played  bool
}

// Player is a session-scoped participant. ID keys the transport connection;
// AccountID is the durable identity behind ratings and is Nil for ephemeral
// guests and bots.
//
// lastSeen is the only field mutated without holding the owning match's lock;
// heartbeats land concurrently with round processing.
type Player struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Name      string
	State     PlayerState
	Bot       bool
	Rating    *int
	RoomCode  string
	Hand      []*Card
	Score     int

	lastSeen atomic.Int64
}

// NewPlayer builds a waiting session participant.
func NewPlayer(accountID uuid.UUID, name string) *Player {
	p := &Player{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      name,
		State:     PlayerWaiting,
	}
	p.Touch()
	return p
}

// Touch advances the liveness timestamp.
func (p *Player) Touch() {
	p.lastSeen.Store(time.Now().UnixNano())
}

// LastSeen reports when the participant last showed signs of life.
func (p *Player) LastSeen() time.Time {
	return time.Unix(0, p.lastSeen.Load())
}

// cardFor finds an unplayed card by region id.
func (p *Player) cardFor(region string) *Card {
	for _, c := range p.Hand {
		if c.Country.ID == region && !c.Played {
			return c
		}
	}
	return nil
}

// Round is one contest over a single product.
type Round struct {
	Number   int
	Product  valuation.Product
	Plays    map[uuid.UUID]*Card
	Values   map[string]float64 // region id -> resolved valuation
	WinnerID string             // player id string, TieWinner, or empty
	Complete bool
}

// Match is the round-by-round state machine for one pairing.
//
// mu guards every mutable field. The pendingPause flag defers pausing while a
// round resolution is in flight with the lock released for valuation I/O;
// deferred holds a round transition postponed by a pause so a rejoin can
// replay it.
type Match struct {
	mu sync.Mutex

	ID           uuid.UUID
	Players      []*Player
	State        MatchState
	CurrentRound int
	Rounds       []*Round
	WinnerID     uuid.UUID
	Draw         bool
	CreatedAt    time.Time
	StartedAt    time.Time

	ForfeitReason string
	PauseExpiry   time.Time

	resolving          bool
	pendingPause       bool
	pendingPausePlayer uuid.UUID
	deferred           func()
	settled            bool
}

func newMatch(players ...*Player) *Match {
	return &Match{
		ID:        uuid.New(),
		Players:   players,
		State:     MatchWaiting,
		CreatedAt: time.Now(),
	}
}

// Callers of the helpers below hold m.mu.

func (m *Match) player(id uuid.UUID) *Player {
	for _, p := range m.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (m *Match) opponentOf(id uuid.UUID) *Player {
	for _, p := range m.Players {
		if p.ID != id {
			return p
		}
	}
	return nil
}

func (m *Match) humans() []*Player {
	var out []*Player
	for _, p := range m.Players {
		if !p.Bot {
			out = append(out, p)
		}
	}
	return out
}

func (m *Match) currentRound() *Round {
	if m.CurrentRound < 1 || m.CurrentRound > len(m.Rounds) {
		return nil
	}
	return m.Rounds[m.CurrentRound-1]
}

func (m *Match) allSubmitted() bool {
	round := m.currentRound()
	if round == nil {
		return false
	}
	return len(round.Plays) == len(m.Players)
}

func (m *Match) scores() map[string]int {
	out := make(map[string]int, len(m.Players))
	for _, p := range m.Players {
		out[p.ID.String()] = p.Score
	}
	return out
}
