package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/exportnine/server/internal/rating"
	"github.com/exportnine/server/internal/valuation"
)

const botName = "CPU Trader"

// MatchMaker pairs participants into matches and prepares the board: the
// shared hand, the round products, and the scripted opponent when requested.
type MatchMaker struct {
	roster     *Roster
	handSize   int
	roundCount int
	logger     zerolog.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewMatchMaker(roster *Roster, handSize, roundCount int, logger zerolog.Logger) *MatchMaker {
	if handSize <= 0 {
		handSize = 10
	}
	// The hand can never exceed the country pool.
	if handSize > len(valuation.Countries) {
		handSize = len(valuation.Countries)
	}
	if roundCount <= 0 {
		roundCount = 9
	}
	return &MatchMaker{
		roster:     roster,
		handSize:   handSize,
		roundCount: roundCount,
		logger:     logger.With().Str("component", "matchmaker").Logger(),
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FindPair scans the queue for the first two participants with different
// stable identities. Ephemeral participants (no account) pair with anyone;
// two sessions of the same account never pair with each other. Returns nil
// when no eligible pair exists.
func (mk *MatchMaker) FindPair() *Match {
	waiting := mk.roster.Waiting()
	for i := 0; i < len(waiting); i++ {
		for j := i + 1; j < len(waiting); j++ {
			if !eligiblePair(waiting[i], waiting[j]) {
				continue
			}
			a, b := waiting[i], waiting[j]
			if !mk.roster.TakeWaiting(a.ID, b.ID) {
				// Raced by another pairing; rescan.
				return mk.FindPair()
			}
			return mk.buildMatch(a, b)
		}
	}
	return nil
}

func eligiblePair(a, b *Player) bool {
	if a.AccountID == uuid.Nil || b.AccountID == uuid.Nil {
		return true
	}
	return a.AccountID != b.AccountID
}

// CreateBotMatch synthesizes a scripted opponent anchored at the default
// rating and builds a match around it, skipping the queue.
func (mk *MatchMaker) CreateBotMatch(p *Player) *Match {
	anchor := rating.DefaultRating
	bot := &Player{
		ID:     uuid.New(),
		Name:   botName,
		State:  PlayerActive,
		Bot:    true,
		Rating: &anchor,
	}
	bot.Touch()
	return mk.buildMatch(p, bot)
}

// CreateRoomMatch pairs two participants who met through a private room code.
func (mk *MatchMaker) CreateRoomMatch(a, b *Player, roomCode string) *Match {
	a.RoomCode = roomCode
	b.RoomCode = roomCode
	return mk.buildMatch(a, b)
}

func (mk *MatchMaker) buildMatch(a, b *Player) *Match {
	m := newMatch(a, b)
	mk.Deal(m)
	mk.roster.AddMatch(m)
	mk.logger.Info().
		Str("match_id", m.ID.String()).
		Str("player_a", a.Name).
		Str("player_b", b.Name).
		Msg("match created")
	return m
}

// Deal shuffles the country pool and hands the same subset to both
// participants. Information symmetry is the game's defining rule; only
// selection strategy differs between the sides.
func (mk *MatchMaker) Deal(m *Match) {
	pool := append([]valuation.Country(nil), valuation.Countries...)

	mk.rndMu.Lock()
	mk.rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	mk.rndMu.Unlock()

	hand := pool[:mk.handSize]
	for _, p := range m.Players {
		cards := make([]*Card, len(hand))
		for i, country := range hand {
			cards[i] = &Card{Country: country}
		}
		p.Hand = cards
		p.Score = 0
	}
}

// Start samples the round products and opens play. Only valid on a match
// still in Waiting; the round pointer stays 0 until the first advance.
func (mk *MatchMaker) Start(m *Match) error {
	pool := append([]valuation.Product(nil), valuation.Products...)

	mk.rndMu.Lock()
	mk.rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	mk.rndMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State != MatchWaiting {
		return fmt.Errorf("start match %s: state is %s", m.ID, m.State)
	}

	m.Rounds = make([]*Round, mk.roundCount)
	for i := 0; i < mk.roundCount; i++ {
		m.Rounds[i] = &Round{
			Number:  i + 1,
			Product: pool[i],
			Plays:   make(map[uuid.UUID]*Card),
			Values:  make(map[string]float64),
		}
	}
	m.CurrentRound = 0
	m.State = MatchActive
	m.StartedAt = time.Now()
	for _, p := range m.Players {
		if !p.Bot {
			p.State = PlayerActive
		}
		p.Touch()
	}
	return nil
}

// RoundProducts lists the product ids of a started match, for cache warming.
func (mk *MatchMaker) RoundProducts(m *Match) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.Rounds))
	for i, r := range m.Rounds {
		ids[i] = r.Product.ID
	}
	return ids
}
