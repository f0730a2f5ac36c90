package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exportnine/server/internal/valuation"
)

func newTestMaker() (*MatchMaker, *Roster) {
	roster := NewRoster()
	return NewMatchMaker(roster, 10, 9, zerolog.Nop()), roster
}

func TestFindPairNeedsTwo(t *testing.T) {
	mk, roster := newTestMaker()
	assert.Nil(t, mk.FindPair())

	roster.Enqueue(NewPlayer(uuid.Nil, "lonely"))
	assert.Nil(t, mk.FindPair())
}

func TestFindPairSkipsSameAccount(t *testing.T) {
	mk, roster := newTestMaker()
	account := uuid.New()
	roster.Enqueue(NewPlayer(account, "tab one"))
	roster.Enqueue(NewPlayer(account, "tab two"))

	assert.Nil(t, mk.FindPair(), "two sessions of one account never pair")

	roster.Enqueue(NewPlayer(uuid.New(), "someone else"))
	m := mk.FindPair()
	require.NotNil(t, m)

	accounts := map[uuid.UUID]bool{}
	for _, p := range m.Players {
		accounts[p.AccountID] = true
	}
	assert.Len(t, accounts, 2, "paired across distinct accounts")
}

func TestFindPairIsFIFO(t *testing.T) {
	mk, roster := newTestMaker()
	a := NewPlayer(uuid.Nil, "a")
	b := NewPlayer(uuid.Nil, "b")
	c := NewPlayer(uuid.Nil, "c")
	roster.Enqueue(a)
	roster.Enqueue(b)
	roster.Enqueue(c)

	m := mk.FindPair()
	require.NotNil(t, m)
	assert.Equal(t, a.ID, m.Players[0].ID)
	assert.Equal(t, b.ID, m.Players[1].ID)

	waiting := roster.Waiting()
	require.Len(t, waiting, 1)
	assert.Equal(t, c.ID, waiting[0].ID)
}

func TestDealClampsOversizedHand(t *testing.T) {
	mk := NewMatchMaker(NewRoster(), 100, 9, zerolog.Nop())
	m := mk.CreateBotMatch(NewPlayer(uuid.Nil, "human"))

	for _, p := range m.Players {
		assert.Len(t, p.Hand, len(valuation.Countries), "hand capped at the country pool")
	}
}

func TestCreateBotMatch(t *testing.T) {
	mk, roster := newTestMaker()
	p := NewPlayer(uuid.Nil, "human")
	m := mk.CreateBotMatch(p)

	require.Len(t, m.Players, 2)
	bot := m.Players[1]
	assert.True(t, bot.Bot)
	assert.Equal(t, uuid.Nil, bot.AccountID)
	require.NotNil(t, bot.Rating)
	assert.Equal(t, roster.MatchOf(p.ID), m)
}

func TestStartSamplesDistinctProducts(t *testing.T) {
	mk, _ := newTestMaker()
	m := mk.CreateBotMatch(NewPlayer(uuid.Nil, "human"))
	require.NoError(t, mk.Start(m))

	assert.Equal(t, MatchActive, m.State)
	require.Len(t, m.Rounds, 9)

	seen := map[string]bool{}
	for _, r := range m.Rounds {
		assert.False(t, seen[r.Product.ID], "product repeated across rounds")
		seen[r.Product.ID] = true
	}

	// A second start is rejected.
	assert.Error(t, mk.Start(m))
}
