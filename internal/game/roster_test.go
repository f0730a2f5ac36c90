package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTakeWaitingIsAtomic(t *testing.T) {
	r := NewRoster()
	a := NewPlayer(uuid.Nil, "a")
	b := NewPlayer(uuid.Nil, "b")
	r.Enqueue(a)
	r.Enqueue(b)

	assert.True(t, r.TakeWaiting(a.ID, b.ID))
	assert.Empty(t, r.Waiting())

	// Already taken; a second claim must fail outright.
	assert.False(t, r.TakeWaiting(a.ID, b.ID))
}

func TestTakeWaitingRefusesPartialClaims(t *testing.T) {
	r := NewRoster()
	a := NewPlayer(uuid.Nil, "a")
	r.Enqueue(a)

	assert.False(t, r.TakeWaiting(a.ID, uuid.New()))
	// The failed claim must not have consumed a.
	assert.Len(t, r.Waiting(), 1)
}

func TestRemoveParticipantDropsOrphanedMatch(t *testing.T) {
	r := NewRoster()
	a := NewPlayer(uuid.Nil, "a")
	b := NewPlayer(uuid.Nil, "b")
	m := newMatch(a, b)
	r.AddMatch(m)

	r.RemoveParticipant(a.ID)
	require.NotNil(t, r.Match(m.ID), "one human still attached")

	r.RemoveParticipant(b.ID)
	assert.Nil(t, r.Match(m.ID))
	assert.Nil(t, r.MatchOf(a.ID))
	assert.Nil(t, r.Player(b.ID))
}

func TestRemoveParticipantKeepsBotMatchUntilHumanLeaves(t *testing.T) {
	r := NewRoster()
	human := NewPlayer(uuid.Nil, "human")
	bot := &Player{ID: uuid.New(), Name: botName, Bot: true, State: PlayerActive}
	m := newMatch(human, bot)
	r.AddMatch(m)

	r.RemoveParticipant(human.ID)
	assert.Nil(t, r.Match(m.ID), "bot-only match is dropped")
}

func TestRemoveMatchClearsIndices(t *testing.T) {
	r := NewRoster()
	a := NewPlayer(uuid.Nil, "a")
	b := NewPlayer(uuid.Nil, "b")
	m := newMatch(a, b)
	r.AddMatch(m)

	waiting, matches := r.Counts()
	assert.Equal(t, 0, waiting)
	assert.Equal(t, 1, matches)

	r.RemoveMatch(m.ID)
	assert.Nil(t, r.Match(m.ID))
	assert.Nil(t, r.MatchOf(a.ID))
	assert.Nil(t, r.MatchOf(b.ID))
}
