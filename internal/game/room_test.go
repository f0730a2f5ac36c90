package game

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomClaimPairsTwoArrivals(t *testing.T) {
	rm := NewRoomManager(time.Minute, zerolog.Nop())
	room := rm.Create(uuid.New(), "Host")
	require.Len(t, room.Code, 6)

	first := NewPlayer(uuid.Nil, "first")
	partner, ready, err := rm.Claim(room.Code, first)
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Nil(t, partner)

	second := NewPlayer(uuid.Nil, "second")
	partner, ready, err = rm.Claim(room.Code, second)
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, first, partner)

	// Consumed rooms reject further claims.
	_, _, err = rm.Claim(room.Code, NewPlayer(uuid.Nil, "third"))
	assert.ErrorIs(t, err, ErrRoomConsumed)
}

func TestRoomClaimRejectsSelfPairing(t *testing.T) {
	rm := NewRoomManager(time.Minute, zerolog.Nop())
	room := rm.Create(uuid.New(), "Host")

	p := NewPlayer(uuid.Nil, "solo")
	_, _, err := rm.Claim(room.Code, p)
	require.NoError(t, err)

	_, _, err = rm.Claim(room.Code, p)
	assert.ErrorIs(t, err, ErrOwnRoom)
}

func TestRoomExpiry(t *testing.T) {
	rm := NewRoomManager(time.Millisecond, zerolog.Nop())
	room := rm.Create(uuid.New(), "Host")

	time.Sleep(5 * time.Millisecond)

	_, ok := rm.Get(room.Code)
	assert.False(t, ok)
	_, _, err := rm.Claim(room.Code, NewPlayer(uuid.Nil, "late"))
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomUnknownCode(t *testing.T) {
	rm := NewRoomManager(time.Minute, zerolog.Nop())
	_, _, err := rm.Claim("000000", NewPlayer(uuid.Nil, "p"))
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomAbandonReopensSlot(t *testing.T) {
	rm := NewRoomManager(time.Minute, zerolog.Nop())
	room := rm.Create(uuid.New(), "Host")

	first := NewPlayer(uuid.Nil, "first")
	_, _, err := rm.Claim(room.Code, first)
	require.NoError(t, err)

	rm.Abandon(room.Code, first.ID)

	got, ok := rm.Get(room.Code)
	require.True(t, ok)
	assert.Equal(t, 0, got.Occupancy())

	// The same player can come back after abandoning.
	_, ready, err := rm.Claim(room.Code, first)
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestRoomListByCreator(t *testing.T) {
	rm := NewRoomManager(time.Minute, zerolog.Nop())
	creator := uuid.New()
	rm.Create(creator, "Host")
	rm.Create(creator, "Host")
	rm.Create(uuid.New(), "Other")

	assert.Len(t, rm.ListByCreator(creator), 2)
}
