package identity

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exportnine/server/internal/db/repository"
	"github.com/exportnine/server/internal/rating"
)

type stubPlayerStore struct {
	created []repository.Player
}

func (s *stubPlayerStore) Create(_ context.Context, name string, isGuest bool, ratingValue int) (repository.Player, error) {
	p := repository.Player{ID: uuid.New(), Name: name, IsGuest: isGuest, Rating: ratingValue}
	s.created = append(s.created, p)
	return p, nil
}

func (s *stubPlayerStore) GetByID(_ context.Context, id uuid.UUID) (repository.Player, error) {
	for _, p := range s.created {
		if p.ID == id {
			return p, nil
		}
	}
	return repository.Player{}, repository.ErrPlayerNotFound
}

func newTestService() (*Service, *stubPlayerStore) {
	store := &stubPlayerStore{}
	tokens := NewTokenManager(TokenConfig{Secret: []byte("test-secret")})
	return NewService(store, tokens, zerolog.New(io.Discard)), store
}

func TestCreateGuestIssuesValidToken(t *testing.T) {
	service, store := newTestService()

	player, token, err := service.CreateGuest(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", player.Name)
	assert.True(t, player.IsGuest)
	assert.Equal(t, rating.DefaultRating, player.Rating)
	require.Len(t, store.created, 1)

	claims, err := service.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, player.ID, claims.PlayerID)
	assert.Equal(t, "alice", claims.Name)
	assert.True(t, claims.IsGuest)
}

func TestCreateGuestGeneratesNameWhenEmpty(t *testing.T) {
	service, _ := newTestService()

	player, _, err := service.CreateGuest(context.Background(), "   ")
	require.NoError(t, err)
	assert.NotEmpty(t, player.Name)
}

func TestCreateGuestTruncatesLongNames(t *testing.T) {
	service, _ := newTestService()

	player, _, err := service.CreateGuest(context.Background(), "an-unreasonably-long-display-name-for-a-card-game")
	require.NoError(t, err)
	assert.Len(t, player.Name, maxNameLength)
}

func TestCreateGuestTruncatesOnRuneBoundary(t *testing.T) {
	service, _ := newTestService()

	player, _, err := service.CreateGuest(context.Background(), strings.Repeat("ü", 30))
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(player.Name), "truncation must not split a rune")
	assert.Equal(t, maxNameLength, utf8.RuneCountInString(player.Name))
}

func TestAuthenticateRejectsForeignToken(t *testing.T) {
	service, _ := newTestService()

	other := NewTokenManager(TokenConfig{Secret: []byte("other-secret")})
	token, err := other.Generate(uuid.New(), "mallory", true)
	require.NoError(t, err)

	_, err = service.Authenticate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	tokens := NewTokenManager(TokenConfig{Secret: []byte("test-secret"), TTL: -time.Minute})
	service := NewService(&stubPlayerStore{}, tokens, zerolog.New(io.Discard))

	token, err := tokens.Generate(uuid.New(), "bob", true)
	require.NoError(t, err)

	_, err = service.Authenticate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
