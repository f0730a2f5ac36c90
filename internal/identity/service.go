package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/exportnine/server/internal/db/repository"
	"github.com/exportnine/server/internal/rating"
)

const maxNameLength = 24

type playerStore interface {
	Create(ctx context.Context, name string, isGuest bool, ratingValue int) (repository.Player, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Player, error)
}

// Service owns player identities: guest creation and profile lookups.
type Service struct {
	players playerStore
	tokens  *TokenManager
	logger  zerolog.Logger
}

func NewService(players playerStore, tokens *TokenManager, logger zerolog.Logger) *Service {
	return &Service{
		players: players,
		tokens:  tokens,
		logger:  logger.With().Str("component", "identity").Logger(),
	}
}

// CreateGuest registers a guest player and issues a session token. An empty
// name gets a generated trade-themed one.
func (s *Service) CreateGuest(ctx context.Context, name string) (repository.Player, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = GuestName()
	}
	// Truncate on rune boundaries so a multi-byte name stays valid UTF-8.
	if runes := []rune(name); len(runes) > maxNameLength {
		name = string(runes[:maxNameLength])
	}

	player, err := s.players.Create(ctx, name, true, rating.DefaultRating)
	if err != nil {
		return repository.Player{}, "", fmt.Errorf("create guest: %w", err)
	}

	token, err := s.tokens.Generate(player.ID, player.Name, true)
	if err != nil {
		return repository.Player{}, "", fmt.Errorf("sign guest token: %w", err)
	}

	s.logger.Info().Str("player_id", player.ID.String()).Str("name", player.Name).Msg("guest created")
	return player, token, nil
}

// GetPlayer fetches a player profile.
func (s *Service) GetPlayer(ctx context.Context, id uuid.UUID) (repository.Player, error) {
	return s.players.GetByID(ctx, id)
}

// Authenticate validates a session token and returns its claims.
func (s *Service) Authenticate(token string) (*Claims, error) {
	return s.tokens.Validate(token)
}
