package rating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/exportnine/server/internal/db/repository"
)

// Bot opponents settle against a fixed anchor and are never persisted.
const (
	botAnchorRating = DefaultRating
	botAnchorGames  = 100
)

type PlayerStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Player, error)
	ApplyResult(ctx context.Context, id uuid.UUID, newRating int, outcome string) error
	Leaderboard(ctx context.Context, limit, minGames int) ([]repository.Player, error)
}

type ResultStore interface {
	Insert(ctx context.Context, res repository.MatchResult) error
	RecentForPlayer(ctx context.Context, playerID uuid.UUID, limit int) ([]repository.MatchResult, error)
}

// Participant identifies one side of a settlement. A zero ID marks an
// unpersisted participant (bot), which is rated against the anchor but
// receives no updates.
type Participant struct {
	ID   uuid.UUID
	Name string
	Bot  bool
}

// ResultRequest asks for one match to be settled.
type ResultRequest struct {
	A        Participant
	B        Participant
	ScoreA   int
	ScoreB   int
	Forfeit  bool
	Duration time.Duration
}

// Change is an applied rating update for one persisted player.
type Change struct {
	PlayerID  uuid.UUID `json:"player_id"`
	NewRating int       `json:"new_rating"`
	Delta     int       `json:"delta"`
}

// Settlement is the recorded outcome of a settled match. Duplicate marks a
// replay answered from the dedupe record instead of a fresh computation.
type Settlement struct {
	Changes   []Change `json:"changes"`
	Exchanged int      `json:"exchanged"`
	Duplicate bool     `json:"-"`
}

// Service applies Elo settlement exactly once per match result. A short-lived
// Redis record keyed by the ordered (pair, scores) tuple absorbs duplicate
// submissions; replays get the originally computed deltas back.
type Service struct {
	players PlayerStore
	results ResultStore
	redis   *redis.Client
	index   *Index
	window  time.Duration
	logger  zerolog.Logger
}

func NewService(players PlayerStore, results ResultStore, rdb *redis.Client, index *Index, dedupeWindow time.Duration, logger zerolog.Logger) *Service {
	if dedupeWindow <= 0 {
		dedupeWindow = 5 * time.Minute
	}
	return &Service{
		players: players,
		results: results,
		redis:   rdb,
		index:   index,
		window:  dedupeWindow,
		logger:  logger.With().Str("component", "rating").Logger(),
	}
}

// RecordResult settles a match: computes Elo for both sides, persists player
// updates and a result row, and refreshes the rating index. Submitting the
// same (pair, scores) tuple again within the dedupe window returns the stored
// settlement without touching storage.
func (s *Service) RecordResult(ctx context.Context, req ResultRequest) (Settlement, error) {
	ratingA, gamesA, err := s.lookup(ctx, req.A)
	if err != nil {
		return Settlement{}, err
	}
	ratingB, gamesB, err := s.lookup(ctx, req.B)
	if err != nil {
		return Settlement{}, err
	}

	elo := CalculateElo(ratingA, gamesA, ratingB, gamesB, req.ScoreA, req.ScoreB)

	settlement := Settlement{Exchanged: elo.Exchanged}
	if !req.A.Bot && req.A.ID != uuid.Nil {
		settlement.Changes = append(settlement.Changes, Change{PlayerID: req.A.ID, NewRating: elo.NewRatingA, Delta: elo.DeltaA})
	}
	if !req.B.Bot && req.B.ID != uuid.Nil {
		settlement.Changes = append(settlement.Changes, Change{PlayerID: req.B.ID, NewRating: elo.NewRatingB, Delta: elo.DeltaB})
	}

	stored, fresh, err := s.claim(ctx, req, settlement)
	if err != nil {
		return Settlement{}, err
	}
	if !fresh {
		s.logger.Info().Str("player_a", req.A.Name).Str("player_b", req.B.Name).Msg("duplicate settlement answered from dedupe record")
		stored.Duplicate = true
		return stored, nil
	}

	if err := s.persist(ctx, req, elo); err != nil {
		// Release the claim so a retry can settle for real instead of
		// being answered with deltas that never reached storage.
		if delErr := s.redis.Del(ctx, dedupeKey(req)).Err(); delErr != nil {
			s.logger.Warn().Err(delErr).Msg("dedupe claim release failed")
		}
		return Settlement{}, err
	}

	for _, change := range settlement.Changes {
		s.index.Update(ctx, change.PlayerID, change.NewRating)
	}

	s.logger.Info().
		Str("player_a", req.A.Name).Str("player_b", req.B.Name).
		Int("score_a", req.ScoreA).Int("score_b", req.ScoreB).
		Int("exchanged", elo.Exchanged).
		Bool("forfeit", req.Forfeit).
		Msg("match settled")
	return settlement, nil
}

// Leaderboard returns the top rated players with enough games to qualify.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]repository.Player, error) {
	return s.players.Leaderboard(ctx, limit, leaderboardMinGames)
}

const leaderboardMinGames = 3

// RecentResults lists a player's latest settled matches.
func (s *Service) RecentResults(ctx context.Context, playerID uuid.UUID, limit int) ([]repository.MatchResult, error) {
	if _, err := s.players.GetByID(ctx, playerID); err != nil {
		return nil, err
	}
	return s.results.RecentForPlayer(ctx, playerID, limit)
}

// SuggestOpponent finds a rated opponent near the player's rating via the
// Redis index, widening the band when close matches are scarce.
func (s *Service) SuggestOpponent(ctx context.Context, playerID uuid.UUID) (repository.Player, bool, error) {
	self, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return repository.Player{}, false, err
	}

	candidateID, found, err := s.index.NearRating(ctx, self.Rating, playerID)
	if err != nil || !found {
		return repository.Player{}, false, err
	}

	opponent, err := s.players.GetByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			// Index entry outlived the player row; drop it.
			s.index.Remove(ctx, candidateID)
			return repository.Player{}, false, nil
		}
		return repository.Player{}, false, err
	}
	return opponent, true, nil
}

func (s *Service) lookup(ctx context.Context, p Participant) (rating, games int, err error) {
	if p.Bot || p.ID == uuid.Nil {
		return botAnchorRating, botAnchorGames, nil
	}
	record, err := s.players.GetByID(ctx, p.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("load player %s: %w", p.ID, err)
	}
	return record.Rating, record.GamesPlayed, nil
}

// claim tries to own the dedupe record. Returns the settlement on record and
// whether this caller won the claim.
func (s *Service) claim(ctx context.Context, req ResultRequest, settlement Settlement) (Settlement, bool, error) {
	key := dedupeKey(req)
	payload, err := json.Marshal(settlement)
	if err != nil {
		return Settlement{}, false, err
	}

	won, err := s.redis.SetNX(ctx, key, payload, s.window).Result()
	if err != nil {
		return Settlement{}, false, fmt.Errorf("settlement dedupe: %w", err)
	}
	if won {
		return settlement, true, nil
	}

	raw, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		// Record expired between SetNX and Get; treat as duplicate with
		// the freshly computed values rather than settling twice.
		if err == redis.Nil {
			return settlement, false, nil
		}
		return Settlement{}, false, fmt.Errorf("settlement dedupe read: %w", err)
	}
	var prior Settlement
	if err := json.Unmarshal(raw, &prior); err != nil {
		return Settlement{}, false, fmt.Errorf("settlement dedupe decode: %w", err)
	}
	return prior, false, nil
}

func (s *Service) persist(ctx context.Context, req ResultRequest, elo EloResult) error {
	outcomeA, outcomeB := outcomes(req.ScoreA, req.ScoreB)

	if !req.A.Bot && req.A.ID != uuid.Nil {
		if err := s.players.ApplyResult(ctx, req.A.ID, elo.NewRatingA, outcomeA); err != nil {
			return err
		}
	}
	if !req.B.Bot && req.B.ID != uuid.Nil {
		if err := s.players.ApplyResult(ctx, req.B.ID, elo.NewRatingB, outcomeB); err != nil {
			return err
		}
	}

	record := repository.MatchResult{
		PlayerAName:     req.A.Name,
		PlayerBName:     req.B.Name,
		ScoreA:          req.ScoreA,
		ScoreB:          req.ScoreB,
		BotMatch:        req.A.Bot || req.B.Bot,
		Forfeit:         req.Forfeit,
		DurationSeconds: int(req.Duration.Seconds()),
	}
	if !req.A.Bot && req.A.ID != uuid.Nil {
		id := req.A.ID
		after := elo.NewRatingA
		record.PlayerAID = &id
		record.RatingAAfter = &after
	}
	if !req.B.Bot && req.B.ID != uuid.Nil {
		id := req.B.ID
		after := elo.NewRatingB
		record.PlayerBID = &id
		record.RatingBAfter = &after
	}
	switch {
	case req.ScoreA > req.ScoreB && record.PlayerAID != nil:
		record.WinnerID = record.PlayerAID
	case req.ScoreB > req.ScoreA && record.PlayerBID != nil:
		record.WinnerID = record.PlayerBID
	}

	return s.results.Insert(ctx, record)
}

func outcomes(scoreA, scoreB int) (string, string) {
	switch {
	case scoreA > scoreB:
		return repository.OutcomeWin, repository.OutcomeLoss
	case scoreB > scoreA:
		return repository.OutcomeLoss, repository.OutcomeWin
	default:
		return repository.OutcomeDraw, repository.OutcomeDraw
	}
}

// dedupeKey orders the pair so both submission directions collide.
func dedupeKey(req ResultRequest) string {
	aKey, bKey := participantKey(req.A), participantKey(req.B)
	scoreA, scoreB := req.ScoreA, req.ScoreB
	if aKey > bKey {
		aKey, bKey = bKey, aKey
		scoreA, scoreB = scoreB, scoreA
	}
	return fmt.Sprintf("settle:%s:%s:%d:%d", aKey, bKey, scoreA, scoreB)
}

func participantKey(p Participant) string {
	if p.Bot || p.ID == uuid.Nil {
		return "bot:" + p.Name
	}
	return p.ID.String()
}
