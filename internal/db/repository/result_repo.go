package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MatchResult is the immutable record of a settled match.
type MatchResult struct {
	ID              uuid.UUID
	PlayerAID       *uuid.UUID // nil for bot or unregistered participants
	PlayerBID       *uuid.UUID
	PlayerAName     string
	PlayerBName     string
	ScoreA          int
	ScoreB          int
	WinnerID        *uuid.UUID // nil on draw or bot win
	BotMatch        bool
	Forfeit         bool
	RatingAAfter    *int
	RatingBAfter    *int
	DurationSeconds int
	CreatedAt       time.Time
}

// ResultRepository persists settled match outcomes.
type ResultRepository struct {
	db dbtx
}

func NewResultRepository(db dbtx) *ResultRepository {
	return &ResultRepository{db: db}
}

// Insert writes one match_results row.
func (r *ResultRepository) Insert(ctx context.Context, res MatchResult) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO match_results
			(id, player_a_id, player_b_id, player_a_name, player_b_name,
			 score_a, score_b, winner_id, bot_match, forfeit,
			 rating_a_after, rating_b_after, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		res.ID, res.PlayerAID, res.PlayerBID, res.PlayerAName, res.PlayerBName,
		res.ScoreA, res.ScoreB, res.WinnerID, res.BotMatch, res.Forfeit,
		res.RatingAAfter, res.RatingBAfter, res.DurationSeconds)
	if err != nil {
		return fmt.Errorf("insert match result: %w", err)
	}
	return nil
}

// RecentForPlayer lists a player's latest settled matches, newest first.
func (r *ResultRepository) RecentForPlayer(ctx context.Context, playerID uuid.UUID, limit int) ([]MatchResult, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, player_a_id, player_b_id, player_a_name, player_b_name,
		       score_a, score_b, winner_id, bot_match, forfeit,
		       rating_a_after, rating_b_after, duration_seconds, created_at
		FROM match_results
		WHERE player_a_id = $1 OR player_b_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent results query: %w", err)
	}
	defer rows.Close()

	var results []MatchResult
	for rows.Next() {
		var res MatchResult
		if err := rows.Scan(
			&res.ID, &res.PlayerAID, &res.PlayerBID, &res.PlayerAName, &res.PlayerBName,
			&res.ScoreA, &res.ScoreB, &res.WinnerID, &res.BotMatch, &res.Forfeit,
			&res.RatingAAfter, &res.RatingBAfter, &res.DurationSeconds, &res.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
