package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrPlayerNotFound reports a lookup miss.
var ErrPlayerNotFound = errors.New("player not found")

// Player is the durable identity record behind ratings.
type Player struct {
	ID          uuid.UUID
	Name        string
	IsGuest     bool
	Rating      int
	GamesPlayed int
	Wins        int
	Losses      int
	Draws       int
	CreatedAt   time.Time
}

// Outcome values accepted by ApplyResult.
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
	OutcomeDraw = "draw"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PlayerRepository exposes typed DB operations for player records.
type PlayerRepository struct {
	db dbtx
}

func NewPlayerRepository(db dbtx) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `id, name, is_guest, rating, games_played, wins, losses, draws, created_at`

// Create inserts a new player with the default rating.
func (r *PlayerRepository) Create(ctx context.Context, name string, isGuest bool, rating int) (Player, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO players (id, name, is_guest, rating)
		VALUES ($1, $2, $3, $4)
		RETURNING `+playerColumns,
		uuid.New(), name, isGuest, rating)
	return scanPlayer(row)
}

// GetByID fetches a player record.
func (r *PlayerRepository) GetByID(ctx context.Context, id uuid.UUID) (Player, error) {
	row := r.db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	p, err := scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Player{}, ErrPlayerNotFound
	}
	return p, err
}

// ApplyResult sets the post-match rating and bumps the game counters in one
// statement, so a settlement cannot leave them out of step.
func (r *PlayerRepository) ApplyResult(ctx context.Context, id uuid.UUID, newRating int, outcome string) error {
	var wins, losses, draws int
	switch outcome {
	case OutcomeWin:
		wins = 1
	case OutcomeLoss:
		losses = 1
	case OutcomeDraw:
		draws = 1
	default:
		return fmt.Errorf("unknown outcome %q", outcome)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE players
		SET rating = $2,
		    games_played = games_played + 1,
		    wins = wins + $3,
		    losses = losses + $4,
		    draws = draws + $5
		WHERE id = $1`,
		id, newRating, wins, losses, draws)
	if err != nil {
		return fmt.Errorf("apply result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// Leaderboard returns the top rated players with at least minGames played.
func (r *PlayerRepository) Leaderboard(ctx context.Context, limit, minGames int) ([]Player, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE games_played >= $2
		ORDER BY rating DESC, games_played DESC
		LIMIT $1`,
		limit, minGames)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func scanPlayer(row pgx.Row) (Player, error) {
	var p Player
	err := row.Scan(&p.ID, &p.Name, &p.IsGuest, &p.Rating, &p.GamesPlayed, &p.Wins, &p.Losses, &p.Draws, &p.CreatedAt)
	return p, err
}
