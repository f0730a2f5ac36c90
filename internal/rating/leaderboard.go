package rating

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const indexKey = "rating:index"

// Opponent search widens in bands before giving up on closeness.
var searchBands = []int{100, 200}

// Index keeps a Redis ZSET of player ratings for cheap range queries:
// top-N listings and find-an-opponent-near-my-rating lookups. Postgres stays
// the source of truth; the index is rebuilt lazily as settlements land.
type Index struct {
	redis  *redis.Client
	logger zerolog.Logger
}

func NewIndex(rdb *redis.Client, logger zerolog.Logger) *Index {
	return &Index{
		redis:  rdb,
		logger: logger.With().Str("component", "rating_index").Logger(),
	}
}

// Update records a player's current rating. Index refresh is best effort; a
// Redis hiccup must not fail a settlement.
func (i *Index) Update(ctx context.Context, playerID uuid.UUID, rating int) {
	if err := i.redis.ZAdd(ctx, indexKey, redis.Z{Score: float64(rating), Member: playerID.String()}).Err(); err != nil {
		i.logger.Warn().Err(err).Str("player_id", playerID.String()).Msg("rating index update failed")
	}
}

// Remove drops a player from the index.
func (i *Index) Remove(ctx context.Context, playerID uuid.UUID) {
	if err := i.redis.ZRem(ctx, indexKey, playerID.String()).Err(); err != nil {
		i.logger.Warn().Err(err).Str("player_id", playerID.String()).Msg("rating index remove failed")
	}
}

// IndexEntry is one row of the rating index.
type IndexEntry struct {
	PlayerID uuid.UUID
	Rating   int
}

// Top returns the highest rated indexed players.
func (i *Index) Top(ctx context.Context, n int) ([]IndexEntry, error) {
	members, err := i.redis.ZRevRangeWithScores(ctx, indexKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("rating index top: %w", err)
	}
	entries := make([]IndexEntry, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m.Member.(string))
		if err != nil {
			continue
		}
		entries = append(entries, IndexEntry{PlayerID: id, Rating: int(m.Score)})
	}
	return entries, nil
}

// NearRating suggests an opponent close to the given rating, widening the
// search band from ±100 to ±200 before falling back to anyone indexed.
// Returns false when nobody but the excluded player is indexed.
func (i *Index) NearRating(ctx context.Context, ratingValue int, exclude uuid.UUID) (uuid.UUID, bool, error) {
	for _, band := range searchBands {
		candidates, err := i.redis.ZRangeByScore(ctx, indexKey, &redis.ZRangeBy{
			Min: fmt.Sprint(ratingValue - band),
			Max: fmt.Sprint(ratingValue + band),
		}).Result()
		if err != nil {
			return uuid.Nil, false, fmt.Errorf("rating index range: %w", err)
		}
		if id, ok := pickCandidate(candidates, exclude); ok {
			return id, true, nil
		}
	}

	all, err := i.redis.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("rating index scan: %w", err)
	}
	if id, ok := pickCandidate(all, exclude); ok {
		return id, true, nil
	}
	return uuid.Nil, false, nil
}

func pickCandidate(members []string, exclude uuid.UUID) (uuid.UUID, bool) {
	ids := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		id, err := uuid.Parse(member)
		if err != nil || id == exclude {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return uuid.Nil, false
	}
	return ids[rand.Intn(len(ids))], true
}
