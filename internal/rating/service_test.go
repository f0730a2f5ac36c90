package rating

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exportnine/server/internal/db/repository"
)

type stubPlayerStore struct {
	mu      sync.Mutex
	players map[uuid.UUID]repository.Player
	applied []string
}

func newStubPlayerStore(players ...repository.Player) *stubPlayerStore {
	s := &stubPlayerStore{players: map[uuid.UUID]repository.Player{}}
	for _, p := range players {
		s.players[p.ID] = p
	}
	return s
}

func (s *stubPlayerStore) GetByID(_ context.Context, id uuid.UUID) (repository.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return repository.Player{}, repository.ErrPlayerNotFound
	}
	return p, nil
}

func (s *stubPlayerStore) ApplyResult(_ context.Context, id uuid.UUID, newRating int, outcome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return repository.ErrPlayerNotFound
	}
	p.Rating = newRating
	p.GamesPlayed++
	s.players[id] = p
	s.applied = append(s.applied, outcome)
	return nil
}

func (s *stubPlayerStore) Leaderboard(_ context.Context, limit, minGames int) ([]repository.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.Player
	for _, p := range s.players {
		if p.GamesPlayed >= minGames {
			out = append(out, p)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubPlayerStore) applyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.applied)
}

type stubResultStore struct {
	mu       sync.Mutex
	inserts  []repository.MatchResult
	failNext error
}

func (s *stubResultStore) Insert(_ context.Context, res repository.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	s.inserts = append(s.inserts, res)
	return nil
}

func (s *stubResultStore) RecentForPlayer(_ context.Context, playerID uuid.UUID, limit int) ([]repository.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.MatchResult
	for i := len(s.inserts) - 1; i >= 0 && len(out) < limit; i-- {
		res := s.inserts[i]
		if (res.PlayerAID != nil && *res.PlayerAID == playerID) || (res.PlayerBID != nil && *res.PlayerBID == playerID) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (s *stubResultStore) insertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserts)
}

func newTestService(t *testing.T, players *stubPlayerStore, results *stubResultStore) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := zerolog.New(io.Discard)
	return NewService(players, results, rdb, NewIndex(rdb, logger), time.Minute, logger)
}

func TestRecordResultUpdatesBothPlayers(t *testing.T) {
	a := repository.Player{ID: uuid.New(), Name: "alice", Rating: 1200, GamesPlayed: 10}
	b := repository.Player{ID: uuid.New(), Name: "bob", Rating: 1200, GamesPlayed: 10}
	players := newStubPlayerStore(a, b)
	results := &stubResultStore{}
	service := newTestService(t, players, results)

	settlement, err := service.RecordResult(context.Background(), ResultRequest{
		A: Participant{ID: a.ID, Name: a.Name},
		B: Participant{ID: b.ID, Name: b.Name},
		ScoreA: 5, ScoreB: 4,
		Duration: 3 * time.Minute,
	})

	require.NoError(t, err)
	assert.False(t, settlement.Duplicate)
	assert.Len(t, settlement.Changes, 2)
	assert.Equal(t, 16, settlement.Exchanged)
	assert.Equal(t, 2, players.applyCount())
	assert.Equal(t, 1, results.insertCount())

	updatedA, _ := players.GetByID(context.Background(), a.ID)
	assert.Equal(t, 1216, updatedA.Rating)
}

func TestRecordResultIsSettledAtMostOnce(t *testing.T) {
	a := repository.Player{ID: uuid.New(), Name: "alice", Rating: 1200, GamesPlayed: 10}
	b := repository.Player{ID: uuid.New(), Name: "bob", Rating: 1200, GamesPlayed: 10}
	players := newStubPlayerStore(a, b)
	results := &stubResultStore{}
	service := newTestService(t, players, results)

	req := ResultRequest{
		A: Participant{ID: a.ID, Name: a.Name},
		B: Participant{ID: b.ID, Name: b.Name},
		ScoreA: 5, ScoreB: 4,
	}

	first, err := service.RecordResult(context.Background(), req)
	require.NoError(t, err)

	second, err := service.RecordResult(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Changes, second.Changes, "replay gets the stored deltas")
	assert.Equal(t, 2, players.applyCount(), "ratings applied only once")
	assert.Equal(t, 1, results.insertCount(), "one result row")
}

func TestRecordResultPersistFailureAllowsRetry(t *testing.T) {
	a := repository.Player{ID: uuid.New(), Name: "alice", Rating: 1200, GamesPlayed: 10}
	b := repository.Player{ID: uuid.New(), Name: "bob", Rating: 1200, GamesPlayed: 10}
	players := newStubPlayerStore(a, b)
	results := &stubResultStore{failNext: errors.New("insert: connection reset")}
	service := newTestService(t, players, results)

	req := ResultRequest{
		A: Participant{ID: a.ID, Name: a.Name},
		B: Participant{ID: b.ID, Name: b.Name},
		ScoreA: 5, ScoreB: 4,
	}

	_, err := service.RecordResult(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, 0, results.insertCount())

	// The failed attempt must not hold the dedupe claim: the retry
	// settles for real instead of replaying deltas that never landed.
	retried, err := service.RecordResult(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, retried.Duplicate)
	assert.Equal(t, 1, results.insertCount())
}

func TestRecordResultDedupeIgnoresPairOrder(t *testing.T) {
	a := repository.Player{ID: uuid.New(), Name: "alice", Rating: 1200, GamesPlayed: 10}
	b := repository.Player{ID: uuid.New(), Name: "bob", Rating: 1200, GamesPlayed: 10}
	players := newStubPlayerStore(a, b)
	results := &stubResultStore{}
	service := newTestService(t, players, results)

	_, err := service.RecordResult(context.Background(), ResultRequest{
		A: Participant{ID: a.ID, Name: a.Name},
		B: Participant{ID: b.ID, Name: b.Name},
		ScoreA: 9, ScoreB: 0,
	})
	require.NoError(t, err)

	flipped, err := service.RecordResult(context.Background(), ResultRequest{
		A: Participant{ID: b.ID, Name: b.Name},
		B: Participant{ID: a.ID, Name: a.Name},
		ScoreA: 0, ScoreB: 9,
	})
	require.NoError(t, err)

	assert.True(t, flipped.Duplicate)
	assert.Equal(t, 1, results.insertCount())
}

func TestRecordResultBotMatchPersistsOnlyHuman(t *testing.T) {
	human := repository.Player{ID: uuid.New(), Name: "alice", Rating: 1200, GamesPlayed: 10}
	players := newStubPlayerStore(human)
	results := &stubResultStore{}
	service := newTestService(t, players, results)

	settlement, err := service.RecordResult(context.Background(), ResultRequest{
		A: Participant{ID: human.ID, Name: human.Name},
		B: Participant{Name: "Trader Bot", Bot: true},
		ScoreA: 5, ScoreB: 4,
	})

	require.NoError(t, err)
	require.Len(t, settlement.Changes, 1)
	assert.Equal(t, human.ID, settlement.Changes[0].PlayerID)
	assert.Equal(t, 1, players.applyCount())

	require.Equal(t, 1, results.insertCount())
	record := results.inserts[0]
	assert.True(t, record.BotMatch)
	assert.Nil(t, record.PlayerBID)
	assert.Nil(t, record.RatingBAfter)
}

func TestRecordResultForfeitScores(t *testing.T) {
	a := repository.Player{ID: uuid.New(), Name: "quitter", Rating: 1200, GamesPlayed: 10}
	b := repository.Player{ID: uuid.New(), Name: "stayer", Rating: 1200, GamesPlayed: 10}
	players := newStubPlayerStore(a, b)
	results := &stubResultStore{}
	service := newTestService(t, players, results)

	_, err := service.RecordResult(context.Background(), ResultRequest{
		A: Participant{ID: a.ID, Name: a.Name},
		B: Participant{ID: b.ID, Name: b.Name},
		ScoreA: 0, ScoreB: 9,
		Forfeit: true,
	})
	require.NoError(t, err)

	require.Equal(t, 1, results.insertCount())
	record := results.inserts[0]
	assert.True(t, record.Forfeit)
	require.NotNil(t, record.WinnerID)
	assert.Equal(t, b.ID, *record.WinnerID)
}

func TestSuggestOpponentWidensBands(t *testing.T) {
	self := repository.Player{ID: uuid.New(), Name: "self", Rating: 1200, GamesPlayed: 5}
	far := repository.Player{ID: uuid.New(), Name: "far", Rating: 1390, GamesPlayed: 5}
	players := newStubPlayerStore(self, far)
	results := &stubResultStore{}
	service := newTestService(t, players, results)

	service.index.Update(context.Background(), self.ID, self.Rating)
	service.index.Update(context.Background(), far.ID, far.Rating)

	opponent, found, err := service.SuggestOpponent(context.Background(), self.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, far.ID, opponent.ID, "±200 band catches the only candidate")
}

func TestSuggestOpponentNobodyIndexed(t *testing.T) {
	self := repository.Player{ID: uuid.New(), Name: "self", Rating: 1200, GamesPlayed: 5}
	players := newStubPlayerStore(self)
	results := &stubResultStore{}
	service := newTestService(t, players, results)

	service.index.Update(context.Background(), self.ID, self.Rating)

	_, found, err := service.SuggestOpponent(context.Background(), self.ID)
	require.NoError(t, err)
	assert.False(t, found, "a player is never their own opponent")
}

func TestRecentResults(t *testing.T) {
	a := repository.Player{ID: uuid.New(), Name: "alice", Rating: 1200, GamesPlayed: 10}
	b := repository.Player{ID: uuid.New(), Name: "bob", Rating: 1200, GamesPlayed: 10}
	players := newStubPlayerStore(a, b)
	results := &stubResultStore{}
	service := newTestService(t, players, results)

	_, err := service.RecordResult(context.Background(), ResultRequest{
		A: Participant{ID: a.ID, Name: a.Name},
		B: Participant{ID: b.ID, Name: b.Name},
		ScoreA: 6, ScoreB: 3,
	})
	require.NoError(t, err)

	recent, err := service.RecentResults(context.Background(), a.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, 6, recent[0].ScoreA)

	_, err = service.RecentResults(context.Background(), uuid.New(), 10)
	assert.ErrorIs(t, err, repository.ErrPlayerNotFound)
}
