package rating

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/exportnine/server/internal/db/repository"
	httperrors "github.com/exportnine/server/pkg/http/errors"
)

// HTTPHandler serves the read-side rating endpoints.
type HTTPHandler struct {
	service      *Service
	defaultLimit int
	logger       zerolog.Logger
}

func NewHTTPHandler(service *Service, defaultLimit int, logger zerolog.Logger) *HTTPHandler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &HTTPHandler{
		service:      service,
		defaultLimit: defaultLimit,
		logger:       logger.With().Str("component", "rating_http").Logger(),
	}
}

type leaderboardEntry struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"player_id"`
	Name        string `json:"name"`
	Rating      int    `json:"rating"`
	Category    string `json:"category"`
	GamesPlayed int    `json:"games_played"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Draws       int    `json:"draws"`
}

// HandleLeaderboard serves GET /v1/leaderboard?limit=N.
func (h *HTTPHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	players, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("leaderboard fetch failed")
		httperrors.RespondInternalError(w, "failed to fetch leaderboard")
		return
	}

	entries := make([]leaderboardEntry, 0, len(players))
	for i, p := range players {
		entries = append(entries, leaderboardEntry{
			Rank:        i + 1,
			PlayerID:    p.ID.String(),
			Name:        p.Name,
			Rating:      p.Rating,
			Category:    Category(p.Rating),
			GamesPlayed: p.GamesPlayed,
			Wins:        p.Wins,
			Losses:      p.Losses,
			Draws:       p.Draws,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

type opponentResponse struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Rating   int    `json:"rating"`
	Category string `json:"category"`
}

// HandleSuggestOpponent serves GET /v1/players/{id}/opponent, proposing a
// rated opponent near the player's own rating.
func (h *HTTPHandler) HandleSuggestOpponent(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPlayerID, "invalid player id")
		return
	}

	opponent, found, err := h.service.SuggestOpponent(r.Context(), playerID)
	if err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodePlayerNotFound, "player not found")
			return
		}
		h.logger.Error().Err(err).Str("player_id", playerID.String()).Msg("opponent suggestion failed")
		httperrors.RespondInternalError(w, "failed to suggest opponent")
		return
	}
	if !found {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "no rated opponents available")
		return
	}

	respondJSON(w, http.StatusOK, opponentResponse{
		PlayerID: opponent.ID.String(),
		Name:     opponent.Name,
		Rating:   opponent.Rating,
		Category: Category(opponent.Rating),
	})
}

type resultEntry struct {
	OpponentName    string `json:"opponent_name"`
	MyScore         int    `json:"my_score"`
	OpponentScore   int    `json:"opponent_score"`
	Outcome         string `json:"outcome"`
	BotMatch        bool   `json:"bot_match"`
	Forfeit         bool   `json:"forfeit"`
	RatingAfter     *int   `json:"rating_after,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
	PlayedAt        string `json:"played_at"`
}

// HandleRecentResults serves GET /v1/players/{id}/results.
func (h *HTTPHandler) HandleRecentResults(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPlayerID, "invalid player id")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	results, err := h.service.RecentResults(r.Context(), playerID, limit)
	if err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodePlayerNotFound, "player not found")
			return
		}
		h.logger.Error().Err(err).Str("player_id", playerID.String()).Msg("recent results fetch failed")
		httperrors.RespondInternalError(w, "failed to fetch results")
		return
	}

	entries := make([]resultEntry, 0, len(results))
	for _, res := range results {
		entries = append(entries, toResultEntry(playerID, res))
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": entries})
}

func toResultEntry(playerID uuid.UUID, res repository.MatchResult) resultEntry {
	entry := resultEntry{
		BotMatch:        res.BotMatch,
		Forfeit:         res.Forfeit,
		DurationSeconds: res.DurationSeconds,
		PlayedAt:        res.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}

	mine := res.PlayerAID != nil && *res.PlayerAID == playerID
	if mine {
		entry.OpponentName = res.PlayerBName
		entry.MyScore, entry.OpponentScore = res.ScoreA, res.ScoreB
		entry.RatingAfter = res.RatingAAfter
	} else {
		entry.OpponentName = res.PlayerAName
		entry.MyScore, entry.OpponentScore = res.ScoreB, res.ScoreA
		entry.RatingAfter = res.RatingBAfter
	}

	switch {
	case entry.MyScore > entry.OpponentScore:
		entry.Outcome = repository.OutcomeWin
	case entry.MyScore < entry.OpponentScore:
		entry.Outcome = repository.OutcomeLoss
	default:
		entry.Outcome = repository.OutcomeDraw
	}
	return entry
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
