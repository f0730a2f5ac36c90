package identity

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/exportnine/server/internal/db/repository"
	"github.com/exportnine/server/internal/rating"
	httperrors "github.com/exportnine/server/pkg/http/errors"
)

// HTTPHandler serves the identity REST endpoints.
type HTTPHandler struct {
	service *Service
	logger  zerolog.Logger
}

func NewHTTPHandler(service *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		logger:  logger.With().Str("component", "identity_http").Logger(),
	}
}

type createGuestRequest struct {
	Name string `json:"name"`
}

type playerResponse struct {
	PlayerID    string `json:"player_id"`
	Name        string `json:"name"`
	IsGuest     bool   `json:"is_guest"`
	Rating      int    `json:"rating"`
	Category    string `json:"category"`
	GamesPlayed int    `json:"games_played"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Draws       int    `json:"draws"`
}

type createGuestResponse struct {
	Player playerResponse `json:"player"`
	Token  string         `json:"token"`
}

// HandleCreateGuest serves POST /v1/guests.
func (h *HTTPHandler) HandleCreateGuest(w http.ResponseWriter, r *http.Request) {
	var req createGuestRequest
	if r.Body != nil {
		// An empty body is fine; the name is optional.
		json.NewDecoder(r.Body).Decode(&req)
	}

	player, token, err := h.service.CreateGuest(r.Context(), req.Name)
	if err != nil {
		h.logger.Error().Err(err).Msg("guest creation failed")
		httperrors.RespondInternalError(w, "failed to create guest")
		return
	}

	respondJSON(w, http.StatusCreated, createGuestResponse{
		Player: toPlayerResponse(player),
		Token:  token,
	})
}

// HandleGetPlayer serves GET /v1/players/{id}.
func (h *HTTPHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPlayerID, "invalid player id")
		return
	}

	player, err := h.service.GetPlayer(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodePlayerNotFound, "player not found")
			return
		}
		h.logger.Error().Err(err).Str("player_id", id.String()).Msg("player fetch failed")
		httperrors.RespondInternalError(w, "failed to fetch player")
		return
	}

	respondJSON(w, http.StatusOK, toPlayerResponse(player))
}

func toPlayerResponse(p repository.Player) playerResponse {
	return playerResponse{
		PlayerID:    p.ID.String(),
		Name:        p.Name,
		IsGuest:     p.IsGuest,
		Rating:      p.Rating,
		Category:    rating.Category(p.Rating),
		GamesPlayed: p.GamesPlayed,
		Wins:        p.Wins,
		Losses:      p.Losses,
		Draws:       p.Draws,
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
