package game

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httperrors "github.com/exportnine/server/pkg/http/errors"
)

// RoomHTTPHandler exposes private room management over REST. Creating a room
// hands back a shareable code; both participants then join over the socket
// with that code.
type RoomHTTPHandler struct {
	rooms  *RoomManager
	auth   Authenticator
	logger zerolog.Logger
}

func NewRoomHTTPHandler(rooms *RoomManager, auth Authenticator, logger zerolog.Logger) *RoomHTTPHandler {
	return &RoomHTTPHandler{
		rooms:  rooms,
		auth:   auth,
		logger: logger.With().Str("component", "rooms_http").Logger(),
	}
}

type createRoomRequest struct {
	Name string `json:"name"`
}

type roomResponse struct {
	Code        string    `json:"code"`
	CreatorName string    `json:"creator_name"`
	Occupancy   int       `json:"occupancy"`
	Active      bool      `json:"active"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// HandleCreate issues a new room code. A bearer token attaches the durable
// identity; anonymous creators pass a display name in the body.
func (h *RoomHTTPHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ident := h.identityFrom(r)

	var req createRoomRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = ident.Name
	}
	if name == "" {
		name = "Host"
	}

	room := h.rooms.Create(ident.AccountID, name)
	h.respondJSON(w, http.StatusCreated, toRoomResponse(room))
}

// HandleGet reports a room's status by code.
func (h *RoomHTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if len(code) != 6 {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRoomCode, "room codes are 6 digits")
		return
	}

	room, ok := h.rooms.Get(code)
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeRoomNotFound, "room not found or expired")
		return
	}
	h.respondJSON(w, http.StatusOK, toRoomResponse(room))
}

// HandleList returns the caller's live rooms. Requires a bearer token; an
// anonymous caller has no durable identity to list by.
func (h *RoomHTTPHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ident := h.identityFrom(r)
	if ident.AccountID == uuid.Nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "listing rooms requires a token")
		return
	}

	rooms := h.rooms.ListByCreator(ident.AccountID)
	out := make([]roomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomResponse(room))
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"rooms": out})
}

func (h *RoomHTTPHandler) identityFrom(r *http.Request) Identity {
	if h.auth == nil {
		return Identity{}
	}
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return Identity{}
	}
	ident, err := h.auth(r.Context(), token)
	if err != nil {
		return Identity{}
	}
	return ident
}

func toRoomResponse(room *Room) roomResponse {
	return roomResponse{
		Code:        room.Code,
		CreatorName: room.CreatorName,
		Occupancy:   room.Occupancy(),
		Active:      room.Active,
		ExpiresAt:   room.ExpiresAt,
	}
}

func (h *RoomHTTPHandler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("response encode failed")
	}
}
