package game

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	httperrors "github.com/exportnine/server/pkg/http/errors"
	"github.com/exportnine/server/pkg/http/ws"
)

// Identity is a verified durable identity attached to a socket.
type Identity struct {
	AccountID uuid.UUID
	Name      string
}

// Authenticator validates a bearer token into an identity. Optional; sockets
// without a token play as ephemeral guests.
type Authenticator func(ctx context.Context, token string) (Identity, error)

// Handler upgrades game sockets and routes their message stream into the
// service.
type Handler struct {
	svc      *Service
	hub      *ws.Hub
	auth     Authenticator
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewHandler(svc *Service, hub *ws.Hub, auth Authenticator, allowedOrigins []string, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:  svc,
		hub:  hub,
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger.With().Str("component", "game_ws").Logger(),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// session is the per-socket state: which player this connection speaks for,
// and the verified identity behind it.
type session struct {
	playerID uuid.UUID
	identity Identity
}

// ServeWS upgrades the request and pumps messages until the socket dies. A
// drop after registration hands the player to the disconnect flow.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	var ident Identity
	if token := r.URL.Query().Get("token"); token != "" && h.auth != nil {
		verified, err := h.auth(r.Context(), token)
		if err != nil {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "invalid or expired token")
			return
		}
		ident = verified
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("upgrade failed")
		return
	}

	conn := ws.NewConnection(raw, h.logger)
	go conn.WritePump()

	sess := &session{identity: ident}
	conn.ReadPump(func(msg ws.Message) error {
		return h.route(r.Context(), conn, sess, msg)
	})

	if sess.playerID == uuid.Nil {
		conn.Close()
		return
	}
	if h.hub.UnregisterConnection(sess.playerID, conn) {
		h.svc.HandleDisconnect(sess.playerID)
	}
}

func (h *Handler) route(ctx context.Context, conn *ws.Connection, sess *session, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeJoin:
		return h.handleJoin(ctx, conn, sess, msg)
	case ws.TypePlayBot:
		return h.handlePlayBot(ctx, conn, sess, msg)
	case ws.TypeSubmitChoice:
		return h.handleSubmit(ctx, conn, sess, msg)
	case ws.TypeRejoin:
		return h.handleRejoin(ctx, conn, sess, msg)
	case ws.TypeHeartbeat:
		if sess.playerID != uuid.Nil {
			h.svc.Heartbeat(sess.playerID)
		}
		return nil
	case ws.TypeLeaving:
		if sess.playerID != uuid.Nil {
			h.svc.Leaving(sess.playerID)
		}
		return nil
	case ws.TypeRequestState:
		return h.handleRequestState(conn, sess, msg)
	default:
		h.sendError(conn, msg.RequestID, httperrors.ErrCodeUnknownMessageType, "unknown message type: "+msg.Type)
		return nil
	}
}

func (h *Handler) handleJoin(ctx context.Context, conn *ws.Connection, sess *session, msg ws.Message) error {
	if sess.playerID != uuid.Nil {
		h.sendError(conn, msg.RequestID, httperrors.ErrCodeConflict, "already joined on this connection")
		return nil
	}
	var payload ws.JoinPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "malformed join payload")
		return nil
	}

	p := h.registerSession(ctx, conn, sess, payload.Name)

	var err error
	if payload.RoomCode != "" {
		err = h.svc.JoinRoom(ctx, p, payload.RoomCode)
	} else {
		err = h.svc.JoinQueue(ctx, p)
	}
	if err != nil {
		h.sendServiceError(conn, msg.RequestID, err)
	}
	return nil
}

func (h *Handler) handlePlayBot(ctx context.Context, conn *ws.Connection, sess *session, msg ws.Message) error {
	if sess.playerID != uuid.Nil {
		h.sendError(conn, msg.RequestID, httperrors.ErrCodeConflict, "already joined on this connection")
		return nil
	}
	var payload ws.PlayBotPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "malformed play_bot payload")
			return nil
		}
	}

	p := h.registerSession(ctx, conn, sess, payload.Name)
	if err := h.svc.PlayBot(ctx, p); err != nil {
		h.sendServiceError(conn, msg.RequestID, err)
	}
	return nil
}

func (h *Handler) registerSession(ctx context.Context, conn *ws.Connection, sess *session, name string) *Player {
	if name == "" {
		name = sess.identity.Name
	}
	p := h.svc.RegisterSession(ctx, sess.identity.AccountID, name)
	sess.playerID = p.ID
	h.hub.RegisterConnection(p.ID, conn)
	return p
}

func (h *Handler) handleSubmit(ctx context.Context, conn *ws.Connection, sess *session, msg ws.Message) error {
	if sess.playerID == uuid.Nil {
		h.sendError(conn, msg.RequestID, httperrors.ErrCodeJoinFailed, "join before submitting")
		return nil
	}
	var payload ws.SubmitChoicePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Region == "" {
		h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "malformed submit_choice payload")
		return nil
	}
	if err := h.svc.SubmitChoice(ctx, sess.playerID, payload.Region); err != nil {
		h.sendServiceError(conn, msg.RequestID, err)
	}
	return nil
}

// handleRejoin binds the socket to an existing player id before the service
// restores match state, so resumption broadcasts reach this connection.
func (h *Handler) handleRejoin(ctx context.Context, conn *ws.Connection, sess *session, msg ws.Message) error {
	if sess.playerID != uuid.Nil {
		h.sendError(conn, msg.RequestID, httperrors.ErrCodeConflict, "already joined on this connection")
		return nil
	}
	var payload ws.RejoinPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "malformed rejoin payload")
		return nil
	}
	matchID, err := uuid.Parse(payload.MatchID)
	if err != nil {
		h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidMatchID, "match_id is not a valid id")
		return nil
	}
	playerID, err := uuid.Parse(payload.PlayerID)
	if err != nil {
		h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidPlayerID, "player_id is not a valid id")
		return nil
	}

	sess.playerID = playerID
	h.hub.RegisterConnection(playerID, conn)

	if err := h.svc.Rejoin(ctx, matchID, playerID); err != nil {
		h.hub.UnregisterConnection(playerID, conn)
		sess.playerID = uuid.Nil
		h.sendServiceError(conn, msg.RequestID, err)
	}
	return nil
}

func (h *Handler) handleRequestState(conn *ws.Connection, sess *session, msg ws.Message) error {
	if sess.playerID == uuid.Nil {
		h.sendError(conn, msg.RequestID, httperrors.ErrCodeJoinFailed, "join before requesting state")
		return nil
	}
	var payload ws.RequestStatePayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "malformed request_state payload")
			return nil
		}
	}
	var matchID uuid.UUID
	if payload.MatchID != "" {
		id, err := uuid.Parse(payload.MatchID)
		if err != nil {
			h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidMatchID, "match_id is not a valid id")
			return nil
		}
		matchID = id
	}
	if err := h.svc.RequestState(sess.playerID, matchID); err != nil {
		h.sendServiceError(conn, msg.RequestID, err)
	}
	return nil
}

func (h *Handler) sendServiceError(conn *ws.Connection, requestID string, err error) {
	code := httperrors.ErrCodeInternalError
	switch {
	case errors.Is(err, ErrMatchNotFound):
		code = httperrors.ErrCodeMatchNotFound
	case errors.Is(err, ErrNotYourMatch):
		code = httperrors.ErrCodeNotYourMatch
	case errors.Is(err, ErrMatchNotActive):
		code = httperrors.ErrCodeMatchNotActive
	case errors.Is(err, ErrRoundNotStarted):
		code = httperrors.ErrCodeMatchNotActive
	case errors.Is(err, ErrTokenNotInHand):
		code = httperrors.ErrCodeTokenNotInHand
	case errors.Is(err, ErrAlreadyPlayed):
		code = httperrors.ErrCodeAlreadyPlayed
	case errors.Is(err, ErrMatchFinished):
		code = httperrors.ErrCodeMatchFinished
	case errors.Is(err, ErrMatchForfeited):
		code = httperrors.ErrCodeMatchForfeited
	case errors.Is(err, ErrAlreadyInMatch):
		code = httperrors.ErrCodeConflict
	case errors.Is(err, ErrRoomNotFound):
		code = httperrors.ErrCodeRoomNotFound
	case errors.Is(err, ErrRoomConsumed):
		code = httperrors.ErrCodeRoomFull
	case errors.Is(err, ErrOwnRoom):
		code = httperrors.ErrCodeInvalidRoomCode
	}
	h.sendError(conn, requestID, code, err.Error())
}

func (h *Handler) sendError(conn *ws.Connection, requestID, code, message string) {
	raw, err := json.Marshal(ws.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	if err := conn.Send(ws.Message{Type: ws.TypeError, Payload: raw, RequestID: requestID}); err != nil {
		h.logger.Debug().Err(err).Msg("error reply not delivered")
	}
}
