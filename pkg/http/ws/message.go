package ws

import "encoding/json"

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeJoin         = "join"
	TypePlayBot      = "play_bot"
	TypeSubmitChoice = "submit_choice"
	TypeRejoin       = "rejoin"
	TypeHeartbeat    = "heartbeat"
	TypeLeaving      = "leaving"
	TypeRequestState = "request_state"

	// Server -> Client
	TypePlayerRegistered     = "player_registered"
	TypeMatchFound           = "match_found"
	TypeRoundStarted         = "round_started"
	TypeTokenPlayed          = "token_played"
	TypeRoundResolved        = "round_resolved"
	TypeMatchEnded           = "match_ended"
	TypeOpponentDisconnected = "opponent_disconnected"
	TypeOpponentReconnected  = "opponent_reconnected"
	TypeMatchForfeited       = "match_forfeited"
	TypeStateSync            = "state_sync"
	TypeError                = "error"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// Client Messages (incoming)

type JoinPayload struct {
	Name     string `json:"name,omitempty"`
	RoomCode string `json:"room_code,omitempty"`
}

type PlayBotPayload struct {
	Name string `json:"name,omitempty"`
}

type SubmitChoicePayload struct {
	MatchID string `json:"match_id"`
	Region  string `json:"region"`
}

type RejoinPayload struct {
	MatchID  string `json:"match_id"`
	PlayerID string `json:"player_id"`
}

type RequestStatePayload struct {
	MatchID string `json:"match_id"`
}

// Server Messages (outgoing)

type PlayerRegisteredPayload struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Waiting  bool   `json:"waiting"`
}

type MatchFoundPayload struct {
	MatchID    string       `json:"match_id"`
	PlayerID   string       `json:"player_id"`
	Opponent   PlayerInfo   `json:"opponent"`
	Hand       []RegionCard `json:"hand"`
	RoundCount int          `json:"round_count"`
}

type PlayerInfo struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Rating   *int   `json:"rating,omitempty"`
	Bot      bool   `json:"bot,omitempty"`
}

type RegionCard struct {
	Region string `json:"region"`
	Name   string `json:"name"`
	Played bool   `json:"played"`
}

type RoundStartedPayload struct {
	MatchID         string       `json:"match_id"`
	Round           int          `json:"round"`
	ProductID       string       `json:"product_id"`
	ProductName     string       `json:"product_name"`
	ProductCategory string       `json:"product_category"`
	Hand            []RegionCard `json:"hand"`
	Scores          map[string]int `json:"scores"`
}

type TokenPlayedPayload struct {
	MatchID  string `json:"match_id"`
	Round    int    `json:"round"`
	PlayerID string `json:"player_id"`
	Region   string `json:"region"`
}

type RoundResolvedPayload struct {
	MatchID string         `json:"match_id"`
	Round   int            `json:"round"`
	Plays   []ResolvedPlay `json:"plays"`
	// WinnerID is a player id, "tie", or empty when nobody scored.
	WinnerID string         `json:"winner_id"`
	Scores   map[string]int `json:"scores"`
}

type ResolvedPlay struct {
	PlayerID string  `json:"player_id"`
	Region   string  `json:"region"`
	Value    float64 `json:"value"`
}

type MatchEndedPayload struct {
	MatchID  string         `json:"match_id"`
	WinnerID string         `json:"winner_id,omitempty"`
	Draw     bool           `json:"draw"`
	Scores   map[string]int `json:"scores"`
	Ratings  []RatingChange `json:"ratings,omitempty"`
}

type RatingChange struct {
	PlayerID  string `json:"player_id"`
	NewRating int    `json:"new_rating"`
	Delta     int    `json:"delta"`
}

type OpponentDisconnectedPayload struct {
	MatchID      string `json:"match_id"`
	PlayerID     string `json:"player_id"`
	GraceSeconds int    `json:"grace_seconds"`
}

type OpponentReconnectedPayload struct {
	MatchID  string `json:"match_id"`
	PlayerID string `json:"player_id"`
}

type MatchForfeitedPayload struct {
	MatchID  string         `json:"match_id"`
	Reason   string         `json:"reason"`
	WinnerID string         `json:"winner_id"`
	Scores   map[string]int `json:"scores"`
	Ratings  []RatingChange `json:"ratings,omitempty"`
}

type StateSyncPayload struct {
	MatchID         string         `json:"match_id"`
	State           string         `json:"state"`
	Round           int            `json:"round"`
	ProductID       string         `json:"product_id,omitempty"`
	ProductName     string         `json:"product_name,omitempty"`
	Hand            []RegionCard   `json:"hand"`
	Scores          map[string]int `json:"scores"`
	Submitted       []string       `json:"submitted"`
	Opponent        PlayerInfo     `json:"opponent"`
	OpponentOffline bool           `json:"opponent_offline"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
