package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"
	ErrCodeConflict      = "conflict"

	// Identity errors
	ErrCodeGuestCreationFailed = "guest_creation_failed"
	ErrCodePlayerNotFound      = "player_not_found"
	ErrCodeInvalidPlayerID     = "invalid_player_id"

	// Room/Match errors
	ErrCodeRoomCreationFailed = "room_creation_failed"
	ErrCodeRoomNotFound       = "room_not_found"
	ErrCodeRoomFull           = "room_full"
	ErrCodeInvalidRoomCode    = "invalid_room_code"
	ErrCodeJoinFailed         = "join_failed"
	ErrCodeMatchNotFound      = "match_not_found"
	ErrCodeInvalidMatchID     = "invalid_match_id"
	ErrCodeMatchNotActive     = "match_not_active"
	ErrCodeMatchFinished      = "match_finished"
	ErrCodeMatchForfeited     = "match_forfeited"
	ErrCodeNotYourMatch       = "not_your_match"
	ErrCodeSubmitFailed       = "submit_failed"
	ErrCodeTokenNotInHand     = "token_not_in_hand"
	ErrCodeAlreadyPlayed      = "already_played"
	ErrCodeRejoinFailed       = "rejoin_failed"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeConnectionError    = "connection_error"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"

	// Rating errors
	ErrCodeSettlementFailed       = "settlement_failed"
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
)
