package game

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrRoomNotFound = errors.New("room not found or expired")
	ErrRoomConsumed = errors.New("room already consumed")
	ErrOwnRoom      = errors.New("cannot pair with yourself")
)

// Room is a private pairing rendezvous: a short shareable code, capacity 2,
// consumed when the second participant arrives, expired after a fixed
// horizon otherwise.
type Room struct {
	Code        string
	CreatorID   uuid.UUID
	CreatorName string
	Active      bool
	CreatedAt   time.Time
	ExpiresAt   time.Time

	waiting *Player
}

// Occupancy counts participants currently parked in the room.
func (r *Room) Occupancy() int {
	if r.waiting != nil {
		return 1
	}
	return 0
}

// RoomManager issues and resolves private room codes.
type RoomManager struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	ttl    time.Duration
	rnd    *rand.Rand
	logger zerolog.Logger
}

func NewRoomManager(ttl time.Duration, logger zerolog.Logger) *RoomManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RoomManager{
		rooms:  make(map[string]*Room),
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger.With().Str("component", "rooms").Logger(),
	}
}

// Create issues a fresh 6-digit room code for a creator.
func (rm *RoomManager) Create(creatorID uuid.UUID, creatorName string) *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.purgeExpiredLocked()

	code := rm.codeLocked()
	now := time.Now()
	room := &Room{
		Code:        code,
		CreatorID:   creatorID,
		CreatorName: creatorName,
		Active:      true,
		CreatedAt:   now,
		ExpiresAt:   now.Add(rm.ttl),
	}
	rm.rooms[code] = room
	rm.logger.Info().Str("room_code", code).Str("creator", creatorName).Msg("room created")
	return room
}

// Get fetches an active, unexpired room.
func (rm *RoomManager) Get(code string) (*Room, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, ok := rm.rooms[code]
	if !ok || !room.Active || time.Now().After(room.ExpiresAt) {
		return nil, false
	}
	return room, true
}

// ListByCreator returns the creator's live rooms.
func (rm *RoomManager) ListByCreator(creatorID uuid.UUID) []*Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.purgeExpiredLocked()

	var out []*Room
	for _, room := range rm.rooms {
		if room.Active && room.CreatorID == creatorID {
			out = append(out, room)
		}
	}
	return out
}

// Claim parks the first arriving participant in the room; the second arrival
// consumes the room and gets the parked partner back for pairing.
func (rm *RoomManager) Claim(code string, p *Player) (partner *Player, ready bool, err error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, ok := rm.rooms[code]
	if !ok || time.Now().After(room.ExpiresAt) {
		return nil, false, ErrRoomNotFound
	}
	if !room.Active {
		return nil, false, ErrRoomConsumed
	}

	if room.waiting == nil {
		room.waiting = p
		return nil, false, nil
	}
	if room.waiting.ID == p.ID {
		return nil, false, ErrOwnRoom
	}

	partner = room.waiting
	room.waiting = nil
	room.Active = false
	rm.logger.Info().Str("room_code", code).Msg("room consumed")
	return partner, true, nil
}

// Abandon removes a parked participant, reopening the room for its creator.
func (rm *RoomManager) Abandon(code string, playerID uuid.UUID) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, ok := rm.rooms[code]
	if ok && room.waiting != nil && room.waiting.ID == playerID {
		room.waiting = nil
	}
}

func (rm *RoomManager) purgeExpiredLocked() {
	now := time.Now()
	for code, room := range rm.rooms {
		if now.After(room.ExpiresAt) || !room.Active {
			delete(rm.rooms, code)
		}
	}
}

func (rm *RoomManager) codeLocked() string {
	for {
		code := fmt.Sprintf("%06d", rm.rnd.Intn(1_000_000))
		if _, exists := rm.rooms[code]; !exists {
			return code
		}
	}
}
