package rooms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/dependencies/random"
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

const (
	// CodeLength is the length of generated room codes
	CodeLength = 6
	// CodeAlphabet is the characters used in room codes (avoid confusing chars)
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// MaxCodeAttempts bounds the retry-until-unique loop
	MaxCodeAttempts = 10
)

// Service maps short room codes to room keys and opens new rooms
type Service struct {
	users    storage.Users
	ledger   storage.Ledger
	realtime storage.Realtime
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
}

// New creates a new rooms Service
func New(
	users storage.Users,
	ledger storage.Ledger,
	realtime storage.Realtime,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:    users,
		ledger:   ledger,
		realtime: realtime,
		clock:    clock,
		random:   random,
		logger:   logger.With(slog.String("component", "rooms")),
	}
}

// NormalizeCode canonicalizes a user-typed room code
func NormalizeCode(code string) model.RoomCode {
	return model.RoomCode(strings.ToUpper(strings.TrimSpace(code)))
}

// CreateRoom opens a room owned by ownerID and returns its short code
func (s *Service) CreateRoom(ctx context.Context, ownerID model.UserID) (model.RoomCode, error) {
	if ownerID == "" {
		return "", model.ErrMissingUserID
	}
	owner, err := s.users.GetUser(ctx, ownerID)
	if err != nil {
		return "", err
	}

	// The realtime record is written only once a code is claimed, so a
	// failed code search leaves nothing behind
	key := model.RoomKey(s.random.UUID())
	now := s.clock.Now()
	for attempt := 1; attempt <= MaxCodeAttempts; attempt++ {
		code := model.RoomCode(s.random.String(CodeLength, CodeAlphabet))
		idx := &model.RoomIndex{
			Code:      code,
			Key:       key,
			Owner:     ownerID,
			History:   []model.RoundRecord{},
			CreatedAt: now,
		}

		err := s.ledger.CreateRoomIndex(ctx, idx)
		if errors.Is(err, model.ErrCodeTaken) {
			s.logger.Debug("room code collision",
				slog.String("code", string(code)),
				slog.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create room index: %w", err)
		}
		if err := s.realtime.CreateRoom(ctx, model.NewRoomState(key, *owner)); err != nil {
			return "", fmt.Errorf("create room state: %w", err)
		}

		s.logger.Info("room created",
			slog.String("code", string(code)),
			slog.String("room_key", string(key)),
			slog.String("owner", string(ownerID)),
		)
		return code, nil
	}

	s.logger.Warn("room code namespace exhausted",
		slog.Int("attempts", MaxCodeAttempts),
		slog.String("room_key", string(key)),
	)
	return "", model.ErrCodesExhausted
}

// Resolve returns the room key behind a short code
func (s *Service) Resolve(ctx context.Context, code string) (model.RoomKey, error) {
	idx, err := s.Index(ctx, code)
	if err != nil {
		return "", err
	}
	return idx.Key, nil
}

// Index returns the persistent room row with score and history
func (s *Service) Index(ctx context.Context, code string) (*model.RoomIndex, error) {
	c := NormalizeCode(code)
	if c == "" {
		return nil, model.ErrRoomNotFound
	}
	return s.ledger.GetRoomIndex(ctx, c)
}
