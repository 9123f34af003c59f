package presence

import (
	"context"
	"log/slog"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// Service tracks which participants hold a live connection to their room
type Service struct {
	realtime storage.Realtime
	logger   *slog.Logger
}

// New creates a new presence Service
func New(realtime storage.Realtime, logger *slog.Logger) *Service {
	return &Service{
		realtime: realtime,
		logger:   logger.With(slog.String("component", "presence")),
	}
}

// Connect marks the user's slot online and arms a dead-man's switch that
// clears online and isReady when connID drops. Users that occupy no slot
// are watchers and leave no trace.
func (s *Service) Connect(ctx context.Context, key model.RoomKey, userID model.UserID, connID string) error {
	if userID == "" {
		return nil
	}
	state, err := s.realtime.GetRoom(ctx, key)
	if err != nil {
		return err
	}
	slot, ok := state.SlotOf(userID)
	if !ok {
		return nil
	}

	// Arm the switch before going online so a crash in between leaves the slot offline
	onDrop := model.ForSlot(slot, model.SlotPatch{Online: model.Bool(false), IsReady: model.Bool(false)})
	if err := s.realtime.OnDisconnect(ctx, key, connID, onDrop); err != nil {
		return err
	}
	if _, err := s.realtime.Update(ctx, key, model.ForSlot(slot, model.SlotPatch{Online: model.Bool(true)})); err != nil {
		return err
	}

	s.logger.Debug("participant online",
		slog.String("room_key", string(key)),
		slog.String("user_id", string(userID)),
		slog.String("conn_id", connID),
	)
	return nil
}

// Disconnect fires every patch armed by connID
func (s *Service) Disconnect(ctx context.Context, connID string) error {
	if err := s.realtime.Disconnect(ctx, connID); err != nil {
		s.logger.Warn("disconnect patches failed",
			slog.String("conn_id", connID),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}
