package round

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/dependencies/random"
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// JoinResult reports how a join request was handled
type JoinResult string

const (
	JoinUpdated  JoinResult = "updated"
	JoinOwner    JoinResult = "owner"
	JoinRejoined JoinResult = "rejoined"
)

// RestartResult reports whether a restart request completed the barrier
type RestartResult string

const (
	RestartStarted RestartResult = "started"
	RestartWaiting RestartResult = "waiting"
)

// MoveOutcome is the result of a move submission
type MoveOutcome struct {
	// Resolved is true when this move completed the pair
	Resolved bool
	Round    *model.RoundRecord
	Winner   model.Winner
	// WinnerSlot and WinnerUser are empty on a tie
	WinnerSlot model.Slot
	WinnerUser *model.PlayerSlot
	// Score is the ledger score after the round was appended
	Score *model.Score
	// Warning is set when the ledger could not be updated. The round is kept
	// in the room record and appended on a later call.
	Warning string
}

// Scoreboard is the persistent score and history of a room
type Scoreboard struct {
	Code    model.RoomCode      `json:"roomCode"`
	Score   model.Score         `json:"score"`
	History []model.RoundRecord `json:"history"`
}

// RoomIndexer looks up the persistent room row behind a short code
type RoomIndexer interface {
	Index(ctx context.Context, code string) (*model.RoomIndex, error)
}

// errUnchanged aborts a mutation that has nothing to write
var errUnchanged = errors.New("unchanged")

// Engine is the authoritative owner of round status transitions
type Engine struct {
	rooms    RoomIndexer
	users    storage.Users
	ledger   storage.Ledger
	realtime storage.Realtime
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
}

// NewEngine creates a new round Engine
func NewEngine(
	rooms RoomIndexer,
	users storage.Users,
	ledger storage.Ledger,
	realtime storage.Realtime,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		rooms:    rooms,
		users:    users,
		ledger:   ledger,
		realtime: realtime,
		clock:    clock,
		random:   random,
		logger:   logger.With(slog.String("component", "round")),
	}
}

// lookup validates the caller and resolves the room
func (e *Engine) lookup(ctx context.Context, code string, userID model.UserID) (*model.User, *model.RoomIndex, error) {
	if userID == "" {
		return nil, nil, model.ErrMissingUserID
	}
	user, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	idx, err := e.rooms.Index(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	return user, idx, nil
}

// Join places the user in the player2 slot of the room
func (e *Engine) Join(ctx context.Context, code string, userID model.UserID) (JoinResult, error) {
	user, idx, err := e.lookup(ctx, code, userID)
	if err != nil {
		return "", err
	}

	var result JoinResult
	_, err = e.realtime.Mutate(ctx, idx.Key, func(st *model.RoomState) error {
		if st.Player1.UserID == user.ID {
			result = JoinOwner
			return errUnchanged
		}
		if st.Player2 != nil {
			if st.Player2.UserID == user.ID {
				result = JoinRejoined
				return errUnchanged
			}
			return model.ErrRoomFull
		}
		st.Player2 = &model.PlayerSlot{
			UserID:   user.ID,
			Username: user.Username,
		}
		st.RoundStatus = model.StatusWaitingSelections
		result = JoinUpdated
		return nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return "", err
	}

	e.logger.Info("player joined room",
		slog.String("code", string(idx.Code)),
		slog.String("user_id", string(user.ID)),
		slog.String("result", string(result)),
	)
	return result, nil
}

// SetReady writes the readiness flag of the caller's slot only
func (e *Engine) SetReady(ctx context.Context, code string, userID model.UserID, ready bool) error {
	user, idx, err := e.lookup(ctx, code, userID)
	if err != nil {
		return err
	}

	// Slots are fixed once assigned, so a plain read is enough to find the caller's
	state, err := e.realtime.GetRoom(ctx, idx.Key)
	if err != nil {
		return err
	}
	slot, ok := state.SlotOf(user.ID)
	if !ok {
		return model.ErrNotParticipant
	}

	_, err = e.realtime.Update(ctx, idx.Key, model.ForSlot(slot, model.SlotPatch{IsReady: model.Bool(ready)}))
	return err
}

// SubmitMove records the caller's choice and resolves the round when both
// slots hold a move
func (e *Engine) SubmitMove(ctx context.Context, code string, userID model.UserID, choice string) (*MoveOutcome, error) {
	user, idx, err := e.lookup(ctx, code, userID)
	if err != nil {
		return nil, err
	}
	move, err := model.ParseMove(choice)
	if err != nil {
		return nil, err
	}

	var outcome MoveOutcome
	state, err := e.realtime.Mutate(ctx, idx.Key, func(st *model.RoomState) error {
		outcome = MoveOutcome{}
		if st.RoundStatus != model.StatusWaitingSelections {
			return model.ErrInvalidState
		}
		slot, ok := st.SlotOf(user.ID)
		if !ok {
			return model.ErrInvalidPlayer
		}

		st.Slot(slot).Choice = model.MovePtr(move)
		if !st.BothChosen() {
			return nil
		}

		p1, p2 := *st.Player1.Choice, *st.Player2.Choice
		rec := &model.RoundRecord{
			ID:            model.RoundID(e.random.UUID()),
			Player1Choice: p1,
			Player2Choice: p2,
			Winner:        model.Resolve(p1, p2),
			Timestamp:     e.clock.Now(),
		}
		st.LastRound = rec
		st.RoundStatus = model.StatusShowResults

		outcome.Resolved = true
		outcome.Round = rec
		outcome.Winner = rec.Winner
		if ws, ok := rec.Winner.Slot(); ok {
			winner := *st.Slot(ws)
			outcome.WinnerSlot = ws
			outcome.WinnerUser = &winner
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.Resolved {
		e.logger.Info("round resolved",
			slog.String("code", string(idx.Code)),
			slog.String("round_id", string(outcome.Round.ID)),
			slog.String("winner", string(outcome.Winner)),
		)
	}

	// Appending on every move also repairs a ledger write that failed after
	// an earlier resolution, since the record survives in the room state.
	if err := e.reconcile(ctx, idx.Code, state); err != nil {
		outcome.Warning = "score could not be saved yet; it will be retried"
		return &outcome, nil
	}
	if outcome.Resolved {
		if fresh, err := e.ledger.GetRoomIndex(ctx, idx.Code); err == nil {
			outcome.Score = &fresh.Score
		}
	}
	return &outcome, nil
}

// RequestRestart records the caller's restart intent and resets the round
// once both slots agree
func (e *Engine) RequestRestart(ctx context.Context, code string, userID model.UserID) (RestartResult, error) {
	user, idx, err := e.lookup(ctx, code, userID)
	if err != nil {
		return "", err
	}

	current, err := e.realtime.GetRoom(ctx, idx.Key)
	if err != nil {
		return "", err
	}
	// The reset drops lastRound, so it must reach the ledger first
	if err := e.reconcile(ctx, idx.Code, current); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrLedgerDown, err)
	}

	result := RestartWaiting
	_, err = e.realtime.Mutate(ctx, idx.Key, func(st *model.RoomState) error {
		result = RestartWaiting
		if st.RoundStatus != model.StatusShowResults {
			return model.ErrInvalidState
		}
		slot, ok := st.SlotOf(user.ID)
		if !ok {
			return model.ErrNotParticipant
		}

		st.Slot(slot).RestartRequested = true
		if st.BothRestartRequested() {
			st.ResetRound()
			result = RestartStarted
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if result == RestartStarted {
		e.logger.Info("round restarted", slog.String("code", string(idx.Code)))
	}
	return result, nil
}

// Scoreboard returns the persistent score and history, reconciling the most
// recent round into the ledger first
func (e *Engine) Scoreboard(ctx context.Context, code string) (*Scoreboard, error) {
	idx, err := e.rooms.Index(ctx, code)
	if err != nil {
		return nil, err
	}

	state, err := e.realtime.GetRoom(ctx, idx.Key)
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		// Expired realtime record, the ledger is all that is left
	case err != nil:
		return nil, err
	default:
		if state.LastRound != nil {
			applied, err := e.ledger.AppendRound(ctx, idx.Code, *state.LastRound)
			if err != nil {
				return nil, err
			}
			if applied {
				if idx, err = e.ledger.GetRoomIndex(ctx, idx.Code); err != nil {
					return nil, err
				}
			}
		}
	}

	history := idx.History
	if history == nil {
		history = []model.RoundRecord{}
	}
	return &Scoreboard{Code: idx.Code, Score: idx.Score, History: history}, nil
}

// State returns the concealed current room record
func (e *Engine) State(ctx context.Context, code string) (*model.RoomState, error) {
	idx, err := e.rooms.Index(ctx, code)
	if err != nil {
		return nil, err
	}
	state, err := e.realtime.GetRoom(ctx, idx.Key)
	if err != nil {
		return nil, err
	}
	return state.Concealed(), nil
}

// reconcile appends the room's last resolved round to the ledger. Appends
// are keyed by round id so repeated calls are harmless.
func (e *Engine) reconcile(ctx context.Context, code model.RoomCode, state *model.RoomState) error {
	if state == nil || state.LastRound == nil {
		return nil
	}
	applied, err := e.ledger.AppendRound(ctx, code, *state.LastRound)
	if err != nil {
		e.logger.Error("ledger append failed",
			slog.String("code", string(code)),
			slog.String("round_id", string(state.LastRound.ID)),
			slog.Any("error", err),
		)
		return err
	}
	if applied {
		e.logger.Debug("round appended to ledger",
			slog.String("code", string(code)),
			slog.String("round_id", string(state.LastRound.ID)),
		)
	}
	return nil
}
