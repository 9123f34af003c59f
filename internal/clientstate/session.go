package clientstate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/rpsgame/internal/api/response"
	"github.com/mcoot/rpsgame/internal/model"
)

// RoundAPI is the slice of the server API a session drives
type RoundAPI interface {
	Join(ctx context.Context, code model.RoomCode, userID model.UserID) (string, error)
	SetReady(ctx context.Context, code model.RoomCode, userID model.UserID, ready bool) error
	SubmitMove(ctx context.Context, code model.RoomCode, userID model.UserID, choice model.Move) (*response.Move, error)
	RequestRestart(ctx context.Context, code model.RoomCode, userID model.UserID) (string, error)
	Scoreboard(ctx context.Context, code model.RoomCode) (*response.Scoreboard, error)
}

// Session ties a Store to the server: actions go through the API and pushed
// snapshots come back through Run
type Session struct {
	store  *Store
	api    RoundAPI
	logger *slog.Logger
}

// NewSession creates a new Session
func NewSession(store *Store, api RoundAPI, logger *slog.Logger) *Session {
	return &Session{
		store:  store,
		api:    api,
		logger: logger.With(slog.String("component", "clientstate")),
	}
}

// Store returns the session's store
func (s *Session) Store() *Store {
	return s.store
}

func (s *Session) ids() (model.RoomCode, model.UserID) {
	st := s.store.GetState()
	return st.RoomCode, st.Identity.UserID
}

// fail records an advisory message for a rejected action and returns err
func (s *Session) fail(err error) error {
	s.store.SetState(Partial{LocalMessage: Ptr(err.Error())})
	return err
}

// Join claims a slot in the room and loads the ledger score
func (s *Session) Join(ctx context.Context) (string, error) {
	code, userID := s.ids()
	result, err := s.api.Join(ctx, code, userID)
	if err != nil {
		return "", s.fail(err)
	}
	if err := s.RefreshScore(ctx); err != nil {
		s.logger.Warn("score refresh failed", slog.Any("error", err))
	}
	return result, nil
}

// SetReady flags the local slot as ready or not
func (s *Session) SetReady(ctx context.Context, ready bool) error {
	code, userID := s.ids()
	if err := s.api.SetReady(ctx, code, userID, ready); err != nil {
		return s.fail(err)
	}
	return nil
}

// SubmitMove shows the move locally right away and sends it. It reports
// false without a network call when a move was already sent this round.
// A rejected move is rolled back.
func (s *Session) SubmitMove(ctx context.Context, move model.Move) (bool, error) {
	if !s.store.BeginMove(move) {
		return false, nil
	}

	code, userID := s.ids()
	resp, err := s.api.SubmitMove(ctx, code, userID, move)
	if err != nil {
		s.store.RollbackMove(err.Error())
		return true, err
	}

	if !resp.Waiting {
		p := Partial{}
		if resp.Score != nil {
			p.Score = resp.Score
		}
		if resp.Warning != "" {
			p.LocalMessage = Ptr(resp.Warning)
		}
		s.store.SetState(p)
	}
	return true, nil
}

// RequestRestart asks for the next round
func (s *Session) RequestRestart(ctx context.Context) (string, error) {
	code, userID := s.ids()
	result, err := s.api.RequestRestart(ctx, code, userID)
	if err != nil {
		return "", s.fail(err)
	}
	return result, nil
}

// RefreshScore loads score and history from the ledger
func (s *Session) RefreshScore(ctx context.Context) error {
	code, _ := s.ids()
	board, err := s.api.Scoreboard(ctx, code)
	if err != nil {
		return err
	}
	s.store.SetState(Partial{
		Score:   Ptr(board.Score),
		History: board.History,
	})
	return nil
}

// Run applies pushed snapshots until the feed closes or ctx ends. Each newly
// seen result triggers a score refresh.
func (s *Session) Run(ctx context.Context, feed <-chan *model.RoomState) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-feed:
			if !ok {
				return nil
			}
			before := s.store.GetState()
			if !s.store.ApplySnapshot(snap) {
				continue
			}
			if revealsNewRound(before, snap) {
				if err := s.RefreshScore(ctx); err != nil && !errors.Is(err, context.Canceled) {
					s.logger.Warn("score refresh failed", slog.Any("error", err))
				}
			}
		}
	}
}

// revealsNewRound reports whether snap carries a result the state had not
// seen, including one whose show-results push was skipped
func revealsNewRound(before ClientState, snap *model.RoomState) bool {
	return newLastRound(before.LastRound, snap.LastRound)
}
