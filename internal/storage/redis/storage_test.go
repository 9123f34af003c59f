package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsgame/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.RoomTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) newRoom() {
	state := model.NewRoomState("room-1", model.User{ID: "u1", Username: "ana"})
	s.Require().NoError(s.storage.CreateRoom(s.ctx, state))
}

func (s *StorageSuite) joinSecond() {
	_, err := s.storage.Mutate(s.ctx, "room-1", func(st *model.RoomState) error {
		st.Player2 = &model.PlayerSlot{UserID: "u2", Username: "beto"}
		st.RoundStatus = model.StatusWaitingSelections
		return nil
	})
	s.Require().NoError(err)
}

func (s *StorageSuite) receive(ch <-chan *model.RoomState) *model.RoomState {
	select {
	case st, ok := <-ch:
		s.Require().True(ok, "subscription closed")
		return st
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for snapshot")
		return nil
	}
}

// User tests

func (s *StorageSuite) TestSaveAndGetUser() {
	user := &model.User{ID: "u1", Username: "ana", CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.storage.SaveUser(s.ctx, user))

	got, err := s.storage.GetUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("ana", got.Username)

	got, err = s.storage.GetUserByUsername(s.ctx, "ana")
	s.Require().NoError(err)
	s.Equal(model.UserID("u1"), got.ID)

	// Users are persistent
	s.Equal(time.Duration(0), s.mini.TTL(userKey("u1")))
}

func (s *StorageSuite) TestUsernameTaken() {
	s.Require().NoError(s.storage.SaveUser(s.ctx, &model.User{ID: "u1", Username: "ana"}))
	err := s.storage.SaveUser(s.ctx, &model.User{ID: "u2", Username: "ana"})
	s.ErrorIs(err, model.ErrUsernameTaken)

	// Saving the same user again is allowed
	s.NoError(s.storage.SaveUser(s.ctx, &model.User{ID: "u1", Username: "ana"}))
}

func (s *StorageSuite) TestGetUserNotFound() {
	_, err := s.storage.GetUser(s.ctx, "ghost")
	s.ErrorIs(err, model.ErrUserNotFound)
	_, err = s.storage.GetUserByUsername(s.ctx, "ghost")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Ledger tests

func (s *StorageSuite) TestCreateRoomIndexIsConditional() {
	idx := &model.RoomIndex{Code: "AB12CD", Key: "room-1", Owner: "u1", CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.storage.CreateRoomIndex(s.ctx, idx))

	err := s.storage.CreateRoomIndex(s.ctx, &model.RoomIndex{Code: "AB12CD", Key: "room-2"})
	s.ErrorIs(err, model.ErrCodeTaken)

	got, err := s.storage.GetRoomIndex(s.ctx, "AB12CD")
	s.Require().NoError(err)
	s.Equal(model.RoomKey("room-1"), got.Key)
	s.Equal(model.UserID("u1"), got.Owner)
	s.Empty(got.History)
}

func (s *StorageSuite) TestGetRoomIndexNotFound() {
	_, err := s.storage.GetRoomIndex(s.ctx, "NOPE00")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestAppendRoundIsIdempotent() {
	s.Require().NoError(s.storage.CreateRoomIndex(s.ctx, &model.RoomIndex{Code: "AB12CD", Key: "room-1"}))
	rec := model.RoundRecord{
		ID:            "r1",
		Player1Choice: model.MoveRock,
		Player2Choice: model.MoveScissors,
		Winner:        model.WinnerPlayer1,
		Timestamp:     time.Now().UTC(),
	}

	applied, err := s.storage.AppendRound(s.ctx, "AB12CD", rec)
	s.Require().NoError(err)
	s.True(applied)

	applied, err = s.storage.AppendRound(s.ctx, "AB12CD", rec)
	s.Require().NoError(err)
	s.False(applied)

	tie := model.RoundRecord{ID: "r2", Player1Choice: model.MovePaper, Player2Choice: model.MovePaper, Winner: model.WinnerTie}
	_, err = s.storage.AppendRound(s.ctx, "AB12CD", tie)
	s.Require().NoError(err)

	got, err := s.storage.GetRoomIndex(s.ctx, "AB12CD")
	s.Require().NoError(err)
	s.Equal(model.Score{Player1: 1, Player2: 0}, got.Score)
	s.Require().Len(got.History, 2)
	s.Equal(model.RoundID("r1"), got.History[0].ID)
	s.Equal(model.WinnerTie, got.History[1].Winner)
}

func (s *StorageSuite) TestAppendRoundUnknownRoom() {
	_, err := s.storage.AppendRound(s.ctx, "NOPE00", model.RoundRecord{ID: "r1"})
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// Realtime tests

func (s *StorageSuite) TestRoomStoredAsFlatHash() {
	s.newRoom()
	s.joinSecond()

	s.Equal("waiting-selections", s.mini.HGet(stateKey("room-1"), "roundStatus"))
	s.Equal("u2", s.mini.HGet(stateKey("room-1"), "player2.userId"))
	s.Equal("2", s.mini.HGet(stateKey("room-1"), "revision"))
	s.Equal(time.Hour, s.mini.TTL(stateKey("room-1")))
}

func (s *StorageSuite) TestGetRoomRoundTrip() {
	s.newRoom()
	s.joinSecond()
	_, err := s.storage.Mutate(s.ctx, "room-1", func(st *model.RoomState) error {
		st.Player1.Choice = model.MovePtr(model.MoveRock)
		st.Player1.Online = true
		st.LastRound = &model.RoundRecord{ID: "r1", Winner: model.WinnerTie}
		return nil
	})
	s.Require().NoError(err)

	got, err := s.storage.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(model.RoomKey("room-1"), got.Key)
	s.Equal(model.UserID("u1"), got.Owner)
	s.Require().NotNil(got.Player1.Choice)
	s.Equal(model.MoveRock, *got.Player1.Choice)
	s.True(got.Player1.Online)
	s.Require().NotNil(got.Player2)
	s.Nil(got.Player2.Choice)
	s.Require().NotNil(got.LastRound)
	s.Equal(model.RoundID("r1"), got.LastRound.ID)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoom(s.ctx, "missing")
	s.ErrorIs(err, model.ErrRoomNotFound)

	_, err = s.storage.Update(s.ctx, "missing", model.RoomPatch{RoundStatus: model.StatusPtr(model.StatusShowResults)})
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestUpdateKeepsOtherSubFields() {
	s.newRoom()
	s.joinSecond()

	_, err := s.storage.Update(s.ctx, "room-1", model.ForSlot(model.SlotPlayer1, model.SlotPatch{IsReady: model.Bool(true)}))
	s.Require().NoError(err)
	got, err := s.storage.Update(s.ctx, "room-1", model.ForSlot(model.SlotPlayer2, model.SlotPatch{Choice: model.MovePtr(model.MovePaper)}))
	s.Require().NoError(err)

	s.True(got.Player1.IsReady)
	s.Require().NotNil(got.Player2.Choice)
	s.Equal(model.MovePaper, *got.Player2.Choice)
	s.Equal(int64(4), got.Revision)
}

func (s *StorageSuite) TestMutateErrorWritesNothing() {
	s.newRoom()
	_, err := s.storage.Mutate(s.ctx, "room-1", func(st *model.RoomState) error {
		st.RoundStatus = model.StatusShowResults
		return model.ErrInvalidState
	})
	s.ErrorIs(err, model.ErrInvalidState)

	got, err := s.storage.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(model.StatusWaitingPlayer2, got.RoundStatus)
	s.Equal(int64(1), got.Revision)
}

func (s *StorageSuite) TestConcurrentMutateResolvesPairOnce() {
	s.newRoom()
	s.joinSecond()

	// A separate connection pool with room for retries under contention
	cfg := DefaultConfig()
	cfg.RoomTTL = time.Hour
	cfg.MaxTxRetries = 64
	store := NewWithClient(redis.NewClient(&redis.Options{Addr: s.mini.Addr()}), cfg)
	defer func() { _ = store.Close() }()

	errResolved := errors.New("already resolved")
	moves := []struct {
		slot model.Slot
		move model.Move
	}{
		{model.SlotPlayer1, model.MoveRock},
		{model.SlotPlayer2, model.MovePaper},
		{model.SlotPlayer1, model.MoveScissors},
		{model.SlotPlayer2, model.MoveRock},
	}

	var (
		wg       sync.WaitGroup
		resolved atomic.Int32
		written  atomic.Int32
	)
	for i, m := range moves {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var resolvedHere bool
			_, err := store.Mutate(s.ctx, "room-1", func(st *model.RoomState) error {
				resolvedHere = false
				if st.RoundStatus != model.StatusWaitingSelections {
					return errResolved
				}
				st.Slot(m.slot).Choice = model.MovePtr(m.move)
				if st.BothChosen() {
					st.RoundStatus = model.StatusShowResults
					st.LastRound = &model.RoundRecord{ID: model.RoundID(fmt.Sprintf("r%d", i))}
					resolvedHere = true
				}
				return nil
			})
			switch {
			case err == nil:
				written.Add(1)
				if resolvedHere {
					resolved.Add(1)
				}
			case errors.Is(err, errResolved):
			default:
				s.Fail("unexpected mutate error", err.Error())
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), resolved.Load())

	got, err := s.storage.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(model.StatusShowResults, got.RoundStatus)
	s.Require().NotNil(got.LastRound)
	s.True(got.BothChosen())
	// Every committed write bumped the revision exactly once
	s.Equal(int64(2)+int64(written.Load()), got.Revision)
}

func (s *StorageSuite) TestSubscribeDeliversCurrentThenChanges() {
	s.newRoom()
	sub, err := s.storage.Subscribe(s.ctx, "room-1")
	s.Require().NoError(err)
	defer sub.Close()

	first := s.receive(sub.C())
	s.Equal(int64(1), first.Revision)

	s.joinSecond()
	next := s.receive(sub.C())
	s.Equal(model.StatusWaitingSelections, next.RoundStatus)
	s.Equal(int64(2), next.Revision)
	s.Require().NotNil(next.Player2)
	s.Equal("beto", next.Player2.Username)
}

func (s *StorageSuite) TestSubscribeUnknownRoom() {
	_, err := s.storage.Subscribe(s.ctx, "missing")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestDisconnectAppliesRegisteredPatch() {
	s.newRoom()
	s.joinSecond()
	_, err := s.storage.Update(s.ctx, "room-1", model.ForSlot(model.SlotPlayer2, model.SlotPatch{
		Online:  model.Bool(true),
		IsReady: model.Bool(true),
	}))
	s.Require().NoError(err)

	onDrop := model.ForSlot(model.SlotPlayer2, model.SlotPatch{Online: model.Bool(false), IsReady: model.Bool(false)})
	s.Require().NoError(s.storage.OnDisconnect(s.ctx, "room-1", "conn-1", onDrop))
	s.True(s.mini.Exists(disconnectKey("conn-1")))

	s.Require().NoError(s.storage.Disconnect(s.ctx, "conn-1"))
	s.False(s.mini.Exists(disconnectKey("conn-1")))

	got, err := s.storage.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	s.False(got.Player2.Online)
	s.False(got.Player2.IsReady)
	s.Equal("beto", got.Player2.Username)
}

func (s *StorageSuite) TestOnDisconnectUnknownRoom() {
	err := s.storage.OnDisconnect(s.ctx, "missing", "conn-1", model.RoomPatch{})
	s.ErrorIs(err, model.ErrRoomNotFound)
}
