package rooms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsgame/internal/dependencies/mocks"
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage/memory"
	"github.com/mcoot/rpsgame/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.storage, s.storage, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()

	s.Require().NoError(s.storage.SaveUser(s.ctx, &model.User{ID: "owner", Username: "ana"}))
}

func (s *ServiceSuite) TestCreateRoomSucceeds() {
	s.random.QueueUUID("room-key-1")
	s.random.QueueString("AB12CD")

	code, err := s.service.CreateRoom(s.ctx, "owner")
	s.Require().NoError(err)
	s.Equal(model.RoomCode("AB12CD"), code)

	state, err := s.storage.GetRoom(s.ctx, "room-key-1")
	s.Require().NoError(err)
	s.Equal(model.StatusWaitingPlayer2, state.RoundStatus)
	s.Equal(model.UserID("owner"), state.Owner)
	s.Equal(model.UserID("owner"), state.Player1.UserID)
	s.Equal("ana", state.Player1.Username)
	s.Nil(state.Player2)

	idx, err := s.storage.GetRoomIndex(s.ctx, "AB12CD")
	s.Require().NoError(err)
	s.Equal(model.RoomKey("room-key-1"), idx.Key)
	s.Equal(model.Score{}, idx.Score)
	s.Equal(s.clock.Now(), idx.CreatedAt)
}

func (s *ServiceSuite) TestCreateRoomRetriesOnCollision() {
	s.Require().NoError(s.storage.CreateRoomIndex(s.ctx, &model.RoomIndex{Code: "TAKEN1", Key: "other"}))
	s.random.QueueString("TAKEN1", "TAKEN1", "FREE22")

	code, err := s.service.CreateRoom(s.ctx, "owner")
	s.Require().NoError(err)
	s.Equal(model.RoomCode("FREE22"), code)
}

func (s *ServiceSuite) TestCreateRoomExhausted() {
	s.Require().NoError(s.storage.CreateRoomIndex(s.ctx, &model.RoomIndex{Code: "TAKEN1", Key: "other"}))
	for i := 0; i < MaxCodeAttempts; i++ {
		s.random.QueueString("TAKEN1")
	}
	s.random.QueueString("NEVER1")
	s.random.QueueUUID("exhausted-key")

	_, err := s.service.CreateRoom(s.ctx, "owner")
	s.ErrorIs(err, model.ErrCodesExhausted)

	_, err = s.storage.GetRoomIndex(s.ctx, "NEVER1")
	s.ErrorIs(err, model.ErrRoomNotFound)

	// No realtime record is left behind for the unclaimed key
	_, err = s.storage.GetRoom(s.ctx, "exhausted-key")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ServiceSuite) TestCreateRoomUnknownOwner() {
	_, err := s.service.CreateRoom(s.ctx, "ghost")
	s.ErrorIs(err, model.ErrUserNotFound)

	_, err = s.service.CreateRoom(s.ctx, "")
	s.ErrorIs(err, model.ErrMissingUserID)
}

func (s *ServiceSuite) TestResolveNormalizesCode() {
	s.random.QueueUUID("room-key-1")
	s.random.QueueString("AB12CD")
	_, err := s.service.CreateRoom(s.ctx, "owner")
	s.Require().NoError(err)

	key, err := s.service.Resolve(s.ctx, " ab12cd ")
	s.Require().NoError(err)
	s.Equal(model.RoomKey("room-key-1"), key)
}

func (s *ServiceSuite) TestResolveUnknownCode() {
	_, err := s.service.Resolve(s.ctx, "ZZZZZZ")
	s.ErrorIs(err, model.ErrRoomNotFound)

	_, err = s.service.Resolve(s.ctx, "")
	s.ErrorIs(err, model.ErrRoomNotFound)
}
