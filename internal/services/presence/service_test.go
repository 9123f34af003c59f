package presence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage/memory"
	"github.com/mcoot/rpsgame/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.service = New(s.storage, testutil.NopLogger())
	s.ctx = context.Background()

	state := model.NewRoomState("room-1", model.User{ID: "u1", Username: "ana"})
	state.Player2 = &model.PlayerSlot{UserID: "u2", Username: "beto", IsReady: true}
	state.RoundStatus = model.StatusWaitingSelections
	s.Require().NoError(s.storage.CreateRoom(s.ctx, state))
}

func (s *ServiceSuite) room() *model.RoomState {
	state, err := s.storage.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	return state
}

func (s *ServiceSuite) TestConnectMarksOnline() {
	s.Require().NoError(s.service.Connect(s.ctx, "room-1", "u2", "conn-1"))

	state := s.room()
	s.True(state.Player2.Online)
	s.False(state.Player1.Online)
	s.True(state.Player2.IsReady)
}

func (s *ServiceSuite) TestDisconnectClearsOnlineAndReady() {
	s.Require().NoError(s.service.Connect(s.ctx, "room-1", "u2", "conn-1"))
	s.Require().NoError(s.service.Disconnect(s.ctx, "conn-1"))

	state := s.room()
	s.False(state.Player2.Online)
	s.False(state.Player2.IsReady)
	s.Equal("beto", state.Player2.Username)
}

func (s *ServiceSuite) TestWatcherLeavesNoTrace() {
	before := s.room()
	s.Require().NoError(s.service.Connect(s.ctx, "room-1", "u3", "conn-2"))
	s.Require().NoError(s.service.Connect(s.ctx, "room-1", "", "conn-3"))
	s.Require().NoError(s.service.Disconnect(s.ctx, "conn-2"))
	s.Equal(before, s.room())
}

func (s *ServiceSuite) TestConnectUnknownRoom() {
	err := s.service.Connect(s.ctx, "missing", "u1", "conn-1")
	s.ErrorIs(err, model.ErrRoomNotFound)
}
