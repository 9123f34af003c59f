package remote_test

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsgame/internal/api/apierr"
	"github.com/mcoot/rpsgame/internal/factory"
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/remote"
)

type ClientSuite struct {
	suite.Suite
	app    *factory.TestApp
	server *httptest.Server
	client *remote.Client
	ctx    context.Context
}

func (s *ClientSuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.server = httptest.NewServer(s.app.Router(""))
	s.client = remote.NewClient(s.server.URL + "/")
	s.ctx = context.Background()
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
	_ = s.app.Close()
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

// openRoom signs up two users and seats them in a room with the given code
func (s *ClientSuite) openRoom(code model.RoomCode) (owner, guest model.UserID) {
	alice, err := s.client.Signup(s.ctx, "alice")
	s.Require().NoError(err)
	bob, err := s.client.Signup(s.ctx, "bob")
	s.Require().NoError(err)

	s.app.MockRandom.QueueString(string(code))
	created, err := s.client.CreateRoom(s.ctx, model.UserID(alice.ID))
	s.Require().NoError(err)
	s.Require().Equal(code, created)

	_, err = s.client.Join(s.ctx, code, model.UserID(bob.ID))
	s.Require().NoError(err)
	return model.UserID(alice.ID), model.UserID(bob.ID)
}

func (s *ClientSuite) TestHealth() {
	health, err := s.client.Health(s.ctx)
	s.Require().NoError(err)
	s.Equal("ok", health.Status)
}

func (s *ClientSuite) TestSignupAndLogin() {
	created, err := s.client.Signup(s.ctx, "alice")
	s.Require().NoError(err)
	s.NotEmpty(created.ID)

	found, err := s.client.Login(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
}

func (s *ClientSuite) TestErrorsCarryCodeAndStatus() {
	_, err := s.client.Signup(s.ctx, "alice")
	s.Require().NoError(err)

	_, err = s.client.Signup(s.ctx, "alice")
	s.Require().Error(err)

	var apiErr *remote.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusConflict, apiErr.Status)
	s.Equal(apierr.CodeUsernameTaken, apiErr.Code)
	s.True(remote.IsCode(err, apierr.CodeUsernameTaken))
	s.False(remote.IsCode(err, apierr.CodeRoomFull))
}

func (s *ClientSuite) TestRoundThroughClient() {
	owner, guest := s.openRoom("AB12CD")

	s.Require().NoError(s.client.SetReady(s.ctx, "AB12CD", owner, true))
	s.Require().NoError(s.client.SetReady(s.ctx, "AB12CD", guest, true))

	first, err := s.client.SubmitMove(s.ctx, "AB12CD", owner, model.MoveRock)
	s.Require().NoError(err)
	s.True(first.Waiting)

	second, err := s.client.SubmitMove(s.ctx, "AB12CD", guest, model.MoveScissors)
	s.Require().NoError(err)
	s.False(second.Waiting)
	s.Equal(model.WinnerPlayer1, second.Result)
	s.Require().NotNil(second.Winner)
	s.Equal(string(owner), second.Winner.UserID)

	board, err := s.client.Scoreboard(s.ctx, "AB12CD")
	s.Require().NoError(err)
	s.Equal(model.Score{Player1: 1}, board.Score)
	s.Len(board.History, 1)

	state, err := s.client.State(s.ctx, "AB12CD")
	s.Require().NoError(err)
	s.Equal(model.StatusShowResults, state.RoundStatus)

	msg, err := s.client.RequestRestart(s.ctx, "AB12CD", owner)
	s.Require().NoError(err)
	s.NotEmpty(msg)
}

func (s *ClientSuite) TestQR() {
	s.openRoom("AB12CD")

	data, err := s.client.QR(s.ctx, "AB12CD")
	s.Require().NoError(err)
	_, err = png.Decode(bytes.NewReader(data))
	s.NoError(err)

	_, err = s.client.QR(s.ctx, "ZZZZZZ")
	s.True(remote.IsCode(err, apierr.CodeRoomNotFound))
}

func (s *ClientSuite) TestWebSocketFeed() {
	s.assertFeedSeesReady(remote.TransportWS)
}

func (s *ClientSuite) TestSSEFeed() {
	s.assertFeedSeesReady(remote.TransportSSE)
}

func (s *ClientSuite) assertFeedSeesReady(transport remote.Transport) {
	owner, _ := s.openRoom("AB12CD")

	feed, err := s.client.Open(s.ctx, transport, "AB12CD", owner)
	s.Require().NoError(err)
	defer func() { _ = feed.Close() }()

	states := remote.RoomStates(feed.Events())
	s.Require().NoError(s.client.SetReady(s.ctx, "AB12CD", owner, true))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case st, ok := <-states:
			s.Require().True(ok, "feed closed: %v", feed.Err())
			if st.Player1.IsReady && st.Player1.Online {
				s.Equal(owner, st.Player1.UserID)
				s.Nil(st.Player1.Choice)
				return
			}
		case <-deadline:
			s.FailNow("no ready snapshot received")
		}
	}
}

func (s *ClientSuite) TestOpenUnknownRoom() {
	_, err := s.client.OpenSSE(s.ctx, "ZZZZZZ", "")
	s.Error(err)

	_, err = s.client.DialWS(s.ctx, "ZZZZZZ", "")
	s.Error(err)

	_, err = s.client.Open(s.ctx, "carrier-pigeon", "ZZZZZZ", "")
	s.ErrorContains(err, "unknown transport")
}

func TestReadSSE(t *testing.T) {
	stream := strings.Join([]string{
		"event: connected",
		`data: {"type":"connected"}`,
		"",
		": keepalive",
		"",
		"event: room-state",
		"data: line one",
		"data: line two",
		"",
		"data: orphan",
		"",
	}, "\n")

	type got struct{ event, data string }
	var events []got
	err := remote.ReadSSE(strings.NewReader(stream), func(event, data string) {
		events = append(events, got{event, data})
	})
	require.NoError(t, err)
	assert.Equal(t, []got{
		{"connected", `{"type":"connected"}`},
		{"room-state", "line one\nline two"},
	}, events)
}

func TestRoomStatesFiltersEvents(t *testing.T) {
	in := make(chan model.Event, 3)
	in <- model.Event{Type: model.EventConnected}
	in <- model.Event{Type: model.EventRoomState, State: &model.RoomState{Revision: 4}}
	in <- model.Event{Type: model.EventRoomState}
	close(in)

	var revisions []int64
	for st := range remote.RoomStates(in) {
		revisions = append(revisions, st.Revision)
	}
	assert.Equal(t, []int64{4}, revisions)
}
