package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTwoPlayerRoom() *RoomState {
	s := NewRoomState("room-1", User{ID: "u1", Username: "ana"})
	s.Player2 = &PlayerSlot{UserID: "u2", Username: "beto"}
	s.RoundStatus = StatusWaitingSelections
	return s
}

func TestNewRoomState(t *testing.T) {
	s := NewRoomState("room-1", User{ID: "u1", Username: "ana"})
	assert.Equal(t, StatusWaitingPlayer2, s.RoundStatus)
	assert.Equal(t, UserID("u1"), s.Owner)
	assert.Equal(t, UserID("u1"), s.Player1.UserID)
	assert.Nil(t, s.Player2)
}

func TestSlotOf(t *testing.T) {
	s := newTwoPlayerRoom()

	slot, ok := s.SlotOf("u1")
	assert.True(t, ok)
	assert.Equal(t, SlotPlayer1, slot)

	slot, ok = s.SlotOf("u2")
	assert.True(t, ok)
	assert.Equal(t, SlotPlayer2, slot)

	_, ok = s.SlotOf("u3")
	assert.False(t, ok)
	_, ok = s.SlotOf("")
	assert.False(t, ok)
}

func TestPatchLeavesOtherFieldsAlone(t *testing.T) {
	s := newTwoPlayerRoom()
	s.Player1.IsReady = true

	ForSlot(SlotPlayer2, SlotPatch{Choice: MovePtr(MovePaper)}).Apply(s)
	ForSlot(SlotPlayer1, SlotPatch{RestartRequested: Bool(true)}).Apply(s)

	require.NotNil(t, s.Player2.Choice)
	assert.Equal(t, MovePaper, *s.Player2.Choice)
	assert.True(t, s.Player1.IsReady)
	assert.True(t, s.Player1.RestartRequested)
	assert.Nil(t, s.Player1.Choice)

	RoomPatch{Player2: &SlotPatch{ClearChoice: true}}.Apply(s)
	assert.Nil(t, s.Player2.Choice)
}

func TestPatchPlayer2DroppedWithoutSlot(t *testing.T) {
	s := NewRoomState("room-1", User{ID: "u1"})
	patch := RoomPatch{Player2: &SlotPatch{Online: Bool(true)}}
	patch.Apply(s)
	assert.Nil(t, s.Player2)
	assert.False(t, patch.Empty())
	assert.True(t, RoomPatch{}.Empty())
}

func TestResetRound(t *testing.T) {
	s := newTwoPlayerRoom()
	s.Player1.Choice = MovePtr(MoveRock)
	s.Player2.Choice = MovePtr(MovePaper)
	s.Player1.IsReady, s.Player2.IsReady = true, true
	s.Player1.RestartRequested, s.Player2.RestartRequested = true, true
	s.Player1.Online = true
	s.RoundStatus = StatusShowResults

	assert.True(t, s.BothRestartRequested())
	s.ResetRound()

	assert.Equal(t, StatusWaitingSelections, s.RoundStatus)
	for _, p := range []*PlayerSlot{&s.Player1, s.Player2} {
		assert.Nil(t, p.Choice)
		assert.False(t, p.IsReady)
		assert.False(t, p.RestartRequested)
	}
	assert.True(t, s.Player1.Online)
}

func TestCloneIsDeep(t *testing.T) {
	s := newTwoPlayerRoom()
	s.Player1.Choice = MovePtr(MoveRock)
	s.LastRound = &RoundRecord{ID: "r1"}

	c := s.Clone()
	*c.Player1.Choice = MovePaper
	c.Player2.Username = "changed"
	c.LastRound.ID = "r2"

	assert.Equal(t, MoveRock, *s.Player1.Choice)
	assert.Equal(t, "beto", s.Player2.Username)
	assert.Equal(t, RoundID("r1"), s.LastRound.ID)
}

func TestConcealedHidesChoicesUntilResults(t *testing.T) {
	s := newTwoPlayerRoom()
	s.Player1.Choice = MovePtr(MoveRock)

	c := s.Concealed()
	assert.Nil(t, c.Player1.Choice)
	assert.True(t, c.Player1.HasChosen)
	assert.False(t, c.Player2.HasChosen)
	assert.True(t, c.Player1.Chosen())
	require.NotNil(t, s.Player1.Choice, "original must be untouched")

	s.Player2.Choice = MovePtr(MoveScissors)
	s.RoundStatus = StatusShowResults
	c = s.Concealed()
	require.NotNil(t, c.Player1.Choice)
	assert.Equal(t, MoveRock, *c.Player1.Choice)
	assert.Equal(t, MoveScissors, *c.Player2.Choice)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(ErrRoomNotFound))
	assert.Equal(t, KindNotFound, KindOf(ErrUserNotFound))
	assert.Equal(t, KindForbidden, KindOf(ErrNotParticipant))
	assert.Equal(t, KindInvalidState, KindOf(ErrInvalidState))
	assert.Equal(t, KindInvalidState, KindOf(ErrInvalidPlayer))
	assert.Equal(t, KindConflict, KindOf(ErrRoomFull))
	assert.Equal(t, KindExhausted, KindOf(ErrCodesExhausted))
	assert.Equal(t, KindExhausted, KindOf(fmt.Errorf("restart: %w", ErrLedgerDown)))
	assert.Equal(t, KindNone, KindOf(nil))
}
