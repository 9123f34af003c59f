package model

// RoomKey is the internal key of a room's realtime record
type RoomKey string

// RoundStatus is the phase of the current round
type RoundStatus string

const (
	StatusWaitingPlayer2    RoundStatus = "waiting-player-2"
	StatusWaitingSelections RoundStatus = "waiting-selections"
	StatusShowResults       RoundStatus = "show-results"
)

// Valid reports whether s is a known status
func (s RoundStatus) Valid() bool {
	switch s {
	case StatusWaitingPlayer2, StatusWaitingSelections, StatusShowResults:
		return true
	}
	return false
}

// Slot is one of the two fixed participant positions, assigned by join order
type Slot string

const (
	SlotPlayer1 Slot = "player1"
	SlotPlayer2 Slot = "player2"
)

// Opponent returns the other slot
func (s Slot) Opponent() Slot {
	if s == SlotPlayer1 {
		return SlotPlayer2
	}
	return SlotPlayer1
}

// PlayerSlot is the per-participant part of a room record
type PlayerSlot struct {
	UserID           UserID `json:"userId"`
	Username         string `json:"username"`
	Choice           *Move  `json:"choice"`
	HasChosen        bool   `json:"hasChosen,omitempty"` // only set on concealed snapshots
	IsReady          bool   `json:"isReady"`
	RestartRequested bool   `json:"restartRequested"`
	Online           bool   `json:"online"`
}

// Chosen reports whether the slot holds a move for the current round
func (p *PlayerSlot) Chosen() bool {
	return p != nil && (p.Choice != nil || p.HasChosen)
}

// resetRound clears the per-round fields
func (p *PlayerSlot) resetRound() {
	p.Choice = nil
	p.HasChosen = false
	p.IsReady = false
	p.RestartRequested = false
}

// RoomState is the shared realtime record of a room
type RoomState struct {
	Key         RoomKey      `json:"key"`
	Owner       UserID       `json:"owner"`
	RoundStatus RoundStatus  `json:"roundStatus"`
	Player1     PlayerSlot   `json:"player1"`
	Player2     *PlayerSlot  `json:"player2"`
	LastRound   *RoundRecord `json:"lastRound"`
	Revision    int64        `json:"revision"`
}

// NewRoomState creates the record of a freshly opened room with the owner in player1
func NewRoomState(key RoomKey, owner User) *RoomState {
	return &RoomState{
		Key:         key,
		Owner:       owner.ID,
		RoundStatus: StatusWaitingPlayer2,
		Player1: PlayerSlot{
			UserID:   owner.ID,
			Username: owner.Username,
		},
	}
}

// Slot returns the slot record, or nil when player2 has not joined
func (s *RoomState) Slot(slot Slot) *PlayerSlot {
	if slot == SlotPlayer1 {
		return &s.Player1
	}
	return s.Player2
}

// SlotOf finds the slot occupied by the user
func (s *RoomState) SlotOf(userID UserID) (Slot, bool) {
	if userID == "" {
		return "", false
	}
	if s.Player1.UserID == userID {
		return SlotPlayer1, true
	}
	if s.Player2 != nil && s.Player2.UserID == userID {
		return SlotPlayer2, true
	}
	return "", false
}

// BothChosen reports whether both slots hold a move
func (s *RoomState) BothChosen() bool {
	return s.Player1.Chosen() && s.Player2.Chosen()
}

// BothRestartRequested reports whether the restart barrier is satisfied
func (s *RoomState) BothRestartRequested() bool {
	return s.Player2 != nil && s.Player1.RestartRequested && s.Player2.RestartRequested
}

// ResetRound clears choices, readiness and restart flags and reopens selections
func (s *RoomState) ResetRound() {
	s.Player1.resetRound()
	if s.Player2 != nil {
		s.Player2.resetRound()
	}
	s.RoundStatus = StatusWaitingSelections
}

// Clone returns a deep copy
func (s *RoomState) Clone() *RoomState {
	c := *s
	c.Player1 = cloneSlot(s.Player1)
	if s.Player2 != nil {
		p2 := cloneSlot(*s.Player2)
		c.Player2 = &p2
	}
	if s.LastRound != nil {
		lr := *s.LastRound
		c.LastRound = &lr
	}
	return &c
}

func cloneSlot(p PlayerSlot) PlayerSlot {
	if p.Choice != nil {
		m := *p.Choice
		p.Choice = &m
	}
	return p
}

// Concealed returns a copy safe to push to clients. Until results are shown the
// choices are replaced by HasChosen.
func (s *RoomState) Concealed() *RoomState {
	c := s.Clone()
	if c.RoundStatus == StatusShowResults {
		return c
	}
	conceal := func(p *PlayerSlot) {
		if p == nil {
			return
		}
		p.HasChosen = p.Choice != nil
		p.Choice = nil
	}
	conceal(&c.Player1)
	conceal(c.Player2)
	return c
}
