package model

// SlotPatch names the sub-fields of one slot to overwrite. Nil fields are untouched.
type SlotPatch struct {
	Choice           *Move `json:"choice,omitempty"`
	ClearChoice      bool  `json:"clearChoice,omitempty"`
	IsReady          *bool `json:"isReady,omitempty"`
	RestartRequested *bool `json:"restartRequested,omitempty"`
	Online           *bool `json:"online,omitempty"`
}

// Empty reports whether the patch changes nothing
func (p *SlotPatch) Empty() bool {
	return p == nil || (p.Choice == nil && !p.ClearChoice && p.IsReady == nil &&
		p.RestartRequested == nil && p.Online == nil)
}

func (p *SlotPatch) apply(slot *PlayerSlot) {
	if p == nil || slot == nil {
		return
	}
	if p.ClearChoice {
		slot.Choice = nil
	}
	if p.Choice != nil {
		m := *p.Choice
		slot.Choice = &m
	}
	if p.IsReady != nil {
		slot.IsReady = *p.IsReady
	}
	if p.RestartRequested != nil {
		slot.RestartRequested = *p.RestartRequested
	}
	if p.Online != nil {
		slot.Online = *p.Online
	}
}

// RoomPatch is an atomic update of named sub-fields of a room record
type RoomPatch struct {
	RoundStatus *RoundStatus `json:"roundStatus,omitempty"`
	Player1     *SlotPatch   `json:"player1,omitempty"`
	Player2     *SlotPatch   `json:"player2,omitempty"`
}

// ForSlot builds a patch touching only one slot
func ForSlot(slot Slot, p SlotPatch) RoomPatch {
	if slot == SlotPlayer1 {
		return RoomPatch{Player1: &p}
	}
	return RoomPatch{Player2: &p}
}

// Slot returns the patch for the given slot
func (p RoomPatch) Slot(slot Slot) *SlotPatch {
	if slot == SlotPlayer1 {
		return p.Player1
	}
	return p.Player2
}

// Empty reports whether the patch changes nothing
func (p RoomPatch) Empty() bool {
	return p.RoundStatus == nil && p.Player1.Empty() && p.Player2.Empty()
}

// Apply writes the patch into s. A player2 patch on a room without player2 is dropped.
func (p RoomPatch) Apply(s *RoomState) {
	if p.RoundStatus != nil {
		s.RoundStatus = *p.RoundStatus
	}
	p.Player1.apply(&s.Player1)
	p.Player2.apply(s.Player2)
}

// Bool returns a pointer to b, for building patches
func Bool(b bool) *bool {
	return &b
}

// MovePtr returns a pointer to m, for building patches
func MovePtr(m Move) *Move {
	return &m
}

// StatusPtr returns a pointer to s, for building patches
func StatusPtr(s RoundStatus) *RoundStatus {
	return &s
}
