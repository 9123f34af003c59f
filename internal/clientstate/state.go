package clientstate

import "github.com/mcoot/rpsgame/internal/model"

// Identity is the locally persisted user
type Identity struct {
	UserID   model.UserID `json:"userId"`
	Username string       `json:"username"`
}

// SlotState is the client's view of one participant slot
type SlotState struct {
	Joined           bool
	UserID           model.UserID
	Username         string
	Choice           *model.Move
	HasChosen        bool
	IsReady          bool
	RestartRequested bool
	Online           bool
	// Pending marks a local choice that no push has confirmed yet
	Pending bool
}

// Play holds both slots. It is the one part of the state that is deep merged.
type Play struct {
	Player1 SlotState
	Player2 SlotState
}

// ClientState mirrors the room record plus fields that only exist locally
type ClientState struct {
	Identity    Identity
	RoomCode    model.RoomCode
	Owner       model.UserID
	RoundStatus model.RoundStatus
	Play        Play
	LastRound   *model.RoundRecord
	Revision    int64

	// Score and History come from the ledger, not from pushes
	Score   model.Score
	History []model.RoundRecord

	// IsLocalSlotP1 is resolved from the first snapshot and then held.
	// Nil until then.
	IsLocalSlotP1 *bool
	Synced        bool
	IsCounting    bool
	PlaySent      bool
	LocalMessage  string
}

// LocalSlot returns the slot key of the local user. Before the role is
// resolved it assumes player1.
func (s ClientState) LocalSlot() model.Slot {
	if s.IsLocalSlotP1 != nil && !*s.IsLocalSlotP1 {
		return model.SlotPlayer2
	}
	return model.SlotPlayer1
}

// slot returns a pointer to the named slot of the play
func (p *Play) slot(slot model.Slot) *SlotState {
	if slot == model.SlotPlayer2 {
		return &p.Player2
	}
	return &p.Player1
}

func (s ClientState) clone() ClientState {
	c := s
	c.Play.Player1 = cloneSlot(s.Play.Player1)
	c.Play.Player2 = cloneSlot(s.Play.Player2)
	if s.LastRound != nil {
		lr := *s.LastRound
		c.LastRound = &lr
	}
	if s.History != nil {
		c.History = append([]model.RoundRecord(nil), s.History...)
	}
	if s.IsLocalSlotP1 != nil {
		v := *s.IsLocalSlotP1
		c.IsLocalSlotP1 = &v
	}
	return c
}

func cloneSlot(p SlotState) SlotState {
	if p.Choice != nil {
		m := *p.Choice
		p.Choice = &m
	}
	return p
}

// SlotPartial sets the non-nil fields of a slot and leaves the rest alone
type SlotPartial struct {
	Joined           *bool
	UserID           *model.UserID
	Username         *string
	Choice           *model.Move
	ClearChoice      bool
	HasChosen        *bool
	IsReady          *bool
	RestartRequested *bool
	Online           *bool
	Pending          *bool
}

// PlayPartial addresses the slots of a Play individually
type PlayPartial struct {
	Player1 *SlotPartial
	Player2 *SlotPartial
}

// ForSlot returns a PlayPartial touching only the given slot
func ForSlot(slot model.Slot, p SlotPartial) *PlayPartial {
	if slot == model.SlotPlayer2 {
		return &PlayPartial{Player2: &p}
	}
	return &PlayPartial{Player1: &p}
}

// Partial is an update to ClientState. Non-nil top-level fields replace the
// current value; Play is merged field by field.
type Partial struct {
	Identity       *Identity
	RoomCode       *model.RoomCode
	Owner          *model.UserID
	RoundStatus    *model.RoundStatus
	Play           *PlayPartial
	LastRound      *model.RoundRecord
	ClearLastRound bool
	Revision       *int64
	Score          *model.Score
	History        []model.RoundRecord
	IsLocalSlotP1  *bool
	Synced         *bool
	IsCounting     *bool
	PlaySent       *bool
	LocalMessage   *string
}

// merge applies p to s
func (s *ClientState) merge(p Partial) {
	if p.Identity != nil {
		s.Identity = *p.Identity
	}
	if p.RoomCode != nil {
		s.RoomCode = *p.RoomCode
	}
	if p.Owner != nil {
		s.Owner = *p.Owner
	}
	if p.RoundStatus != nil {
		s.RoundStatus = *p.RoundStatus
	}
	if p.Play != nil {
		mergeSlot(&s.Play.Player1, p.Play.Player1)
		mergeSlot(&s.Play.Player2, p.Play.Player2)
	}
	if p.ClearLastRound {
		s.LastRound = nil
	}
	if p.LastRound != nil {
		lr := *p.LastRound
		s.LastRound = &lr
	}
	if p.Revision != nil {
		s.Revision = *p.Revision
	}
	if p.Score != nil {
		s.Score = *p.Score
	}
	if p.History != nil {
		s.History = append([]model.RoundRecord(nil), p.History...)
	}
	if p.IsLocalSlotP1 != nil {
		v := *p.IsLocalSlotP1
		s.IsLocalSlotP1 = &v
	}
	if p.Synced != nil {
		s.Synced = *p.Synced
	}
	if p.IsCounting != nil {
		s.IsCounting = *p.IsCounting
	}
	if p.PlaySent != nil {
		s.PlaySent = *p.PlaySent
	}
	if p.LocalMessage != nil {
		s.LocalMessage = *p.LocalMessage
	}
}

func mergeSlot(dst *SlotState, p *SlotPartial) {
	if p == nil {
		return
	}
	if p.Joined != nil {
		dst.Joined = *p.Joined
	}
	if p.UserID != nil {
		dst.UserID = *p.UserID
	}
	if p.Username != nil {
		dst.Username = *p.Username
	}
	if p.ClearChoice {
		dst.Choice = nil
	}
	if p.Choice != nil {
		m := *p.Choice
		dst.Choice = &m
	}
	if p.HasChosen != nil {
		dst.HasChosen = *p.HasChosen
	}
	if p.IsReady != nil {
		dst.IsReady = *p.IsReady
	}
	if p.RestartRequested != nil {
		dst.RestartRequested = *p.RestartRequested
	}
	if p.Online != nil {
		dst.Online = *p.Online
	}
	if p.Pending != nil {
		dst.Pending = *p.Pending
	}
}

// Ptr returns a pointer to v, for building partials
func Ptr[T any](v T) *T {
	return &v
}
