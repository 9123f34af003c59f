package clientstate

import (
	"sync"

	"github.com/mcoot/rpsgame/internal/model"
)

// Listener is called after every state change with a copy of the new state.
// Listeners run on the goroutine that changed the state and must not block.
type Listener func(ClientState)

type listenerEntry struct {
	id int
	fn Listener
}

// Store is the single client-side source of truth for one room session
type Store struct {
	mu        sync.Mutex
	state     ClientState
	listeners []listenerEntry
	nextID    int
}

// NewStore creates a store for the given identity and room
func NewStore(identity Identity, code model.RoomCode) *Store {
	return &Store{
		state: ClientState{
			Identity: identity,
			RoomCode: code,
		},
	}
}

// GetState returns a copy of the current state
func (s *Store) GetState() ClientState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// SetState merges p into the state and notifies listeners
func (s *Store) SetState(p Partial) {
	s.update(func(st *ClientState) bool {
		st.merge(p)
		return true
	})
}

// Subscribe registers a listener and returns its disposer
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// update runs fn under the lock and, when it reports a change, notifies
// the listeners registered at that moment in registration order
func (s *Store) update(fn func(*ClientState) bool) bool {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return false
	}
	snapshot := s.state.clone()
	listeners := append([]listenerEntry(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(snapshot.clone())
	}
	return true
}

// ApplySnapshot merges a pushed room record. Snapshots at or below the
// current revision are ignored once synced. Reports whether it was applied.
func (s *Store) ApplySnapshot(snap *model.RoomState) bool {
	if snap == nil {
		return false
	}
	return s.update(func(st *ClientState) bool {
		if st.Synced && snap.Revision <= st.Revision {
			return false
		}
		st.merge(snapshotPartial(st, snap))
		return true
	})
}

// snapshotPartial builds the update for a pushed record against the current state
func snapshotPartial(cur *ClientState, snap *model.RoomState) Partial {
	p := Partial{
		Owner:       Ptr(snap.Owner),
		RoundStatus: Ptr(snap.RoundStatus),
		Revision:    Ptr(snap.Revision),
		Synced:      Ptr(true),
		Play:        &PlayPartial{},
	}
	if snap.LastRound != nil {
		p.LastRound = snap.LastRound
	} else {
		p.ClearLastRound = true
	}

	isP1 := cur.IsLocalSlotP1
	if isP1 == nil {
		resolved := snap.Player1.UserID == cur.Identity.UserID
		isP1 = &resolved
		p.IsLocalSlotP1 = isP1
	}
	local := model.SlotPlayer1
	if !*isP1 {
		local = model.SlotPlayer2
	}

	// Pushes may skip revisions, so a restart can arrive without the
	// show-results record in between. A new lastRound id marks it too.
	newRound := snap.RoundStatus == model.StatusWaitingSelections &&
		(!cur.Synced || cur.RoundStatus != model.StatusWaitingSelections || newLastRound(cur.LastRound, snap.LastRound))

	localPushed := snap.Slot(local)
	localChosen := localPushed.Chosen()

	for _, slot := range []model.Slot{model.SlotPlayer1, model.SlotPlayer2} {
		pushed := snap.Slot(slot)
		var sp *SlotPartial
		switch {
		case pushed == nil:
			sp = emptySlot()
		case slot == local:
			sp = localSlot(cur.Play.slot(slot), pushed, newRound)
		default:
			sp = remoteSlot(pushed)
		}
		if slot == model.SlotPlayer1 {
			p.Play.Player1 = sp
		} else {
			p.Play.Player2 = sp
		}
	}

	switch {
	case newRound && !localChosen:
		// A fresh countdown starts
		p.IsCounting = Ptr(true)
		p.PlaySent = Ptr(false)
		p.LocalMessage = Ptr("")
	case localChosen:
		p.IsCounting = Ptr(false)
		p.PlaySent = Ptr(true)
	case snap.RoundStatus != model.StatusWaitingSelections:
		p.IsCounting = Ptr(false)
	}
	return p
}

// newLastRound reports whether next records a round other than cur
func newLastRound(cur, next *model.RoundRecord) bool {
	return next != nil && (cur == nil || cur.ID != next.ID)
}

// identityFields copies the pushed identity and flags of a slot
func identityFields(pushed *model.PlayerSlot) *SlotPartial {
	return &SlotPartial{
		Joined:           Ptr(true),
		UserID:           Ptr(pushed.UserID),
		Username:         Ptr(pushed.Username),
		IsReady:          Ptr(pushed.IsReady),
		RestartRequested: Ptr(pushed.RestartRequested),
		Online:           Ptr(pushed.Online),
	}
}

// remoteSlot overwrites the opponent slot with the pushed record
func remoteSlot(pushed *model.PlayerSlot) *SlotPartial {
	sp := identityFields(pushed)
	sp.HasChosen = Ptr(pushed.Chosen())
	sp.Pending = Ptr(false)
	if pushed.Choice != nil {
		sp.Choice = pushed.Choice
	} else {
		sp.ClearChoice = true
	}
	return sp
}

// localSlot merges the pushed record into the local slot without erasing an
// in-flight move. Concealed pushes carry only hasChosen, so a confirmed
// local choice is kept as is.
func localSlot(cur *SlotState, pushed *model.PlayerSlot, newRound bool) *SlotPartial {
	sp := identityFields(pushed)
	switch {
	case pushed.Choice != nil:
		sp.Choice = pushed.Choice
		sp.HasChosen = Ptr(true)
		sp.Pending = Ptr(false)
	case pushed.HasChosen:
		sp.HasChosen = Ptr(true)
		sp.Pending = Ptr(false)
	case cur.Pending && !newRound:
		// Not yet seen by the server; keep the optimistic choice
	default:
		sp.ClearChoice = true
		sp.HasChosen = Ptr(false)
		sp.Pending = Ptr(false)
	}
	return sp
}

// emptySlot clears a slot nobody occupies
func emptySlot() *SlotPartial {
	return &SlotPartial{
		Joined:           Ptr(false),
		UserID:           Ptr(model.UserID("")),
		Username:         Ptr(""),
		ClearChoice:      true,
		HasChosen:        Ptr(false),
		IsReady:          Ptr(false),
		RestartRequested: Ptr(false),
		Online:           Ptr(false),
		Pending:          Ptr(false),
	}
}

// BeginMove writes the move into the local slot as pending, stops the
// countdown and sets the sent latch. It returns false and changes nothing
// when a move was already sent this round.
func (s *Store) BeginMove(move model.Move) bool {
	return s.update(func(st *ClientState) bool {
		if st.PlaySent {
			return false
		}
		st.merge(Partial{
			Play: ForSlot(st.LocalSlot(), SlotPartial{
				Choice:  Ptr(move),
				Pending: Ptr(true),
			}),
			IsCounting:   Ptr(false),
			PlaySent:     Ptr(true),
			LocalMessage: Ptr(""),
		})
		return true
	})
}

// RollbackMove undoes a pending move the server rejected and records message
func (s *Store) RollbackMove(message string) {
	s.update(func(st *ClientState) bool {
		local := st.Play.slot(st.LocalSlot())
		p := Partial{LocalMessage: Ptr(message)}
		if local.Pending {
			p.Play = ForSlot(st.LocalSlot(), SlotPartial{
				ClearChoice: true,
				Pending:     Ptr(false),
			})
			p.PlaySent = Ptr(false)
			p.IsCounting = Ptr(st.RoundStatus == model.StatusWaitingSelections)
		}
		st.merge(p)
		return true
	})
}
