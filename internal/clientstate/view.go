package clientstate

import "github.com/mcoot/rpsgame/internal/model"

// Outcome is a round result seen from the local user's side
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeTie  Outcome = "tie"
)

// View is the state arranged as self and opponent. When the local user sits
// in player2 every slot and score pair is swapped.
type View struct {
	Code          model.RoomCode
	Status        model.RoundStatus
	Self          SlotState
	Opponent      SlotState
	SelfScore     int
	OpponentScore int
	Outcome       Outcome
	Synced        bool
	Counting      bool
	Sent          bool
	Message       string
}

// View presents the current state from the local user's side
func (s *Store) View() View {
	return ViewOf(s.GetState())
}

// ViewOf presents st from the local user's side
func ViewOf(st ClientState) View {
	v := View{
		Code:          st.RoomCode,
		Status:        st.RoundStatus,
		Self:          st.Play.Player1,
		Opponent:      st.Play.Player2,
		SelfScore:     st.Score.Player1,
		OpponentScore: st.Score.Player2,
		Synced:        st.Synced,
		Counting:      st.IsCounting,
		Sent:          st.PlaySent,
		Message:       st.LocalMessage,
	}
	local := st.LocalSlot()
	if local == model.SlotPlayer2 {
		v.Self, v.Opponent = v.Opponent, v.Self
		v.SelfScore, v.OpponentScore = v.OpponentScore, v.SelfScore
	}

	if st.RoundStatus == model.StatusShowResults && st.LastRound != nil {
		winner, ok := st.LastRound.Winner.Slot()
		switch {
		case !ok:
			v.Outcome = OutcomeTie
		case winner == local:
			v.Outcome = OutcomeWin
		default:
			v.Outcome = OutcomeLose
		}
	}
	return v
}
