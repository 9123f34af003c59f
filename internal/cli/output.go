package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mcoot/rpsgame/internal/api/response"
	"github.com/mcoot/rpsgame/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return newOutputTo(format, os.Stdout)
}

func newOutputTo(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(response.Message{Message: msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.User:
		o.printUser(v)
	case RoomInfo:
		o.printRoomInfo(v)
	case response.Move:
		o.printMove(v)
	case response.Scoreboard:
		o.printScoreboard(v)
	case model.RoomState:
		o.printRoomState(v)
	case response.Health:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printUser(u response.User) {
	fmt.Fprintf(o.w, "User: %s (%s)\n", u.Username, u.ID)
}

func (o *Output) printRoomInfo(r RoomInfo) {
	fmt.Fprintf(o.w, "Room: %s\n", r.RoomCode)
	fmt.Fprintf(o.w, "Join URL: %s\n", r.JoinURL)
}

func (o *Output) printMove(m response.Move) {
	if m.Waiting {
		fmt.Fprintln(o.w, "Move recorded, waiting for opponent")
		return
	}

	switch {
	case m.Winner != nil:
		fmt.Fprintf(o.w, "Winner: %s (%s)\n", m.Winner.Username, m.Winner.Slot)
	case m.Result == model.WinnerTie:
		fmt.Fprintln(o.w, "Tie!")
	}
	if m.Round != nil {
		fmt.Fprintf(o.w, "Moves: %s vs %s\n", m.Round.Player1Choice, m.Round.Player2Choice)
	}
	if m.Score != nil {
		fmt.Fprintf(o.w, "Score: %d - %d\n", m.Score.Player1, m.Score.Player2)
	}
	if m.Warning != "" {
		fmt.Fprintf(o.w, "Warning: %s\n", m.Warning)
	}
}

func (o *Output) printScoreboard(s response.Scoreboard) {
	fmt.Fprintf(o.w, "Room: %s\n", s.RoomCode)
	fmt.Fprintf(o.w, "Score: %d - %d\n", s.Score.Player1, s.Score.Player2)
	if len(s.History) == 0 {
		fmt.Fprintln(o.w, "No rounds played")
		return
	}
	fmt.Fprintf(o.w, "History (%d):\n", len(s.History))
	for _, r := range s.History {
		fmt.Fprintf(o.w, "  %s  %-8s vs %-8s  %s\n",
			r.Timestamp.Format("2006-01-02 15:04:05"), r.Player1Choice, r.Player2Choice, r.Winner)
	}
}

func (o *Output) printRoomState(s model.RoomState) {
	fmt.Fprintf(o.w, "Status: %s\n", s.RoundStatus)
	fmt.Fprintf(o.w, "Revision: %d\n", s.Revision)
	fmt.Fprintf(o.w, "Player 1: %s\n", describeSlot(&s.Player1))
	fmt.Fprintf(o.w, "Player 2: %s\n", describeSlot(s.Player2))
	if s.LastRound != nil {
		fmt.Fprintf(o.w, "Last round: %s vs %s (%s)\n",
			s.LastRound.Player1Choice, s.LastRound.Player2Choice, s.LastRound.Winner)
	}
}

func (o *Output) printHealth(h response.Health) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
