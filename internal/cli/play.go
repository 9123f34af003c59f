package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsgame/internal/clientstate"
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/remote"
)

// shortMoves are single-letter shortcuts accepted at the play prompt
var shortMoves = map[string]model.Move{
	"r": model.MoveRock,
	"p": model.MovePaper,
	"s": model.MoveScissors,
}

const playHelp = `Commands:
  r, p, s (or rock, paper, scissors, piedra, papel, tijeras)  submit a move
  ready / unready                                            toggle your ready flag
  restart                                                    ask for the next round
  score                                                      reload the score
  quit                                                       leave`

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <code|url>",
		Short: "Join a room and play interactively",
		Long: `Join a room and play interactively. Room updates are pushed live
and rendered as they arrive. Commands are read from stdin, one per line.

` + playHelp,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identity()
			if err != nil {
				return err
			}
			return runPlay(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), *id, parseRoomCode(args[0]))
		},
	}
}

func runPlay(ctx context.Context, in io.Reader, out io.Writer, id clientstate.Identity, code model.RoomCode) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := clientstate.NewStore(id, code)
	session := clientstate.NewSession(store, client, logger)

	result, err := session.Join(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Joined room %s as %s (%s)\n", code, id.Username, result)

	feed, err := client.Open(ctx, remote.Transport(cfg.Transport), code, id.UserID)
	if err != nil {
		return err
	}
	defer func() { _ = feed.Close() }()

	r := &renderer{w: out}
	unsubscribe := store.Subscribe(r.render)
	defer unsubscribe()

	runErr := make(chan error, 1)
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		runErr <- session.Run(ctx, remote.RoomStates(feed.Events()))
	}()
	defer func() {
		cancel()
		<-runDone
	}()

	// Wait for the first push before taking input
	synced := make(chan struct{})
	var once sync.Once
	stopWaiting := store.Subscribe(func(st clientstate.ClientState) {
		if st.Synced {
			once.Do(func() { close(synced) })
		}
	})
	select {
	case <-synced:
	case err := <-runErr:
		stopWaiting()
		if err == nil {
			err = feed.Err()
		}
		if err == nil {
			return errors.New("stream closed before first update")
		}
		return fmt.Errorf("stream closed before first update: %w", err)
	case <-ctx.Done():
		stopWaiting()
		return nil
	}
	stopWaiting()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(out, playHelp)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := handlePlayInput(ctx, session, out, line); quit {
				return nil
			}

		case err := <-runErr:
			if err == nil {
				err = feed.Err()
			}
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("stream error: %w", err)
			}
			fmt.Fprintln(out, "Disconnected")
			return nil

		case <-ctx.Done():
			return nil
		}
	}
}

// handlePlayInput runs one prompt command and reports whether to quit
func handlePlayInput(ctx context.Context, session *clientstate.Session, out io.Writer, line string) bool {
	input := strings.ToLower(strings.TrimSpace(line))
	switch input {
	case "":
		return false
	case "q", "quit", "exit":
		return true
	case "help", "?":
		fmt.Fprintln(out, playHelp)
	case "ready":
		reportErr(out, session.SetReady(ctx, true))
	case "unready":
		reportErr(out, session.SetReady(ctx, false))
	case "restart":
		msg, err := session.RequestRestart(ctx)
		if reportErr(out, err) {
			fmt.Fprintf(out, "Restart %s\n", msg)
		}
	case "score":
		if reportErr(out, session.RefreshScore(ctx)) {
			v := session.Store().View()
			fmt.Fprintf(out, "Score: you %d - %d opponent\n", v.SelfScore, v.OpponentScore)
		}
	default:
		move, ok := shortMoves[input]
		if !ok {
			parsed, err := model.ParseMove(input)
			if err != nil {
				fmt.Fprintf(out, "Unknown command %q, type help\n", input)
				return false
			}
			move = parsed
		}
		sent, err := session.SubmitMove(ctx, move)
		if !sent {
			fmt.Fprintln(out, "Move already sent this round")
			return false
		}
		reportErr(out, err)
	}
	return false
}

// reportErr prints err and reports whether the action succeeded
func reportErr(out io.Writer, err error) bool {
	if err != nil {
		fmt.Fprintf(out, "Error: %s\n", err)
		return false
	}
	return true
}

// renderer prints the session view whenever its rendering changes
type renderer struct {
	mu   sync.Mutex
	w    io.Writer
	last string
}

func (r *renderer) render(st clientstate.ClientState) {
	line := formatView(clientstate.ViewOf(st))

	r.mu.Lock()
	defer r.mu.Unlock()
	if line == r.last {
		return
	}
	r.last = line
	fmt.Fprintln(r.w, line)
}

// formatView renders a view on one line
func formatView(v clientstate.View) string {
	if !v.Synced {
		return fmt.Sprintf("[%s] connecting...", v.Code)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | you %d - %d opponent | you: %s | opponent: %s",
		v.Code, v.Status, v.SelfScore, v.OpponentScore, describeView(v.Self), describeView(v.Opponent))

	switch {
	case v.Outcome == clientstate.OutcomeWin:
		b.WriteString(" | You win!")
	case v.Outcome == clientstate.OutcomeLose:
		b.WriteString(" | You lose")
	case v.Outcome == clientstate.OutcomeTie:
		b.WriteString(" | Tie")
	case v.Counting:
		b.WriteString(" | choose now")
	case v.Sent && v.Status == model.StatusWaitingSelections:
		b.WriteString(" | waiting for opponent")
	}
	if v.Message != "" {
		b.WriteString(" | " + v.Message)
	}
	return b.String()
}

func describeView(s clientstate.SlotState) string {
	if !s.Joined {
		return "(empty)"
	}
	flags := []string{}
	if !s.Online {
		flags = append(flags, "offline")
	}
	if s.IsReady {
		flags = append(flags, "ready")
	}
	switch {
	case s.Choice != nil:
		choice := string(*s.Choice)
		if s.Pending {
			choice += "?"
		}
		flags = append(flags, choice)
	case s.HasChosen:
		flags = append(flags, "chosen")
	}
	if s.RestartRequested {
		flags = append(flags, "restart")
	}
	if len(flags) == 0 {
		return s.Username
	}
	return s.Username + " [" + strings.Join(flags, ",") + "]"
}
