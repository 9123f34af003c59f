package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/remote"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events <code>",
		Short: "Stream live events from a room",
		Long: `Connect to the room's push endpoint and stream events in real-time.

Events include:
  - connected: Stream attached to the room
  - room-state: Room state changed (choices concealed until the round resolves)

The transport is chosen with --transport (ws or sse). When a user is
saved, the stream marks that user online in the room.

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var userID model.UserID
			if id, err := identity(); err == nil {
				userID = id.UserID
			}
			return streamEvents(cmd, parseRoomCode(args[0]), userID, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// StreamEvent is one received event as printed with --json
type StreamEvent struct {
	Time  time.Time        `json:"time"`
	Event model.EventType  `json:"event"`
	State *model.RoomState `json:"state,omitempty"`
}

func streamEvents(cmd *cobra.Command, code model.RoomCode, userID model.UserID, jsonOutput bool) error {
	ctx := cmd.Context()
	feed, err := client.Open(ctx, remote.Transport(cfg.Transport), code, userID)
	if err != nil {
		return err
	}
	defer func() { _ = feed.Close() }()

	if !jsonOutput {
		fmt.Fprintf(cmd.OutOrStdout(), "Connected to room %s\n", code)
	}

	for {
		select {
		case ev, ok := <-feed.Events():
			if !ok {
				if !jsonOutput {
					fmt.Fprintln(cmd.OutOrStdout(), "Disconnected")
				}
				if err := feed.Err(); err != nil {
					return fmt.Errorf("stream error: %w", err)
				}
				return nil
			}
			printEvent(cmd, ev, jsonOutput)

		case <-ctx.Done():
			// Cancellation is expected
			if !jsonOutput {
				fmt.Fprintln(cmd.OutOrStdout(), "\nDisconnected")
			}
			return nil
		}
	}
}

func printEvent(cmd *cobra.Command, ev model.Event, jsonOutput bool) {
	now := time.Now()
	w := cmd.OutOrStdout()

	if jsonOutput {
		data, _ := json.Marshal(StreamEvent{Time: now, Event: ev.Type, State: ev.State})
		fmt.Fprintln(w, string(data))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	if ev.State == nil {
		fmt.Fprintf(w, "[%s] %s\n", timestamp, ev.Type)
		return
	}
	fmt.Fprintf(w, "[%s] %s: rev=%d status=%s %s | %s\n",
		timestamp, ev.Type, ev.State.Revision, ev.State.RoundStatus,
		describeSlot(&ev.State.Player1), describeSlot(ev.State.Player2))
}

// describeSlot renders a pushed slot on one line
func describeSlot(p *model.PlayerSlot) string {
	if p == nil {
		return "(empty)"
	}
	flags := []string{}
	if p.Online {
		flags = append(flags, "online")
	}
	if p.IsReady {
		flags = append(flags, "ready")
	}
	switch {
	case p.Choice != nil:
		flags = append(flags, "chose "+string(*p.Choice))
	case p.HasChosen:
		flags = append(flags, "chosen")
	}
	if p.RestartRequested {
		flags = append(flags, "restart")
	}
	if len(flags) == 0 {
		return p.Username
	}
	return p.Username + " [" + strings.Join(flags, ",") + "]"
}
