package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsgame/internal/api/handler"
	"github.com/mcoot/rpsgame/internal/model"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomReadyCmd())
	cmd.AddCommand(newRoomMoveCmd())
	cmd.AddCommand(newRoomRestartCmd())
	cmd.AddCommand(newRoomScoreCmd())
	cmd.AddCommand(newRoomStateCmd())
	cmd.AddCommand(newRoomQRCmd())

	return cmd
}

// RoomInfo is the output of room create
type RoomInfo struct {
	RoomCode string `json:"roomCode"`
	JoinURL  string `json:"joinUrl"`
}

func newRoomCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a room owned by the saved user",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identity()
			if err != nil {
				return err
			}

			code, err := client.CreateRoom(cmd.Context(), id.UserID)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(RoomInfo{
				RoomCode: string(code),
				JoinURL:  handler.JoinURL(client.BaseURL(), string(code)),
			})
			return nil
		},
	}
}

func newRoomJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <code|url>",
		Short: "Join a room by code or share URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identity()
			if err != nil {
				return err
			}

			result, err := client.Join(cmd.Context(), parseRoomCode(args[0]), id.UserID)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(result)
			return nil
		},
	}
}

func newRoomReadyCmd() *cobra.Command {
	var notReady bool

	cmd := &cobra.Command{
		Use:   "ready <code>",
		Short: "Mark yourself ready in a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identity()
			if err != nil {
				return err
			}

			if err := client.SetReady(cmd.Context(), parseRoomCode(args[0]), id.UserID, !notReady); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("ok")
			return nil
		},
	}

	cmd.Flags().BoolVar(&notReady, "off", false, "Clear the ready flag instead")

	return cmd
}

func newRoomMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <code> <rock|paper|scissors>",
		Short: "Submit a move for the current round",
		Long: `Submit a move for the current round.

Moves may be given in English (rock, paper, scissors) or
Spanish (piedra, papel, tijeras).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identity()
			if err != nil {
				return err
			}

			move, err := model.ParseMove(args[1])
			if err != nil {
				return err
			}

			result, err := client.SubmitMove(cmd.Context(), parseRoomCode(args[0]), id.UserID, move)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}

func newRoomRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart <code>",
		Short: "Ask for the next round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identity()
			if err != nil {
				return err
			}

			result, err := client.RequestRestart(cmd.Context(), parseRoomCode(args[0]), id.UserID)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(result)
			return nil
		},
	}
}

func newRoomScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <code>",
		Short: "Show the score and round history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Scoreboard(cmd.Context(), parseRoomCode(args[0]))
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}

func newRoomStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state <code>",
		Short: "Show the live room state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.State(cmd.Context(), parseRoomCode(args[0]))
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}

func newRoomQRCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "qr <code>",
		Short: "Save the room's share QR code as a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := parseRoomCode(args[0])
			data, err := client.QR(cmd.Context(), code)
			if err != nil {
				return err
			}

			if file == "" {
				file = fmt.Sprintf("room-%s.png", code)
			}
			if err := os.WriteFile(file, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", file, err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("saved " + file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Output file (default room-<code>.png)")

	return cmd
}
