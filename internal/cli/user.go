package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsgame/internal/api/response"
	"github.com/mcoot/rpsgame/internal/clientstate"
	"github.com/mcoot/rpsgame/internal/model"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User identity commands",
	}

	cmd.AddCommand(newUserSignupCmd())
	cmd.AddCommand(newUserLoginCmd())
	cmd.AddCommand(newUserWhoamiCmd())

	return cmd
}

// authenticate runs fn for the username and saves the resulting identity
func authenticate(fn func(context.Context, string) (*response.User, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			return fmt.Errorf("--name is required")
		}

		result, err := fn(cmd.Context(), name)
		if err != nil {
			return err
		}

		// Save identity
		id := clientstate.Identity{UserID: model.UserID(result.ID), Username: result.Username}
		if err := cfg.SaveIdentity(id); err != nil {
			return fmt.Errorf("failed to save identity: %w", err)
		}

		out := NewOutput(cfg.Output)
		out.Print(*result)
		return nil
	}
}

func newUserSignupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authenticate(client.Signup)(cmd, args)
		},
	}

	cmd.Flags().String("name", "", "Username (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newUserLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authenticate(client.Login)(cmd, args)
		},
	}

	cmd.Flags().String("name", "", "Username (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newUserWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved user",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identity()
			if err != nil {
				return err
			}

			result, err := client.GetUser(cmd.Context(), id.UserID)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}
