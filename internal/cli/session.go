package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session commands",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionJoinCmd())
	cmd.AddCommand(newSessionGetCmd())
	cmd.AddCommand(newSessionPlayersCmd())
	cmd.AddCommand(newSessionStatusCmd("play", "Resume the session"))
	cmd.AddCommand(newSessionStatusCmd("pause", "Pause the session"))
	cmd.AddCommand(newSessionStatusCmd("delete", "Delete the session"))

	return cmd
}

func newSessionCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <username>",
		Short: "Create a session and become its admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result SessionCreated

			client.SetAuthorization(cfg.DeviceAuthHeader())
			if err := client.Post("/session/username/"+escape(args[0]), nil, &result); err != nil {
				return err
			}

			if err := cfg.remember(result.PlayerID, result.SessionID); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newSessionJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <joinToken> <username>",
		Short: "Join a session with a moderator or user join token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Player

			client.SetAuthorization(cfg.DeviceAuthHeader())
			path := fmt.Sprintf("/session/join/%s/username/%s", escape(args[0]), escape(args[1]))
			if err := client.Post(path, nil, &result); err != nil {
				return err
			}

			if err := cfg.remember(result.PlayerID, result.SessionID); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newSessionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.SessionID()
			if err != nil {
				return err
			}

			var result Session
			if err := client.Get("/session/"+escape(id), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newSessionPlayersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "players",
		Short: "List the session's players",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.SessionID()
			if err != nil {
				return err
			}

			var result []Player
			if err := client.Get("/session/"+escape(id)+"/players", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

// newSessionStatusCmd builds play, pause and delete, which differ only in verb
func newSessionStatusCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short + " (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.SessionID()
			if err != nil {
				return err
			}

			var result Session
			path := "/session/" + escape(id) + "/manage/" + action
			if action == "delete" {
				err = client.Delete(path, &result)
			} else {
				err = client.Put(path, nil, &result)
			}
			if err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
