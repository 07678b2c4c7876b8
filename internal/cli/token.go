package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <deviceID>",
		Short: "Issue the device token and save it",
		Long: `Ask the server for this device's token. A device is issued its token
exactly once, so the result is written to the credentials file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceID := args[0]
			var result TokenResult

			// The token endpoint takes the bare device id
			if err := NewClient(cfg.ServerURL, deviceID).Post("/token", nil, &result); err != nil {
				return err
			}

			if err := cfg.SaveCredentials(Credentials{DeviceID: result.DeviceID, Token: result.Token}); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
