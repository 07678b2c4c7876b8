package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "quizctl",
		Short: "CLI tool for the quizroom API",
		Long: `quizctl is a CLI tool for interacting with the quizroom JSON API.

Start by issuing a device token with "quizctl token <deviceID>". The token is
saved to the credentials file and used for every later command, together with
the player id of the last session created or joined.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.LoadCredentials(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerURL, cfg.AuthHeader())
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: QUIZCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Credential, "credential", cfg.Credential, "Raw deviceID:token[:playerID] credential (env: QUIZCTL_CREDENTIAL)")
	rootCmd.PersistentFlags().StringVar(&cfg.CredentialsFile, "credentials-file", cfg.CredentialsFile, "Credentials file path (env: QUIZCTL_CREDENTIALS)")
	rootCmd.PersistentFlags().StringVar(&cfg.Player, "player", cfg.Player, "Act as this player instead of the stored one")
	rootCmd.PersistentFlags().StringVar(&cfg.Session, "session", cfg.Session, "Session id instead of the stored one")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newQuestionCmd())
	rootCmd.AddCommand(newPlayerCmd())
	rootCmd.AddCommand(newSubscribeCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
