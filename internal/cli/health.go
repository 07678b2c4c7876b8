package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const healthPollInterval = 250 * time.Millisecond

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long:  "Check server health. With --wait, keep polling until the server reports ok or the wait elapses.",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := waitHealthy(client, wait, healthPollInterval)
			if err != nil {
				return err
			}
			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "keep retrying for up to this long")
	return cmd
}

// waitHealthy polls /health until it reports ok. A zero wait makes exactly one attempt.
func waitHealthy(c *Client, wait, interval time.Duration) (HealthResult, error) {
	deadline := time.Now().Add(wait)
	for attempt := 1; ; attempt++ {
		var result HealthResult
		err := c.Get("/health", &result)
		if err == nil && result.Status != "ok" {
			err = fmt.Errorf("server reported status %q", result.Status)
		}
		if err == nil {
			result.Attempts = attempt
			return result, nil
		}
		if !time.Now().Add(interval).Before(deadline) {
			if attempt > 1 {
				return HealthResult{}, fmt.Errorf("server not healthy after %d attempts: %w", attempt, err)
			}
			return HealthResult{}, err
		}
		time.Sleep(interval)
	}
}
