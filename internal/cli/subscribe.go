package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newSubscribeCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "subscribe <path>",
		Short: "Stream live updates for the current player's session",
		Long: `Open a WebSocket subscription and print each event as it arrives.

Paths:
  - session: session status changes
  - players: joins, renames and score changes
  - questions: newly added questions
  - scoreboard: periodic ranked scores

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return streamEvents(ctx, client, NewOutput(cfg.Output, cmd.OutOrStdout()), args[0], count, cfg.Verbose)
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many events (0 streams until interrupted)")

	return cmd
}

func streamEvents(ctx context.Context, c *Client, out *Output, path string, count int, verbose bool) error {
	conn, err := c.Dial("/subscribe/" + escape(path))
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if verbose {
		out.PrintMessage(fmt.Sprintf("subscribed to %s", path))
	}

	// Unblock ReadMessage on interrupt
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for seen := 0; count == 0 || seen < count; seen++ {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("subscription closed: %w", err)
		}

		var event Event
		if err := json.Unmarshal(msg, &event); err != nil {
			return fmt.Errorf("unexpected message %q: %w", msg, err)
		}
		out.Print(event)
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return nil
}
