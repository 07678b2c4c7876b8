package cli

import (
	"github.com/spf13/cobra"
)

func newQuestionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Question commands",
	}

	cmd.AddCommand(newQuestionAddCmd())
	cmd.AddCommand(newQuestionListCmd())
	cmd.AddCommand(newQuestionAnswerCmd())

	return cmd
}

func newQuestionAddCmd() *cobra.Command {
	var points int

	cmd := &cobra.Command{
		Use:   "add <prompt> <answer>",
		Short: "Add a question (admin or moderator)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.SessionID()
			if err != nil {
				return err
			}

			req := map[string]any{
				"prompt": args[0],
				"answer": args[1],
				"points": points,
			}
			var result Question
			if err := client.Post("/session/"+escape(id)+"/question", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&points, "points", 1, "Points awarded for a correct answer")

	return cmd
}

func newQuestionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the session's questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.SessionID()
			if err != nil {
				return err
			}

			var result []Question
			if err := client.Get("/session/"+escape(id)+"/question", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newQuestionAnswerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "answer <questionID> <answer>",
		Short: "Answer a question (users only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.SessionID()
			if err != nil {
				return err
			}

			req := map[string]string{"answer": args[1]}
			var result AnswerResult
			path := "/session/" + escape(id) + "/question/" + escape(args[0]) + "/answer"
			if err := client.Post(path, req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
