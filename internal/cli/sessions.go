package cli

import (
	"ragbot/internal/chat"

	"github.com/spf13/cobra"
)

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List or create chat sessions",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List chat sessions, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				w, err := a.chat(cmd.Context())
				if err != nil {
					return err
				}
				printSessions(cmd, w)
				return nil
			},
		},
		&cobra.Command{
			Use:   "new",
			Short: "Start a new chat session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				w, err := a.chat(cmd.Context())
				if err != nil {
					return err
				}
				s, err := w.CreateSession(cmd.Context())
				if err != nil {
					return err
				}
				cmd.Println(s.ID)
				return nil
			},
		},
	)
	return cmd
}

func printSessions(cmd *cobra.Command, w *chat.Widget) {
	active, _ := w.Active()
	for _, s := range w.Sessions() {
		mark := " "
		if s.ID == active.ID {
			mark = "*"
		}
		cmd.Printf("%s %s  %-40s  %d messages  %s\n", mark, s.ID, s.Title, len(s.Messages), s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}
