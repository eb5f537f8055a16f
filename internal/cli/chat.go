package cli

import (
	"bufio"
	"errors"
	"strings"

	"ragbot/internal/chat"
	"ragbot/internal/models"

	"github.com/spf13/cobra"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		Long: `Starts an interactive chat in the active session.
Type /new to start another chat, /sessions to list chats, /quit to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := a.chat(cmd.Context())
			if err != nil {
				return err
			}
			if s, ok := w.Active(); ok {
				printTranscript(cmd, s)
			}
			in := bufio.NewScanner(cmd.InOrStdin())
			for {
				cmd.Print("> ")
				if !in.Scan() {
					cmd.Println()
					return in.Err()
				}
				line := strings.TrimSpace(in.Text())
				switch line {
				case "":
					continue
				case "/quit", "/exit":
					return nil
				case "/sessions":
					printSessions(cmd, w)
					continue
				case "/new":
					s, err := w.CreateSession(cmd.Context())
					if errors.Is(err, chat.ErrSessionLimit) {
						cmd.Println("Sign in (--auth) to start more than one chat.")
						continue
					}
					if err != nil {
						return err
					}
					cmd.Printf("Started chat %s\n", s.ID)
					continue
				}
				reply, err := w.SendMessage(cmd.Context(), line)
				if err != nil {
					return err
				}
				cmd.Println(reply.Text)
			}
		},
	}
}

func newAskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [message]",
		Short: "Send one message and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.chat(cmd.Context())
			if err != nil {
				return err
			}
			reply, err := w.SendMessage(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			cmd.Println(reply.Text)
			return nil
		},
	}
}

func printTranscript(cmd *cobra.Command, s models.ChatSession) {
	cmd.Printf("# %s\n", s.Title)
	for _, m := range s.Messages {
		who := "assistant"
		if m.IsUser {
			who = "you"
		}
		cmd.Printf("%s: %s\n", who, m.Text)
	}
}
