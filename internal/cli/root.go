// Package cli is the terminal chat client: the widget session store and the
// gateway client behind a cobra command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"ragbot/internal/chat"
	"ragbot/internal/config"

	"github.com/spf13/cobra"
)

type options struct {
	apiBase   string
	storePath string
	redisURL  string
	auth      bool
	session   string
	timeout   time.Duration
}

// app is built lazily so commands that never touch sessions do not open the store.
type app struct {
	opts   *options
	client *chat.Client
	widget *chat.Widget
	close  func() error
}

func (a *app) api() *chat.Client {
	if a.client == nil {
		a.client = chat.NewClient(a.opts.apiBase, a.opts.timeout)
	}
	return a.client
}

// chat opens the session store and the widget, honoring --session.
func (a *app) chat(ctx context.Context) (*chat.Widget, error) {
	if a.widget != nil {
		return a.widget, nil
	}
	store, closeFn, err := chat.OpenStore(a.opts.storePath, a.opts.redisURL)
	if err != nil {
		return nil, err
	}
	w := chat.NewWidget(store, a.api(), a.opts.auth)
	if err := w.Open(ctx); err != nil {
		_ = closeFn()
		return nil, fmt.Errorf("open chat sessions: %w", err)
	}
	if a.opts.session != "" {
		if err := w.SelectSession(a.opts.session); err != nil {
			_ = closeFn()
			return nil, fmt.Errorf("session %s: %w", a.opts.session, err)
		}
	}
	a.widget, a.close = w, closeFn
	return w, nil
}

func (a *app) shutdown() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// NewRootCommand builds the ragbot command tree with defaults taken from cfg.
func NewRootCommand(cfg config.Config) *cobra.Command {
	root, _ := newRoot(cfg)
	return root
}

func newRoot(cfg config.Config) (*cobra.Command, *app) {
	opts := &options{timeout: 2 * time.Minute}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:           "ragbot",
		Short:         "Chat with the ABS Developers property assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.apiBase, "api", cfg.WebAPIBase, "base URL of the ragbot API")
	pf.StringVar(&opts.storePath, "store", cfg.ChatStorePath, "chat session file")
	pf.StringVar(&opts.redisURL, "redis", cfg.RedisURL, "store chat sessions in Redis instead of the session file")
	pf.BoolVar(&opts.auth, "auth", cfg.AuthToken != "", "treat the user as signed in (allows more than one chat)")
	pf.StringVar(&opts.session, "session", "", "session id to use instead of the most recent one")
	pf.DurationVar(&opts.timeout, "timeout", opts.timeout, "request timeout")

	root.AddCommand(
		newChatCmd(a),
		newAskCmd(a),
		newUploadCmd(a),
		newSessionsCmd(a),
		newHealthCmd(a),
	)
	return root, a
}

// Execute runs the command tree and writes any error to errOut.
func Execute(ctx context.Context, cfg config.Config, args []string, out, errOut io.Writer) error {
	root, a := newRoot(cfg)
	defer func() { _ = a.shutdown() }()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(errOut, "Error:", err)
	}
	return err
}
