// Command docctl browses and edits the property document tree from a terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"propdocs/internal/apiclient"
	"propdocs/internal/session"
)

// app is shared by every subcommand; sess is set up before any of them runs
type app struct {
	apiURL   string
	user     string
	userName string
	verbose  bool

	sess *session.Session
}

func (a *app) connect(ctx context.Context, stderr io.Writer) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	name := a.userName
	if name == "" {
		name = a.user
	}
	client, err := apiclient.New(apiclient.Config{
		BaseURL:  a.apiURL,
		UserID:   a.user,
		UserName: name,
		Timeout:  15 * time.Second,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	a.sess = session.New(client, logger)
	if err := a.sess.Load(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", a.apiURL, err)
	}
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "docctl",
		Short:         "Browse and organize property documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.connect(cmd.Context(), cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.apiURL, "api", envOr("DOCCTL_API_URL", "http://localhost:8080"), "API base URL (env DOCCTL_API_URL)")
	root.PersistentFlags().StringVarP(&a.user, "user", "u", envOr("DOCCTL_USER", ""), "user id sent with every request (env DOCCTL_USER)")
	root.PersistentFlags().StringVar(&a.userName, "name", envOr("DOCCTL_USER_NAME", ""), "display name (env DOCCTL_USER_NAME)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		newLsCmd(a),
		newTreeCmd(a),
		newMkdirCmd(a),
		newRenameCmd(a),
		newTagCmd(a),
		newMvCmd(a),
		newRmCmd(a),
		newTrashCmd(a),
		newRestoreCmd(a),
		newPurgeCmd(a),
		newCommentsCmd(a),
		newCommentCmd(a),
		newReplyCmd(a),
		newCommentEditCmd(a),
		newCommentRmCmd(a),
		newUsersCmd(a),
	)
	return root
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
