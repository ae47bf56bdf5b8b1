package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bookvault/internal/config"
	"bookvault/internal/database"
	"bookvault/internal/observability"
	"bookvault/internal/repository"
	"bookvault/internal/session"
)

// newSweepCommand runs one cleanup pass and exits, for cron-style
// deployments that do not keep the serve process running.
func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired short links and stale sessions, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			observability.InitLogger(cfg)

			db, err := database.Open(cfg)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}

			ctx := cmd.Context()
			urls := repository.NewShortenedURLRepository(db)
			removedURLs, err := urls.DeleteExpired(time.Now().UTC())
			if err != nil {
				return fmt.Errorf("short url cleanup: %w", err)
			}

			sessions, _, err := newSessionStore(cfg)
			if err != nil {
				return err
			}
			if sessions == nil {
				sessions = session.NewGormStore(db)
			}
			cutoff := time.Now().UTC().Add(-cfg.SessionIdleTimeout)
			removedSessions, err := sessions.DeleteStale(ctx, cutoff)
			if err != nil {
				return fmt.Errorf("session cleanup: %w", err)
			}

			cmd.Printf("removed %d expired short links, %d stale sessions\n", removedURLs, removedSessions)
			return nil
		},
	}
}
