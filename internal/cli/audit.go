package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"bookvault/internal/config"
	"bookvault/internal/database"
	"bookvault/internal/observability"
	"bookvault/internal/repository"
	"bookvault/internal/service"
)

func newAuditCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Browse the audit trail in an interactive viewer",
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

			audit := service.NewAuditService(repository.NewAuditRepository(db))
			p := tea.NewProgram(newAuditModel(audit, limit), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("audit viewer: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "entries per page")
	return cmd
}
