package cli

import (
	"fmt"
	"os"

	"github.com/calliope-studio/portal/internal/cli/formatter"
	"github.com/calliope-studio/portal/internal/config"
	"github.com/calliope-studio/portal/internal/db"
	"github.com/calliope-studio/portal/internal/engine"
	"github.com/calliope-studio/portal/internal/mirror"
	"github.com/calliope-studio/portal/internal/service"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

func newStatusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status <project-id>",
		Short: "Show a project's phase pipeline and requirement checklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				lipgloss.SetColorProfile(termenv.Ascii)
			}

			database, err := db.OpenDB(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer database.Close()

			uow := db.NewSQLiteUnitOfWork(database)
			eng := engine.New()
			projects := service.NewProjectService(database, uow, eng)
			requirements := service.NewRequirementService(database, uow, eng)

			project, err := projects.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			m := mirror.New(mirror.NewServiceFetcher(projects, requirements))
			snap, _, err := m.Refresh(cmd.Context(), project.ID)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProjectStatus(project, snap))
			return nil
		},
	}
}
