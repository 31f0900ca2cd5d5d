package main

import (
	"github.com/spf13/cobra"

	"github.com/jhoicas/catalogo-api/internal/infrastructure/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			pool, err := postgres.NewPool(cmd.Context(), cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			version, err := postgres.MigrationVersion(cmd.Context(), pool)
			if err != nil {
				return err
			}
			log.Info().Int64("version", version).Msg("migraciones aplicadas")
			return writeJSON(map[string]any{"command": "migrate", "version": version})
		},
	}
}
