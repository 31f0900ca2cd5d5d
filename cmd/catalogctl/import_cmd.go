package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/catalogo-api/internal/application/dto"
	"github.com/jhoicas/catalogo-api/internal/application/importer"
	"github.com/jhoicas/catalogo-api/internal/bootstrap"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
)

func newImportCmd() *cobra.Command {
	var (
		file      string
		mode      string
		vendorID  int64
		batchSize int
		mapping   string
	)

	cmd := &cobra.Command{
		Use:   "products:import",
		Short: "Importa productos desde un CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			importMode, err := entity.ParseImportMode(mode)
			if err != nil {
				return err
			}
			m, err := importer.ParseMapping(mapping)
			if err != nil {
				return fmt.Errorf("--mapping: %w", err)
			}
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if batchSize > 0 {
				cfg.Import.BatchSize = batchSize
			}
			var vendor *int64
			if vendorID > 0 {
				vendor = &vendorID
			}

			return withServices(cmd.Context(), cfg, log, func(svc *bootstrap.Services) error {
				var last dto.ImportEvent
				for ev := range svc.Importer.Start(cmd.Context(), f, m, importMode, vendor) {
					if ev.Type == dto.ImportEventProgress && ev.Progress != nil {
						log.Info().
							Str("job_id", ev.JobID).
							Int("processed", ev.Progress.ProcessedCount).
							Int("total", ev.Progress.TotalCount).
							Float64("rate", ev.Progress.Rate).
							Msg("progreso")
						continue
					}
					last = ev
				}
				if err := writeJSON(last); err != nil {
					return err
				}
				if last.Type == dto.ImportEventError && last.Error != nil {
					return fmt.Errorf("importación fallida: %s: %s", last.Error.Code, last.Error.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Ruta del CSV (obligatorio)")
	cmd.Flags().StringVar(&mode, "mode", "create", "create | update")
	cmd.Flags().Int64Var(&vendorID, "vendor", 0, "Vendedor asignado a los productos")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Filas por transacción (por defecto IMPORT_BATCH_SIZE)")
	cmd.Flags().StringVar(&mapping, "mapping", "", `JSON {"cabecera": "campo"}`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
