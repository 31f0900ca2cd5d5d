package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jhoicas/catalogo-api/internal/bootstrap"
	"github.com/jhoicas/catalogo-api/pkg/config"
	"github.com/jhoicas/catalogo-api/pkg/logger"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Herramientas de operación del catálogo",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newDeleteCategoriesCmd())
	cmd.AddCommand(newMergeCategoriesCmd())
	cmd.AddCommand(newTreeCmd())
	cmd.AddCommand(newTokenCmd())
	return cmd
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		stop()
		os.Exit(1)
	}
}

// setup carga configuración y logger. Los logs van a stderr: stdout queda para la salida JSON.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "catalogctl",
		Output:  os.Stderr,
	})
	return cfg, log, nil
}

// withServices ejecuta fn con los servicios conectados y los cierra al terminar.
func withServices(ctx context.Context, cfg *config.Config, log *logger.Logger, fn func(*bootstrap.Services) error) error {
	svc, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
