package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/catalogo-api/internal/bootstrap"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
)

func newDeleteCategoriesCmd() *cobra.Command {
	var ids []int64

	cmd := &cobra.Command{
		Use:   "categories:delete",
		Short: "Borra categorías y sus subárboles; los productos pasan a Uncategorized",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), cfg, log, func(svc *bootstrap.Services) error {
				out, err := svc.Categories.Delete(cmd.Context(), ids)
				if err != nil {
					return err
				}
				return writeJSON(out)
			})
		},
	}

	cmd.Flags().Int64SliceVar(&ids, "ids", nil, "IDs a borrar, separados por coma (obligatorio)")
	_ = cmd.MarkFlagRequired("ids")
	return cmd
}

func newMergeCategoriesCmd() *cobra.Command {
	var (
		source int64
		target int64
		scope  string
	)

	cmd := &cobra.Command{
		Use:   "categories:merge",
		Short: "Mueve los productos de una categoría hoja a otra",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), cfg, log, func(svc *bootstrap.Services) error {
				out, err := svc.Categories.Merge(cmd.Context(), source, target, scope)
				if err != nil {
					return err
				}
				return writeJSON(out)
			})
		},
	}

	cmd.Flags().Int64Var(&source, "source", 0, "Categoría origen (obligatorio)")
	cmd.Flags().Int64Var(&target, "target", 0, "Categoría destino (obligatorio)")
	cmd.Flags().StringVar(&scope, "scope", "both", "vendor | store | both")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newTreeCmd() *cobra.Command {
	var (
		taxonomy string
		vendorID int64
	)

	cmd := &cobra.Command{
		Use:   "categories:tree",
		Short: "Imprime el árbol de una taxonomía con conteos de productos",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := entity.ParseTaxonomy(taxonomy)
			if err != nil {
				return fmt.Errorf("--taxonomy: %w", err)
			}
			var vendor *int64
			if vendorID > 0 {
				vendor = &vendorID
			}
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), cfg, log, func(svc *bootstrap.Services) error {
				out, err := svc.Categories.ListTree(cmd.Context(), t, vendor)
				if err != nil {
					return err
				}
				return writeJSON(out)
			})
		},
	}

	cmd.Flags().StringVar(&taxonomy, "taxonomy", "store", "vendor | store")
	cmd.Flags().Int64Var(&vendorID, "vendor", 0, "Acota la taxonomía vendor a un vendedor")
	return cmd
}
