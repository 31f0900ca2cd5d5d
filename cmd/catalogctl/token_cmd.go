package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/catalogo-api/pkg/jwt"
)

func newTokenCmd() *cobra.Command {
	var (
		userID   string
		role     string
		vendorID int64
		minutes  int
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un JWT de operación firmado con JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != jwt.RoleAdmin && role != jwt.RoleVendor {
				return fmt.Errorf("--role debe ser %s o %s", jwt.RoleAdmin, jwt.RoleVendor)
			}
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			if minutes <= 0 {
				minutes = cfg.JWT.Expiration
			}
			var vendor *int64
			if vendorID > 0 {
				vendor = &vendorID
			}
			tok, err := jwt.Generate(cfg.JWT.Secret, userID, vendor, role, cfg.JWT.Issuer, minutes)
			if err != nil {
				return err
			}
			return writeJSON(map[string]any{"token": tok, "role": role, "expires_in_minutes": minutes})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "catalogctl", "Sujeto del token")
	cmd.Flags().StringVar(&role, "role", jwt.RoleAdmin, "admin | vendor")
	cmd.Flags().Int64Var(&vendorID, "vendor", 0, "Vendedor del token (rol vendor)")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Vigencia en minutos (por defecto JWT_EXPIRATION_MINUTES)")
	return cmd
}
