package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/personnel_accounting/internal/app"
	"github.com/personnel_accounting/internal/services"
)

func newSeedCmd() *cobra.Command {
	var admin services.NewUser

	cmd := &cobra.Command{
		Use:   "seed [--admin-user name --admin-password secret]",
		Short: "Load ranks, specialties and optionally an admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if admin.Username != "" && admin.Password == "" {
				return errors.New("--admin-password is required with --admin-user")
			}
			e, done, err := bootstrap()
			if err != nil {
				return err
			}
			defer done()

			res, err := app.Seed(cmd.Context(), e.svc, admin)
			if err != nil {
				return err
			}
			return writeJSON(res)
		},
	}
	cmd.Flags().StringVar(&admin.Username, "admin-user", "", "admin username")
	cmd.Flags().StringVar(&admin.Password, "admin-password", "", "admin password")
	cmd.Flags().StringVar(&admin.LastName, "admin-last-name", "Адміністратор", "admin last name")
	return cmd
}
