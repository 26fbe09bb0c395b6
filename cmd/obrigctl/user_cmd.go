package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/services"
)

func newCreateUserCmd() *cobra.Command {
	var u services.NewUser

	cmd := &cobra.Command{
		Use:   "create-user <username> --password <secret> [--role role]",
		Short: "Create an operator account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u.Username = args[0]
			if u.Role != "" && !models.IsValidRole(u.Role) {
				return fmt.Errorf("unknown role %q, expected one of %v", u.Role, models.Roles)
			}
			e, done, err := bootstrap()
			if err != nil {
				return err
			}
			defer done()

			user, err := e.svc.Auth.CreateUser(cmd.Context(), audit.System, u)
			if err != nil {
				return err
			}
			return writeJSON(user)
		},
	}
	cmd.Flags().StringVar(&u.Password, "password", "", "password, at least 8 characters")
	cmd.Flags().StringVar(&u.Role, "role", models.RoleStaffOfficer, "role")
	cmd.Flags().StringVar(&u.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&u.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&u.MiddleName, "middle-name", "", "middle name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <username> <role>",
		Short: "Change an operator's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, done, err := bootstrap()
			if err != nil {
				return err
			}
			defer done()

			user, err := e.svc.Auth.SetRole(cmd.Context(), audit.System, args[0], args[1])
			if err != nil {
				return err
			}
			return writeJSON(user)
		},
	}
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := services.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
