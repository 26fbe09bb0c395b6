package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, done, err := bootstrap()
			if err != nil {
				return err
			}
			done()
			logrus.Info("schema is up to date")
			return nil
		},
	}
}
