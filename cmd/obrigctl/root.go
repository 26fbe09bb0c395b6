package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/personnel_accounting/configs"
	"github.com/personnel_accounting/internal/app"
	"github.com/personnel_accounting/pkg/db"
	"github.com/personnel_accounting/pkg/logger"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "obrigctl",
		Short:         "ASOOS OBRIG maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newCreateUserCmd())
	cmd.AddCommand(newSetRoleCmd())
	cmd.AddCommand(newHashPasswordCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newNotifyContractsCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// env is the configuration and service graph shared by the commands.
type env struct {
	cfg configs.Configuration
	svc *app.Services
}

// bootstrap loads configuration, opens and migrates the database. Logs go
// to stderr so command output on stdout stays machine readable.
func bootstrap() (*env, func(), error) {
	configs.LoadConfig()
	cfg := configs.AppConfig
	if err := logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		return nil, nil, err
	}
	if err := db.InitDB(cfg.Database, logger.GormLogger(cfg.LogLevel)); err != nil {
		return nil, nil, err
	}
	closeDB := func() { _ = db.CloseDB() }
	return &env{cfg: cfg, svc: app.NewServices(db.GetDB(), cfg, nil)}, closeDB, nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
