package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/personnel_accounting/internal/app"
	"github.com/personnel_accounting/pkg/email"
)

func newNotifyContractsCmd() *cobra.Command {
	var (
		to     []string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "notify-contracts [--to addr] [--dry-run]",
		Short: "Mail the digest of ending and expired contracts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, done, err := bootstrap()
			if err != nil {
				return err
			}
			defer done()

			if len(to) == 0 && e.cfg.HRNotifyEmail != "" {
				for _, addr := range strings.Split(e.cfg.HRNotifyEmail, ",") {
					if addr = strings.TrimSpace(addr); addr != "" {
						to = append(to, addr)
					}
				}
			}

			if dryRun {
				status, err := e.svc.Reporting.ContractsStatus(cmd.Context())
				if err != nil {
					return err
				}
				_, body, err := email.RenderContractDigest(app.ContractDigest(status))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), body)
				return nil
			}

			if len(to) == 0 {
				return errors.New("no recipients: set HR_NOTIFY_EMAIL or pass --to")
			}
			sent, err := app.NotifyContracts(cmd.Context(), e.svc.Reporting, email.NewSender(e.cfg.SMTP), to)
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{"sent": sent, "to": to}).Info("contract digest processed")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&to, "to", nil, "recipients, defaults to HR_NOTIFY_EMAIL")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the digest instead of sending it")
	return cmd
}
