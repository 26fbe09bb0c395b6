package main

import (
	"github.com/spf13/cobra"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/importer"
)

func newImportCmd() *cobra.Command {
	var opts importer.Options

	cmd := &cobra.Command{
		Use:   "import-personnel <file.csv|file.xlsx> [--update] [--dry-run]",
		Short: "Import service members from a CSV or XLSX sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, done, err := bootstrap()
			if err != nil {
				return err
			}
			defer done()

			im := importer.New(e.svc.DB, e.svc.Recorder, e.svc.Transitions)
			res, err := im.ImportFile(cmd.Context(), audit.System, args[0], opts)
			if err != nil {
				return err
			}
			return writeJSON(res)
		},
	}
	cmd.Flags().BoolVar(&opts.Update, "update", false, "update members that already exist")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "validate and roll back")
	return cmd
}
