package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ems-codex/brand-sentiment/internal/model"
)

var runExportFile string

var runCmd = &cobra.Command{
	Use:   "run [dataset...]",
	Short: "Run the sentiment pipeline for all or selected clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		runner, closeFn, err := newRunner(ctx, args)
		if err != nil {
			return err
		}
		defer closeFn()

		if runExportFile != "" {
			f, err := os.Create(runExportFile)
			if err != nil {
				return eris.Wrapf(err, "create export file %s", runExportFile)
			}
			defer f.Close()
			runner.Export = f
		}

		reports := runner.RunAll(ctx)
		printReports(reports)

		failed := 0
		for _, r := range reports {
			if r.Err != "" {
				failed++
			}
		}
		if failed == len(reports) && failed > 0 {
			return eris.Errorf("all %d clients failed", failed)
		}
		return nil
	},
}

func printReports(reports []model.RunReport) {
	out, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal reports: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func init() {
	runCmd.Flags().StringVar(&runExportFile, "export", "", "write the staged batch as NDJSON to this file instead of upserting")
	rootCmd.AddCommand(runCmd)
}
