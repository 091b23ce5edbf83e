package cmd

import (
	"fmt"
	"os"

	"deepscan/internal/config"
	"deepscan/internal/repository/sqlite"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded inference runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := sqlite.NewRunRepository(db).GetRuns()
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Run", "Started", "Model", "Threshold", "Tracks", "Mean loss"})
		for _, run := range runs {
			t.AppendRow(table.Row{
				run.ID[:8],
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.ModelPath,
				fmt.Sprintf("%.2f", run.Threshold),
				run.Tracks,
				fmt.Sprintf("%.4f", run.MeanLoss),
			})
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
}
