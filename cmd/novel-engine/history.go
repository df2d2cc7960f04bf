// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/novel-engine/internal/history"
	"github.com/pdiddy/novel-engine/internal/output"
	"github.com/pdiddy/novel-engine/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent stage runs",
	Long: `History lists runs recorded in <output-dir>/history.db, newest first.
extract and publish use this record to find their default input.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	stage, _ := cmd.Flags().GetString("stage")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := history.NewStore(outputDir())
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), types.Stage(stage), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printer.Info("no runs recorded in %s", outputDir())
		return nil
	}

	tbl := output.NewTable(printer.Out(), []string{"when", "stage", "model", "output", "bytes"})
	for _, r := range runs {
		model := string(r.Model)
		if model == "" {
			model = "-"
		}
		tbl.AddRow(
			r.CreatedAt.Local().Format(time.DateTime),
			string(r.Stage),
			model,
			r.Path,
			strconv.FormatInt(r.Bytes, 10),
		)
	}
	return tbl.Render()
}

func init() {
	historyCmd.Flags().String("stage", "", "only show one stage: generate, extract, publish, or write")
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to show")

	rootCmd.AddCommand(historyCmd)
}
