// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/novel-engine/internal/extract"
	"github.com/pdiddy/novel-engine/internal/generate"
	"github.com/pdiddy/novel-engine/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Cut the novel out of a raw model response",
	Long: `Extract keeps the text after a boundary marker (default "===", last
occurrence) and drops a trailing TERMINATE. Without a file argument it uses
the latest generate output.

Given a novel-writer JSON file (final_novel.json or novel_progress.json), it
writes every chapter's final version to final_versions.json and
final_versions.txt instead.

When no marker is found nothing is written and the file needs manual review.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := types.ExtractionConfig{
		Marker:     stringSetting(cmd, "marker", "extraction.marker"),
		Regexp:     boolSetting(cmd, "regexp", "extraction.regexp"),
		Occurrence: types.Occurrence(stringSetting(cmd, "occurrence", "extraction.occurrence")),
		Terminator: stringSetting(cmd, "terminator", "extraction.terminator"),
		OutputDir:  outputDir(),
	}
	e, err := extract.New(cfg)
	if err != nil {
		return err
	}

	store := openHistory()
	defer closeHistory(store)

	in, err := resolveInput(ctx, store, args, types.StageGenerate, generate.IsRawOutput)
	if err != nil {
		return err
	}
	printer.Info("extracting %s", in)

	res, err := e.ExtractFile(in, cfg.OutputDir)
	if err != nil {
		return err
	}

	// The last output is the plain-text one publish reads.
	out := res.OutputPaths[len(res.OutputPaths)-1]
	record(ctx, store, types.Run{
		Stage:  types.StageExtract,
		Source: in,
		Path:   out,
		Bytes:  fileSize(out),
	})

	if res.Chapters > 0 {
		printer.Success("extracted %d chapters", res.Chapters)
		for _, p := range res.OutputPaths {
			printer.Print("  %s", p)
		}
		return nil
	}
	printer.Success("wrote %s", out)
	return nil
}

func init() {
	extractCmd.Flags().String("marker", "", `boundary marker (default "===")`)
	extractCmd.Flags().Bool("regexp", false, "treat the marker as a regular expression")
	extractCmd.Flags().String("occurrence", "", "which marker match to cut at: first or last (default last)")
	extractCmd.Flags().String("terminator", "", `trailing token to drop (default "TERMINATE")`)

	rootCmd.AddCommand(extractCmd)
}
