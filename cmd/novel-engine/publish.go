// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/novel-engine/internal/extract"
	"github.com/pdiddy/novel-engine/internal/publish"
	"github.com/pdiddy/novel-engine/pkg/types"
)

var publishCmd = &cobra.Command{
	Use:   "publish [file]",
	Short: "Render extracted text to PDF",
	Long: `Publish lays text out as a US Letter PDF: cream pages, a title page,
one page break per "Chapter" heading, indented paragraphs. Without a file
argument it uses the latest extract output.

Crimson Text and Cinzel are used when their TTF files are in --font-dir;
otherwise Times.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPublish,
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := publish.DefaultConfig()
	cfg.Title = stringSetting(cmd, "title", "publish.title")
	cfg.FontDir = stringSetting(cmd, "font-dir", "publish.font_dir")
	cfg.OutputDir = outputDir()

	store := openHistory()
	defer closeHistory(store)

	in, err := resolveInput(ctx, store, args, types.StageExtract, extract.IsExtracted)
	if err != nil {
		return err
	}
	printer.Info("publishing %s", in)

	doc, err := publish.New(cfg, logger).PublishFile(in)
	if err != nil {
		return err
	}

	record(ctx, store, types.Run{
		Stage:  types.StagePublish,
		Source: in,
		Path:   doc.Path,
		Bytes:  int64(len(doc.PDF)),
	})
	printer.Success("wrote %s (%d pages)", doc.Path, doc.Pages)
	return nil
}

func init() {
	publishCmd.Flags().String("title", "", `title page text (default "Unit 985"; empty config value skips the title page)`)
	publishCmd.Flags().String("font-dir", "", "directory holding CrimsonText-Regular.ttf, Cinzel-Regular.ttf, Cinzel-Bold.ttf")

	rootCmd.AddCommand(publishCmd)
}
