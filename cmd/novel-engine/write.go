// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/novel-engine/internal/novel"
	"github.com/pdiddy/novel-engine/pkg/types"
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write a novel chapter by chapter with reviewing agents",
	Long: `Write builds character profiles, outlines each chapter (rejecting
duplicate titles and near-duplicate outlines), then drafts and reviews each
chapter until the reviewer is satisfied or --revisions is reached.

Characters, outlines, and progress are saved to the output directory after
every step; rerunning resumes from the characters and outlines on disk.
The finished novel is saved as final_novel.json and as readable text in
final_novel.txt; 'novel-engine publish <output-dir>/final_novel.txt' typesets
it, and 'novel-engine extract <output-dir>/final_novel.json' pulls out the
final chapters alone.`,
	RunE: runWrite,
}

func runWrite(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	reg := registry()

	premise, err := loadPremise(cmd)
	if err != nil {
		return err
	}

	id, err := reg.Parse(stringSetting(cmd, "model", "model"))
	if err != nil {
		return err
	}
	b, err := openBackend(reg)(id)
	if err != nil {
		return err
	}

	cfg := types.NovelConfig{
		AIConfig:            types.AIConfig{Model: id, MaxRetries: viper.GetInt("max_retries")},
		OutputDir:           outputDir(),
		NumChapters:         intSetting(cmd, "chapters", "novel.num_chapters"),
		WordsPerChapter:     intSetting(cmd, "words", "novel.words_per_chapter"),
		MaxRevisions:        intSetting(cmd, "revisions", "novel.max_revisions"),
		OutlineOnly:         boolSetting(cmd, "outline-only", "novel.outline_only"),
		SimilarityThreshold: viper.GetFloat64("novel.similarity_threshold"),
	}
	w, err := novel.NewWriter(b, cfg, printer.Out(), logger)
	if err != nil {
		return err
	}

	printer.Info("writing %d chapters with %s", cfg.NumChapters, id)
	result, err := w.Write(ctx, premise)
	if err != nil {
		return err
	}

	final := filepath.Join(cfg.OutputDir, novel.FinalFile)
	store := openHistory()
	defer closeHistory(store)
	record(ctx, store, types.Run{
		Stage: types.StageWrite,
		Model: id,
		Path:  final,
		Bytes: fileSize(final),
	})

	printer.Success("wrote %d chapters to %s", len(result.Chapters), final)
	return nil
}

// loadPremise reads --premise, or flattens the brief when none is given.
func loadPremise(cmd *cobra.Command) (string, error) {
	path := stringSetting(cmd, "premise", "novel.premise")
	if path == "" {
		brief, err := loadBrief(cmd)
		if err != nil {
			return "", err
		}
		return brief.Text(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading premise: %w", err)
	}
	return string(data), nil
}

func init() {
	writeCmd.Flags().String("model", "", "model identifier; see 'novel-engine models'")
	writeCmd.Flags().String("premise", "", "premise file (default: the brief)")
	writeCmd.Flags().String("brief", "", "YAML brief used as the premise when --premise is not given")
	writeCmd.Flags().Int("chapters", novel.DefaultNumChapters, "number of chapters")
	writeCmd.Flags().Int("words", novel.DefaultWordsPerChapter, "minimum words per chapter")
	writeCmd.Flags().Int("revisions", novel.DefaultMaxRevisions, "maximum write/review rounds per chapter")
	writeCmd.Flags().Bool("outline-only", false, "stop after characters and outlines")

	rootCmd.AddCommand(writeCmd)
}
