// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/novel-engine/internal/generate"
	"github.com/pdiddy/novel-engine/internal/prompt"
	"github.com/pdiddy/novel-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Ask a model for a story and save the raw response",
	Long: `Generate asks for a desired length and a model (or takes them from
--length and --model), sends the story brief to that model, and writes the
response unchanged to <output-dir>/<model>_<timestamp>.txt.

A failed or empty model response aborts the run; nothing is retried.`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	reg := registry()
	in := bufio.NewReader(cmd.InOrStdin())

	brief, err := loadBrief(cmd)
	if err != nil {
		return err
	}

	length := intSetting(cmd, "length", "length")
	if !cmd.Flags().Changed("length") {
		if length, err = askLength(in, printer, length); err != nil {
			return err
		}
	}

	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		if model, err = askModel(in, printer, reg, types.ModelID(viper.GetString("model"))); err != nil {
			return err
		}
	}

	text, err := prompt.Story(brief, length)
	if err != nil {
		return err
	}
	req, err := types.NewGenerationRequest(length, model, reg, text)
	if err != nil {
		return err
	}

	printer.Info("generating %d words with %s...", req.DesiredLength(), req.ModelID())
	g := &generate.Generator{
		Open:      openBackend(reg),
		OutputDir: outputDir(),
		Logger:    logger,
	}
	res, err := g.Generate(ctx, req)
	if err != nil {
		return err
	}

	store := openHistory()
	defer closeHistory(store)
	record(ctx, store, types.Run{
		Stage: types.StageGenerate,
		Model: res.ModelID,
		Path:  res.Path,
		Bytes: int64(len(res.RawText)),
	})

	printer.Success("wrote %s", res.Path)
	return nil
}

// loadBrief returns the brief named by --brief (or the "brief" setting), or
// the built-in one.
func loadBrief(cmd *cobra.Command) (prompt.Brief, error) {
	path := stringSetting(cmd, "brief", "brief")
	if path == "" {
		return prompt.DefaultBrief(), nil
	}
	return prompt.LoadBrief(path)
}

func init() {
	generateCmd.Flags().Int("length", defaultLength, "desired story length in words (skips the question)")
	generateCmd.Flags().String("model", "", "model identifier (skips the question); see 'novel-engine models'")
	generateCmd.Flags().String("brief", "", "YAML brief replacing the built-in story")

	rootCmd.AddCommand(generateCmd)
}
