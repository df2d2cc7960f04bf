// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/novel-engine/internal/backend"
	"github.com/pdiddy/novel-engine/internal/extract"
	"github.com/pdiddy/novel-engine/internal/history"
	"github.com/pdiddy/novel-engine/internal/novel"
	"github.com/pdiddy/novel-engine/internal/publish"
	"github.com/pdiddy/novel-engine/internal/secrets"
	"github.com/pdiddy/novel-engine/pkg/types"
)

const (
	defaultOutputDir  = "novel_output"
	defaultMaxRetries = 5
	defaultLength     = 2000
)

// newBackend builds a model client. Tests replace it with a stub.
var newBackend = backend.New

func setDefaults() {
	viper.SetDefault("output_dir", defaultOutputDir)
	viper.SetDefault("secrets_dir", ".secrets/")
	viper.SetDefault("model", string(types.DefaultModel))
	viper.SetDefault("length", defaultLength)
	viper.SetDefault("max_retries", defaultMaxRetries)
	viper.SetDefault("user_agent", "novel-engine/"+version)

	ext := extract.DefaultConfig()
	viper.SetDefault("extraction.marker", ext.Marker)
	viper.SetDefault("extraction.regexp", ext.Regexp)
	viper.SetDefault("extraction.occurrence", string(ext.Occurrence))
	viper.SetDefault("extraction.terminator", ext.Terminator)

	pub := publish.DefaultConfig()
	viper.SetDefault("publish.title", pub.Title)
	viper.SetDefault("publish.font_dir", "")

	viper.SetDefault("novel.num_chapters", novel.DefaultNumChapters)
	viper.SetDefault("novel.words_per_chapter", novel.DefaultWordsPerChapter)
	viper.SetDefault("novel.max_revisions", novel.DefaultMaxRevisions)
	viper.SetDefault("novel.similarity_threshold", novel.DefaultSimilarityThreshold)
}

// stringSetting returns the flag value when the user set it, else the
// config/env value under key.
func stringSetting(cmd *cobra.Command, flag, key string) string {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		return f.Value.String()
	}
	return viper.GetString(key)
}

func intSetting(cmd *cobra.Command, flag, key string) int {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		n, _ := cmd.Flags().GetInt(flag)
		return n
	}
	return viper.GetInt(key)
}

func boolSetting(cmd *cobra.Command, flag, key string) bool {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		b, _ := cmd.Flags().GetBool(flag)
		return b
	}
	return viper.GetBool(key)
}

func outputDir() string {
	return viper.GetString("output_dir")
}

// registry returns the built-in model table with local server URLs moved to
// lmstudio_url and ollama_url when configured.
func registry() types.Registry {
	reg := types.DefaultRegistry()
	if u := viper.GetString("lmstudio_url"); u != "" {
		reg = reg.WithBaseURL(types.LMStudioURL, u)
	}
	if u := viper.GetString("ollama_url"); u != "" {
		reg = reg.WithBaseURL(types.OllamaURL, u)
	}
	return reg
}

// openBackend resolves a model to a client, pulling its API key from the
// environment or .secrets/.
func openBackend(reg types.Registry) func(types.ModelID) (backend.Backend, error) {
	return func(id types.ModelID) (backend.Backend, error) {
		params, err := reg.Lookup(id)
		if err != nil {
			return nil, err
		}
		return newBackend(params, backend.Options{
			APIKey:     secrets.Lookup(loadedSecrets, params.SecretName),
			UserAgent:  viper.GetString("user_agent"),
			MaxRetries: viper.GetInt("max_retries"),
			Logger:     logger,
		})
	}
}

// openHistory opens the run history in the output directory. History is a
// convenience, so failure to open it is a warning.
func openHistory() *history.Store {
	store, err := history.NewStore(outputDir())
	if err != nil {
		printer.Warning("run history unavailable: %v", err)
		return nil
	}
	return store
}

func closeHistory(store *history.Store) {
	if store != nil {
		store.Close()
	}
}

// record stores a successful run. Failures are logged, not returned.
func record(ctx context.Context, store *history.Store, run types.Run) {
	if store == nil {
		return
	}
	if _, err := store.Record(ctx, run); err != nil {
		logger.Warn("recording run", zap.String("stage", string(run.Stage)), zap.Error(err))
	}
}

// resolveInput returns args[0] when given, else the latest output of stage.
func resolveInput(ctx context.Context, store *history.Store, args []string, stage types.Stage, match func(string) bool) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	path, err := history.Resolve(ctx, store, stage, outputDir(), match)
	if errors.Is(err, history.ErrNoRuns) {
		return "", fmt.Errorf("no input given and no previous %s output found in %s", stage, outputDir())
	}
	return path, err
}

func fileSize(path string) int64 {
	if info, err := os.Stat(path); err == nil {
		return info.Size()
	}
	return 0
}
