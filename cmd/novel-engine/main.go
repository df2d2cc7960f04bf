// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the novel-engine CLI.
//
// Each pipeline stage is a subcommand: generate writes a raw model response,
// extract cuts the novel out of it, publish renders the result to PDF, and
// write runs the multi-pass chapter writer. Stages share only the output
// directory and its run history.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/novel-engine/internal/logging"
	"github.com/pdiddy/novel-engine/internal/output"
	"github.com/pdiddy/novel-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	logger  = zap.NewNop()
	printer = output.NewPrinter(false)
)

// rootCmd is the base command for the novel-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "novel-engine",
	Short: "Generate, extract, and publish novels with language models",
	Long: `novel-engine sends a fixed creative-writing brief to a language model and
turns the response into a book.

  generate  ask a model for a story and save its raw response
  extract   cut the novel out of a raw response
  publish   render extracted text to PDF
  write     run the multi-pass chapter writer

Outputs land in --output-dir (default novel_output). Each stage finds the
previous stage's latest output there when no path is given.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error { _ = logger.Sync(); return nil },
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./novel-engine.yaml or ~/.config/novel-engine/novel-engine.yaml)")
	flags.String("output-dir", defaultOutputDir, "directory for generated, extracted, and published files")
	flags.Bool("debug", false, "human-readable debug logging")
	flags.Bool("no-color", false, "disable colored output")

	_ = viper.BindPFlag("output_dir", flags.Lookup("output-dir"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("no_color", flags.Lookup("no-color"))

	setDefaults()
}

func initConfig() {
	// .env values become ordinary environment variables before viper reads any.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("novel-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "novel-engine"))
		}
	}

	viper.SetEnvPrefix("NOVEL_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setup builds the logger and printer and loads secrets for every subcommand.
func setup(cmd *cobra.Command, args []string) error {
	l, err := logging.New(viper.GetBool("debug"))
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	logger = l
	printer = output.NewPrinterWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr(),
		output.ResolveColors(viper.GetBool("no_color")))

	s, err := secrets.Load(viper.GetString("secrets_dir"), logger)
	if err != nil {
		return err
	}
	loadedSecrets = s
	if len(s) > 0 {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		logger.Debug("loaded secrets", zap.Strings("keys", keys))
	}
	return nil
}

func main() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
