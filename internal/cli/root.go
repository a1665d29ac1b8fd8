package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"kbsearch/config"
)

var (
	cfgFile    string
	cfg        *config.Config
	corpusRoot string
)

var rootCmd = &cobra.Command{
	Use:   "kbsearch",
	Short: "Semantic search over a local knowledge base of example programs",
	Long: `kbsearch indexes a directory of example programs grouped by category,
finds the single example closest to a problem description and returns its
source code.

Example usage:
  kbsearch list                                    # List every example
  kbsearch search -q "sentiment classification"    # Find the closest example
  kbsearch get nlp/text_classification.py          # Print an example's source
  kbsearch serve --addr :8080                      # Serve the JSON API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			wd, werr := os.Getwd()
			if werr != nil {
				return fmt.Errorf("failed to get working directory: %w", werr)
			}
			cfg, err = config.LoadFromDir(wd)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if corpusRoot != "" {
			cfg.Corpus.Root = corpusRoot
		}

		slog.SetDefault(newLogger(cfg.Logging))
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./kbsearch.yaml)")
	rootCmd.PersistentFlags().StringVarP(&corpusRoot, "root", "r", "", "knowledge base directory (default from config)")
}

func GetConfig() *config.Config {
	return cfg
}

func newLogger(lc config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
