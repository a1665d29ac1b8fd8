package cli

import (
	"fmt"
	"log/slog"

	"kbsearch/config"
	"kbsearch/internal/adapter/embedding"
	"kbsearch/internal/adapter/fs"
	"kbsearch/internal/usecase"
)

// openService wires the scanner, the lazily loaded model and the service
// from configuration. Nothing is scanned or loaded yet.
func openService(cfg *config.Config) (*usecase.Service, error) {
	scanner, err := fs.NewScanner(cfg.Corpus.Root, cfg.Corpus.Extension, cfg.Corpus.Excludes)
	if err != nil {
		return nil, fmt.Errorf("invalid corpus config: %w", err)
	}

	model := embedding.NewLazy(cfg.EmbeddingOptions())

	opts := cfg.ServiceOptions()
	opts.Logger = slog.Default()
	return usecase.NewService(scanner, model, opts), nil
}
