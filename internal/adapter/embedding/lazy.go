package embedding

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"kbsearch/internal/domain"
	"kbsearch/internal/lazy"
	"kbsearch/internal/port"
)

// Options selects and configures the embedding model.
type Options struct {
	Provider    string // "hash" or "openai"
	Model       string
	BaseURL     string
	APIKeyEnv   string
	Dimension   int
	BatchSize   int
	Concurrency int
	Seed        uint64
	CachePath   string
}

// Open constructs the configured model immediately.
func Open(opts Options) (port.Embedder, error) {
	var (
		e   port.Embedder
		err error
	)
	switch opts.Provider {
	case "", "hash":
		e, err = NewHashEmbedder(opts.Dimension, opts.Seed)
	case "openai":
		e, err = NewOpenAIEmbedder(OpenAIOptions{
			Model:       opts.Model,
			BaseURL:     opts.BaseURL,
			APIKeyEnv:   opts.APIKeyEnv,
			BatchSize:   opts.BatchSize,
			Concurrency: opts.Concurrency,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", opts.Provider)
	}
	if err != nil {
		return nil, err
	}

	if opts.CachePath != "" {
		return NewCachedEmbedder(e, opts.CachePath)
	}
	return e, nil
}

// Lazy defers loading the model until the first embedding is requested.
// Load failures surface as domain model-load errors to that caller only;
// the next call retries.
type Lazy struct {
	name  string
	dim   int
	load  func() (port.Embedder, error)
	model lazy.Cell[port.Embedder]
}

// NewLazy returns a lazily loaded model for opts.
func NewLazy(opts Options) *Lazy {
	name := opts.Model
	if opts.Provider == "" || opts.Provider == "hash" {
		name = fmt.Sprintf("hash-%d-s%d", opts.Dimension, opts.Seed)
	}
	return NewLazyFunc(name, opts.Dimension, func() (port.Embedder, error) {
		return Open(opts)
	})
}

// NewLazyFunc wraps an arbitrary loader.
func NewLazyFunc(name string, dim int, load func() (port.Embedder, error)) *Lazy {
	return &Lazy{name: name, dim: dim, load: load}
}

func (l *Lazy) get() (port.Embedder, error) {
	return l.model.Get(func() (port.Embedder, error) {
		start := time.Now()
		e, err := l.load()
		if err != nil {
			slog.Error("embedding model load failed", "model", l.name, "error", err)
			return nil, domain.ModelLoad(l.name, err)
		}
		slog.Info("embedding model loaded", "model", e.ModelName(), "dim", e.Dimension(), "took", time.Since(start))
		return e, nil
	})
}

// Embed loads the model if needed and embeds texts.
func (l *Lazy) Embed(texts []string) ([][]float32, error) {
	e, err := l.get()
	if err != nil {
		return nil, err
	}
	vecs, err := e.Embed(texts)
	if err != nil {
		return nil, domain.ModelLoad(l.name, err)
	}
	return vecs, nil
}

// Dimension returns the loaded model's dimension, or the configured hint.
func (l *Lazy) Dimension() int {
	if e, ok := l.model.Peek(); ok {
		return e.Dimension()
	}
	return l.dim
}

func (l *Lazy) ModelName() string {
	if e, ok := l.model.Peek(); ok {
		return e.ModelName()
	}
	return l.name
}

// Loaded reports whether the model has been loaded.
func (l *Lazy) Loaded() bool {
	_, ok := l.model.Peek()
	return ok
}

// Loads reports how many load attempts were made.
func (l *Lazy) Loads() int {
	return l.model.Builds()
}

// Close releases the model if it holds resources.
func (l *Lazy) Close() error {
	if e, ok := l.model.Peek(); ok {
		if c, ok := e.(io.Closer); ok {
			return c.Close()
		}
	}
	return nil
}
