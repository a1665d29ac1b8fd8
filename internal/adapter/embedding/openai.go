package embedding

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize   = 64
	defaultConcurrency = 4
)

// OpenAIEmbedder calls any OpenAI-compatible /embeddings endpoint
// (OpenAI, Ollama, LM Studio, vLLM, ...).
type OpenAIEmbedder struct {
	client      *openai.Client
	model       string
	dimension   int
	batchSize   int
	concurrency int
}

// OpenAIOptions configures NewOpenAIEmbedder.
type OpenAIOptions struct {
	Model       string
	BaseURL     string
	APIKeyEnv   string
	BatchSize   int
	Concurrency int
}

// NewOpenAIEmbedder creates the client and probes the model once to learn its
// dimension, so an unreachable endpoint or unknown model fails here.
func NewOpenAIEmbedder(opts OpenAIOptions) (*OpenAIEmbedder, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("embedding model is not configured")
	}

	apiKey := ""
	if opts.APIKeyEnv != "" {
		apiKey = os.Getenv(opts.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("API key not found in environment variable: %s", opts.APIKeyEnv)
		}
	}

	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	e := &OpenAIEmbedder{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		batchSize:   opts.BatchSize,
		concurrency: opts.Concurrency,
	}
	if e.batchSize <= 0 {
		e.batchSize = defaultBatchSize
	}
	if e.concurrency <= 0 {
		e.concurrency = defaultConcurrency
	}

	probe, err := e.embedBatch(context.Background(), []string{"probe"})
	if err != nil {
		return nil, err
	}
	e.dimension = len(probe[0])
	if e.dimension == 0 {
		return nil, fmt.Errorf("model %s returned an empty embedding", e.model)
	}

	return e, nil
}

// Embed splits texts into batches and embeds them concurrently.
// The result preserves input order.
func (e *OpenAIEmbedder) Embed(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(e.concurrency)

	for start := 0; start < len(texts); start += e.batchSize {
		start := start
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			vecs, err := e.embedBatch(ctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(out[start:end], vecs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	// Some servers reject empty inputs; a single space embeds as near-zero.
	input := make([]string, len(texts))
	for i, t := range texts {
		if t == "" {
			t = " "
		}
		input[i] = t
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: input,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embedding response index %d out of range", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			v[i] = float32(x)
		}
		vecs[d.Index] = v
	}
	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("embedding response missing input %d", i)
		}
		if e.dimension > 0 && len(v) != e.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.dimension, len(v))
		}
	}
	return vecs, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
