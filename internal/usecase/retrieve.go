package usecase

import (
	"io"
	"log/slog"
	"math"
	"time"

	"kbsearch/internal/adapter/cache"
	"kbsearch/internal/adapter/fs"
	"kbsearch/internal/adapter/vectorindex"
	"kbsearch/internal/domain"
	"kbsearch/internal/lazy"
	"kbsearch/internal/port"
)

// Options tunes a Service.
type Options struct {
	// BatchSize is the number of items embedded per model call while building.
	BatchSize int
	// CacheSize bounds the query result cache; negative disables it.
	CacheSize int
	Logger    *slog.Logger
}

// Service owns the process-wide retrieval state: the corpus scan, the
// embedding model and the similarity index. Each is built at most once,
// on first use, and is read-only afterwards.
type Service struct {
	corpus    port.Corpus
	embedder  port.Embedder
	batchSize int
	cacheSize int
	log       *slog.Logger

	items lazy.Cell[[]domain.CorpusItem]
	index lazy.Cell[*searcher]
}

type searcher struct {
	index     *vectorindex.Index
	retriever port.Retriever
	cache     *cache.QueryCache
}

// NewService wires a corpus and an embedder. Nothing is scanned, loaded or
// embedded until an operation needs it.
func NewService(corpus port.Corpus, embedder port.Embedder, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		corpus:    corpus,
		embedder:  embedder,
		batchSize: opts.BatchSize,
		cacheSize: opts.CacheSize,
		log:       log,
	}
}

// ListItems returns every corpus item in scan order. It never builds the index.
func (s *Service) ListItems() ([]domain.CorpusItem, error) {
	items, err := s.scan()
	if err != nil {
		return nil, err
	}
	return append([]domain.CorpusItem(nil), items...), nil
}

func (s *Service) scan() ([]domain.CorpusItem, error) {
	return s.items.Get(func() ([]domain.CorpusItem, error) {
		start := time.Now()
		items, err := s.corpus.Discover()
		if err != nil {
			s.log.Error("corpus scan failed", "error", err)
			return nil, err
		}
		s.log.Info("corpus scanned", "items", len(items), "took", time.Since(start))
		return items, nil
	})
}

// SemanticSearch returns the single corpus item closest to problemText.
// Blank input is rejected before any scan, model load or index build.
func (s *Service) SemanticSearch(problemText string) (domain.SearchResult, error) {
	q := domain.Query{Text: problemText}
	if q.Blank() {
		return domain.SearchResult{}, domain.Validation("problem text must not be empty")
	}

	sr, err := s.ensureIndex(nil)
	if err != nil {
		return domain.SearchResult{}, err
	}

	best, err := sr.retriever.Best(q.Normalized())
	if err != nil {
		return domain.SearchResult{}, err
	}
	s.log.Debug("semantic search", "best_match", best.Item.Path, "score", best.Score)

	item := best.Item
	return domain.SearchResult{
		BestMatch: item.Path,
		Score:     roundScore(best.Score),
		Item:      &item,
	}, nil
}

// GetCode returns the verbatim content of the corpus file named by path,
// given either as "<root>/<category>/<file>" or "<category>/<file>".
func (s *Service) GetCode(path string) (domain.CodeResult, error) {
	abs, err := s.corpus.Resolve(path)
	if err != nil {
		return domain.CodeResult{}, err
	}
	src, err := s.corpus.ReadContent(abs)
	if err != nil {
		return domain.CodeResult{}, err
	}
	return domain.CodeResult{Path: s.corpus.Rel(abs), Source: src}, nil
}

// Warm builds the index now instead of on the first search. progress is
// only called if this call performs the build.
func (s *Service) Warm(progress vectorindex.ProgressFunc) error {
	_, err := s.ensureIndex(progress)
	return err
}

func (s *Service) ensureIndex(progress vectorindex.ProgressFunc) (*searcher, error) {
	return s.index.Get(func() (*searcher, error) {
		items, err := s.scan()
		if err != nil {
			return nil, err
		}

		start := time.Now()
		idx, err := vectorindex.Build(items, s.embedder, s.batchSize, progress)
		if err != nil {
			s.log.Error("index build failed", "items", len(items), "error", err)
			return nil, err
		}
		s.log.Info("index built", "items", idx.Len(), "dim", idx.Dimension(),
			"model", s.embedder.ModelName(), "took", time.Since(start))

		sr := &searcher{index: idx, retriever: idx}
		if s.cacheSize >= 0 {
			sr.cache = cache.NewQueryCache(s.cacheSize)
			sr.retriever = cache.NewCachedRetriever(idx, sr.cache)
		}
		return sr, nil
	})
}

// IndexBuilds reports how many index builds were attempted.
func (s *Service) IndexBuilds() int {
	return s.index.Builds()
}

// Stats summarizes the service state without triggering any build.
func (s *Service) Stats() domain.Stats {
	st := domain.Stats{
		IndexBuilds: s.index.Builds(),
		Model:       s.embedder.ModelName(),
	}
	if items, ok := s.items.Peek(); ok {
		st.Items = len(items)
		st.Categories = fs.Categories(items)
	}
	_, st.IndexBuilt = s.index.Peek()
	return st
}

// Close releases the embedding model's resources.
func (s *Service) Close() error {
	if c, ok := s.embedder.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func roundScore(score float64) float64 {
	return math.Round(score*1e6) / 1e6
}
