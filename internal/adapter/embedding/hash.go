package embedding

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"kbsearch/internal/adapter/analyzer"
)

// HashEmbedder is a local, dependency-free text model. Each unigram and
// bigram feature is hashed with a seeded FNV-1a into one of dimension
// buckets with a sign, weighted by sublinear term frequency.
// Output is bit-for-bit reproducible for the same seed and dimension.
type HashEmbedder struct {
	dimension int
	seed      [8]byte
	seedVal   uint64
	tokenizer *analyzer.Tokenizer
}

func NewHashEmbedder(dimension int, seed uint64) (*HashEmbedder, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension: %d", dimension)
	}
	e := &HashEmbedder{
		dimension: dimension,
		seedVal:   seed,
		tokenizer: analyzer.NewTokenizer(true),
	}
	binary.LittleEndian.PutUint64(e.seed[:], seed)
	return e, nil
}

func (e *HashEmbedder) Embed(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	feats := e.tokenizer.Features(text)

	// First-occurrence order keeps float accumulation order stable.
	tf := make(map[string]int, len(feats))
	order := make([]string, 0, len(feats))
	for _, f := range feats {
		if tf[f] == 0 {
			order = append(order, f)
		}
		tf[f]++
	}

	acc := make([]float64, e.dimension)
	for _, f := range order {
		w := 1 + math.Log(float64(tf[f]))
		if strings.Contains(f, " ") {
			w *= 0.5
		}
		h := e.hash(f)
		idx := h % uint64(e.dimension)
		if h>>63 == 1 {
			w = -w
		}
		acc[idx] += w
	}

	vec := make([]float32, e.dimension)
	for i, v := range acc {
		vec[i] = float32(v)
	}
	return vec
}

func (e *HashEmbedder) hash(feature string) uint64 {
	h := fnv.New64a()
	h.Write(e.seed[:])
	h.Write([]byte(feature))
	return h.Sum64()
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) ModelName() string {
	return fmt.Sprintf("hash-%d-s%d", e.dimension, e.seedVal)
}
