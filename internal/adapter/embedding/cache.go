package embedding

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"kbsearch/internal/port"
)

// CachedEmbedder memoizes model outputs in a BoltDB file, one bucket per
// model name, keyed by the SHA-256 of the input text. It caches what the
// model returned for a text; it never stores a similarity index.
type CachedEmbedder struct {
	inner  port.Embedder
	db     *bbolt.DB
	bucket []byte
}

type storedVector struct {
	Vector []float32 `json:"v"`
}

// NewCachedEmbedder opens (or creates) the cache file at path.
func NewCachedEmbedder(inner port.Embedder, path string) (*CachedEmbedder, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	bucket := []byte("model:" + inner.ModelName())
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &CachedEmbedder{inner: inner, db: db, bucket: bucket}, nil
}

func cacheKey(text string) []byte {
	h := sha256.Sum256([]byte(text))
	return h[:]
}

func (c *CachedEmbedder) Embed(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(c.bucket)
		for i, text := range texts {
			data := b.Get(cacheKey(text))
			if data == nil {
				missIdx = append(missIdx, i)
				missTexts = append(missTexts, text)
				continue
			}
			var stored storedVector
			if err := json.Unmarshal(data, &stored); err != nil || len(stored.Vector) != c.inner.Dimension() {
				// Corrupted or stale entry, recompute.
				missIdx = append(missIdx, i)
				missTexts = append(missTexts, text)
				continue
			}
			out[i] = stored.Vector
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding cache read failed: %w", err)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.Embed(missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missTexts))
	}

	err = c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(c.bucket)
		for j, i := range missIdx {
			out[i] = vecs[j]
			data, err := json.Marshal(storedVector{Vector: vecs[j]})
			if err != nil {
				return err
			}
			if err := b.Put(cacheKey(missTexts[j]), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding cache write failed: %w", err)
	}

	return out, nil
}

// Count returns the number of cached vectors for this model.
func (c *CachedEmbedder) Count() (int, error) {
	var n int
	err := c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(c.bucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (c *CachedEmbedder) Dimension() int {
	return c.inner.Dimension()
}

func (c *CachedEmbedder) ModelName() string {
	return c.inner.ModelName()
}

func (c *CachedEmbedder) Close() error {
	return c.db.Close()
}
