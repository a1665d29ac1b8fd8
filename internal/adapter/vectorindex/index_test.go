package vectorindex

import (
	"errors"
	"math"
	"testing"

	"kbsearch/internal/adapter/embedding"
	"kbsearch/internal/domain"
)

// constEmbedder maps every text to the same vector.
type constEmbedder struct {
	vec   []float32
	calls int
}

func (c *constEmbedder) Embed(texts []string) ([][]float32, error) {
	c.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = append([]float32(nil), c.vec...)
	}
	return out, nil
}

func (c *constEmbedder) Dimension() int    { return len(c.vec) }
func (c *constEmbedder) ModelName() string { return "const" }

// tableEmbedder returns fixed vectors per text, zero for unknown text.
type tableEmbedder map[string][]float32

func (t tableEmbedder) Embed(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := t[text]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0}
		}
	}
	return out, nil
}

func (t tableEmbedder) Dimension() int    { return 2 }
func (t tableEmbedder) ModelName() string { return "table" }

func testItems() []domain.CorpusItem {
	return []domain.CorpusItem{
		{ID: "nlp/text_classification_with_transformer.py", Category: "nlp", Filename: "text_classification_with_transformer.py",
			Path: "knowledge_base/nlp/text_classification_with_transformer.py", Summary: "Fine-tune a Transformer for sentiment classification."},
		{ID: "vision/image_segmentation.py", Category: "vision", Filename: "image_segmentation.py",
			Path: "knowledge_base/vision/image_segmentation.py", Summary: "Image segmentation with a U-Net like architecture."},
		{ID: "timeseries/forecasting.py", Category: "timeseries", Filename: "forecasting.py",
			Path: "knowledge_base/timeseries/forecasting.py", Summary: "Weather forecasting with an LSTM."},
		{ID: "generative/empty.py", Category: "generative", Filename: "empty.py",
			Path: "knowledge_base/generative/empty.py", Summary: ""},
	}
}

func TestBuild_OneVectorPerItem(t *testing.T) {
	e, _ := embedding.NewHashEmbedder(128, 42)
	items := testItems()

	var calls [][2]int
	idx, err := Build(items, e, 3, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if idx.Len() != len(items) || len(idx.vectors) != len(items) {
		t.Fatalf("expected %d items and vectors, got %d/%d", len(items), idx.Len(), len(idx.vectors))
	}
	if idx.Dimension() != 128 {
		t.Errorf("expected dimension 128, got %d", idx.Dimension())
	}
	for i, v := range idx.vectors {
		n := math.Sqrt(Dot(v, v))
		if n != 0 && math.Abs(n-1) > 1e-5 {
			t.Errorf("vector %d not normalized: norm=%f", i, n)
		}
	}

	if len(calls) != 2 || calls[0] != [2]int{3, 4} || calls[1] != [2]int{4, 4} {
		t.Errorf("unexpected progress calls %v", calls)
	}
}

func TestBest_SelfMatch(t *testing.T) {
	e, _ := embedding.NewHashEmbedder(384, 42)
	items := testItems()
	idx, err := Build(items, e, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, it := range items[:3] {
		got, err := idx.Best(it.IndexText())
		if err != nil {
			t.Fatalf("Best(%q): %v", it.IndexText(), err)
		}
		if got.Item.ID != it.ID {
			t.Errorf("self query for %s matched %s", it.ID, got.Item.ID)
		}
		if got.Score < 0.999 || got.Score > 1 {
			t.Errorf("expected self score near 1, got %f", got.Score)
		}
	}
}

func TestBest_ExampleScenario(t *testing.T) {
	e, _ := embedding.NewHashEmbedder(384, 42)
	idx, err := Build(testItems(), e, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	got, err := idx.Best("I want to fine-tune a transformer for sentiment classification.")
	if err != nil {
		t.Fatal(err)
	}
	if got.Item.Path != "knowledge_base/nlp/text_classification_with_transformer.py" {
		t.Errorf("unexpected best match %s", got.Item.Path)
	}
	if got.Score <= 0.5 || got.Score > 1 {
		t.Errorf("expected score close to but not above 1, got %f", got.Score)
	}
}

func TestBest_TieBreakFirstIndexed(t *testing.T) {
	e := &constEmbedder{vec: []float32{0.6, 0.8}}
	items := testItems()
	idx, err := Build(items, e, 2, nil)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		got, err := idx.Best("anything at all")
		if err != nil {
			t.Fatal(err)
		}
		if got.Item.ID != items[0].ID {
			t.Fatalf("expected first indexed item on tie, got %s", got.Item.ID)
		}
	}
}

func TestBest_ZeroVectorScoresZero(t *testing.T) {
	items := testItems()[:2]
	e := tableEmbedder{
		items[1].IndexText(): {-1, 0},
		"query":              {1, 0},
	}
	idx, err := Build(items, e, 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	// items[0] embeds to the zero vector and scores exactly 0, which beats -1.
	got, err := idx.Best("query")
	if err != nil {
		t.Fatal(err)
	}
	if got.Item.ID != items[0].ID || got.Score != 0 {
		t.Errorf("expected zero-vector item with score 0, got %s %f", got.Item.ID, got.Score)
	}

	// A zero query scores 0 against everything; the first item wins.
	got, err = idx.Best("unknown")
	if err != nil {
		t.Fatal(err)
	}
	if got.Item.ID != items[0].ID || got.Score != 0 {
		t.Errorf("expected first item with score 0, got %s %f", got.Item.ID, got.Score)
	}
}

func TestBest_Validation(t *testing.T) {
	e := &constEmbedder{vec: []float32{1, 0}}
	idx, err := Build(testItems(), e, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	calls := e.calls

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := idx.Best(q)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Best(%q): expected ErrValidation, got %v", q, err)
		}
	}
	if e.calls != calls {
		t.Error("rejected queries must not reach the embedder")
	}
}

func TestBest_EmptyIndex(t *testing.T) {
	idx, err := Build(nil, &constEmbedder{vec: []float32{1}}, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := idx.Best("query"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNormalizeL2(t *testing.T) {
	v := NormalizeL2([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("unexpected normalization %v", v)
	}

	z := NormalizeL2([]float32{0, 0, 0})
	for _, x := range z {
		if x != 0 || math.IsNaN(float64(x)) {
			t.Errorf("zero vector must stay zero, got %v", z)
		}
	}
}
