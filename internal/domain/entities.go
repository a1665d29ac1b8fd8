package domain

import "strings"

// CorpusItem is one retrievable file of the knowledge base.
type CorpusItem struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Summary  string `json:"summary"`
}

// IndexText is the canonical string embedded for an item.
func (c CorpusItem) IndexText() string {
	return c.Category + "/" + c.Filename + ": " + strings.TrimSpace(c.Summary)
}

type Query struct {
	Text string
}

// Normalized trims the query and collapses runs of whitespace.
func (q Query) Normalized() string {
	return strings.Join(strings.Fields(q.Text), " ")
}

// Blank reports whether the query carries no searchable text.
func (q Query) Blank() bool {
	return strings.TrimSpace(q.Text) == ""
}

type ScoredItem struct {
	Item  CorpusItem
	Score float64
}

// SearchResult is the answer to a semantic search.
type SearchResult struct {
	BestMatch string      `json:"best_match"`
	Score     float64     `json:"score"`
	Item      *CorpusItem `json:"item,omitempty"`
}

// CodeResult is the literal content of one corpus file.
type CodeResult struct {
	Path   string `json:"path"`
	Source string `json:"source"`
}

type Stats struct {
	Items       int      `json:"items"`
	Categories  []string `json:"categories"`
	IndexBuilt  bool     `json:"index_built"`
	IndexBuilds int      `json:"index_builds"`
	Model       string   `json:"model"`
}
