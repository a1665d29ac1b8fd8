package port

import "kbsearch/internal/domain"

// Retriever answers top-1 nearest neighbour queries.
type Retriever interface {
	// Best returns the single highest scoring item for the query.
	Best(query string) (domain.ScoredItem, error)
}
