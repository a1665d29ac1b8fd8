package port

import "kbsearch/internal/domain"

// Corpus discovers items and serves their content.
type Corpus interface {
	Discover() ([]domain.CorpusItem, error)

	// Resolve validates a caller supplied path and returns its absolute form.
	Resolve(path string) (string, error)

	ReadContent(abs string) (string, error)

	// Rel returns the corpus-relative display form of an absolute path.
	Rel(abs string) string
}

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
	Symlink bool
}
