package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"kbsearch/internal/adapter/analyzer"
	"kbsearch/internal/domain"
	"kbsearch/internal/port"
)

// summaryReadLimit bounds how much of a file is read to extract its summary.
const summaryReadLimit = 64 << 10

// Scanner discovers corpus items under a root directory and resolves
// caller supplied paths against it.
type Scanner struct {
	root      string // absolute, as configured
	base      string // last element of root, prefix of item paths
	ext       string
	walker    port.FileWalker
	summaries *analyzer.SummaryExtractor
}

// NewScanner creates a scanner over root for files ending in ext.
// The root is not required to exist until Discover or Resolve is called.
func NewScanner(root, ext string, excludes []string) (*Scanner, error) {
	if root == "" {
		return nil, fmt.Errorf("corpus root is required")
	}
	if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
		return nil, fmt.Errorf("invalid corpus extension %q", ext)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid corpus root: %w", err)
	}
	return &Scanner{
		root:      abs,
		base:      filepath.Base(abs),
		ext:       ext,
		walker:    NewWalker([]string{"**/*" + ext}, excludes),
		summaries: analyzer.NewSummaryExtractor(ext),
	}, nil
}

// Base returns the name under which item paths are reported.
func (s *Scanner) Base() string {
	return s.base
}

// Discover walks the corpus and returns its items sorted by ID.
// Files directly under the root carry no category and are skipped.
func (s *Scanner) Discover() ([]domain.CorpusItem, error) {
	root, err := s.realRoot()
	if err != nil {
		return nil, err
	}

	files, err := s.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus: %w", err)
	}

	items := make([]domain.CorpusItem, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		parts := strings.Split(rel, "/")
		if len(parts) < 2 {
			continue
		}
		if f.Symlink {
			if _, err := s.follow(root, f.Path, rel); err != nil {
				continue
			}
		}

		items = append(items, domain.CorpusItem{
			ID:       rel,
			Category: parts[0],
			Filename: parts[len(parts)-1],
			Path:     s.base + "/" + rel,
			Summary:  s.summarize(f.Path),
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// Categories returns the distinct categories of items in order.
func Categories(items []domain.CorpusItem) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, it := range items {
		if _, ok := seen[it.Category]; ok {
			continue
		}
		seen[it.Category] = struct{}{}
		out = append(out, it.Category)
	}
	sort.Strings(out)
	return out
}

func (s *Scanner) summarize(p string) string {
	f, err := os.Open(p)
	if err != nil {
		return ""
	}
	defer f.Close()

	head, err := io.ReadAll(io.LimitReader(f, summaryReadLimit))
	if err != nil {
		return ""
	}
	return s.summaries.Extract(string(head))
}

// Resolve validates input and returns the absolute path of the corpus file it
// names. Both "<base>/<category>/<file>" and "<category>/<file>" are accepted.
// Syntax and extension are checked before any filesystem access.
func (s *Scanner) Resolve(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", domain.InvalidPath(input, "empty path")
	}

	p := strings.ReplaceAll(input, `\`, "/")
	if path.IsAbs(p) || filepath.IsAbs(input) || filepath.VolumeName(input) != "" {
		return "", domain.InvalidPath(input, "absolute paths are not accepted")
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", domain.InvalidPath(input, "parent directory traversal")
		}
	}
	if path.Ext(p) != s.ext {
		return "", domain.InvalidPath(input, "only "+s.ext+" files can be read")
	}

	clean := path.Clean(p)
	candidates := []string{clean}
	if stripped, ok := strings.CutPrefix(clean, s.base+"/"); ok {
		candidates = []string{stripped, clean}
	}

	root, err := s.realRoot()
	if err != nil {
		return "", err
	}

	var firstErr error
	for _, rel := range candidates {
		abs, err := s.resolveRel(root, rel, input)
		if err == nil {
			return abs, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", firstErr
}

func (s *Scanner) resolveRel(root, rel, input string) (string, error) {
	if !strings.Contains(rel, "/") {
		return "", domain.InvalidPath(input, "path must name a file inside a category")
	}
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if !within(root, abs) {
		return "", domain.InvalidPath(input, "path is outside the corpus")
	}
	return s.follow(root, abs, input)
}

// follow checks that abs, after symlink evaluation, is a regular file
// inside root. It returns abs itself so reported paths keep the caller's form.
func (s *Scanner) follow(root, abs, input string) (string, error) {
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.InvalidPath(input, "no such corpus file")
		}
		return "", domain.InvalidPath(input, "cannot resolve path")
	}
	if !within(root, real) {
		return "", domain.InvalidPath(input, "path is outside the corpus")
	}
	info, err := os.Stat(real)
	if err != nil {
		return "", domain.InvalidPath(input, "no such corpus file")
	}
	if !info.Mode().IsRegular() {
		return "", domain.InvalidPath(input, "not a regular file")
	}
	return abs, nil
}

// ReadContent returns the full text of a resolved corpus file.
func (s *Scanner) ReadContent(abs string) (string, error) {
	content, err := ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.NotFound(s.Rel(abs), "corpus file vanished")
		}
		return "", fmt.Errorf("failed to read %s: %w", s.Rel(abs), err)
	}
	return content, nil
}

// Rel returns the "<base>/<category>/<file>" form of an absolute path.
func (s *Scanner) Rel(abs string) string {
	root := s.root
	if real, err := filepath.EvalSymlinks(root); err == nil && within(real, abs) {
		root = real
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || !within(root, abs) {
		return filepath.Base(abs)
	}
	return s.base + "/" + filepath.ToSlash(rel)
}

func (s *Scanner) realRoot() (string, error) {
	real, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.NotFound(s.base, "corpus root not found")
		}
		return "", fmt.Errorf("cannot resolve corpus root %s: %w", s.base, err)
	}
	info, err := os.Stat(real)
	if err != nil {
		return "", domain.NotFound(s.base, "corpus root not found")
	}
	if !info.IsDir() {
		return "", domain.NotFound(s.base, "corpus root is not a directory")
	}
	return real, nil
}

// within reports whether p is strictly below root. Both must be clean and absolute.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
