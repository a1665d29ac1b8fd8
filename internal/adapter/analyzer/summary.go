package analyzer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxSummaryRunes bounds the length of an extracted summary.
const MaxSummaryRunes = 300

// SummaryExtractor derives a one-line description from the head of a source
// file: the first line of a leading doc block, else the first non-empty line.
type SummaryExtractor struct {
	style docStyle
}

type docStyle struct {
	// skip matches lines that may precede a doc block without ending the search.
	skip        *regexp.Regexp
	lineComment *regexp.Regexp
	blockStart  *regexp.Regexp
	blockEnd    func(delim string) *regexp.Regexp
	docstring   bool
}

var (
	pyDocStart  = regexp.MustCompile(`^\s*(?:[rRuUbBfF]{1,2})?("""|'''|"|')(.*)$`)
	hashComment = regexp.MustCompile(`^\s*#(.*)$`)
	slashLine   = regexp.MustCompile(`^\s*//+(.*)$`)
	cBlockStart = regexp.MustCompile(`^\s*/\*+(.*)$`)
)

var styles = map[string]docStyle{
	"python": {
		skip:       hashComment,
		blockStart: pyDocStart,
		blockEnd: func(delim string) *regexp.Regexp {
			return regexp.MustCompile(regexp.QuoteMeta(delim))
		},
		docstring: true,
	},
	"c": {
		lineComment: slashLine,
		blockStart:  cBlockStart,
		blockEnd: func(string) *regexp.Regexp {
			return regexp.MustCompile(`\*/`)
		},
	},
	"hash": {
		lineComment: hashComment,
	},
}

var extStyles = map[string]string{
	".py": "python", ".pyi": "python",
	".go": "c", ".js": "c", ".ts": "c", ".java": "c", ".c": "c", ".h": "c",
	".cpp": "c", ".rs": "c", ".kt": "c", ".swift": "c", ".scala": "c",
	".sh": "hash", ".rb": "hash", ".r": "hash", ".pl": "hash",
}

// NewSummaryExtractor returns an extractor for files with the given extension.
// Unknown extensions fall back to first-line summaries.
func NewSummaryExtractor(ext string) *SummaryExtractor {
	name, ok := extStyles[strings.ToLower(ext)]
	if !ok {
		return &SummaryExtractor{}
	}
	return &SummaryExtractor{style: styles[name]}
}

// Extract returns the summary of content, or "" for an empty file.
func (e *SummaryExtractor) Extract(content string) string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if doc, ok := e.leadingDoc(lines); ok && doc != "" {
		return capRunes(doc)
	}
	for _, ln := range lines {
		if s := strings.TrimSpace(ln); s != "" {
			return capRunes(s)
		}
	}
	return ""
}

func (e *SummaryExtractor) leadingDoc(lines []string) (string, bool) {
	st := e.style
	i := 0
	for i < len(lines) {
		ln := lines[i]
		if strings.TrimSpace(ln) == "" || (st.skip != nil && st.skip.MatchString(ln)) {
			i++
			continue
		}
		break
	}
	if i >= len(lines) {
		return "", false
	}

	if st.blockStart != nil {
		if m := st.blockStart.FindStringSubmatch(lines[i]); m != nil {
			delim, rest := "", ""
			if st.docstring {
				delim, rest = m[1], m[2]
			} else {
				rest = m[1]
			}
			return firstBlockLine(lines[i+1:], rest, st.blockEnd(delim), !st.docstring), true
		}
	}

	if st.lineComment != nil {
		for ; i < len(lines); i++ {
			m := st.lineComment.FindStringSubmatch(lines[i])
			if m == nil {
				break
			}
			if s := strings.TrimSpace(m[1]); s != "" && !strings.HasPrefix(s, "!") {
				return s, true
			}
		}
	}
	return "", false
}

// firstBlockLine scans a block that opened with rest on its first line and
// returns the first non-empty line before the closing delimiter.
func firstBlockLine(after []string, rest string, end *regexp.Regexp, starred bool) string {
	clean := func(s string) string {
		s = strings.TrimSpace(s)
		if starred {
			s = strings.TrimSpace(strings.TrimLeft(s, "*"))
		}
		return s
	}

	if loc := end.FindStringIndex(rest); loc != nil {
		return clean(rest[:loc[0]])
	}
	if s := clean(rest); s != "" {
		return s
	}
	for _, ln := range after {
		if loc := end.FindStringIndex(ln); loc != nil {
			return clean(ln[:loc[0]])
		}
		if s := clean(ln); s != "" {
			return s
		}
	}
	return ""
}

func capRunes(s string) string {
	if utf8.RuneCountInString(s) <= MaxSummaryRunes {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:MaxSummaryRunes]))
}
