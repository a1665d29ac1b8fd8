package analyzer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer splits text into case-folded word tokens with stopword removal.
// Text is NFKC-normalized first so compatibility forms (ligatures,
// full-width letters) match their plain spellings.
type Tokenizer struct {
	stopwords map[string]struct{}
	bigrams   bool
}

// NewTokenizer creates a new Tokenizer. With bigrams set, Features also
// emits adjacent token pairs.
func NewTokenizer(bigrams bool) *Tokenizer {
	return &Tokenizer{
		stopwords: defaultStopwords(),
		bigrams:   bigrams,
	}
}

// Tokenize splits text into tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	// Casers keep state and are not shared between goroutines.
	folded := cases.Fold().String(norm.NFKC.String(text))
	words := splitWords(folded)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// Features returns the tokens of text followed by its bigrams, if enabled.
// Bigrams are joined with a space so they never collide with a unigram.
func (t *Tokenizer) Features(text string) []string {
	tokens := t.Tokenize(text)
	if !t.bigrams || len(tokens) < 2 {
		return tokens
	}
	out := make([]string, 0, 2*len(tokens)-1)
	out = append(out, tokens...)
	for i := 1; i < len(tokens); i++ {
		out = append(out, tokens[i-1]+" "+tokens[i])
	}
	return out
}

// splitWords splits text into words using unicode word boundaries.
// Underscores separate words so snake_case identifiers match prose.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// defaultStopwords returns a set of common English stopwords.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"each", "every", "both", "few", "more", "most", "other",
		"some", "such", "than", "too", "very", "just", "also",
		"want", "need", "me", "my", "py",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
