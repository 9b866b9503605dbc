// Package keywords tokenizes memory content for keyword scoring, topic
// extraction and near-duplicate detection.
package keywords

import (
	"sort"
	"strings"
	"unicode"
)

// MinLen is the shortest token kept by Tokenize.
const MinLen = 2

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true, "been": true,
	"but": true, "by": true, "can": true, "did": true, "do": true, "does": true, "for": true, "from": true,
	"had": true, "has": true, "have": true, "he": true, "her": true, "his": true, "how": true, "i": true,
	"if": true, "in": true, "into": true, "is": true, "it": true, "its": true, "just": true, "me": true,
	"my": true, "no": true, "not": true, "of": true, "on": true, "or": true, "our": true, "out": true,
	"she": true, "so": true, "that": true, "the": true, "their": true, "them": true, "then": true,
	"there": true, "these": true, "they": true, "this": true, "to": true, "up": true, "was": true,
	"we": true, "were": true, "what": true, "when": true, "which": true, "who": true, "will": true,
	"with": true, "you": true, "your": true, "all": true, "any": true, "also": true, "than": true,
	"about": true, "after": true, "before": true, "should": true, "would": true, "could": true,
}

// IsStopword reports whether w (lowercase) is filtered out of token streams.
func IsStopword(w string) bool { return stopwords[w] }

// Tokenize lowercases text and splits it on anything that is not a letter or
// digit, dropping stopwords and tokens shorter than MinLen.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < MinLen || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Set returns the distinct tokens of text.
func Set(text string) map[string]struct{} {
	toks := Tokenize(text)
	s := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		s[t] = struct{}{}
	}
	return s
}

// Jaccard is |a∩b| / |a∪b|. Two empty sets are identical.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Overlap is the fraction of query tokens present in content, in [0,1].
func Overlap(query, content map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	hit := 0
	for k := range query {
		if _, ok := content[k]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(query))
}

// TermFrequency scores content against query terms: each matched term
// contributes its saturated frequency tf/(tf+1), averaged over the query
// terms. The result is in [0,1).
func TermFrequency(queryTerms []string, content string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	counts := map[string]int{}
	for _, t := range Tokenize(content) {
		counts[t]++
	}
	seen := map[string]bool{}
	var sum float64
	n := 0
	for _, q := range queryTerms {
		if seen[q] {
			continue
		}
		seen[q] = true
		n++
		if tf := counts[q]; tf > 0 {
			sum += float64(tf) / float64(tf+1)
		}
	}
	return sum / float64(n)
}

// Term is a token with its frequency.
type Term struct {
	Word  string
	Count int
}

// Top returns the n most frequent tokens across texts, ties broken
// alphabetically.
func Top(texts []string, n int) []Term {
	counts := map[string]int{}
	for _, text := range texts {
		for _, t := range Tokenize(text) {
			if len(t) < 3 {
				continue
			}
			counts[t]++
		}
	}
	terms := make([]Term, 0, len(counts))
	for w, c := range counts {
		terms = append(terms, Term{Word: w, Count: c})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Word < terms[j].Word
	})
	if n > 0 && len(terms) > n {
		terms = terms[:n]
	}
	return terms
}
