// internal/scoring/tfidf.go
package scoring

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const maxFeatures = 1000

var tokenPattern = regexp.MustCompile(`[a-z0-9]{2,}`)

// textSimilarity returns the cosine similarity of TF-IDF vectors built from
// exactly the two given documents, scaled to [0, 100]. Terms are unigrams and
// bigrams with English stopwords removed and the vocabulary capped at the
// most frequent 1000 terms. Returns ok=false when either document produces
// no terms.
func textSimilarity(docA, docB string) (float64, bool) {
	termsA := extractTerms(docA)
	termsB := extractTerms(docB)
	if len(termsA) == 0 || len(termsB) == 0 {
		return 0, false
	}

	vocab := buildVocabulary(termsA, termsB)

	vecA := tfidfVector(termsA, termsB, vocab)
	vecB := tfidfVector(termsB, termsA, vocab)

	sim := dot(vecA, vecB)
	if math.IsNaN(sim) {
		return 0, false
	}
	return sim * 100, true
}

// extractTerms lowercases, tokenizes, drops stopwords and emits unigram and
// bigram counts.
func extractTerms(text string) map[string]int {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if !englishStopwords[tok] {
			tokens = append(tokens, tok)
		}
	}

	terms := make(map[string]int, len(tokens)*2)
	for i, tok := range tokens {
		terms[tok]++
		if i+1 < len(tokens) {
			terms[tok+" "+tokens[i+1]]++
		}
	}
	return terms
}

// buildVocabulary keeps the maxFeatures most frequent terms across both
// documents, breaking ties alphabetically so vectors are deterministic.
func buildVocabulary(a, b map[string]int) []string {
	total := make(map[string]int, len(a)+len(b))
	for term, n := range a {
		total[term] += n
	}
	for term, n := range b {
		total[term] += n
	}

	terms := make([]string, 0, len(total))
	for term := range total {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if total[terms[i]] != total[terms[j]] {
			return total[terms[i]] > total[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	return terms
}

// tfidfVector builds the l2-normalized TF-IDF vector for doc, with document
// frequency computed over the two-document corpus and smoothed IDF.
func tfidfVector(doc, other map[string]int, vocab []string) []float64 {
	const corpusSize = 2

	vec := make([]float64, len(vocab))
	for i, term := range vocab {
		tf := float64(doc[term])
		if tf == 0 {
			continue
		}

		df := 0
		if doc[term] > 0 {
			df++
		}
		if other[term] > 0 {
			df++
		}

		idf := math.Log(float64(1+corpusSize)/float64(1+df)) + 1
		vec[i] = tf * idf
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
