package nlp

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "to": {}, "in": {}, "for": {}, "is": {},
	"on": {}, "with": {}, "as": {}, "it": {}, "this": {}, "that": {},
	"was": {}, "are": {}, "be": {}, "have": {}, "has": {}, "had": {},
	"not": {}, "but": {}, "my": {}, "me": {}, "you": {}, "your": {},
	"an": {}, "at": {}, "by": {}, "or": {}, "if": {}, "so": {}, "its": {},
	"they": {}, "them": {}, "their": {}, "we": {}, "our": {}, "can": {},
	"will": {}, "just": {}, "all": {}, "from": {}, "when": {}, "what": {},
	"there": {}, "been": {}, "would": {}, "very": {}, "now": {}, "then": {},
	"get": {}, "got": {}, "even": {}, "only": {}, "do": {}, "does": {},
	"did": {}, "no": {}, "am": {}, "im": {}, "dont": {}, "cant": {},
	"ive": {}, "app": {},
}

// TopKeywords ranks the unigram and bigram terms of the given texts by
// mean TF-IDF across documents and returns up to topK of them, best
// first. Empty input yields an empty list.
func TopKeywords(texts []string, topK int) []string {
	if len(texts) == 0 || topK <= 0 {
		return nil
	}

	// Per-document normalized term frequencies plus corpus document
	// frequency for the inverse weighting.
	termFreqs := make([]map[string]float64, 0, len(texts))
	docFreq := map[string]int{}
	for _, text := range texts {
		terms := ngrams(tokenize(text))
		if len(terms) == 0 {
			continue
		}

		counts := map[string]float64{}
		for _, term := range terms {
			counts[term]++
		}
		for term := range counts {
			counts[term] /= float64(len(terms))
			docFreq[term]++
		}
		termFreqs = append(termFreqs, counts)
	}
	if len(termFreqs) == 0 {
		return nil
	}

	// Smoothed IDF, mean TF-IDF across all documents.
	n := float64(len(termFreqs))
	scores := make(map[string]float64, len(docFreq))
	for term, df := range docFreq {
		idf := math.Log((1+n)/(1+float64(df))) + 1
		var sum float64
		for _, tf := range termFreqs {
			sum += tf[term] * idf
		}
		scores[term] = sum / n
	}

	ranked := make([]string, 0, len(scores))
	for term := range scores {
		ranked = append(ranked, term)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

// tokenize lowercases, splits on non-alphanumeric runs, and drops
// single-character tokens and stopwords.
func tokenize(text string) []string {
	raw := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len(tok) < 2 {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// ngrams returns the unigrams plus the adjacent bigrams of the token
// stream.
func ngrams(tokens []string) []string {
	terms := make([]string, 0, len(tokens)*2)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}
