package postgres_test

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/theogognf/toi/internal/llm"
	"github.com/theogognf/toi/internal/search"
)

const fakeDims = 64

// words splits text into lowercase letter/digit runs.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// stripTemplate drops the instruction and query prefix from search queries
// so queries and stored text embed alike.
func stripTemplate(text string) string {
	if i := strings.LastIndex(text, llm.QueryPrefix); i >= 0 {
		return text[i+len(llm.QueryPrefix):]
	}
	return text
}

// hashEmbedder embeds text as a normalized hashed bag of words. A small
// constant component keeps every vector non-zero.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float64, fakeDims+1)
	vec[fakeDims] = 0.01
	for _, w := range words(stripTemplate(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%fakeDims]++
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// overlapReranker scores each document by the share of query words that
// approximately appear in it.
type overlapReranker struct{}

func (overlapReranker) Rerank(_ context.Context, query string, documents []string) ([]llm.RerankResult, error) {
	q := words(query)
	results := make([]llm.RerankResult, len(documents))
	for i, doc := range documents {
		d := words(doc)
		matched := 0
		for _, qw := range q {
			for _, dw := range d {
				if search.EditSimilarity(qw, dw) >= search.EditDistanceThreshold {
					matched++
					break
				}
			}
		}
		score := 0.0
		if len(q) > 0 {
			score = float64(matched) / float64(len(q))
		}
		results[i] = llm.RerankResult{Index: i, RelevanceScore: score}
	}
	return results, nil
}
