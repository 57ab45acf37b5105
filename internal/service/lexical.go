package service

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"ragchat/internal/domain"
)

var unicodeWordRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

// lexicalSearch ranks chunks by token-set overlap with the query. It is used
// when the embedding carries no signal for the query.
func lexicalSearch(chunks []domain.Chunk, query string, topK int) []domain.SearchResult {
	qset := toTokenSet(query)
	out := make([]domain.SearchResult, len(chunks))
	for i, ch := range chunks {
		out[i] = domain.SearchResult{Chunk: ch, Score: overlapOchiai(qset, ch.Text)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if topK > len(out) {
		topK = len(out)
	}
	return out[:topK]
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// overlapOchiai is |A∩B| / sqrt(|A||B|) over distinct tokens.
func overlapOchiai(qset map[string]struct{}, text string) float64 {
	stoks := unicodeWordRe.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]struct{}, len(stoks))
	inter := 0
	for _, t := range stoks {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}
