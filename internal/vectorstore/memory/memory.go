package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"ragchat/internal/domain"
)

// Storage is an in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	norms     []float64
	chunks    []domain.Chunk
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.norms = nil
	s.chunks = nil
	return nil
}

func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		return errors.New("store not initialised")
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for i, v := range vectors {
		s.chunks = append(s.chunks, chunks[i])
		s.vectors = append(s.vectors, v)
		s.norms = append(s.norms, norm(v))
	}
	return nil
}

// Search returns up to topK chunks by descending cosine similarity. Ties keep
// insertion order.
func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 || len(s.vectors) == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, errors.New("query dimension mismatch")
	}
	qn := norm(vector)
	results := make([]domain.SearchResult, len(s.vectors))
	for i := range s.vectors {
		score := 0.0
		if qn > 0 && s.norms[i] > 0 {
			score = dot(s.vectors[i], vector) / (qn * s.norms[i])
		}
		results[i] = domain.SearchResult{Chunk: s.chunks[i], Score: score}
	}
	sort.SliceStable(results, func(a, b int) bool { return results[a].Score > results[b].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.norms = nil
	s.chunks = nil
	return nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float64) float64 { return math.Sqrt(dot(v, v)) }
