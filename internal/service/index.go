package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ragchat/internal/domain"
	"ragchat/internal/logger"
)

// Index is the searchable form of one document: its chunks, the embedder
// fitted to them and the store holding their vectors. It is never modified
// after BuildIndex returns; a new document gets a new Index.
type Index struct {
	chunks   []domain.Chunk
	embedder domain.Embedder
	store    domain.VectorStore
}

// BuildIndex embeds every chunk and loads the vectors into store.
// On failure the store is left to the caller to close.
func BuildIndex(ctx context.Context, chunks []domain.Chunk, emb domain.Embedder, store domain.VectorStore) (*Index, error) {
	const op = "build index"
	if len(chunks) == 0 {
		return nil, domain.E(domain.KindBuild, op, errors.New("no chunks to index"))
	}
	if emb == nil {
		return nil, domain.E(domain.KindEmbeddingUnavailable, op, errors.New("no embedder configured"))
	}
	if store == nil {
		return nil, domain.E(domain.KindBuild, op, errors.New("no vector store configured"))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	if err := emb.Prepare(texts); err != nil {
		logger.Error("%s: prepare %s embedder: %v", op, emb.Name(), err)
		return nil, domain.E(domain.KindBuild, op, err)
	}
	vectors, err := emb.EmbedBatch(ctx, texts)
	if err != nil {
		logger.Error("%s: embed %d chunks with %s: %v", op, len(texts), emb.Name(), err)
		return nil, domain.E(domain.KindBuild, op, err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.E(domain.KindBuild, op, fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)))
	}
	if err := store.Init(ctx, len(vectors[0])); err != nil {
		logger.Error("%s: init store: %v", op, err)
		return nil, domain.E(domain.KindBuild, op, err)
	}
	if err := store.Upsert(ctx, chunks, vectors); err != nil {
		logger.Error("%s: upsert: %v", op, err)
		return nil, domain.E(domain.KindBuild, op, err)
	}
	logger.Info("indexed %d chunks (%s, dim %d)", len(chunks), emb.Name(), len(vectors[0]))
	return &Index{chunks: append([]domain.Chunk(nil), chunks...), embedder: emb, store: store}, nil
}

// Chunks returns the indexed chunks in document order.
func (i *Index) Chunks() []domain.Chunk {
	return append([]domain.Chunk(nil), i.chunks...)
}

// Close releases the backing store.
func (i *Index) Close() error {
	if i == nil || i.store == nil {
		return nil
	}
	return i.store.Close()
}

// Retrieve returns at most k chunks by descending similarity to query.
// With no index it returns an empty result and no error.
func Retrieve(ctx context.Context, idx *Index, query string, k int) ([]domain.SearchResult, error) {
	if idx == nil || k <= 0 {
		return nil, nil
	}
	return idx.search(ctx, query, k)
}

func (i *Index) search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	const op = "retrieve"
	vec, err := i.embedder.Embed(ctx, query)
	if err != nil {
		logger.Error("%s: embed query: %v", op, err)
		return nil, domain.E(domain.KindRetrievalUnavailable, op, err)
	}
	if isZero(vec) {
		logger.Debug("%s: query has no known terms, using lexical ranking", op)
		return lexicalSearch(i.chunks, query, k), nil
	}
	res, err := i.store.Search(ctx, vec, k)
	if err != nil {
		logger.Error("%s: search: %v", op, err)
		return nil, domain.E(domain.KindRetrievalUnavailable, op, err)
	}
	if allNearZero(res) {
		logger.Debug("%s: no vector match, using lexical ranking", op)
		return lexicalSearch(i.chunks, query, k), nil
	}
	sort.SliceStable(res, func(a, b int) bool { return res[a].Score > res[b].Score })
	if len(res) > k {
		res = res[:k]
	}
	return res, nil
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func allNearZero(res []domain.SearchResult) bool {
	for _, r := range res {
		if r.Score > 1e-9 {
			return false
		}
	}
	return true
}
