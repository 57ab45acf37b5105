// Package service holds the document pipeline: index building, retrieval and
// the per-user session that ties them to answer generation.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"ragchat/internal/answer"
	"ragchat/internal/domain"
	"ragchat/internal/embedding"
	"ragchat/internal/extract"
	"ragchat/internal/logger"
	"ragchat/internal/vectorstore"
)

// State is the lifecycle position of a session.
type State int32

const (
	StateNoDocument State = iota
	StateLoading
	StateReady
	StateAnswering
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateAnswering:
		return "answering"
	default:
		return "no document"
	}
}

// Deps are the collaborators a session drives.
type Deps struct {
	Extractor           domain.Extractor
	Chunker             domain.Chunker
	Embedders           embedding.Factory
	Stores              vectorstore.Factory
	Generator           *answer.Generator
	Summarizer          domain.Summarizer
	SummaryMaxSentences int
}

// LoadedDocument describes the document currently in scope.
type LoadedDocument struct {
	Name    string
	Type    domain.DocumentType
	Text    string
	Chunks  []domain.Chunk
	Stats   domain.Stats
	Summary string
}

// Session owns one document index and the conversation about it. Operations
// are serialized: a question asked while another is in flight waits for it.
// Separate sessions share nothing.
type Session struct {
	id    string
	deps  Deps
	state atomic.Int32

	mu      sync.Mutex
	index   *Index
	doc     *LoadedDocument
	history *answer.History
	records []domain.ChatRecord
}

// Option customizes a Session.
type Option func(*Session)

// WithHistorySize bounds the conversation history to n messages.
func WithHistorySize(n int) Option {
	return func(s *Session) { s.history = answer.NewHistory(n) }
}

// NewSession returns a session with no document loaded.
func NewSession(deps Deps, opts ...Option) *Session {
	s := &Session{
		id:      uuid.NewString(),
		deps:    deps,
		history: answer.NewHistory(10),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.deps.Generator == nil {
		s.deps.Generator = answer.NewGenerator(nil)
	}
	return s
}

func (s *Session) ID() string { return s.id }

// State can be read while another operation is running.
func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(st State) { s.state.Store(int32(st)) }

// LoadDocument replaces whatever the session held with doc. The previous index,
// history and chat records are discarded before extraction starts, so a failed
// load leaves the session with no document.
func (s *Session) LoadDocument(ctx context.Context, doc domain.Document) (*LoadedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.discardLocked()
	s.setState(StateLoading)
	logger.Info("session %s: loading %s", s.id, doc.Name)

	loaded, idx, err := s.load(ctx, doc)
	if err != nil {
		s.setState(StateNoDocument)
		logger.Error("session %s: load %s: %v", s.id, doc.Name, err)
		return nil, err
	}
	s.index = idx
	s.doc = loaded
	s.setState(StateReady)
	return loaded, nil
}

func (s *Session) load(ctx context.Context, doc domain.Document) (*LoadedDocument, *Index, error) {
	if doc.Type == "" {
		t, err := extract.DetectType(doc.Name)
		if err != nil {
			return nil, nil, err
		}
		doc.Type = t
	}
	text, err := s.deps.Extractor.Extract(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil, domain.E(domain.KindEmptyDocument, "load "+doc.Name, errors.New("the document contains no extractable text"))
	}

	pieces, err := s.deps.Chunker.Split(text)
	if err != nil {
		return nil, nil, domain.E(domain.KindBuild, "split", err)
	}
	chunks := make([]domain.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = domain.Chunk{ID: uuid.NewString(), Index: i, Text: p}
	}

	idx, err := s.buildIndex(ctx, chunks)
	if err != nil {
		return nil, nil, err
	}

	loaded := &LoadedDocument{
		Name:   doc.Name,
		Type:   doc.Type,
		Text:   text,
		Chunks: chunks,
		Stats:  ComputeStats(text, len(chunks)),
	}
	if s.deps.Summarizer != nil {
		summary, err := s.deps.Summarizer.Summarize(text, s.deps.SummaryMaxSentences)
		if err != nil {
			logger.Warn("session %s: summary: %v", s.id, err)
		}
		loaded.Summary = summary
	}
	return loaded, idx, nil
}

func (s *Session) buildIndex(ctx context.Context, chunks []domain.Chunk) (*Index, error) {
	if s.deps.Embedders == nil {
		return nil, domain.E(domain.KindEmbeddingUnavailable, "build index", errors.New("no embedder configured"))
	}
	emb, err := s.deps.Embedders()
	if err != nil {
		return nil, domain.E(domain.KindEmbeddingUnavailable, "build index", err)
	}
	if s.deps.Stores == nil {
		return nil, domain.E(domain.KindBuild, "build index", errors.New("no vector store configured"))
	}
	store, err := s.deps.Stores(ctx, s.id)
	if err != nil {
		return nil, domain.E(domain.KindBuild, "open store", err)
	}
	idx, err := BuildIndex(ctx, chunks, emb, store)
	if err != nil {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("session %s: close store: %v", s.id, cerr)
		}
		return nil, err
	}
	return idx, nil
}

// Retrieve searches the current index. Without a document it returns nothing.
func (s *Session) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Retrieve(ctx, s.index, query, k)
}

// Ask retrieves up to k chunks for question and asks the model. The returned
// record is also stored for display. A generation failure is reported both as
// a failed record and as the returned error; history only grows on success.
func (s *Session) Ask(ctx context.Context, question string, k int) (domain.ChatRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == StateReady {
		s.setState(StateAnswering)
		defer s.setState(StateReady)
	}

	rec := domain.ChatRecord{Question: question}
	results, err := Retrieve(ctx, s.index, question, k)
	if err != nil {
		rec.Notice = fmt.Sprintf("Retrieval failed, answering without context: %v", err)
		results = nil
	} else if s.index == nil {
		rec.Notice = "No document loaded."
	}
	rec.Context = results

	text, genErr := s.deps.Generator.Answer(ctx, question, results, s.history)
	rec.Answer = text
	rec.Failed = genErr != nil
	s.records = append(s.records, rec)
	return rec, genErr
}

// Reset clears chat records and history. The loaded document stays searchable.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Clear()
	s.records = nil
	logger.Info("session %s: conversation cleared", s.id)
}

// Records returns the chat records, most recent first.
func (s *Session) Records() []domain.ChatRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatRecord, len(s.records))
	for i, r := range s.records {
		out[len(s.records)-1-i] = r
	}
	return out
}

// History returns the turns that will be offered to the model, oldest first.
func (s *Session) History() []domain.Turn {
	return s.history.Turns()
}

// Document returns the loaded document, or nil.
func (s *Session) Document() *LoadedDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Close ends the session and releases its index.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.index.Close()
	s.index = nil
	s.doc = nil
	s.history.Clear()
	s.records = nil
	s.setState(StateNoDocument)
	return err
}

func (s *Session) discardLocked() {
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			logger.Warn("session %s: release index: %v", s.id, err)
		}
	}
	s.index = nil
	s.doc = nil
	s.history.Clear()
	s.records = nil
	s.setState(StateNoDocument)
}
