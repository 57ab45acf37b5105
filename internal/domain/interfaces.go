package domain

import "context"

// DocumentType is the declared format of an uploaded document.
type DocumentType string

const (
	TypePDF  DocumentType = "pdf"
	TypeDOCX DocumentType = "docx"
)

// Document is an uploaded file. It only lives for the duration of extraction.
type Document struct {
	Name string
	Type DocumentType
	Data []byte
}

// Chunk is a contiguous piece of extracted text used as the unit of retrieval.
type Chunk struct {
	ID    string
	Index int
	Text  string
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Role of a chat message author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat-completion request.
type Message struct {
	Role    Role
	Content string
}

// Turn is a question and the answer the model gave to it.
type Turn struct {
	Question string
	Answer   string
}

// ChatRecord is what the user sees for each submitted question.
// Failed records keep the error text in Answer.
type ChatRecord struct {
	Question string
	Answer   string
	Context  []SearchResult
	Failed   bool
	Notice   string
}

// Stats describes a loaded document.
type Stats struct {
	Characters   int
	Words        int
	Chunks       int
	AvgChunkSize int
}

// Sampling controls decoding for a chat completion.
type Sampling struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Extractor converts an uploaded document into plain text.
type Extractor interface {
	Extract(ctx context.Context, doc Document) (string, error)
}

// Chunker splits text into ordered, possibly overlapping pieces.
type Chunker interface {
	Split(text string) ([]string, error)
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// VectorStore holds chunk vectors for one index and supports similarity search.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	Close() error
}

// ChatModel produces a completion for an ordered list of messages.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message, sampling Sampling) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
