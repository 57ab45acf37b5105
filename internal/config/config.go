package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ChunkerConfig configures how extracted text is split into chunks.
type ChunkerConfig struct {
	Type              string   `yaml:"type"`
	ChunkSize         int      `yaml:"chunk_size"`
	ChunkOverlap      int      `yaml:"chunk_overlap"`
	Separators        []string `yaml:"separators,omitempty"`
	SentencesPerChunk int      `yaml:"sentences_per_chunk,omitempty"`
	OverlapSentences  int      `yaml:"overlap_sentences,omitempty"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
// Collection is used as a prefix; each session gets its own collection.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig configures the chat-completion model.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url,omitempty"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
}

// RetrievalConfig holds the retrieval settings exposed in the UI.
type RetrievalConfig struct {
	TopK        int  `yaml:"top_k"`
	MaxTopK     int  `yaml:"max_top_k"`
	HideContext bool `yaml:"hide_context"`
}

// HistoryConfig bounds the conversation history kept for the model.
type HistoryConfig struct {
	MaxMessages    int `yaml:"max_messages"`
	PromptMessages int `yaml:"prompt_messages"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// LogConfig configures the log sink.
type LogConfig struct {
	File  string `yaml:"file"`
	Debug bool   `yaml:"debug"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	LLM         LLMConfig         `yaml:"llm"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	History     HistoryConfig     `yaml:"history"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var (
		cfg  AppConfig
		root yaml.Node
	)
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if root.Kind != 0 {
		if err := root.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyConfigDefaults(&cfg, keyPresence(&root))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragchat/config.yaml.
// If neither exists, it writes defaults to ~/.config/ragchat/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultUserConfigPath is ~/.config/ragchat/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragchat", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{
		Chunker:     ChunkerConfig{Type: "recursive"},
		Embedder:    EmbedderConfig{Type: "openai"},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Summarizer:  SummarizerConfig{Type: "frequency"},
	}
	applyConfigDefaults(cfg, func(...string) bool { return false })
	return cfg
}

// DefaultSeparators is the split priority of the recursive chunker.
func DefaultSeparators() []string {
	return []string{"\n\n", "\n", " ", ""}
}

// presence reports whether a key path was written in the config file, so that
// explicit zero values survive defaulting.
type presence func(path ...string) bool

func keyPresence(root *yaml.Node) presence {
	return func(path ...string) bool {
		n := root
		if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
			n = n.Content[0]
		}
		for _, key := range path {
			if n.Kind != yaml.MappingNode {
				return false
			}
			var next *yaml.Node
			for i := 0; i+1 < len(n.Content); i += 2 {
				if n.Content[i].Value == key {
					next = n.Content[i+1]
					break
				}
			}
			if next == nil {
				return false
			}
			n = next
		}
		return true
	}
}

func applyConfigDefaults(cfg *AppConfig, has presence) {
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "recursive"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if !has("chunker", "chunk_overlap") && cfg.Chunker.ChunkSize > 200 {
		cfg.Chunker.ChunkOverlap = 200
	}
	if len(cfg.Chunker.Separators) == 0 {
		cfg.Chunker.Separators = DefaultSeparators()
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 64
		}
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil {
		if cfg.VectorStore.Qdrant.URL == "" {
			cfg.VectorStore.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "ragchat"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}

	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-3.5-turbo"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 500
	}
	if !has("llm", "temperature") {
		cfg.LLM.Temperature = 0.1
	}
	if cfg.LLM.TopP == 0 {
		cfg.LLM.TopP = 0.9
	}

	if cfg.Retrieval.MaxTopK == 0 {
		cfg.Retrieval.MaxTopK = 8
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}

	if cfg.History.MaxMessages == 0 {
		cfg.History.MaxMessages = 10
	}
	if !has("history", "prompt_messages") {
		cfg.History.PromptMessages = 4
	}

	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 3
	}

	if cfg.Log.File == "" {
		cfg.Log.File = "ragchat.log"
	}
}

// Validate checks value ranges and component names.
func (c *AppConfig) Validate() error {
	switch c.Chunker.Type {
	case "recursive", "langchain", "sentence":
	default:
		return fmt.Errorf("unknown chunker: %s", c.Chunker.Type)
	}
	if c.Chunker.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.Chunker.ChunkSize)
	}
	if c.Chunker.ChunkOverlap < 0 || c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, %d), got %d", c.Chunker.ChunkSize, c.Chunker.ChunkOverlap)
	}
	switch c.Embedder.Type {
	case "openai", "tfidf":
	default:
		return fmt.Errorf("unknown embedder: %s", c.Embedder.Type)
	}
	switch c.VectorStore.Type {
	case "memory", "sqlitevec":
	case "qdrant":
		if c.VectorStore.Qdrant == nil {
			return errors.New("qdrant config missing")
		}
	default:
		return fmt.Errorf("unknown vector store: %s", c.VectorStore.Type)
	}
	if c.Retrieval.MaxTopK < 1 {
		return fmt.Errorf("max_top_k must be positive, got %d", c.Retrieval.MaxTopK)
	}
	if c.Retrieval.TopK < 1 || c.Retrieval.TopK > c.Retrieval.MaxTopK {
		return fmt.Errorf("top_k must be in [1, %d], got %d", c.Retrieval.MaxTopK, c.Retrieval.TopK)
	}
	if c.History.MaxMessages < 2 || c.History.PromptMessages < 0 {
		return fmt.Errorf("invalid history bounds: max_messages=%d prompt_messages=%d", c.History.MaxMessages, c.History.PromptMessages)
	}
	if c.History.MaxMessages%2 != 0 || c.History.PromptMessages%2 != 0 {
		return fmt.Errorf("history sizes count whole question/answer pairs and must be even: max_messages=%d prompt_messages=%d", c.History.MaxMessages, c.History.PromptMessages)
	}
	if c.Summarizer.Type != "frequency" {
		return fmt.Errorf("unknown summarizer: %s", c.Summarizer.Type)
	}
	return nil
}
