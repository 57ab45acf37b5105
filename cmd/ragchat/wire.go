package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"ragchat/internal/answer"
	"ragchat/internal/chunker"
	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/embedding"
	"ragchat/internal/embedding/openai"
	"ragchat/internal/embedding/tfidf"
	"ragchat/internal/extract"
	"ragchat/internal/llm"
	"ragchat/internal/service"
	"ragchat/internal/summarizer"
	"ragchat/internal/vectorstore"
	"ragchat/internal/vectorstore/memory"
	"ragchat/internal/vectorstore/qdrant"
	"ragchat/internal/vectorstore/sqlitevec"
)

// checkCredentials fails when a configured model has no API key in the environment.
func checkCredentials(cfg *config.AppConfig) error {
	if os.Getenv(cfg.LLM.APIKeyEnv) == "" {
		return fmt.Errorf("%s is not set; add it to the environment or a .env file", cfg.LLM.APIKeyEnv)
	}
	if cfg.Embedder.Type == "openai" && os.Getenv(cfg.Embedder.OpenAI.APIKeyEnv) == "" {
		return fmt.Errorf("%s is not set; add it to the environment or a .env file", cfg.Embedder.OpenAI.APIKeyEnv)
	}
	return nil
}

func newChunker(cfg config.ChunkerConfig) (domain.Chunker, error) {
	switch cfg.Type {
	case "recursive", "":
		return chunker.NewRecursiveSplitter(cfg.ChunkSize, cfg.ChunkOverlap, cfg.Separators), nil
	case "langchain":
		return chunker.NewLangchainSplitter(cfg.ChunkSize, cfg.ChunkOverlap, cfg.Separators), nil
	case "sentence":
		return chunker.NewSentenceChunker(cfg.SentencesPerChunk, cfg.OverlapSentences), nil
	}
	return nil, fmt.Errorf("unknown chunker: %s", cfg.Type)
}

func newEmbedderFactory(cfg config.EmbedderConfig) (embedding.Factory, error) {
	switch cfg.Type {
	case "tfidf":
		return func() (domain.Embedder, error) { return tfidf.NewEmbedder(), nil }, nil
	case "openai", "":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		ocfg := openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Timeout:    time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			BatchSize:  cfg.OpenAI.BatchSize,
			MaxRetries: cfg.OpenAI.MaxRetries,
		}
		return func() (domain.Embedder, error) { return openai.NewClient(ocfg) }, nil
	}
	return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
}

func newStoreFactory(cfg config.VectorStoreConfig) (vectorstore.Factory, error) {
	switch cfg.Type {
	case "memory", "":
		return func(ctx context.Context, sessionID string) (domain.VectorStore, error) {
			return memory.NewStorage(), nil
		}, nil
	case "sqlitevec":
		return func(ctx context.Context, sessionID string) (domain.VectorStore, error) {
			return sqlitevec.NewStorage(ctx)
		}, nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		qcfg := qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		}
		return func(ctx context.Context, sessionID string) (domain.VectorStore, error) {
			return qdrant.NewStorage(qcfg, sessionID), nil
		}, nil
	}
	return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
}

func newSummarizer(cfg config.SummarizerConfig) (domain.Summarizer, error) {
	switch cfg.Type {
	case "frequency", "":
		return summarizer.NewFrequencySummarizer(), nil
	}
	return nil, fmt.Errorf("unknown summarizer: %s", cfg.Type)
}

// newSession assembles a chat session from the configuration.
func newSession(cfg *config.AppConfig) (*service.Session, error) {
	ch, err := newChunker(cfg.Chunker)
	if err != nil {
		return nil, err
	}
	embedders, err := newEmbedderFactory(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	stores, err := newStoreFactory(cfg.VectorStore)
	if err != nil {
		return nil, err
	}
	sum, err := newSummarizer(cfg.Summarizer)
	if err != nil {
		return nil, err
	}
	model, err := llm.NewOpenAI(llm.Config{
		BaseURL:   cfg.LLM.BaseURL,
		APIKeyEnv: cfg.LLM.APIKeyEnv,
		Model:     cfg.LLM.Model,
	})
	if err != nil {
		return nil, err
	}
	gen := answer.NewGenerator(model,
		answer.WithSampling(domain.Sampling{
			Temperature: cfg.LLM.Temperature,
			TopP:        cfg.LLM.TopP,
			MaxTokens:   cfg.LLM.MaxTokens,
		}),
		answer.WithPromptMessages(cfg.History.PromptMessages),
	)
	return service.NewSession(service.Deps{
		Extractor:           extract.New(),
		Chunker:             ch,
		Embedders:           embedders,
		Stores:              stores,
		Generator:           gen,
		Summarizer:          sum,
		SummaryMaxSentences: cfg.Summarizer.MaxSentences,
	}, service.WithHistorySize(cfg.History.MaxMessages)), nil
}
