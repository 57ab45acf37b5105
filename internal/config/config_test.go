package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Chunker.ChunkSize != 1000 || cfg.Chunker.ChunkOverlap != 200 {
		t.Errorf("unexpected chunk defaults: %+v", cfg.Chunker)
	}
	if cfg.Retrieval.TopK != 4 || cfg.Retrieval.MaxTopK != 8 {
		t.Errorf("unexpected retrieval defaults: %+v", cfg.Retrieval)
	}
	if cfg.History.MaxMessages != 10 || cfg.History.PromptMessages != 4 {
		t.Errorf("unexpected history defaults: %+v", cfg.History)
	}
	if cfg.LLM.Model != "gpt-3.5-turbo" || cfg.LLM.MaxTokens != 500 {
		t.Errorf("unexpected llm defaults: %+v", cfg.LLM)
	}
	if len(cfg.Chunker.Separators) != 4 || cfg.Chunker.Separators[3] != "" {
		t.Errorf("unexpected separators: %q", cfg.Chunker.Separators)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "embedder:\n  type: tfidf\nretrieval:\n  top_k: 6\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Embedder.Type != "tfidf" || cfg.Embedder.OpenAI != nil {
		t.Errorf("unexpected embedder: %+v", cfg.Embedder)
	}
	if cfg.Retrieval.TopK != 6 {
		t.Errorf("expected top_k 6, got %d", cfg.Retrieval.TopK)
	}
	if cfg.VectorStore.Type != "memory" {
		t.Errorf("expected memory store, got %s", cfg.VectorStore.Type)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"overlap":  "chunker:\n  chunk_size: 100\n  chunk_overlap: 100\n",
		"top_k":    "retrieval:\n  top_k: 9\n",
		"embedder": "embedder:\n  type: word2vec\n",
		"qdrant":   "vector_store:\n  type: qdrant\n",
		"odd max":  "history:\n  max_messages: 5\n",
		"odd tail": "history:\n  prompt_messages: 3\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Retrieval.TopK = 2
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "top_k: 2") {
		t.Errorf("saved yaml missing top_k:\n%s", raw)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Retrieval.TopK != 2 {
		t.Errorf("expected top_k 2 after reload, got %d", loaded.Retrieval.TopK)
	}
}

func TestLoadKeepsExplicitZeros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "chunker:\n  chunk_overlap: 0\nllm:\n  temperature: 0\nhistory:\n  prompt_messages: 0\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Chunker.ChunkOverlap != 0 {
		t.Errorf("expected overlap 0, got %d", cfg.Chunker.ChunkOverlap)
	}
	if cfg.LLM.Temperature != 0 {
		t.Errorf("expected temperature 0, got %v", cfg.LLM.Temperature)
	}
	if cfg.History.PromptMessages != 0 {
		t.Errorf("expected prompt_messages 0, got %d", cfg.History.PromptMessages)
	}
	if cfg.Chunker.ChunkSize != 1000 || cfg.LLM.TopP != 0.9 {
		t.Errorf("absent keys should still get defaults: %+v %+v", cfg.Chunker, cfg.LLM)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Chunker.ChunkOverlap != 200 || cfg.LLM.Temperature != 0.1 || cfg.History.PromptMessages != 4 {
		t.Errorf("expected defaults, got %+v %+v %+v", cfg.Chunker, cfg.LLM, cfg.History)
	}
}
