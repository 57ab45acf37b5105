// Package llm adapts chat-completion backends to domain.ChatModel.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"ragchat/internal/domain"
	"ragchat/internal/logger"
)

// Generator is the part of a langchaingo model the adapter needs.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Config configures the OpenAI-compatible chat model.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
}

// ChatModel implements domain.ChatModel on top of a langchaingo model.
type ChatModel struct {
	gen Generator
}

// New wraps an existing langchaingo model.
func New(gen Generator) *ChatModel {
	return &ChatModel{gen: gen}
}

// NewOpenAI creates a chat model talking to an OpenAI-compatible endpoint.
func NewOpenAI(cfg Config) (*ChatModel, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	opts := []openai.Option{openai.WithToken(key), openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return New(model), nil
}

// Complete sends the conversation and returns the first choice's text.
func (m *ChatModel) Complete(ctx context.Context, messages []domain.Message, sampling domain.Sampling) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		role, err := messageType(msg.Role)
		if err != nil {
			return "", err
		}
		content = append(content, llms.TextParts(role, msg.Content))
	}

	opts := []llms.CallOption{llms.WithTemperature(sampling.Temperature)}
	if sampling.TopP > 0 {
		opts = append(opts, llms.WithTopP(sampling.TopP))
	}
	if sampling.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(sampling.MaxTokens))
	}

	logger.Debug("llm: sending %d messages", len(content))
	resp, err := m.gen.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func messageType(r domain.Role) (llms.ChatMessageType, error) {
	switch r {
	case domain.RoleSystem:
		return llms.ChatMessageTypeSystem, nil
	case domain.RoleUser:
		return llms.ChatMessageTypeHuman, nil
	case domain.RoleAssistant:
		return llms.ChatMessageTypeAI, nil
	}
	return "", fmt.Errorf("unknown message role %q", r)
}
