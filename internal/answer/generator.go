// Package answer builds grounded prompts and turns model completions into answers.
package answer

import (
	"context"
	"errors"

	"ragchat/internal/domain"
	"ragchat/internal/logger"
)

// ErrorPrefix starts every answer produced for a failed generation.
const ErrorPrefix = "❌ "

// Generator asks a chat model to answer from retrieved chunks.
type Generator struct {
	model          domain.ChatModel
	sampling       domain.Sampling
	promptMessages int
}

// Option customizes a Generator.
type Option func(*Generator)

// WithSampling overrides the decoding settings.
func WithSampling(s domain.Sampling) Option {
	return func(g *Generator) { g.sampling = s }
}

// WithPromptMessages sets how many history messages precede the new question.
func WithPromptMessages(n int) Option {
	return func(g *Generator) {
		if n >= 0 {
			g.promptMessages = n
		}
	}
}

// NewGenerator returns a generator with low-temperature defaults. A nil model
// is allowed; every answer then fails with a generation error.
func NewGenerator(model domain.ChatModel, opts ...Option) *Generator {
	g := &Generator{
		model:          model,
		sampling:       domain.Sampling{Temperature: 0.1, TopP: 0.9, MaxTokens: 500},
		promptMessages: 4,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Messages assembles the request: system prompt, recent history, then the question.
func (g *Generator) Messages(query string, results []domain.SearchResult, history *History) []domain.Message {
	msgs := []domain.Message{{Role: domain.RoleSystem, Content: SystemPrompt}}
	if history != nil {
		msgs = append(msgs, history.Recent(g.promptMessages)...)
	}
	return append(msgs, domain.Message{Role: domain.RoleUser, Content: UserPrompt(query, FormatContext(results))})
}

// Answer returns the model's answer and records the exchange in history.
// On failure it returns an error-prefixed text for display together with a
// KindGenerationFailed error, and history is left untouched.
func (g *Generator) Answer(ctx context.Context, query string, results []domain.SearchResult, history *History) (string, error) {
	if g.model == nil {
		err := domain.E(domain.KindGenerationFailed, "answer", errors.New("chat model not initialized, check your API key"))
		return ErrorPrefix + "Chat model not initialized. Please check your API key.", err
	}

	text, err := g.model.Complete(ctx, g.Messages(query, results, history), g.sampling)
	if err != nil {
		logger.Error("answer: %v", err)
		return ErrorPrefix + "Error getting LLM response: " + err.Error(), domain.E(domain.KindGenerationFailed, "answer", err)
	}
	if history != nil {
		history.Append(query, text)
	}
	return text, nil
}
