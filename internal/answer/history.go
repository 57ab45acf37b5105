package answer

import (
	"sync"

	"ragchat/internal/domain"
)

// History is the rolling conversation forwarded to the model. Only the most
// recent max messages are kept; older ones are dropped silently.
type History struct {
	mu       sync.Mutex
	max      int
	messages []domain.Message
}

// NewHistory returns an empty history bounded to limit messages (10 when limit <= 0).
// Odd bounds are rounded down so that only whole turns are kept.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 10
	}
	return &History{max: max(2, limit-limit%2)}
}

// Append records one completed exchange.
func (h *History) Append(question, answer string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages,
		domain.Message{Role: domain.RoleUser, Content: question},
		domain.Message{Role: domain.RoleAssistant, Content: answer},
	)
	if n := len(h.messages); n > h.max {
		h.messages = append([]domain.Message(nil), h.messages[n-h.max:]...)
	}
}

// Recent returns a copy of the last n messages, rounded down to whole turns.
func (h *History) Recent(n int) []domain.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	n -= n % 2
	if n <= 0 {
		return nil
	}
	if n > len(h.messages) {
		n = len(h.messages)
	}
	return append([]domain.Message(nil), h.messages[len(h.messages)-n:]...)
}

// Turns pairs the stored messages into question/answer turns, oldest first.
func (h *History) Turns() []domain.Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	var turns []domain.Turn
	for i := 0; i+1 < len(h.messages); i += 2 {
		turns = append(turns, domain.Turn{Question: h.messages[i].Content, Answer: h.messages[i+1].Content})
	}
	return turns
}

// Len is the number of stored messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}
