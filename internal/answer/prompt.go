package answer

import (
	"fmt"
	"strings"

	"ragchat/internal/domain"
)

// NotFoundReply is the phrase the model is told to use when the context has no answer.
const NotFoundReply = "I cannot find information about that in the document"

// SystemPrompt is sent as the first message of every request.
const SystemPrompt = `You are a helpful document assistant. You answer questions based on the provided document context.

Guidelines:
- Use ONLY the information provided in the context to answer questions
- If the context doesn't contain relevant information, say "` + NotFoundReply + `"
- Be concise and accurate
- Quote specific parts of the document when relevant
- If you're unsure, admit it rather than making up information

Context will be provided with each question.`

// FormatContext labels each retrieved chunk with its rank, best match first.
func FormatContext(results []domain.SearchResult) string {
	parts := make([]string, 0, len(results))
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("[Chunk %d]:\n%s\n", i+1, r.Chunk.Text))
	}
	return strings.Join(parts, "\n")
}

// UserPrompt wraps the question with its context block, or with a notice that
// nothing relevant was retrieved.
func UserPrompt(query, context string) string {
	if strings.TrimSpace(context) == "" {
		return fmt.Sprintf(`No relevant context found in the document.

Question: %s

Please let the user know that you cannot find relevant information in the document to answer their question.`, query)
	}
	return fmt.Sprintf(`Based on the following context from the document, please answer the question:

CONTEXT:
%s

QUESTION: %s

Please provide a clear, accurate answer based only on the information in the context above.`, context, query)
}
