// Package embedding holds the text embedders used to build a document index.
package embedding

import "ragchat/internal/domain"

// Factory creates a fresh embedder. Each loaded document gets its own
// instance so corpus-fitted state never leaks between documents.
type Factory func() (domain.Embedder, error)
