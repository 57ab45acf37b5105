// Package vectorstore holds the similarity indexes a session's chunks are stored in.
package vectorstore

import (
	"context"

	"ragchat/internal/domain"
)

// Factory opens an empty store owned by one session. The store is released
// with Close when the session discards its index.
type Factory func(ctx context.Context, sessionID string) (domain.VectorStore, error)
