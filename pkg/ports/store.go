package ports

import (
	"context"

	"github.com/remedyhq/remedy/pkg/domain"
)

// CheckpointStore persists session checkpoints. A checkpoint is the
// session's full State Record plus, while suspended, the prompt and
// resumption token. This enables "suspend & resume" workflows: the
// engine stores a checkpoint and returns instead of blocking.
type CheckpointStore interface {
	// Save persists the checkpoint for a session, replacing any previous one.
	Save(ctx context.Context, sessionID string, cp *domain.Checkpoint) error

	// Load retrieves the checkpoint for a session.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error)

	// FindToken retrieves the checkpoint holding the given resumption token.
	// Returns domain.ErrTokenNotFound if no suspended session holds it.
	FindToken(ctx context.Context, token string) (*domain.Checkpoint, error)

	// Delete removes the checkpoint for a session.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of stored sessions.
	List(ctx context.Context) ([]string, error)
}
