package session

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
)

// Store persists conversations. Two implementations exist: an in-memory
// store (the default) and a PostgreSQL store for deployments that need
// durable sessions.
//
// Append is the loop's single write path: it adds the turn's new messages
// and snapshots the tracked state in one atomic step.
type Store interface {
	// Create starts a new, empty session.
	Create(ctx context.Context) (*Session, error)

	// Get returns a session with its full history.
	// Returns ErrNotFound if the session does not exist.
	Get(ctx context.Context, id uuid.UUID) (*Session, error)

	// List returns session summaries ordered by last update, newest first.
	List(ctx context.Context, limit, offset int) ([]Summary, error)

	// Delete removes a session and its messages.
	// Deleting a missing session returns ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error

	// Append atomically adds messages and saves the state snapshot.
	// Returns ErrNotFound if the session does not exist.
	Append(ctx context.Context, id uuid.UUID, state State, messages ...*ai.Message) error
}
