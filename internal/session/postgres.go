package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apotek/apotek/internal/i18n"
	"github.com/apotek/apotek/internal/log"
)

// Postgres is the durable session store. Message content is stored as
// JSONB per message, state as a JSONB snapshot on the session row.
//
// Appends lock the session row (SELECT ... FOR UPDATE) so concurrent
// writers cannot interleave sequence numbers.
type Postgres struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewPostgres creates a store over an existing connection pool.
// The pool is owned by the caller; Close it there.
func NewPostgres(pool *pgxpool.Pool, logger log.Logger) (*Postgres, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Postgres{pool: pool, logger: logger}, nil
}

// Create starts a new, empty session.
func (p *Postgres) Create(ctx context.Context) (*Session, error) {
	s := &Session{ID: uuid.New()}

	row := p.pool.QueryRow(ctx, `
		INSERT INTO sessions (id, user_ref, language, clearances)
		VALUES ($1, '', '', '{}'::jsonb)
		RETURNING created_at, updated_at`,
		s.ID)
	if err := row.Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	p.logger.Debug("session created", "id", s.ID)
	return s, nil
}

// Get returns a session with its full history.
func (p *Postgres) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	s := &Session{ID: id}
	var clearances []byte
	var language string

	row := p.pool.QueryRow(ctx, `
		SELECT created_at, updated_at, user_ref, language, clearances
		FROM sessions WHERE id = $1`, id)
	err := row.Scan(&s.CreatedAt, &s.UpdatedAt, &s.State.UserID, &language, &clearances)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	s.State.Language = i18n.Normalize(language)
	if len(clearances) > 0 {
		if err := json.Unmarshal(clearances, &s.State.Clearances); err != nil {
			return nil, fmt.Errorf("decoding clearances for %s: %w", id, err)
		}
	}

	rows, err := p.pool.Query(ctx, `
		SELECT role, content
		FROM session_messages
		WHERE session_id = $1
		ORDER BY sequence_number ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("loading messages for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var role string
		var content []byte
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		var parts []*ai.Part
		if err := json.Unmarshal(content, &parts); err != nil {
			// Skip malformed rows rather than failing the whole load.
			p.logger.Warn("skipping malformed message", "session_id", id, "error", err)
			continue
		}
		s.Messages = append(s.Messages, &ai.Message{Role: ai.Role(role), Content: parts})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading messages for %s: %w", id, err)
	}
	return s, nil
}

// List returns session summaries, newest first.
func (p *Postgres) List(ctx context.Context, limit, offset int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id, created_at, updated_at, message_count, user_ref, language
		FROM sessions
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0, limit)
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.CreatedAt, &sum.UpdatedAt,
			&sum.MessageCount, &sum.UserID, &sum.Language); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Delete removes a session; messages cascade.
func (p *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p.logger.Debug("session deleted", "id", id)
	return nil
}

// Append atomically adds messages and saves the state snapshot.
func (p *Postgres) Append(ctx context.Context, id uuid.UUID, state State, messages ...*ai.Message) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			p.logger.Warn("transaction rollback", "error", err)
		}
	}()

	// Lock the row so concurrent appends serialize on sequence numbers.
	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM sessions WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("locking session %s: %w", id, err)
	}

	var maxSeq int
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(sequence_number), 0)
		FROM session_messages WHERE session_id = $1`, id).Scan(&maxSeq); err != nil {
		return fmt.Errorf("reading sequence number: %w", err)
	}

	for i, msg := range messages {
		content, err := json.Marshal(msg.Content)
		if err != nil {
			return fmt.Errorf("encoding message %d: %w", i, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO session_messages (session_id, role, content, sequence_number)
			VALUES ($1, $2, $3, $4)`,
			id, string(msg.Role), content, maxSeq+i+1); err != nil {
			return fmt.Errorf("inserting message %d: %w", i, err)
		}
	}

	clearances, err := json.Marshal(state.Clearances)
	if err != nil {
		return fmt.Errorf("encoding clearances: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE sessions
		SET user_ref = $2, language = $3, clearances = $4,
		    message_count = $5, updated_at = now()
		WHERE id = $1`,
		id, state.UserID, string(state.Language), clearances, maxSeq+len(messages)); err != nil {
		return fmt.Errorf("updating session %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	p.logger.Debug("session updated", "id", id, "new_messages", len(messages))
	return nil
}
