package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ganot/progen/internal/domain/session"
	"github.com/ganot/progen/internal/repository"
)

// SessionRepository implements session.SessionRepository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	query := `
		INSERT INTO sessions (
			id, user_id, program_name, requirements, external_insights,
			budget, resources_json,
			status, current_round, last_completed_round, total_tokens,
			error, program_json, created_at, updated_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		sess.ID,
		sess.UserID,
		sess.ProgramName,
		sess.Requirements,
		sess.ExternalInsights,
		sess.Budget,
		sess.ResourcesJSON,
		sess.Status,
		sess.CurrentRound,
		sess.LastCompletedRound,
		sess.TotalTokens,
		sess.Error,
		sess.ProgramJSON,
		sess.CreatedAt,
		sess.UpdatedAt,
		sess.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	query := `
		SELECT
			id, user_id, program_name, requirements, external_insights,
			budget, resources_json,
			status, current_round, last_completed_round, total_tokens,
			error, program_json, created_at, updated_at, completed_at
		FROM sessions
		WHERE id = ?
	`

	sess, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

// Update updates a session
func (r *SessionRepository) Update(ctx context.Context, sess *session.Session) error {
	query := `
		UPDATE sessions
		SET status = ?, current_round = ?, last_completed_round = ?,
		    total_tokens = ?, error = ?, program_json = ?,
		    updated_at = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		sess.Status,
		sess.CurrentRound,
		sess.LastCompletedRound,
		sess.TotalTokens,
		sess.Error,
		sess.ProgramJSON,
		sess.UpdatedAt,
		sess.CompletedAt,
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns sessions, optionally filtered by status, newest first.
func (r *SessionRepository) List(ctx context.Context, opts session.ListOptions) ([]session.Session, error) {
	query := `
		SELECT
			id, user_id, program_name, requirements, external_insights,
			budget, resources_json,
			status, current_round, last_completed_round, total_tokens,
			error, program_json, created_at, updated_at, completed_at
		FROM sessions
	`
	args := []any{}
	if opts.Status != "" {
		query += " WHERE status = ?"
		args = append(args, opts.Status)
	}
	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*session.Session, error) {
	var sess session.Session
	var errMsg sql.NullString
	var completedAt sql.NullTime
	err := row.Scan(
		&sess.ID,
		&sess.UserID,
		&sess.ProgramName,
		&sess.Requirements,
		&sess.ExternalInsights,
		&sess.Budget,
		&sess.ResourcesJSON,
		&sess.Status,
		&sess.CurrentRound,
		&sess.LastCompletedRound,
		&sess.TotalTokens,
		&errMsg,
		&sess.ProgramJSON,
		&sess.CreatedAt,
		&sess.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	if errMsg.Valid {
		sess.Error = errMsg.String
	}
	if completedAt.Valid {
		sess.CompletedAt = &completedAt.Time
	}
	return &sess, nil
}
