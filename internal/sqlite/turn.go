package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ganot/progen/internal/domain/agent"
	"github.com/ganot/progen/internal/domain/session"
	"github.com/ganot/progen/internal/repository"
)

// TurnRepository implements session.TurnRepository for SQLite
type TurnRepository struct {
	db *DB
}

// NewTurnRepository creates a new TurnRepository
func NewTurnRepository(db *DB) *TurnRepository {
	return &TurnRepository{db: db}
}

// Create inserts a new turn
func (r *TurnRepository) Create(ctx context.Context, turn *session.Turn) error {
	output, err := marshalOutput(turn.Output)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO turns (
			id, session_id, round, participant, kind, status,
			output_json, tokens_used, error, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		turn.ID,
		turn.SessionID,
		turn.Round,
		turn.Participant,
		turn.Kind,
		turn.Status,
		output,
		turn.TokensUsed,
		turn.Error,
		turn.StartedAt,
		turn.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to create turn: %w", err)
	}
	return nil
}

// Update rewrites a turn's mutable fields. Completing a turn whose slot is
// already complete trips the partial unique index and maps to ErrConflict.
func (r *TurnRepository) Update(ctx context.Context, turn *session.Turn) error {
	output, err := marshalOutput(turn.Output)
	if err != nil {
		return err
	}

	query := `
		UPDATE turns
		SET status = ?, output_json = ?, tokens_used = ?, error = ?, completed_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		turn.Status,
		output,
		turn.TokensUsed,
		turn.Error,
		turn.CompletedAt,
		turn.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to update turn: %w", err)
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

// ListBySession returns all turns of a session in insertion order
func (r *TurnRepository) ListBySession(ctx context.Context, sessionID string) ([]session.Turn, error) {
	query := `
		SELECT
			id, session_id, round, participant, kind, status,
			output_json, tokens_used, error, started_at, completed_at
		FROM turns
		WHERE session_id = ?
		ORDER BY rowid
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	var turns []session.Turn
	for rows.Next() {
		var t session.Turn
		var output []byte
		var errMsg sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(
			&t.ID,
			&t.SessionID,
			&t.Round,
			&t.Participant,
			&t.Kind,
			&t.Status,
			&output,
			&t.TokensUsed,
			&errMsg,
			&t.StartedAt,
			&completedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		if errMsg.Valid {
			t.Error = errMsg.String
		}
		if completedAt.Valid {
			t.CompletedAt = &completedAt.Time
		}
		if len(output) > 0 {
			if err := json.Unmarshal(output, &t.Output); err != nil {
				return nil, fmt.Errorf("failed to decode turn output: %w", err)
			}
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// HasComplete reports whether a complete turn exists for the slot
func (r *TurnRepository) HasComplete(ctx context.Context, sessionID string, round int, participant string, kind session.TurnKind) (bool, error) {
	query := `
		SELECT COUNT(1) FROM turns
		WHERE session_id = ? AND round = ? AND participant = ? AND kind = ? AND status = 'complete'
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, sessionID, round, participant, kind).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check turn: %w", err)
	}
	return count > 0, nil
}

func marshalOutput(out agent.Output) ([]byte, error) {
	if out.Kind == "" {
		return nil, nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode turn output: %w", err)
	}
	return data, nil
}
