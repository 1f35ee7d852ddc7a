package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"markbench/internal/domain"
	"markbench/internal/port"
)

type gradingResultRepo struct {
	db *sqlx.DB
}

// NewGradingResultRepo creates a Postgres-backed ResultRepository.
func NewGradingResultRepo(db *sqlx.DB) port.ResultRepository {
	return &gradingResultRepo{db: db}
}

// gradingResultRow mirrors the grading_results table. The full result is
// stored as a jsonb payload; a few columns are extracted for querying.
type gradingResultRow struct {
	ID           uuid.UUID `db:"id"`
	SessionID    uuid.UUID `db:"session_id"`
	SubmissionID string    `db:"submission_id"`
	Mark         float64   `db:"mark"`
	MaxMark      float64   `db:"max_mark"`
	Confidence   float64   `db:"confidence"`
	TotalCost    float64   `db:"total_cost"`
	Payload      []byte    `db:"payload"`
}

func (r *gradingResultRepo) Save(ctx context.Context, sessionID uuid.UUID, result *domain.SubmissionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling grading result: %w", err)
	}

	query := `
		INSERT INTO grading_results (id, session_id, submission_id, mark, max_mark, confidence, total_cost, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (session_id, submission_id)
		DO UPDATE SET mark = EXCLUDED.mark, max_mark = EXCLUDED.max_mark,
			confidence = EXCLUDED.confidence, total_cost = EXCLUDED.total_cost,
			payload = EXCLUDED.payload`

	_, err = r.db.ExecContext(ctx, query,
		uuid.New(), sessionID, result.SubmissionID,
		result.Aggregate.Mark, result.Aggregate.MaxMark, result.Aggregate.Confidence,
		result.Metadata.TotalCost, payload,
	)
	if err != nil {
		return fmt.Errorf("saving grading result: %w", err)
	}
	return nil
}

func (r *gradingResultRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.SubmissionResult, error) {
	var rows []gradingResultRow
	query := `
		SELECT id, session_id, submission_id, mark, max_mark, confidence, total_cost, payload
		FROM grading_results
		WHERE session_id = $1
		ORDER BY submission_id`

	if err := r.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("listing grading results: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	results := make([]domain.SubmissionResult, 0, len(rows))
	for _, row := range rows {
		var res domain.SubmissionResult
		if err := json.Unmarshal(row.Payload, &res); err != nil {
			return nil, fmt.Errorf("unmarshaling grading result %s: %w", row.SubmissionID, err)
		}
		results = append(results, res)
	}
	return results, nil
}
