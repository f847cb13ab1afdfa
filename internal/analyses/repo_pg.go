package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `
SELECT id, client_id, status, intake, score, score_breakdown,
       missing_documents, outdated_documents, inconsistencies, recommendations, state_specific_notes,
       recovery, error_code, error_message, error_retryable, provider, model, analysis_version, prompt_hash,
       started_at, completed_at, created_at, updated_at
FROM gap_analyses`

// Create inserts a new analysis.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO gap_analyses (
	id, client_id, status, intake, provider, model, analysis_version, prompt_hash, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`
	intakePayload, err := marshalJSONB(analysis.Intake)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		analysis.ID,
		analysis.ClientID,
		analysis.Status,
		intakePayload,
		analysis.Provider,
		analysis.Model,
		analysis.AnalysisVersion,
		analysis.PromptHash,
		analysis.CreatedAt,
	)
	return err
}

// GetByID returns an analysis by ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	if !validID(analysisID) {
		return Analysis{}, ErrNotFound
	}
	row := r.DB.QueryRowContext(ctx, selectColumns+`
WHERE id = $1
LIMIT 1`, analysisID)
	a, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	return a, nil
}

// MarkProcessing claims the analysis when it is queued, stuck in processing
// or failed with a retryable error.
func (r *PGRepo) MarkProcessing(ctx context.Context, analysisID string, startedAt time.Time) error {
	const query = `
UPDATE gap_analyses
SET status = 'processing',
    started_at = $2,
    completed_at = NULL,
    error_code = NULL,
    error_message = NULL,
    error_retryable = FALSE,
    updated_at = now()
WHERE id = $1::uuid
  AND (status IN ('queued', 'processing') OR (status = 'failed' AND error_retryable))`
	if !validID(analysisID) {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, query, analysisID, startedAt)
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var status string
	err = r.DB.QueryRowContext(ctx, `SELECT status FROM gap_analyses WHERE id = $1::uuid`, analysisID).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("mark processing lookup: %w", err)
	default:
		return ErrAlreadyFinished
	}
}

// SetPromptMetadata keeps stored values when the new ones are empty.
func (r *PGRepo) SetPromptMetadata(ctx context.Context, analysisID, analysisVersion, promptHash string) error {
	const query = `
UPDATE gap_analyses
SET analysis_version = COALESCE(NULLIF($2, ''), analysis_version),
    prompt_hash = COALESCE(NULLIF($3, ''), prompt_hash),
    updated_at = now()
WHERE id = $1::uuid`
	return r.execOne(ctx, query, analysisID, analysisVersion, promptHash)
}

func (r *PGRepo) Complete(ctx context.Context, analysisID string, result AnalysisRecord, completedAt time.Time) error {
	const query = `
UPDATE gap_analyses
SET status = 'completed',
    score = $2,
    score_breakdown = $3::jsonb,
    missing_documents = $4::jsonb,
    outdated_documents = $5::jsonb,
    inconsistencies = $6::jsonb,
    recommendations = $7::jsonb,
    state_specific_notes = $8::jsonb,
    recovery = $9::jsonb,
    error_code = NULL,
    error_message = NULL,
    error_retryable = FALSE,
    completed_at = $10,
    updated_at = now()
WHERE id = $1::uuid`
	cols, err := resultColumns(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	args := append([]any{analysisID}, cols...)
	args = append(args, completedAt)
	return r.execOne(ctx, query, args...)
}

func (r *PGRepo) Fail(ctx context.Context, analysisID string, failure Failure, completedAt time.Time) error {
	const query = `
UPDATE gap_analyses
SET status = 'failed',
    error_code = $2,
    error_message = $3,
    error_retryable = $4,
    completed_at = $5,
    updated_at = now()
WHERE id = $1::uuid`
	return r.execOne(ctx, query, analysisID, failure.Code, failure.Message, failure.Retryable, completedAt)
}

// execOne runs a single-row update keyed by $1 and maps a miss to ErrNotFound.
func (r *PGRepo) execOne(ctx context.Context, query string, args ...any) error {
	if id, _ := args[0].(string); !validID(id) {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ListByClient lists analyses for a client ordered newest-first.
func (r *PGRepo) ListByClient(ctx context.Context, clientID string, limit, offset int) ([]Analysis, error) {
	limit, offset = clampPage(limit, offset)
	rows, err := r.DB.QueryContext(ctx, selectColumns+`
WHERE client_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`, clientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var a Analysis
	var intakeJSON sql.NullString
	var score sql.NullInt64
	var breakdown, missing, outdated, inconsistencies, recommendations, notes, recovery sql.NullString
	var errorCode, errorMessage sql.NullString
	var errorRetryable sql.NullBool
	var provider, model, analysisVersion, promptHash sql.NullString
	var startedAt, completedAt sql.NullTime
	if err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.Status,
		&intakeJSON,
		&score,
		&breakdown,
		&missing,
		&outdated,
		&inconsistencies,
		&recommendations,
		&notes,
		&recovery,
		&errorCode,
		&errorMessage,
		&errorRetryable,
		&provider,
		&model,
		&analysisVersion,
		&promptHash,
		&startedAt,
		&completedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return Analysis{}, err
	}

	if intakeJSON.Valid {
		// a malformed payload leaves the intake empty
		_ = json.Unmarshal([]byte(intakeJSON.String), &a.Intake)
	}
	if score.Valid {
		rec := &AnalysisRecord{
			Score:              int(score.Int64),
			MissingDocuments:   decodeList(missing),
			OutdatedDocuments:  decodeList(outdated),
			Inconsistencies:    decodeList(inconsistencies),
			Recommendations:    decodeList(recommendations),
			StateSpecificNotes: decodeList(notes),
		}
		if breakdown.Valid {
			_ = json.Unmarshal([]byte(breakdown.String), &rec.ScoreBreakdown)
		}
		if recovery.Valid {
			_ = json.Unmarshal([]byte(recovery.String), &rec.Recovery)
		}
		a.Result = rec
	}
	if errorCode.Valid {
		a.ErrorCode = errorCode.String
	}
	if errorMessage.Valid {
		a.ErrorMessage = &errorMessage.String
	}
	if errorRetryable.Valid {
		a.ErrorRetryable = errorRetryable.Bool
	}
	if provider.Valid {
		a.Provider = provider.String
	}
	if model.Valid {
		a.Model = model.String
	}
	if analysisVersion.Valid {
		a.AnalysisVersion = analysisVersion.String
	}
	if promptHash.Valid {
		a.PromptHash = promptHash.String
	}
	if startedAt.Valid {
		a.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return a, nil
}

// resultColumns returns the score, breakdown, the five lists and the
// recovery summary in column order.
func resultColumns(result AnalysisRecord) ([]any, error) {
	lists, err := result.Serialized()
	if err != nil {
		return nil, err
	}
	breakdown, err := json.Marshal(result.ScoreBreakdown)
	if err != nil {
		return nil, err
	}
	recovery, err := json.Marshal(result.Recovery)
	if err != nil {
		return nil, err
	}
	return []any{
		result.Score,
		string(breakdown),
		lists.MissingDocuments,
		lists.OutdatedDocuments,
		lists.Inconsistencies,
		lists.Recommendations,
		lists.StateSpecificNotes,
		string(recovery),
	}, nil
}

func decodeList(col sql.NullString) []any {
	out := []any{}
	if !col.Valid {
		return out
	}
	if err := json.Unmarshal([]byte(col.String), &out); err != nil || out == nil {
		return []any{}
	}
	return out
}

func marshalJSONB(value any) ([]byte, error) {
	if value == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(value)
}
