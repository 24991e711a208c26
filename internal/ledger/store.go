package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"omnirelay/internal/domain"
)

// ErrNotFound is returned when a run id has no ledger row.
var ErrNotFound = errors.New("run not found")

const runColumns = `id, report, request_id, status, artifact_path, artifact_bytes, error, uploads_json, started_at, finished_at`

// BeginRun inserts a new running row and returns its id.
func (l *Ledger) BeginRun(ctx context.Context, report string) (string, error) {
	id := domain.NewID()
	_, err := l.write.ExecContext(ctx, `
		INSERT INTO runs (id, report, status)
		VALUES (?, ?, ?)
	`, id, report, string(domain.RunRunning))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// SetRequestID records the server-side request id once submission resolves it.
func (l *Ledger) SetRequestID(ctx context.Context, id string, requestID domain.RequestID) error {
	return l.update(ctx, `UPDATE runs SET request_id = ? WHERE id = ?`, int64(requestID), id)
}

// CompleteRun marks a run completed with its downloaded artifact.
func (l *Ledger) CompleteRun(ctx context.Context, id string, artifactPath string, artifactBytes int64) error {
	return l.update(ctx, `
		UPDATE runs
		SET status = ?, artifact_path = ?, artifact_bytes = ?, finished_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(domain.RunCompleted), artifactPath, artifactBytes, id)
}

// FailRun marks a run failed with the error message.
func (l *Ledger) FailRun(ctx context.Context, id string, message string) error {
	return l.update(ctx, `
		UPDATE runs
		SET status = ?, error = ?, finished_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(domain.RunFailed), message, id)
}

// RecordUploads stores the per-target relay outcomes for a run.
func (l *Ledger) RecordUploads(ctx context.Context, id string, outcomes []domain.UploadOutcome) error {
	data, err := json.Marshal(outcomes)
	if err != nil {
		return fmt.Errorf("marshal uploads: %w", err)
	}
	return l.update(ctx, `UPDATE runs SET uploads_json = ? WHERE id = ?`, string(data), id)
}

// Get returns one run by id.
func (l *Ledger) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	rec, err := scanRun(l.read.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM runs WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return rec, nil
}

// Recent returns the most recently started runs, newest first. UUIDv7 ids
// sort by creation time, so id order is start order.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.read.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

func (l *Ledger) update(ctx context.Context, stmt string, args ...interface{}) error {
	res, err := l.write.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*domain.RunRecord, error) {
	var (
		rec           domain.RunRecord
		status        string
		requestID     sql.NullInt64
		artifactPath  sql.NullString
		artifactBytes sql.NullInt64
		errMessage    sql.NullString
		uploadsJSON   sql.NullString
		finishedAt    sql.NullTime
	)

	err := row.Scan(
		&rec.ID,
		&rec.Report,
		&requestID,
		&status,
		&artifactPath,
		&artifactBytes,
		&errMessage,
		&uploadsJSON,
		&rec.StartedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = domain.RunStatus(status)
	if requestID.Valid {
		rid := domain.RequestID(requestID.Int64)
		rec.RequestID = &rid
	}
	if artifactPath.Valid {
		rec.ArtifactPath = artifactPath.String
	}
	if artifactBytes.Valid {
		rec.ArtifactBytes = artifactBytes.Int64
	}
	if errMessage.Valid {
		rec.Error = errMessage.String
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		rec.FinishedAt = &t
	}
	if uploadsJSON.Valid && uploadsJSON.String != "" {
		if err := json.Unmarshal([]byte(uploadsJSON.String), &rec.Uploads); err != nil {
			return nil, fmt.Errorf("unmarshal uploads: %w", err)
		}
	}

	return &rec, nil
}
