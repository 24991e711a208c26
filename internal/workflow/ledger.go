package workflow

import (
	"context"

	"omnirelay/internal/domain"
)

// Ledger writes never fail a pull. A run that produced an artifact is a
// success even if its bookkeeping row is lost; the miss is logged instead.
// A nil ledger (pull running without bookkeeping) skips all writes.

func (r *Runner) beginRun(ctx context.Context, reportName string) string {
	if r.ledger == nil {
		return ""
	}
	id, err := r.ledger.BeginRun(ctx, reportName)
	if err != nil {
		r.logger.Warn("ledger begin failed", "report", reportName, "error", err)
		return ""
	}
	return id
}

func (r *Runner) setRequestID(ctx context.Context, runID string, requestID domain.RequestID) {
	if runID == "" {
		return
	}
	if err := r.ledger.SetRequestID(ctx, runID, requestID); err != nil {
		r.logger.Warn("ledger request id update failed", "run", runID, "error", err)
	}
}

func (r *Runner) completeRun(ctx context.Context, runID string, art domain.Artifact) {
	if runID == "" {
		return
	}
	if err := r.ledger.CompleteRun(ctx, runID, art.LocalPath, art.SizeBytes); err != nil {
		r.logger.Warn("ledger complete failed", "run", runID, "error", err)
	}
}

func (r *Runner) failRun(ctx context.Context, runID string, cause error) {
	if runID == "" {
		return
	}
	// The run context may already be canceled; the failure row still matters.
	ctx = context.WithoutCancel(ctx)
	if err := r.ledger.FailRun(ctx, runID, cause.Error()); err != nil {
		r.logger.Warn("ledger fail-run update failed", "run", runID, "error", err)
	}
}

func (r *Runner) recordUploads(ctx context.Context, runID string, outcomes []domain.UploadOutcome) {
	if runID == "" || len(outcomes) == 0 {
		return
	}
	if err := r.ledger.RecordUploads(ctx, runID, outcomes); err != nil {
		r.logger.Warn("ledger upload record failed", "run", runID, "error", err)
	}
}
