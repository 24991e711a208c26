// Package workflow runs one report pull end to end: submit the request,
// poll until the report completes, download the artifact, then relay it to
// the configured destinations and record the run in the ledger.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"omnirelay/internal/config"
	"omnirelay/internal/domain"
	"omnirelay/internal/ledger"
	"omnirelay/internal/omni"
	"omnirelay/internal/relay"
	"omnirelay/internal/report"
)

// RunResult is what one successful pull produced.
type RunResult struct {
	RunID     string
	RequestID domain.RequestID
	Artifact  domain.Artifact
	Uploads   []domain.UploadOutcome
}

// Runner executes report pulls. The retrieval path (submit, poll, download)
// is fatal on error; ledger writes and relay uploads are best effort and
// never fail a run that produced an artifact.
type Runner struct {
	cfg    *config.Config
	client *omni.Client
	relay  *relay.Relay
	ledger *ledger.Ledger
	logger *slog.Logger
	now    func() time.Time
}

// New builds a Runner over an authenticated client, a relay, and an open
// ledger. led may be nil when the ledger could not open; runs then proceed
// unrecorded.
func New(cfg *config.Config, client *omni.Client, rl *relay.Relay, led *ledger.Ledger, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		client: client,
		relay:  rl,
		ledger: led,
		logger: logger.With("component", "workflow"),
		now:    time.Now,
	}
}

// Run pulls one report. The request window is computed from the current
// time in the configured timezone.
func (r *Runner) Run(ctx context.Context, def report.Definition) (*RunResult, error) {
	if err := r.cfg.RequireSession(); err != nil {
		return nil, err
	}
	r.warnNearExpiry()

	logger := r.logger.With("report", def.Name)
	logger.Info("starting pull", "report_id", def.ReportID)

	runID := r.beginRun(ctx, def.Name)
	req := def.BuildRequest(r.now().In(r.location()))

	requestID, err := r.client.Submit(ctx, req)
	if err != nil {
		r.failRun(ctx, runID, err)
		return nil, err
	}
	r.setRequestID(ctx, runID, requestID)

	url, err := r.client.AwaitDownloadURL(ctx, requestID)
	if err != nil {
		r.failRun(ctx, runID, err)
		return nil, err
	}

	art, err := r.client.Download(ctx, url, r.cfg.DownloadDir, def.FilePrefix)
	if err != nil {
		r.failRun(ctx, runID, err)
		return nil, err
	}
	r.completeRun(ctx, runID, art)

	outcomes := r.relay.Store(ctx, art)
	r.recordUploads(ctx, runID, outcomes)

	logger.Info("pull finished",
		"request_id", int64(requestID),
		"artifact", art.LocalPath,
		"bytes", art.SizeBytes,
		"uploads", len(outcomes))

	return &RunResult{
		RunID:     runID,
		RequestID: requestID,
		Artifact:  art,
		Uploads:   outcomes,
	}, nil
}

// location resolves the configured timezone, falling back to UTC when the
// name does not resolve on this host.
func (r *Runner) location() *time.Location {
	loc, err := time.LoadLocation(r.cfg.Timezone)
	if err != nil {
		r.logger.Warn("unknown timezone, using UTC", "timezone", r.cfg.Timezone, "error", err)
		return time.UTC
	}
	return loc
}

// warnNearExpiry surfaces a token that is already expired or about to be.
// The token is opaque to us beyond its exp claim, so this is advisory only.
func (r *Runner) warnNearExpiry() {
	exp, err := omni.TokenExpiry(r.cfg.AuthToken)
	if err != nil {
		return
	}
	if remaining := time.Until(exp); remaining < time.Hour {
		r.logger.Warn("auth token near expiry", "expires_at", exp, "remaining", remaining)
	}
}
