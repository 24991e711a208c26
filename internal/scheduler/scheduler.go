// Package scheduler triggers report pulls on their cron schedules.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"omnirelay/internal/report"
	"omnirelay/internal/workflow"
)

// Trigger runs one report pull. The scheduler only records the error; the
// workflow owns ledger bookkeeping for failed runs.
type Trigger interface {
	Run(ctx context.Context, def report.Definition) (*workflow.RunResult, error)
}

// Scheduler manages cron-based report pulls. A schedule firing while its
// previous pull is still polling is skipped, not queued.
type Scheduler struct {
	cron    *cron.Cron
	trigger Trigger
	catalog *report.Catalog
	logger  *slog.Logger
	entries map[string]cron.EntryID // report name -> cron entry

	jobCtx context.Context
	cancel context.CancelFunc
}

// New creates a scheduler over the catalog's scheduled definitions.
func New(trigger Trigger, catalog *report.Catalog, logger *slog.Logger) *Scheduler {
	logger = logger.With("component", "scheduler")
	jobCtx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger}))),
		trigger: trigger,
		catalog: catalog,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
		jobCtx:  jobCtx,
		cancel:  cancel,
	}
}

// Start registers every scheduled definition and starts the cron loop.
func (s *Scheduler) Start() error {
	for _, def := range s.catalog.List() {
		if def.Schedule == "" {
			continue
		}

		entryID, err := s.cron.AddFunc(def.Schedule, func() {
			if _, err := s.trigger.Run(s.jobCtx, def); err != nil {
				s.logger.Warn("scheduled pull failed",
					"report", def.Name,
					"error", err,
				)
			}
		})
		if err != nil {
			s.logger.Warn("invalid cron schedule",
				"report", def.Name,
				"schedule", def.Schedule,
				"error", err,
			)
			continue
		}

		s.entries[def.Name] = entryID
		s.logger.Info("scheduled report", "report", def.Name, "schedule", def.Schedule)
	}

	s.cron.Start()
	s.logger.Info("report scheduler started", "entries", len(s.entries))
	return nil
}

// Stop cancels any in-flight pull and waits for its job to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("report scheduler stopped")
}

// cronLogger adapts slog to the cron logging interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
