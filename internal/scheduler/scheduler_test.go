package scheduler

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omnirelay/internal/report"
	"omnirelay/internal/workflow"
)

type fakeTrigger struct {
	fired    chan string
	block    bool
	canceled chan struct{}
}

func newFakeTrigger(block bool) *fakeTrigger {
	return &fakeTrigger{
		fired:    make(chan string, 16),
		canceled: make(chan struct{}, 1),
		block:    block,
	}
}

func (f *fakeTrigger) Run(ctx context.Context, def report.Definition) (*workflow.RunResult, error) {
	f.fired <- def.Name

	if f.block {
		<-ctx.Done()
		f.canceled <- struct{}{}
		return nil, ctx.Err()
	}
	return &workflow.RunResult{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func waitFired(t *testing.T, trig *fakeTrigger, want string) {
	t.Helper()
	select {
	case name := <-trig.fired:
		assert.Equal(t, want, name)
	case <-time.After(2 * time.Second):
		t.Fatalf("schedule for %q never fired", want)
	}
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	cat := report.New()
	cat.Put(report.Definition{Name: "inventory", ReportID: 106899, Schedule: "@every 20ms"})

	trig := newFakeTrigger(false)
	s := New(trig, cat, discardLogger())
	require.NoError(t, s.Start())
	defer s.Stop()

	// Two consecutive firings prove the entry stays scheduled.
	waitFired(t, trig, "inventory")
	waitFired(t, trig, "inventory")
}

func TestScheduler_SkipsUnscheduledDefinitions(t *testing.T) {
	cat := report.New()
	cat.Put(report.Definition{Name: "manual", ReportID: 1})
	cat.Put(report.Definition{Name: "nightly", ReportID: 2, Schedule: "0 7 * * *"})

	s := New(newFakeTrigger(false), cat, discardLogger())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Len(t, s.entries, 1)
	assert.Contains(t, s.entries, "nightly")
}

func TestScheduler_InvalidScheduleIsSkipped(t *testing.T) {
	cat := report.New()
	cat.Put(report.Definition{Name: "broken", ReportID: 1, Schedule: "every tuesday"})

	s := New(newFakeTrigger(false), cat, discardLogger())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Empty(t, s.entries)
}

func TestScheduler_StopCancelsInFlightPull(t *testing.T) {
	cat := report.New()
	cat.Put(report.Definition{Name: "slow", ReportID: 1, Schedule: "@every 20ms"})

	trig := newFakeTrigger(true)
	s := New(trig, cat, discardLogger())
	require.NoError(t, s.Start())

	waitFired(t, trig, "slow")

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-trig.canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight pull never saw cancellation")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the pull finished")
	}
}
