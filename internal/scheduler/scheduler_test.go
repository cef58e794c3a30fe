package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name     string
	schedule string
	failures int32 // number of leading runs that fail
	runs     atomic.Int32
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(ctx context.Context) error {
	n := j.runs.Add(1)
	if n <= j.failures {
		return errors.New("transient")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(nil, WithRetry(2, time.Millisecond))
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&stubJob{name: "b", schedule: "0 0 3 * * *"}))
	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@hourly"}))

	assert.Error(t, s.AddJob(&stubJob{name: "a", schedule: "@hourly"}), "duplicate name")
	assert.Error(t, s.AddJob(&stubJob{name: "c", schedule: "not a schedule"}))
	assert.Equal(t, []string{"a", "b"}, s.JobNames())
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.JobNames())
	assert.Empty(t, s.cron.Entries())
	assert.Error(t, s.RemoveJob("a"))
}

func TestRemoveJob_HistorySurvivesReAdd(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@hourly"}))
	_, err := s.RunJob("a")
	require.NoError(t, err)

	require.NoError(t, s.RemoveJob("a"))
	results, err := s.History("a")
	require.NoError(t, err)
	assert.Len(t, results, 1)

	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@daily"}))
	_, err = s.RunJob("a")
	require.NoError(t, err)

	results, err = s.History("a")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRunJob_RetriesUntilSuccess(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "flaky", schedule: "@hourly", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("flaky")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Empty(t, result.Error)
}

func TestRunJob_GivesUp(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "broken", schedule: "@hourly", failures: 100}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("broken")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "transient", result.Error)

	stats := s.Stats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.Equal(t, "transient", stats.LastError)
}

func TestRunJob_Unknown(t *testing.T) {
	_, err := newTestScheduler().RunJob("missing")
	assert.Error(t, err)
}

func TestRunJob_AfterStop(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "a", schedule: "@hourly"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	s.Stop()

	result, err := s.RunJob("a")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Attempts)
	assert.Equal(t, int32(0), job.runs.Load())
}

func TestHistory(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@hourly"}))

	for i := 0; i < 3; i++ {
		_, err := s.RunJob("a")
		require.NoError(t, err)
	}

	results, err := s.History("a")
	require.NoError(t, err)
	assert.Len(t, results, 3)

	stats := s.Stats()["a"]
	assert.Equal(t, 3, stats.SuccessCount)
	assert.Equal(t, 1.0, stats.SuccessRate)
	require.NotNil(t, stats.LastRun)

	_, err = s.History("missing")
	assert.Error(t, err)
}

func TestJobHistory_Limit(t *testing.T) {
	var h JobHistory
	for i := 0; i < historyLimit+5; i++ {
		h.AddResult(JobResult{Attempts: i, Success: i%2 == 0})
	}

	require.Len(t, h.Results, historyLimit)
	assert.Equal(t, 5, h.Results[0].Attempts)

	last, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, historyLimit+4, last.Attempts)
	assert.Equal(t, 50, h.FailureCount())
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)
}
