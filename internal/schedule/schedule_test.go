package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/db"
	"github.com/privacyops/footprint/internal/store"
)

func newSchedulerFixture(t *testing.T, funcs map[string]JobFunc) (*store.Stores, *Scheduler) {
	t.Helper()
	database, err := db.New(db.Config{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)
	stores := store.New(database)
	return stores, New(stores, funcs, zap.NewNop())
}

func TestGetOverdueJobsNeverRan(t *testing.T) {
	_, sched := newSchedulerFixture(t, nil)

	overdue, err := sched.GetOverdueJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"breach_recheck", "dark_web_monitor", "verify_removals", "generate_report"}, overdue)
}

func TestGetOverdueJobsHonorsIntervals(t *testing.T) {
	stores, sched := newSchedulerFixture(t, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	// breach_recheck (7d) ran 2 days ago: not due. verify_removals (1d)
	// ran 2 days ago: due. The rest never ran.
	for _, job := range []string{"breach_recheck", "verify_removals"} {
		require.NoError(t, stores.Runs.CreateScheduledRun(ctx, &db.ScheduledRun{
			JobName: job, StartedAt: now.Add(-48 * time.Hour), Status: "success",
		}))
	}

	overdue, err := sched.GetOverdueJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dark_web_monitor", "verify_removals", "generate_report"}, overdue)
}

func TestGetOverdueJobsCountsRunningRow(t *testing.T) {
	stores, sched := newSchedulerFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, stores.Runs.CreateScheduledRun(ctx, &db.ScheduledRun{
		JobName: "breach_recheck", StartedAt: time.Now().UTC(), Status: "running",
	}))

	overdue, err := sched.GetOverdueJobs(ctx)
	require.NoError(t, err)
	assert.NotContains(t, overdue, "breach_recheck")
}

func TestRunScheduledJobsPartialFailure(t *testing.T) {
	funcs := map[string]JobFunc{
		"breach_recheck": func(context.Context) (*JobResult, error) {
			return nil, errors.New("hibp down")
		},
		"dark_web_monitor": func(context.Context) (*JobResult, error) {
			return &JobResult{Status: "success", Details: map[string]any{"new_count": 3}}, nil
		},
	}
	stores, sched := newSchedulerFixture(t, funcs)
	ctx := context.Background()

	outcomes, err := sched.RunScheduledJobs(ctx)
	require.NoError(t, err)
	// Jobs without a registered function are skipped silently.
	require.Len(t, outcomes, 2)
	assert.Equal(t, "breach_recheck", outcomes[0].JobName)
	assert.Equal(t, "failed", outcomes[0].Status)
	assert.Equal(t, "hibp down", outcomes[0].Error)
	assert.Equal(t, "dark_web_monitor", outcomes[1].JobName)
	assert.Equal(t, "success", outcomes[1].Status)
	assert.True(t, Failed(outcomes))

	failed, err := stores.Runs.LastRun(ctx, "breach_recheck")
	require.NoError(t, err)
	assert.Equal(t, "failed", failed.Status)
	assert.Equal(t, "hibp down", failed.Error)
	require.NotNil(t, failed.CompletedAt)

	ok, err := stores.Runs.LastRun(ctx, "dark_web_monitor")
	require.NoError(t, err)
	assert.Equal(t, "success", ok.Status)
	var details map[string]any
	require.NoError(t, json.Unmarshal([]byte(ok.Details), &details))
	assert.Equal(t, float64(3), details["new_count"])
}

func TestRunScheduledJobsRecoversPanic(t *testing.T) {
	funcs := map[string]JobFunc{
		"breach_recheck": func(context.Context) (*JobResult, error) {
			panic("boom")
		},
		"generate_report": func(context.Context) (*JobResult, error) {
			return &JobResult{Status: "success"}, nil
		},
	}
	_, sched := newSchedulerFixture(t, funcs)

	outcomes, err := sched.RunScheduledJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "failed", outcomes[0].Status)
	assert.Contains(t, outcomes[0].Error, "panicked")
	assert.Equal(t, "success", outcomes[1].Status)
}

func TestPreviousCount(t *testing.T) {
	stores, sched := newSchedulerFixture(t, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	assert.Zero(t, sched.PreviousCount(ctx, "breach_recheck"))

	require.NoError(t, stores.Runs.CreateScheduledRun(ctx, &db.ScheduledRun{
		JobName: "breach_recheck", StartedAt: now.Add(-time.Hour), Status: "success",
		Details: `{"new_count": 4, "persons_checked": 1}`,
	}))
	// The in-flight run must not shadow the completed one.
	require.NoError(t, stores.Runs.CreateScheduledRun(ctx, &db.ScheduledRun{
		JobName: "breach_recheck", StartedAt: now, Status: "running",
	}))
	assert.Equal(t, 4, sched.PreviousCount(ctx, "breach_recheck"))

	require.NoError(t, stores.Runs.CreateScheduledRun(ctx, &db.ScheduledRun{
		JobName: "dark_web_monitor", StartedAt: now, Status: "success", Details: "not json",
	}))
	assert.Zero(t, sched.PreviousCount(ctx, "dark_web_monitor"))
}

func TestStatus(t *testing.T) {
	stores, sched := newSchedulerFixture(t, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, stores.Runs.CreateScheduledRun(ctx, &db.ScheduledRun{
		JobName: "verify_removals", StartedAt: now.Add(-26 * time.Hour), Status: "success",
	}))

	status, err := sched.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status.Jobs, len(Jobs))

	byName := map[string]JobStatus{}
	for _, js := range status.Jobs {
		byName[js.Name] = js
	}
	assert.Equal(t, "never_run", byName["breach_recheck"].Status)
	assert.Equal(t, "now", byName["breach_recheck"].NextDue)
	assert.True(t, byName["breach_recheck"].Overdue)

	verify := byName["verify_removals"]
	assert.Equal(t, "success", verify.Status)
	assert.True(t, verify.Overdue)
	require.NotNil(t, verify.LastRun)

	require.Len(t, status.RecentRuns, 1)
}

func TestReportPath(t *testing.T) {
	assert.Equal(t, "john-doe", PersonSlug("John Doe"))
	assert.Equal(t, "mary-jane-watson", PersonSlug("Mary Jane Watson"))

	date := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	path := ReportPath("/data/reports", "John Doe", date)
	assert.Equal(t, filepath.Join("/data/reports", "2026-03-15-john-doe.md"), path)
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "2026-03-15-john-doe.md")

	require.NoError(t, WriteReport(path, "# Report\n"))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Report\n", string(content))
}
