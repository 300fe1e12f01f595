// Package schedule maintains the fixed table of recurring jobs, decides
// which are due from their last recorded run, and executes due jobs under a
// partial-failure discipline: one failing job records its error and never
// halts the rest.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/db"
	"github.com/privacyops/footprint/internal/metrics"
	"github.com/privacyops/footprint/internal/store"
)

// JobSpec is one recurring job and its interval.
type JobSpec struct {
	Name         string
	IntervalDays int
}

// Jobs is the fixed job table. Overdue jobs always run in this order.
var Jobs = []JobSpec{
	{Name: "breach_recheck", IntervalDays: 7},
	{Name: "dark_web_monitor", IntervalDays: 3},
	{Name: "verify_removals", IntervalDays: 1},
	{Name: "generate_report", IntervalDays: 7},
}

// JobResult is what a job function reports back on completion.
type JobResult struct {
	Status  string         `json:"status"` // success, skipped
	Details map[string]any `json:"details"`
}

// JobFunc executes one job. A returned error marks the run failed.
type JobFunc func(ctx context.Context) (*JobResult, error)

// RunOutcome is one entry of a scheduler pass.
type RunOutcome struct {
	JobName     string         `json:"job_name"`
	Status      string         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	Details     map[string]any `json:"details,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Failed reports whether any job in the pass ended failed. The CLI exits
// non-zero iff this is true.
func Failed(outcomes []RunOutcome) bool {
	for _, o := range outcomes {
		if o.Status == "failed" {
			return true
		}
	}
	return false
}

// Scheduler decides due jobs and runs them.
type Scheduler struct {
	stores *store.Stores
	funcs  map[string]JobFunc
	logger *zap.Logger
	now    func() time.Time
}

// New builds a Scheduler. funcs maps job names from the job table to their
// implementations; jobs without a function are skipped.
func New(stores *store.Stores, funcs map[string]JobFunc, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		stores: stores,
		funcs:  funcs,
		logger: logger.Named("scheduler"),
		now:    time.Now,
	}
}

// GetOverdueJobs returns the jobs whose last run started longer ago than
// their interval, or never ran, in table order. A run still in "running"
// state counts as the last run; intervals are measured from started_at so a
// crashed invocation cannot wedge a job into permanent overdue.
func (s *Scheduler) GetOverdueJobs(ctx context.Context) ([]string, error) {
	now := s.now()
	var overdue []string
	for _, job := range Jobs {
		last, err := s.stores.Runs.LastRun(ctx, job.Name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				overdue = append(overdue, job.Name)
				continue
			}
			return nil, fmt.Errorf("schedule: last run of %s: %w", job.Name, err)
		}
		if now.Sub(last.StartedAt) >= time.Duration(job.IntervalDays)*24*time.Hour {
			overdue = append(overdue, job.Name)
		}
	}
	return overdue, nil
}

// RunScheduledJobs executes every overdue job in table order. Each job gets
// a ScheduledRun row inserted in "running" before it starts and updated to
// its terminal state after; a panic or error inside one job marks that row
// failed and the pass continues.
func (s *Scheduler) RunScheduledJobs(ctx context.Context) ([]RunOutcome, error) {
	overdue, err := s.GetOverdueJobs(ctx)
	if err != nil {
		return nil, err
	}

	var outcomes []RunOutcome
	for _, jobName := range overdue {
		fn, ok := s.funcs[jobName]
		if !ok {
			continue
		}
		outcomes = append(outcomes, s.runOne(ctx, jobName, fn))
	}
	return outcomes, nil
}

func (s *Scheduler) runOne(ctx context.Context, jobName string, fn JobFunc) RunOutcome {
	started := s.now().UTC()
	run := &db.ScheduledRun{JobName: jobName, StartedAt: started, Status: "running"}
	if err := s.stores.Runs.CreateScheduledRun(ctx, run); err != nil {
		s.logger.Error("cannot record scheduled run", zap.String("job", jobName), zap.Error(err))
		return RunOutcome{JobName: jobName, Status: "failed", StartedAt: started, CompletedAt: s.now().UTC(), Error: err.Error()}
	}

	s.logger.Info("running scheduled job", zap.String("job", jobName))
	result, jobErr := s.safeRun(ctx, fn)
	completed := s.now().UTC()
	run.CompletedAt = &completed

	outcome := RunOutcome{JobName: jobName, StartedAt: started, CompletedAt: completed}
	if jobErr != nil {
		run.Status = "failed"
		run.Error = jobErr.Error()
		outcome.Status = "failed"
		outcome.Error = jobErr.Error()
		s.logger.Error("scheduled job failed", zap.String("job", jobName), zap.Error(jobErr))
	} else {
		run.Status = result.Status
		if details, err := json.Marshal(result.Details); err == nil {
			run.Details = string(details)
		}
		outcome.Status = result.Status
		outcome.Details = result.Details
		s.logger.Info("scheduled job completed", zap.String("job", jobName), zap.String("status", result.Status))
	}
	metrics.JobRuns.WithLabelValues(jobName, outcome.Status).Inc()

	if err := s.stores.Runs.UpdateScheduledRun(ctx, run); err != nil {
		s.logger.Error("cannot update scheduled run", zap.String("job", jobName), zap.Error(err))
	}
	return outcome
}

// safeRun converts a job panic into an error so one bad job cannot take the
// pass down.
func (s *Scheduler) safeRun(ctx context.Context, fn JobFunc) (result *JobResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("schedule: job panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// PreviousCount reads the previous completed run's details for a job and
// extracts its new_count counter. Missing runs, unparsable details or an
// absent key all mean 0; the alerter then treats everything found as new.
func (s *Scheduler) PreviousCount(ctx context.Context, jobName string) int {
	last, err := s.stores.Runs.LastCompletedRun(ctx, jobName)
	if err != nil {
		return 0
	}
	var details map[string]any
	if err := json.Unmarshal([]byte(last.Details), &details); err != nil {
		return 0
	}
	if v, ok := details["new_count"].(float64); ok {
		return int(v)
	}
	return 0
}

// JobStatus is the per-job view in the schedule status.
type JobStatus struct {
	Name         string     `json:"name"`
	IntervalDays int        `json:"interval_days"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	NextDue      string     `json:"next_due"`
	Status       string     `json:"status"`
	Overdue      bool       `json:"overdue"`
}

// ScheduleStatus is the full schedule view: one entry per job plus recent
// run history.
type ScheduleStatus struct {
	Jobs       []JobStatus       `json:"jobs"`
	RecentRuns []db.ScheduledRun `json:"recent_runs"`
}

// Status reports each job's last run, next due time and overdue flag, plus
// the ten most recent runs.
func (s *Scheduler) Status(ctx context.Context) (*ScheduleStatus, error) {
	now := s.now()
	status := &ScheduleStatus{}

	for _, job := range Jobs {
		last, err := s.stores.Runs.LastRun(ctx, job.Name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				status.Jobs = append(status.Jobs, JobStatus{
					Name:         job.Name,
					IntervalDays: job.IntervalDays,
					NextDue:      "now",
					Status:       "never_run",
					Overdue:      true,
				})
				continue
			}
			return nil, err
		}
		nextDue := last.StartedAt.Add(time.Duration(job.IntervalDays) * 24 * time.Hour)
		lastStarted := last.StartedAt
		status.Jobs = append(status.Jobs, JobStatus{
			Name:         job.Name,
			IntervalDays: job.IntervalDays,
			LastRun:      &lastStarted,
			NextDue:      nextDue.Format("2006-01-02 15:04:05"),
			Status:       last.Status,
			Overdue:      !now.Before(nextDue),
		})
	}

	recent, err := s.stores.Runs.History(ctx, 10)
	if err != nil {
		return nil, err
	}
	status.RecentRuns = recent
	return status, nil
}

// PersonSlug converts a person name to its report filename slug.
func PersonSlug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// ReportPath is where a person's dated exposure report lands.
func ReportPath(reportsDir, personName string, date time.Time) string {
	return filepath.Join(reportsDir, fmt.Sprintf("%s-%s.md", date.Format("2006-01-02"), PersonSlug(personName)))
}

// WriteReport writes a rendered report, creating the reports directory as
// needed.
func WriteReport(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("schedule: reports dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("schedule: write report: %w", err)
	}
	return nil
}
