package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/db"
	"github.com/privacyops/footprint/internal/metrics"
	"github.com/privacyops/footprint/internal/pipeline"
	"github.com/privacyops/footprint/internal/report"
	"github.com/privacyops/footprint/internal/scanners"
)

// JobSet builds the four standard job functions over their collaborators.
// VerifyDue decouples the verifier: it reports the per-outcome counts of
// one verification pass.
type JobSet struct {
	Scheduler  *Scheduler
	Breaches   pipeline.BreachScanner
	DarkWeb    pipeline.DarkWebScanner
	VerifyDue  func(ctx context.Context, now time.Time) (checked, confirmed, stillFound, failed, skipped int, err error)
	Alerter    *pipeline.Alerter
	ReportsDir string
	Logger     *zap.Logger
	Now        func() time.Time
}

// Funcs returns the job-name to function map for the scheduler.
func (j *JobSet) Funcs() map[string]JobFunc {
	if j.Now == nil {
		j.Now = time.Now
	}
	return map[string]JobFunc{
		"breach_recheck":   j.breachRecheck,
		"dark_web_monitor": j.darkWebMonitor,
		"verify_removals":  j.verifyRemovals,
		"generate_report":  j.generateReport,
	}
}

// breachRecheck re-runs the breach scanner on the first email of every
// person that has one, then alerts per person on a strict count increase
// over the previous run.
func (j *JobSet) breachRecheck(ctx context.Context) (*JobResult, error) {
	logger := j.Logger.Named("job.breach_recheck")
	previous := j.Scheduler.PreviousCount(ctx, "breach_recheck")

	persons, err := j.Scheduler.stores.Persons.List(ctx)
	if err != nil {
		return nil, err
	}

	checked := 0
	totalNew := 0
	for i := range persons {
		email := persons[i].Emails.First()
		if email == "" {
			continue
		}
		checked++
		rep, err := j.Breaches.Scan(ctx, email)
		if err != nil {
			logger.Error("breach check failed", zap.String("email", email), zap.Error(err))
			metrics.ScanErrors.WithLabelValues("breach").Inc()
			continue
		}
		totalNew += rep.Total()
		if j.Alerter.CheckAndAlert(ctx, "breach_recheck", rep.Total(), previous, persons[i].Name) {
			metrics.AlertsSent.Inc()
		}
	}

	return &JobResult{
		Status: "success",
		Details: map[string]any{
			"persons_checked": checked,
			"new_count":       totalNew,
		},
	}, nil
}

// darkWebMonitor is the dark-web analogue of breachRecheck.
func (j *JobSet) darkWebMonitor(ctx context.Context) (*JobResult, error) {
	logger := j.Logger.Named("job.dark_web_monitor")
	previous := j.Scheduler.PreviousCount(ctx, "dark_web_monitor")

	persons, err := j.Scheduler.stores.Persons.List(ctx)
	if err != nil {
		return nil, err
	}

	checked := 0
	totalNew := 0
	for i := range persons {
		email := persons[i].Emails.First()
		if email == "" {
			continue
		}
		checked++
		scan, err := j.DarkWeb.Scan(ctx, email)
		if err != nil {
			logger.Error("dark web scan failed", zap.String("email", email), zap.Error(err))
			metrics.ScanErrors.WithLabelValues("darkweb").Inc()
			continue
		}
		totalNew += scan.Total()
		if j.Alerter.CheckAndAlert(ctx, "dark_web_monitor", scan.Total(), previous, persons[i].Name) {
			metrics.AlertsSent.Inc()
		}
	}

	return &JobResult{
		Status: "success",
		Details: map[string]any{
			"persons_checked": checked,
			"new_count":       totalNew,
		},
	}, nil
}

// verifyRemovals processes the verification queue. With nothing due the
// run records skipped.
func (j *JobSet) verifyRemovals(ctx context.Context) (*JobResult, error) {
	checked, confirmed, stillFound, failed, skipped, err := j.VerifyDue(ctx, j.Now())
	if err != nil {
		return nil, err
	}

	if checked == 0 && skipped == 0 {
		return &JobResult{
			Status: "skipped",
			Details: map[string]any{
				"pending_count": 0,
				"message":       "No removals due for verification",
			},
		}, nil
	}
	return &JobResult{
		Status: "success",
		Details: map[string]any{
			"pending_count": checked + skipped,
			"confirmed":     confirmed,
			"still_found":   stillFound,
			"failed":        failed,
		},
	}, nil
}

// generateReport writes a dated exposure report per person from the
// accumulated store state.
func (j *JobSet) generateReport(ctx context.Context) (*JobResult, error) {
	logger := j.Logger.Named("job.generate_report")
	persons, err := j.Scheduler.stores.Persons.List(ctx)
	if err != nil {
		return nil, err
	}

	now := j.Now()
	written := 0
	for i := range persons {
		breaches, err := j.Scheduler.stores.Breaches.ListByPerson(ctx, persons[i].ID)
		if err != nil {
			return nil, err
		}

		in := &report.Input{
			PersonName: persons[i].Name,
			Breaches:   breachInput(breaches),
		}
		path := ReportPath(j.ReportsDir, persons[i].Name, now)
		if err := WriteReport(path, report.Render(in, now)); err != nil {
			return nil, err
		}
		logger.Info("report written", zap.String("path", path))
		written++
	}

	return &JobResult{
		Status:  "success",
		Details: map[string]any{"persons_reported": written},
	}, nil
}

// breachInput maps stored HIBP breach rows back into the reporter's shape.
// DeHashed and paste rows only carry severity, which the report derives
// from data classes, so only hibp rows round-trip fully.
func breachInput(rows []db.Breach) *scanners.BreachReport {
	rep := &scanners.BreachReport{
		HIBPBreaches:    []scanners.HIBPBreach{},
		DehashedRecords: []scanners.DehashedRecord{},
	}
	for _, row := range rows {
		if row.Source != "hibp" {
			continue
		}
		rep.HIBPBreaches = append(rep.HIBPBreaches, scanners.HIBPBreach{
			Name:        row.BreachName,
			BreachDate:  row.BreachDate,
			DataClasses: []string(row.DataTypes),
		})
	}
	return rep
}
