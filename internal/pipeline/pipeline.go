// Package pipeline composes the discovery stages into a single per-person
// protection run, and alerts on finding deltas between scheduled runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/db"
	"github.com/privacyops/footprint/internal/metrics"
	"github.com/privacyops/footprint/internal/report"
	"github.com/privacyops/footprint/internal/scanners"
	"github.com/privacyops/footprint/internal/store"
)

// BreachScanner is the pipeline's view of the breach checks.
type BreachScanner interface {
	Scan(ctx context.Context, email string) (*scanners.BreachReport, error)
}

// DarkWebScanner is the pipeline's view of the paste/Ahmia/holehe checks.
type DarkWebScanner interface {
	Scan(ctx context.Context, email string) (*scanners.DarkWebScan, error)
}

// Result is the outcome of one protection run, including the rendered
// exposure report.
type Result struct {
	PersonID        int64      `json:"person_id"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Status          string     `json:"status"`
	BreachesFound   int        `json:"breaches_found"`
	DarkWebFindings int        `json:"dark_web_findings"`
	AccountsFound   int        `json:"accounts_found"`
	RiskScore       int        `json:"risk_score"`
	Report          string     `json:"report,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// Pipeline runs the full protection sequence for one person.
type Pipeline struct {
	stores   *store.Stores
	breaches BreachScanner
	darkWeb  DarkWebScanner
	logger   *zap.Logger
	now      func() time.Time
}

// New wires the pipeline over the store and scanners.
func New(stores *store.Stores, breaches BreachScanner, darkWeb DarkWebScanner, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		stores:   stores,
		breaches: breaches,
		darkWeb:  darkWeb,
		logger:   logger.Named("pipeline"),
		now:      time.Now,
	}
}

// ProtectPerson runs all discovery stages for a person in declared order:
// breach checks per email, dark-web checks per email, stored-username
// count, then the exposure report. Scanner failures for one email log and
// contribute nothing; the run still completes. The pipeline-run row is
// created in "running" before any scan and updated with the terminal
// counters after.
func (p *Pipeline) ProtectPerson(ctx context.Context, personID int64) (*Result, error) {
	started := p.now().UTC()

	person, err := p.stores.Persons.GetByID(ctx, personID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			completed := p.now().UTC()
			return &Result{
				PersonID:    personID,
				StartedAt:   started,
				CompletedAt: &completed,
				Status:      "error",
				Error:       fmt.Sprintf("Person %d not found", personID),
			}, nil
		}
		return nil, err
	}

	run := &db.PipelineRun{PersonID: personID, StartedAt: started, Status: "running"}
	if err := p.stores.Runs.CreatePipelineRun(ctx, run); err != nil {
		return nil, err
	}

	breachTotals := &scanners.BreachReport{
		HIBPBreaches:    []scanners.HIBPBreach{},
		DehashedRecords: []scanners.DehashedRecord{},
	}
	darkWebTotals := &scanners.DarkWebScan{
		Pastes:   []scanners.Paste{},
		Ahmia:    []scanners.AhmiaResult{},
		Accounts: []scanners.HoleheAccount{},
	}

	for _, email := range person.Emails {
		rep, err := p.breaches.Scan(ctx, email)
		if err != nil {
			p.logger.Error("breach check failed", zap.String("email", email), zap.Error(err))
			continue
		}
		breachTotals.HIBPBreaches = append(breachTotals.HIBPBreaches, rep.HIBPBreaches...)
		breachTotals.DehashedRecords = append(breachTotals.DehashedRecords, rep.DehashedRecords...)
	}

	for _, email := range person.Emails {
		scan, err := p.darkWeb.Scan(ctx, email)
		if err != nil {
			p.logger.Error("dark web scan failed", zap.String("email", email), zap.Error(err))
			continue
		}
		darkWebTotals.Pastes = append(darkWebTotals.Pastes, scan.Pastes...)
		darkWebTotals.Ahmia = append(darkWebTotals.Ahmia, scan.Ahmia...)
		darkWebTotals.Accounts = append(darkWebTotals.Accounts, scan.Accounts...)
	}

	metrics.FindingsDiscovered.WithLabelValues("breach").Add(float64(breachTotals.Total()))
	metrics.FindingsDiscovered.WithLabelValues("darkweb").Add(float64(darkWebTotals.Total()))

	// The pipeline does not re-run maigret; the stored username count
	// stands in for account discovery, which is its own heavy job.
	accountsFound := len(person.Usernames)

	accounts := make([]scanners.UsernameAccount, 0, accountsFound)
	for _, username := range person.Usernames {
		accounts = append(accounts, scanners.UsernameAccount{SiteName: username, Tags: []string{}})
	}
	input := &report.Input{
		PersonName: person.Name,
		Breaches:   breachTotals,
		Pastes:     darkWebTotals.Pastes,
		Accounts:   accounts,
	}
	rendered := report.Render(input, p.now())

	// Account rows stand in for stored usernames, not scanned findings;
	// score only what the scanners actually saw.
	var levels []string
	for _, b := range breachTotals.HIBPBreaches {
		levels = append(levels, b.Severity())
	}
	for _, r := range breachTotals.DehashedRecords {
		levels = append(levels, r.Severity())
	}
	for _, paste := range darkWebTotals.Pastes {
		levels = append(levels, paste.Severity())
	}
	riskScore := report.ComputeRiskScore(levels)

	completed := p.now().UTC()
	run.Status = "completed"
	run.CompletedAt = &completed
	run.BreachesFound = breachTotals.Total()
	run.DarkWebFindings = darkWebTotals.Total()
	run.AccountsFound = accountsFound
	run.RiskScore = riskScore
	if err := p.stores.Runs.UpdatePipelineRun(ctx, run); err != nil {
		return nil, err
	}

	p.logger.Info("protection run complete",
		zap.Int64("person_id", personID),
		zap.Int("breaches", run.BreachesFound),
		zap.Int("dark_web", run.DarkWebFindings),
		zap.Int("risk_score", riskScore),
	)
	return &Result{
		PersonID:        personID,
		StartedAt:       started,
		CompletedAt:     &completed,
		Status:          "completed",
		BreachesFound:   run.BreachesFound,
		DarkWebFindings: run.DarkWebFindings,
		AccountsFound:   accountsFound,
		RiskScore:       riskScore,
		Report:          rendered,
	}, nil
}
