// Package store is the persistence layer of the footprint engine. It owns
// every entity's durable form: in-memory values handed out by Get/List are
// read-only snapshots, and all mutation goes through a store method that
// writes and commits. Implementations are backed by GORM; missing records
// surface as ErrNotFound, checked with errors.Is.
package store

import (
	"context"
	"time"

	"github.com/privacyops/footprint/internal/db"
)

// PersonStore manages protected persons.
type PersonStore interface {
	Create(ctx context.Context, person *db.Person) error
	GetByID(ctx context.Context, id int64) (*db.Person, error)
	List(ctx context.Context) ([]db.Person, error)
	Update(ctx context.Context, person *db.Person) error
}

// BrokerFilter narrows List results. Nil/empty fields match everything.
type BrokerFilter struct {
	Category    string
	Difficulty  string
	Automatable *bool
}

// BrokerStats is the aggregate view over the broker registry.
type BrokerStats struct {
	Total        int64            `json:"total"`
	ByCategory   map[string]int64 `json:"by_category"`
	ByDifficulty map[string]int64 `json:"by_difficulty"`
	ByMethod     map[string]int64 `json:"by_method"`
	Automatable  int64            `json:"automatable"`
}

// BrokerStore manages broker definitions. Upserts are keyed by slug so
// reloading a YAML directory is idempotent.
type BrokerStore interface {
	UpsertBySlug(ctx context.Context, broker *db.Broker) error
	GetByID(ctx context.Context, id int64) (*db.Broker, error)
	GetBySlug(ctx context.Context, slug string) (*db.Broker, error)
	List(ctx context.Context, filter BrokerFilter) ([]db.Broker, error)
	Stats(ctx context.Context) (*BrokerStats, error)
}

// FindingStore manages discovered exposures.
type FindingStore interface {
	Create(ctx context.Context, finding *db.Finding) error
	GetByID(ctx context.Context, id int64) (*db.Finding, error)
	ListByPerson(ctx context.Context, personID int64) ([]db.Finding, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// RemovalStore manages opt-out requests and their verification queue.
type RemovalStore interface {
	Create(ctx context.Context, removal *db.Removal) error
	GetByID(ctx context.Context, id int64) (*db.Removal, error)
	ListByPerson(ctx context.Context, personID int64) ([]db.Removal, error)
	Update(ctx context.Context, removal *db.Removal) error

	// PendingVerifications returns removals with status "submitted" or
	// "still_found" whose next_check_at is at or before now, ordered by
	// next_check_at ascending.
	PendingVerifications(ctx context.Context, now time.Time) ([]db.Removal, error)

	// StatusCounts returns the number of removals per status for a person.
	StatusCounts(ctx context.Context, personID int64) (map[string]int64, error)
}

// BreachStore manages credential-breach records.
type BreachStore interface {
	Create(ctx context.Context, breach *db.Breach) error
	ListByPerson(ctx context.Context, personID int64) ([]db.Breach, error)
	Count(ctx context.Context) (int64, error)
}

// RunStore manages the append-only run records. Updates only ever fill the
// terminal columns of an existing row.
type RunStore interface {
	CreatePipelineRun(ctx context.Context, run *db.PipelineRun) error
	UpdatePipelineRun(ctx context.Context, run *db.PipelineRun) error
	GetPipelineRun(ctx context.Context, id int64) (*db.PipelineRun, error)
	ListPipelineRunsByPerson(ctx context.Context, personID int64) ([]db.PipelineRun, error)

	CreateScheduledRun(ctx context.Context, run *db.ScheduledRun) error
	UpdateScheduledRun(ctx context.Context, run *db.ScheduledRun) error
	GetScheduledRun(ctx context.Context, id int64) (*db.ScheduledRun, error)

	// LastRun returns the most recently started run of a job, regardless of
	// its terminal status. ErrNotFound when the job never ran.
	LastRun(ctx context.Context, jobName string) (*db.ScheduledRun, error)

	// LastCompletedRun is LastRun restricted to runs that reached a
	// terminal status, for reading the previous run's details while the
	// current run's row already exists in "running".
	LastCompletedRun(ctx context.Context, jobName string) (*db.ScheduledRun, error)

	// History returns the most recent runs across all jobs, newest first.
	History(ctx context.Context, limit int) ([]db.ScheduledRun, error)

	CreateScanRun(ctx context.Context, run *db.ScanRun) error
	UpdateScanRun(ctx context.Context, run *db.ScanRun) error
	LastScanStartedAt(ctx context.Context) (*time.Time, error)
}

// EngineStatus is the aggregate status view over the whole store.
type EngineStatus struct {
	Persons  int64            `json:"persons"`
	Brokers  int64            `json:"brokers"`
	Findings map[string]int64 `json:"findings"`
	Removals map[string]int64 `json:"removals"`
	Breaches int64            `json:"breaches"`
	LastScan *time.Time       `json:"last_scan,omitempty"`
}
