package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/privacyops/footprint/internal/db"
)

// Stores bundles all entity stores over a single database connection.
type Stores struct {
	Persons  PersonStore
	Brokers  BrokerStore
	Findings FindingStore
	Removals RemovalStore
	Breaches BreachStore
	Runs     RunStore

	gorm *gorm.DB
}

// New returns Stores backed by the provided *gorm.DB.
func New(database *gorm.DB) *Stores {
	return &Stores{
		Persons:  &gormPersonStore{db: database},
		Brokers:  &gormBrokerStore{db: database},
		Findings: &gormFindingStore{db: database},
		Removals: &gormRemovalStore{db: database},
		Breaches: &gormBreachStore{db: database},
		Runs:     &gormRunStore{db: database},
		gorm:     database,
	}
}

// Status computes the aggregate status view: entity counts, findings and
// removals broken down by status, and the last scan timestamp.
func (s *Stores) Status(ctx context.Context) (*EngineStatus, error) {
	status := &EngineStatus{
		Findings: map[string]int64{},
		Removals: map[string]int64{},
	}

	if err := s.gorm.WithContext(ctx).Model(&db.Person{}).Count(&status.Persons).Error; err != nil {
		return nil, fmt.Errorf("store: count persons: %w", err)
	}
	if err := s.gorm.WithContext(ctx).Model(&db.Broker{}).Count(&status.Brokers).Error; err != nil {
		return nil, fmt.Errorf("store: count brokers: %w", err)
	}

	var findingRows []statusCount
	if err := s.gorm.WithContext(ctx).Model(&db.Finding{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&findingRows).Error; err != nil {
		return nil, fmt.Errorf("store: count findings by status: %w", err)
	}
	for _, row := range findingRows {
		status.Findings[row.Status] = row.Count
	}

	var removalRows []statusCount
	if err := s.gorm.WithContext(ctx).Model(&db.Removal{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&removalRows).Error; err != nil {
		return nil, fmt.Errorf("store: count removals by status: %w", err)
	}
	for _, row := range removalRows {
		status.Removals[row.Status] = row.Count
	}

	var err error
	if status.Breaches, err = s.Breaches.Count(ctx); err != nil {
		return nil, err
	}
	if status.LastScan, err = s.Runs.LastScanStartedAt(ctx); err != nil {
		return nil, err
	}

	return status, nil
}

type statusCount struct {
	Status string
	Count  int64
}
