package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/privacyops/footprint/internal/db"
)

// gormRunStore is the GORM implementation of RunStore.
type gormRunStore struct {
	db *gorm.DB
}

// --- Pipeline runs ---

func (s *gormRunStore) CreatePipelineRun(ctx context.Context, run *db.PipelineRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("runs: create pipeline run: %w", err)
	}
	return nil
}

func (s *gormRunStore) UpdatePipelineRun(ctx context.Context, run *db.PipelineRun) error {
	result := s.db.WithContext(ctx).Save(run)
	if result.Error != nil {
		return fmt.Errorf("runs: update pipeline run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormRunStore) GetPipelineRun(ctx context.Context, id int64) (*db.PipelineRun, error) {
	var run db.PipelineRun
	err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("runs: get pipeline run: %w", err)
	}
	return &run, nil
}

func (s *gormRunStore) ListPipelineRunsByPerson(ctx context.Context, personID int64) ([]db.PipelineRun, error) {
	var runs []db.PipelineRun
	err := s.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Order("started_at DESC").
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("runs: list pipeline runs: %w", err)
	}
	return runs, nil
}

// --- Scheduled runs ---

func (s *gormRunStore) CreateScheduledRun(ctx context.Context, run *db.ScheduledRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("runs: create scheduled run: %w", err)
	}
	return nil
}

func (s *gormRunStore) UpdateScheduledRun(ctx context.Context, run *db.ScheduledRun) error {
	result := s.db.WithContext(ctx).Save(run)
	if result.Error != nil {
		return fmt.Errorf("runs: update scheduled run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormRunStore) GetScheduledRun(ctx context.Context, id int64) (*db.ScheduledRun, error) {
	var run db.ScheduledRun
	err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("runs: get scheduled run: %w", err)
	}
	return &run, nil
}

// LastRun returns the most recently started run of a job. A row still in
// "running" state counts; intervals are computed from started_at, so a
// crashed invocation does not make a job permanently overdue.
func (s *gormRunStore) LastRun(ctx context.Context, jobName string) (*db.ScheduledRun, error) {
	var run db.ScheduledRun
	err := s.db.WithContext(ctx).
		Where("job_name = ?", jobName).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("runs: last run of %q: %w", jobName, err)
	}
	return &run, nil
}

func (s *gormRunStore) LastCompletedRun(ctx context.Context, jobName string) (*db.ScheduledRun, error) {
	var run db.ScheduledRun
	err := s.db.WithContext(ctx).
		Where("job_name = ? AND status <> ?", jobName, "running").
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("runs: last completed run of %q: %w", jobName, err)
	}
	return &run, nil
}

func (s *gormRunStore) History(ctx context.Context, limit int) ([]db.ScheduledRun, error) {
	if limit <= 0 {
		limit = 10
	}
	var runs []db.ScheduledRun
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("runs: history: %w", err)
	}
	return runs, nil
}

// --- Scan runs ---

func (s *gormRunStore) CreateScanRun(ctx context.Context, run *db.ScanRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("runs: create scan run: %w", err)
	}
	return nil
}

func (s *gormRunStore) UpdateScanRun(ctx context.Context, run *db.ScanRun) error {
	result := s.db.WithContext(ctx).Save(run)
	if result.Error != nil {
		return fmt.Errorf("runs: update scan run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormRunStore) LastScanStartedAt(ctx context.Context) (*time.Time, error) {
	var run db.ScanRun
	err := s.db.WithContext(ctx).Order("started_at DESC").First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("runs: last scan: %w", err)
	}
	t := run.StartedAt
	return &t, nil
}
