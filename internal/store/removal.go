package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/privacyops/footprint/internal/db"
)

// gormRemovalStore is the GORM implementation of RemovalStore.
type gormRemovalStore struct {
	db *gorm.DB
}

func (s *gormRemovalStore) Create(ctx context.Context, removal *db.Removal) error {
	if err := s.db.WithContext(ctx).Create(removal).Error; err != nil {
		return fmt.Errorf("removals: create: %w", err)
	}
	return nil
}

func (s *gormRemovalStore) GetByID(ctx context.Context, id int64) (*db.Removal, error) {
	var removal db.Removal
	err := s.db.WithContext(ctx).First(&removal, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("removals: get by id: %w", err)
	}
	return &removal, nil
}

func (s *gormRemovalStore) ListByPerson(ctx context.Context, personID int64) ([]db.Removal, error) {
	var removals []db.Removal
	err := s.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Order("id ASC").
		Find(&removals).Error
	if err != nil {
		return nil, fmt.Errorf("removals: list by person: %w", err)
	}
	return removals, nil
}

func (s *gormRemovalStore) Update(ctx context.Context, removal *db.Removal) error {
	result := s.db.WithContext(ctx).Save(removal)
	if result.Error != nil {
		return fmt.Errorf("removals: update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PendingVerifications returns the verification queue: removals awaiting a
// re-check whose check time is due, oldest due first. A still_found removal
// is in the same bucket as a submitted one, a new check is simply due.
func (s *gormRemovalStore) PendingVerifications(ctx context.Context, now time.Time) ([]db.Removal, error) {
	var removals []db.Removal
	err := s.db.WithContext(ctx).
		Where("status IN ? AND next_check_at IS NOT NULL AND next_check_at <= ?", []string{"submitted", "still_found"}, now).
		Order("next_check_at ASC").
		Find(&removals).Error
	if err != nil {
		return nil, fmt.Errorf("removals: pending verifications: %w", err)
	}
	return removals, nil
}

func (s *gormRemovalStore) StatusCounts(ctx context.Context, personID int64) (map[string]int64, error) {
	var rows []statusCount
	err := s.db.WithContext(ctx).Model(&db.Removal{}).
		Select("status, COUNT(*) AS count").
		Where("person_id = ?", personID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("removals: status counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
