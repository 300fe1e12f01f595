package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/privacyops/footprint/internal/db"
)

// gormFindingStore is the GORM implementation of FindingStore.
type gormFindingStore struct {
	db *gorm.DB
}

func (s *gormFindingStore) Create(ctx context.Context, finding *db.Finding) error {
	if err := s.db.WithContext(ctx).Create(finding).Error; err != nil {
		return fmt.Errorf("findings: create: %w", err)
	}
	return nil
}

func (s *gormFindingStore) GetByID(ctx context.Context, id int64) (*db.Finding, error) {
	var finding db.Finding
	err := s.db.WithContext(ctx).First(&finding, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("findings: get by id: %w", err)
	}
	return &finding, nil
}

func (s *gormFindingStore) ListByPerson(ctx context.Context, personID int64) ([]db.Finding, error) {
	var findings []db.Finding
	err := s.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Order("id ASC").
		Find(&findings).Error
	if err != nil {
		return nil, fmt.Errorf("findings: list by person: %w", err)
	}
	return findings, nil
}

// UpdateStatus moves a finding along active -> removal_pending -> removed.
func (s *gormFindingStore) UpdateStatus(ctx context.Context, id int64, status string) error {
	result := s.db.WithContext(ctx).Model(&db.Finding{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("findings: update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
