package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/privacyops/footprint/internal/db"
)

// gormBreachStore is the GORM implementation of BreachStore.
type gormBreachStore struct {
	db *gorm.DB
}

func (s *gormBreachStore) Create(ctx context.Context, breach *db.Breach) error {
	if breach.DataTypes == nil {
		breach.DataTypes = db.JSONList{}
	}
	if err := s.db.WithContext(ctx).Create(breach).Error; err != nil {
		return fmt.Errorf("breaches: create: %w", err)
	}
	return nil
}

func (s *gormBreachStore) ListByPerson(ctx context.Context, personID int64) ([]db.Breach, error) {
	var breaches []db.Breach
	err := s.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Order("id ASC").
		Find(&breaches).Error
	if err != nil {
		return nil, fmt.Errorf("breaches: list by person: %w", err)
	}
	return breaches, nil
}

func (s *gormBreachStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.Breach{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("breaches: count: %w", err)
	}
	return count, nil
}
