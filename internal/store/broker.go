package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/privacyops/footprint/internal/db"
)

// gormBrokerStore is the GORM implementation of BrokerStore.
type gormBrokerStore struct {
	db *gorm.DB
}

// UpsertBySlug inserts the broker or, when the slug already exists,
// replaces every attribute of the existing row. The broker's ID is
// populated from the stored row either way.
func (s *gormBrokerStore) UpsertBySlug(ctx context.Context, broker *db.Broker) error {
	if broker.OptOutSteps == nil {
		broker.OptOutSteps = db.JSONList{}
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "url", "category",
			"opt_out_method", "opt_out_url", "opt_out_email",
			"opt_out_phone", "opt_out_mail_address", "opt_out_steps",
			"search_url_pattern",
			"difficulty", "automatable", "recheck_days",
			"ccpa_compliant", "gdpr_compliant", "notes", "loaded_at",
		}),
	}).Create(broker).Error
	if err != nil {
		return fmt.Errorf("brokers: upsert %q: %w", broker.Slug, err)
	}

	// On conflict the insert does not report the surviving row's id.
	if broker.ID == 0 {
		stored, err := s.GetBySlug(ctx, broker.Slug)
		if err != nil {
			return err
		}
		broker.ID = stored.ID
	}
	return nil
}

// GetByID retrieves a broker. Returns ErrNotFound if no record exists.
func (s *gormBrokerStore) GetByID(ctx context.Context, id int64) (*db.Broker, error) {
	var broker db.Broker
	err := s.db.WithContext(ctx).First(&broker, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("brokers: get by id: %w", err)
	}
	return &broker, nil
}

// GetBySlug retrieves a broker by its unique slug.
func (s *gormBrokerStore) GetBySlug(ctx context.Context, slug string) (*db.Broker, error) {
	var broker db.Broker
	err := s.db.WithContext(ctx).First(&broker, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("brokers: get by slug %q: %w", slug, err)
	}
	return &broker, nil
}

// List returns brokers matching the filter, ordered by name.
func (s *gormBrokerStore) List(ctx context.Context, filter BrokerFilter) ([]db.Broker, error) {
	query := s.db.WithContext(ctx).Model(&db.Broker{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.Automatable != nil {
		query = query.Where("automatable = ?", *filter.Automatable)
	}

	var brokers []db.Broker
	if err := query.Order("name ASC").Find(&brokers).Error; err != nil {
		return nil, fmt.Errorf("brokers: list: %w", err)
	}
	return brokers, nil
}

// Stats aggregates the registry by category, difficulty and opt-out method.
func (s *gormBrokerStore) Stats(ctx context.Context) (*BrokerStats, error) {
	stats := &BrokerStats{
		ByCategory:   map[string]int64{},
		ByDifficulty: map[string]int64{},
		ByMethod:     map[string]int64{},
	}

	if err := s.db.WithContext(ctx).Model(&db.Broker{}).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("brokers: stats total: %w", err)
	}

	type bucket struct {
		Key   string
		Count int64
	}

	var byCategory []bucket
	if err := s.db.WithContext(ctx).Model(&db.Broker{}).
		Select("category AS key, COUNT(*) AS count").
		Group("category").Scan(&byCategory).Error; err != nil {
		return nil, fmt.Errorf("brokers: stats by category: %w", err)
	}
	for _, b := range byCategory {
		stats.ByCategory[b.Key] = b.Count
	}

	var byDifficulty []bucket
	if err := s.db.WithContext(ctx).Model(&db.Broker{}).
		Select("difficulty AS key, COUNT(*) AS count").
		Group("difficulty").Scan(&byDifficulty).Error; err != nil {
		return nil, fmt.Errorf("brokers: stats by difficulty: %w", err)
	}
	for _, b := range byDifficulty {
		stats.ByDifficulty[b.Key] = b.Count
	}

	var byMethod []bucket
	if err := s.db.WithContext(ctx).Model(&db.Broker{}).
		Select("opt_out_method AS key, COUNT(*) AS count").
		Where("opt_out_method <> ''").
		Group("opt_out_method").Scan(&byMethod).Error; err != nil {
		return nil, fmt.Errorf("brokers: stats by method: %w", err)
	}
	for _, b := range byMethod {
		stats.ByMethod[b.Key] = b.Count
	}

	if err := s.db.WithContext(ctx).Model(&db.Broker{}).
		Where("automatable = ?", true).
		Count(&stats.Automatable).Error; err != nil {
		return nil, fmt.Errorf("brokers: stats automatable: %w", err)
	}

	return stats, nil
}
