package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/privacyops/footprint/internal/db"
)

// gormPersonStore is the GORM implementation of PersonStore.
type gormPersonStore struct {
	db *gorm.DB
}

// Create inserts a new person. List fields default to empty lists so the
// stored columns are never NULL.
func (s *gormPersonStore) Create(ctx context.Context, person *db.Person) error {
	normalizeLists(person)
	if err := s.db.WithContext(ctx).Create(person).Error; err != nil {
		return fmt.Errorf("persons: create: %w", err)
	}
	return nil
}

// GetByID retrieves a person. Returns ErrNotFound if no record exists.
func (s *gormPersonStore) GetByID(ctx context.Context, id int64) (*db.Person, error) {
	var person db.Person
	err := s.db.WithContext(ctx).First(&person, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("persons: get by id: %w", err)
	}
	return &person, nil
}

// List returns all persons ordered by id.
func (s *gormPersonStore) List(ctx context.Context) ([]db.Person, error) {
	var persons []db.Person
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&persons).Error; err != nil {
		return nil, fmt.Errorf("persons: list: %w", err)
	}
	return persons, nil
}

// Update persists all fields of an existing person. GORM refreshes
// updated_at on save.
func (s *gormPersonStore) Update(ctx context.Context, person *db.Person) error {
	normalizeLists(person)
	result := s.db.WithContext(ctx).Save(person)
	if result.Error != nil {
		return fmt.Errorf("persons: update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeLists(person *db.Person) {
	if person.Emails == nil {
		person.Emails = db.JSONList{}
	}
	if person.Phones == nil {
		person.Phones = db.JSONList{}
	}
	if person.Addresses == nil {
		person.Addresses = db.JSONList{}
	}
	if person.Usernames == nil {
		person.Usernames = db.JSONList{}
	}
}
