package cache

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/rasconsole/internal/models"
)

// DatabaseStore implements Store on top of the gorm state database.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore constructs a database-backed Store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	if db == nil {
		return nil
	}
	return &DatabaseStore{db: db}
}

// Get retrieves the raw value stored under namespace/key.
func (s *DatabaseStore) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, ErrUnavailable
	}

	var entry models.UIStateEntry
	err := s.db.WithContext(ensureContext(ctx)).
		Take(&entry, "namespace = ? AND entry_key = ?", namespace, key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return []byte(entry.Value), true, nil
}

// Set upserts the value for namespace/key, replacing any previous value entirely.
func (s *DatabaseStore) Set(ctx context.Context, namespace, key string, value []byte) error {
	if s == nil {
		return ErrUnavailable
	}

	entry := models.UIStateEntry{
		Namespace: namespace,
		Key:       key,
		Value:     datatypes.JSON(value),
	}

	return s.db.WithContext(ensureContext(ctx)).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entry).Error
}

// Delete removes keys from a namespace.
func (s *DatabaseStore) Delete(ctx context.Context, namespace string, keys ...string) error {
	if s == nil {
		return ErrUnavailable
	}
	if len(keys) == 0 {
		return nil
	}

	return s.db.WithContext(ensureContext(ctx)).
		Where("namespace = ? AND entry_key IN ?", namespace, keys).
		Delete(&models.UIStateEntry{}).Error
}

// List returns every entry of a namespace.
func (s *DatabaseStore) List(ctx context.Context, namespace string) (map[string][]byte, error) {
	if s == nil {
		return nil, ErrUnavailable
	}

	var entries []models.UIStateEntry
	if err := s.db.WithContext(ensureContext(ctx)).
		Where("namespace = ?", namespace).
		Order("entry_key ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		out[entry.Key] = []byte(entry.Value)
	}
	return out, nil
}
