package durablestore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// GormStore is the gorm-backed Store, the client-side equivalent of the
// teacher's Postgres persistence layer: one `gorm.Open` at boot, one
// `AutoMigrate`, plain `db.Where(...).First/.Save` calls thereafter — but
// against `github.com/glebarez/sqlite`, a pure-Go driver with no cgo
// dependency, since this wallet runs embedded rather than as a server
// with its own Postgres instance.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if necessary) a sqlite database at path and
// runs the migration for the durable_records table.
func OpenSQLite(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Save(ctx context.Context, namespace, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	row := record{
		Namespace: namespace,
		Key:       key,
		Value:     string(raw),
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *GormStore) Load(ctx context.Context, namespace, key string, out any) (bool, error) {
	var row record
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", namespace, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(row.Value), out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *GormStore) Delete(ctx context.Context, namespace, key string) error {
	return s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", namespace, key).
		Delete(&record{}).Error
}

func (s *GormStore) List(ctx context.Context, namespace string, newOut func() any) (map[string]any, error) {
	var rows []record
	if err := s.db.WithContext(ctx).Where("namespace = ?", namespace).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]any, len(rows))
	for _, row := range rows {
		v := newOut()
		if err := json.Unmarshal([]byte(row.Value), v); err != nil {
			return nil, err
		}
		out[row.Key] = v
	}
	return out, nil
}
