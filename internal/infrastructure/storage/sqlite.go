package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/storage"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// keyedRecord is one keyed JSON document. The ledger and the stash each
// live under a single key, matching the browser-profile storage model the
// portal started from.
type keyedRecord struct {
	Key       string `gorm:"primaryKey;column:key;size:100"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (keyedRecord) TableName() string {
	return "keyed_records"
}

// SQLiteStore is the durable single-profile KVStore backend.
type SQLiteStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the database file and migrates the
// keyed-record table.
func NewSQLiteStore(path string, log *zap.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}

	if err := db.AutoMigrate(&keyedRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite store: %w", err)
	}

	log.Info("SQLite store opened", zap.String("path", path))

	return &SQLiteStore{db: db, logger: log}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var record keyedRecord
	err := s.db.WithContext(ctx).First(&record, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return record.Value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	record := keyedRecord{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&keyedRecord{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close sqlite store: %w", err)
	}
	s.logger.Info("SQLite store closed")
	return nil
}
