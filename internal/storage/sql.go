package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slotRow is one named slot in the storage_slots table.
type slotRow struct {
	Key       string `gorm:"column:slot_key;primaryKey;size:128"`
	Data      string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (slotRow) TableName() string { return "storage_slots" }

type SQLSlot struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*SQLSlot, error) {
	return openSQL(postgres.Open(dsn))
}

func OpenSQLite(path string) (*SQLSlot, error) {
	return openSQL(sqlite.Open(path))
}

func openSQL(dialector gorm.Dialector) (*SQLSlot, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&slotRow{}); err != nil {
		return nil, fmt.Errorf("migrate storage_slots: %w", err)
	}
	return &SQLSlot{db: db}, nil
}

func (s *SQLSlot) Load(ctx context.Context, key string) ([]byte, error) {
	var row slotRow
	if err := s.db.WithContext(ctx).First(&row, "slot_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(row.Data), nil
}

func (s *SQLSlot) Save(ctx context.Context, key string, data []byte) error {
	row := slotRow{Key: key, Data: string(data)}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *SQLSlot) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
