package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Sternrassler/photo-fetcher/pkg/photo"
)

const backendSQLite = "sqlite"

// cachedPhoto is one row of the cached page.
type cachedPhoto struct {
	Position    int    `gorm:"primaryKey;autoIncrement:false"`
	ID          string `gorm:"type:text;not null"`
	Author      string `gorm:"type:text;not null"`
	URL         string `gorm:"type:text;not null"`
	DownloadURL string `gorm:"type:text;not null"`
}

func (cachedPhoto) TableName() string { return "cached_photos" }

// kvEntry is one named value.
type kvEntry struct {
	Name  string `gorm:"type:text;primaryKey"`
	Value []byte `gorm:"not null"`
}

func (kvEntry) TableName() string { return "kv_entries" }

// OpenSQLite opens (creating if needed) the SQLite database at path and
// migrates the tables used by SQLiteStore and SQLiteKV. Use ":memory:"
// for a throwaway database.
func OpenSQLite(path string) (*gorm.DB, error) {
	if path != ":memory:" && path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql.DB instance: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	} else {
		db.Exec("PRAGMA journal_mode=WAL")
	}

	if err := db.AutoMigrate(&cachedPhoto{}, &kvEntry{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return db, nil
}

// SQLiteStore is a LocalStore keeping one row per photo.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore creates a store on a database opened with OpenSQLite.
func NewSQLiteStore(db *gorm.DB) *SQLiteStore {
	if db == nil {
		panic("gorm db cannot be nil")
	}
	return &SQLiteStore{db: db}
}

// Load returns the stored photos ordered by position.
func (s *SQLiteStore) Load(ctx context.Context) ([]photo.Photo, error) {
	var rows []cachedPhoto
	if err := s.db.WithContext(ctx).Order("position").Find(&rows).Error; err != nil {
		return nil, readError("load", "select cached_photos", err)
	}

	photos := make([]photo.Photo, len(rows))
	for i, row := range rows {
		photos[i] = photo.Photo{
			ID:          row.ID,
			Author:      row.Author,
			URL:         row.URL,
			DownloadURL: row.DownloadURL,
		}
	}

	recordLoad(backendSQLite, len(photos))
	return photos, nil
}

// Save replaces the table content in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, photos []photo.Photo) error {
	rows := make([]cachedPhoto, len(photos))
	for i, p := range photos {
		rows[i] = cachedPhoto{
			Position:    i,
			ID:          p.ID,
			Author:      p.Author,
			URL:         p.URL,
			DownloadURL: p.DownloadURL,
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&cachedPhoto{}).Error; err != nil {
			return fmt.Errorf("clear cached_photos: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("insert cached_photos: %w", err)
		}
		return nil
	})
	if err != nil {
		return writeError("save", "sqlite transaction", err)
	}
	return nil
}

// SQLiteKV is a KV backed by the kv_entries table.
type SQLiteKV struct {
	db *gorm.DB
}

// NewSQLiteKV creates a KV on a database opened with OpenSQLite.
func NewSQLiteKV(db *gorm.DB) *SQLiteKV {
	if db == nil {
		panic("gorm db cannot be nil")
	}
	return &SQLiteKV{db: db}
}

// Get returns the value stored under name.
func (kv *SQLiteKV) Get(ctx context.Context, name string) ([]byte, bool, error) {
	var entry kvEntry
	err := kv.db.WithContext(ctx).First(&entry, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, readError("get", "select kv_entries", err)
	}
	return entry.Value, true, nil
}

// Set overwrites the value stored under name.
func (kv *SQLiteKV) Set(ctx context.Context, name string, value []byte) error {
	err := kv.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&kvEntry{Name: name, Value: value}).Error
	if err != nil {
		return writeError("set", "upsert kv_entries", err)
	}
	return nil
}
