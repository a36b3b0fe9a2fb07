package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Sternrassler/photo-fetcher/pkg/client"
	"gorm.io/gorm"
)

func setupTestSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "photos.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestSQLiteStore(t *testing.T) {
	exerciseLocalStore(t, NewSQLiteStore(setupTestSQLite(t)))
}

func TestSQLiteStore_InMemory(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	exerciseLocalStore(t, NewSQLiteStore(db))
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "photos.db")
	ctx := context.Background()

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := NewSQLiteStore(db).Save(ctx, testPhotos("1", "2")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.Close()

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() reopen error = %v", err)
	}
	defer func() {
		sqlDB, _ := reopened.DB()
		sqlDB.Close()
	}()

	got, err := NewSQLiteStore(reopened).Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("Load() = %+v", got)
	}
}

func TestSQLiteStore_ClosedDatabase(t *testing.T) {
	db := setupTestSQLite(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("DB() error = %v", err)
	}
	sqlDB.Close()

	s := NewSQLiteStore(db)
	if _, err := s.Load(context.Background()); !client.IsKind(err, client.KindPersistenceRead) {
		t.Errorf("Load() error = %v, want persistence read", err)
	}
	if err := s.Save(context.Background(), testPhotos("1")); !client.IsKind(err, client.KindPersistenceWrite) {
		t.Errorf("Save() error = %v, want persistence write", err)
	}
}

func TestSQLiteKV(t *testing.T) {
	exerciseKV(t, NewSQLiteKV(setupTestSQLite(t)))
}

func TestNewSQLiteStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewSQLiteStore should panic with nil db")
		}
	}()
	NewSQLiteStore(nil)
}
