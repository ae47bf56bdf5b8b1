package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"bookvault/internal/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGormStoreForTest(t *testing.T) *GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.SessionRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewGormStore(db)
}

func TestGormStoreSaveGetDelete(t *testing.T) {
	store := newGormStoreForTest(t)
	ctx := context.Background()

	rec := &domain.SessionRecord{
		ID:           NewSessionID(),
		UserID:       "42",
		LastActivity: time.Now().UTC().Format(time.RFC3339),
	}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserID != "42" {
		t.Fatalf("unexpected user id %q", got.UserID)
	}

	rec.LastActivity = time.Now().UTC().Add(time.Minute).Format(time.RFC3339)
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save refresh: %v", err)
	}
	got, err = store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get after refresh: %v", err)
	}
	if got.LastActivity != rec.LastActivity {
		t.Fatalf("refresh not persisted: %q", got.LastActivity)
	}

	if err := store.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, rec.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestGormStoreDeleteStale(t *testing.T) {
	store := newGormStoreForTest(t)
	ctx := context.Background()

	old := &domain.SessionRecord{ID: "old-session", UserID: "1"}
	if err := store.Save(ctx, old); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Push the record's updated_at into the past directly.
	past := time.Now().Add(-2 * time.Hour)
	if err := store.db.Model(&domain.SessionRecord{}).
		Where("id = ?", "old-session").
		Update("updated_at", past).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}
	fresh := &domain.SessionRecord{ID: "fresh-session", UserID: "2"}
	if err := store.Save(ctx, fresh); err != nil {
		t.Fatalf("save fresh: %v", err)
	}

	deleted, err := store.DeleteStale(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("delete stale: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 stale session deleted, got %d", deleted)
	}
	if _, err := store.Get(ctx, "fresh-session"); err != nil {
		t.Fatalf("fresh session must survive: %v", err)
	}
}
