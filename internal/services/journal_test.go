package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/manachat72/line-ai-chatbot/internal/domain"
)

// newJournalDB opens a temp-dir SQLite database, optionally migrated.
func newJournalDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if migrate {
		if err := db.AutoMigrate(&domain.ChatRecord{}); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func loadRecords(t *testing.T, db *gorm.DB) []domain.ChatRecord {
	t.Helper()
	var out []domain.ChatRecord
	if err := db.Order("id ASC").Find(&out).Error; err != nil {
		t.Fatalf("load records: %v", err)
	}
	return out
}

func TestJournal_RecordThenUpdate(t *testing.T) {
	db := newJournalDB(t, true)
	j := NewJournal(db, time.Second)
	ctx := context.Background()

	h, err := j.RecordInbound(ctx, "U1", "hi")
	if err != nil {
		t.Fatalf("RecordInbound: %v", err)
	}
	if !h.Valid() || h.ID == 0 || h.UserID != "U1" || h.Message != "hi" {
		t.Fatalf("unexpected handle: %+v", h)
	}

	recs := loadRecords(t, db)
	if len(recs) != 1 || recs[0].Reply != domain.ReplyPending {
		t.Fatalf("expected one pending row, got %+v", recs)
	}

	if err := j.UpdateReply(ctx, h, "Hello back"); err != nil {
		t.Fatalf("UpdateReply: %v", err)
	}
	recs = loadRecords(t, db)
	if recs[0].Reply != "Hello back" {
		t.Fatalf("reply = %q; want %q", recs[0].Reply, "Hello back")
	}
}

func TestJournal_UpdateByRecencyWhenNoID(t *testing.T) {
	db := newJournalDB(t, true)
	j := NewJournal(db, time.Second)
	ctx := context.Background()

	if _, err := j.RecordInbound(ctx, "U1", "hi"); err != nil {
		t.Fatalf("RecordInbound: %v", err)
	}
	if _, err := j.RecordInbound(ctx, "U1", "hi"); err != nil {
		t.Fatalf("RecordInbound: %v", err)
	}

	if err := j.UpdateReply(ctx, domain.RecordHandle{UserID: "U1", Message: "hi"}, "answer"); err != nil {
		t.Fatalf("UpdateReply: %v", err)
	}
	recs := loadRecords(t, db)
	if recs[0].Reply != domain.ReplyPending || recs[1].Reply != "answer" {
		t.Fatalf("expected only the newest duplicate updated, got %+v", recs)
	}
}

func TestJournal_DisabledIsNoop(t *testing.T) {
	j := NewJournal(nil, time.Second)
	ctx := context.Background()

	h, err := j.RecordInbound(ctx, "U1", "hi")
	if err != nil || h.Valid() {
		t.Fatalf("expected zero handle and nil error, got %+v, %v", h, err)
	}
	if err := j.UpdateReply(ctx, domain.RecordHandle{ID: 1}, "x"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	var nilJournal *Journal
	if _, err := nilJournal.RecordInbound(ctx, "U1", "hi"); err != nil {
		t.Fatalf("nil journal should be a no-op, got %v", err)
	}
}

func TestJournal_InvalidHandleIsNoop(t *testing.T) {
	db := newJournalDB(t, true)
	j := NewJournal(db, time.Second)
	if err := j.UpdateReply(context.Background(), domain.RecordHandle{}, "x"); err != nil {
		t.Fatalf("expected nil error for zero handle, got %v", err)
	}
}

func TestJournal_FailuresWrapErrPersistence(t *testing.T) {
	db := newJournalDB(t, false) // no table
	j := NewJournal(db, time.Second)
	ctx := context.Background()

	h, err := j.RecordInbound(ctx, "U1", "hi")
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if h.Valid() {
		t.Fatalf("expected zero handle on failure, got %+v", h)
	}

	if err := j.UpdateReply(ctx, domain.RecordHandle{ID: 7}, "x"); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence on update, got %v", err)
	}
}

func TestJournal_UpdateMissingRowWrapsErrPersistence(t *testing.T) {
	db := newJournalDB(t, true)
	j := NewJournal(db, time.Second)
	if err := j.UpdateReply(context.Background(), domain.RecordHandle{ID: 404}, "x"); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}
