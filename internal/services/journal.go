package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/manachat72/line-ai-chatbot/internal/domain"
	"github.com/manachat72/line-ai-chatbot/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Journal records each exchange in two phases: an inbound row carrying the
// pending sentinel, then an in-place update with the final reply. A nil DB
// turns both operations into no-ops.
type Journal struct {
	DB      *gorm.DB
	Timeout time.Duration
}

// NewJournal returns a Journal bounded by timeout per operation.
func NewJournal(db *gorm.DB, timeout time.Duration) *Journal {
	return &Journal{DB: db, Timeout: timeout}
}

// Enabled reports whether a database is configured.
func (j *Journal) Enabled() bool { return j != nil && j.DB != nil }

// RecordInbound inserts (userID, message, "pending"). The returned handle is
// the zero value when persistence is disabled or the insert failed.
func (j *Journal) RecordInbound(ctx context.Context, userID, message string) (domain.RecordHandle, error) {
	if !j.Enabled() {
		return domain.RecordHandle{}, nil
	}
	ctx, span := otel.Tracer("services/Journal").Start(ctx, "RecordInbound",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	ctx, cancel := j.bound(ctx)
	defer cancel()

	r, err := repo.CreateRecord(ctx, j.DB, userID, message)
	if err != nil {
		span.RecordError(err)
		return domain.RecordHandle{}, fmt.Errorf("%w: record inbound: %v", ErrPersistence, err)
	}
	return domain.RecordHandle{ID: r.ID, UserID: userID, Message: message}, nil
}

// UpdateReply replaces the pending sentinel with finalText. It targets the
// handle's ID when set, otherwise the most recent pending row for the
// handle's (UserID, Message). An invalid handle is a no-op.
func (j *Journal) UpdateReply(ctx context.Context, h domain.RecordHandle, finalText string) error {
	if !j.Enabled() || !h.Valid() {
		return nil
	}
	ctx, span := otel.Tracer("services/Journal").Start(ctx, "UpdateReply",
		trace.WithAttributes(
			attribute.Int64("record.id", int64(h.ID)),
			attribute.String("user.id", h.UserID),
		),
	)
	defer span.End()

	ctx, cancel := j.bound(ctx)
	defer cancel()

	var err error
	if h.ID != 0 {
		err = repo.UpdateReplyByID(ctx, j.DB, h.ID, finalText)
	} else {
		err = repo.UpdateLatestPendingReply(ctx, j.DB, h.UserID, h.Message, finalText)
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: update reply: %v", ErrPersistence, err)
	}
	return nil
}

func (j *Journal) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if j.Timeout > 0 {
		return context.WithTimeout(ctx, j.Timeout)
	}
	return context.WithCancel(ctx)
}
