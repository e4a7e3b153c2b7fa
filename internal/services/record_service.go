package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/manachat72/line-ai-chatbot/internal/domain"
	"github.com/manachat72/line-ai-chatbot/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MaxPage bounds the page number so the row offset cannot overflow.
const MaxPage = 1_000_000

// RecordService serves read-only queries over persisted exchanges.
type RecordService struct {
	DB *gorm.DB
}

// ListPage returns a page of records, newest first, and the total count.
// An empty userID lists every user. Invalid page/pageSize fall back to
// 1 and 20; page is capped at MaxPage.
func (s *RecordService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ChatRecord, int64, error) {
	tr := otel.Tracer("services/RecordService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if s.DB == nil {
		return nil, 0, ErrPersistenceDisabled
	}
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountRecords(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(offset) >= total {
		return []domain.ChatRecord{}, total, nil
	}

	items, err := repo.ListRecordsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Get returns a single record by ID.
func (s *RecordService) Get(ctx context.Context, id uint) (*domain.ChatRecord, error) {
	tr := otel.Tracer("services/RecordService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(attribute.Int64("record.id", int64(id))))
	defer span.End()

	if s.DB == nil {
		return nil, ErrPersistenceDisabled
	}
	r, err := repo.GetRecord(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	return r, err
}
