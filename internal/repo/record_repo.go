// Package repo implements the data persistence layer for relayed chat
// records, backed by GORM. This file provides the chat_records queries used by
// the journal and the read-only records API.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/manachat72/line-ai-chatbot/internal/domain"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateRecord inserts a new row carrying the pending sentinel as its reply.
func CreateRecord(ctx context.Context, db *gorm.DB, userID, message string) (*domain.ChatRecord, error) {
	r := &domain.ChatRecord{
		UserID:  userID,
		Message: message,
		Reply:   domain.ReplyPending,
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateReplyByID sets the reply of the row with the given ID. It returns
// ErrNotFound when no row matched.
func UpdateReplyByID(ctx context.Context, db *gorm.DB, id uint, reply string) error {
	res := db.WithContext(ctx).
		Model(&domain.ChatRecord{}).
		Where("id = ?", id).
		Update("reply", reply)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLatestPendingReply sets the reply of the most recent row for
// (userID, message) that still carries the pending sentinel. Older duplicates
// are left untouched. It returns ErrNotFound when nothing is pending.
func UpdateLatestPendingReply(ctx context.Context, db *gorm.DB, userID, message, reply string) error {
	var latest domain.ChatRecord
	err := db.WithContext(ctx).
		Select("id").
		Where("user_id = ? AND message = ? AND reply = ?", userID, message, domain.ReplyPending).
		Order("id DESC").
		Take(&latest).Error
	if err != nil {
		return err
	}
	return UpdateReplyByID(ctx, db, latest.ID, reply)
}

// GetRecord fetches a record by ID.
func GetRecord(ctx context.Context, db *gorm.DB, id uint) (*domain.ChatRecord, error) {
	var r domain.ChatRecord
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// CountRecords returns the number of records, optionally scoped to userID.
func CountRecords(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.ChatRecord{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	err := q.Count(&total).Error
	return total, err
}

// ListRecordsPage returns a page of records ordered newest first
// (id DESC), optionally scoped to userID.
func ListRecordsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.ChatRecord, error) {
	var out []domain.ChatRecord
	q := db.WithContext(ctx).Order("id DESC").Offset(offset).Limit(limit)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	err := q.Find(&out).Error
	return out, err
}
