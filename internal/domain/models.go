// Package domain defines the persistence model for relayed chat exchanges and
// the value types that flow through the message-handling pipeline. ChatRecord
// is mapped with GORM; the remaining types are plain values.
package domain

import "time"

// ReplyPending is the sentinel stored in ChatRecord.Reply between the inbound
// insert and the (optional) update with the generated reply.
const ReplyPending = "pending"

// ChatRecord is one relayed exchange. It is inserted with Reply set to
// ReplyPending before the completion call and updated in place once the
// generated reply is known. A record may keep the sentinel forever when the
// update never happens.
//
// Fields:
//   - ID: auto-incrementing surrogate key.
//   - UserID: platform identifier of the sender.
//   - Message: the inbound text as received.
//   - Reply: ReplyPending or the generated reply.
//   - CreatedAt: server-assigned creation time.
//
// Duplicate (UserID, Message) pairs are legal; there is no uniqueness
// constraint beyond the primary key.
type ChatRecord struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null"`
	Message   string    `json:"message"    gorm:"type:text;not null"`
	Reply     string    `json:"reply"      gorm:"type:text;not null;default:'pending'"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName returns the database table name for ChatRecord.
func (ChatRecord) TableName() string { return "chat_records" }

// IsPending reports whether the record still carries the sentinel reply.
func (r ChatRecord) IsPending() bool { return r.Reply == ReplyPending }

// RecordHandle locates a row written by the inbound insert. The zero value
// means nothing was persisted.
type RecordHandle struct {
	ID      uint
	UserID  string
	Message string
}

// Valid reports whether the handle refers to a persisted row.
func (h RecordHandle) Valid() bool { return h.ID != 0 || h.UserID != "" }
