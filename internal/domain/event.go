package domain

import "time"

// InboundEvent is a single text message received from the platform. It is
// immutable once built and consumed once by the relay.
type InboundEvent struct {
	ReplyToken     string
	UserID         string
	Text           string
	WebhookEventID string
	Redelivery     bool
	ReceivedAt     time.Time
}

// ReplyPayload is the write-once body of a reply API call.
type ReplyPayload struct {
	ReplyToken string
	Text       string
}

// CompletionResult is either a usable reply (Blocked=false, Text non-empty)
// or a blocked/empty result that must be mapped to the fallback text.
type CompletionResult struct {
	Text    string
	Blocked bool

	// Diagnostics reported by the service, if any.
	FinishReason string
	BlockReason  string
}

// Usable reports whether the result can be sent to the user as-is.
func (r CompletionResult) Usable() bool { return !r.Blocked && r.Text != "" }

// Outcome is the terminal state of one relayed event. A request rejected
// for its signature never produces events, so it has no Outcome.
type Outcome string

const (
	OutcomeDispatched     Outcome = "dispatched"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
)

// Branch records which reply text was dispatched.
type Branch string

const (
	BranchCompleted Branch = "completed"
	BranchFallback  Branch = "fallback"
)

// Exchange summarizes one processed event for downstream subscribers. It
// carries identifiers and states only, never message content.
type Exchange struct {
	UserID         string    `json:"user_id"`
	WebhookEventID string    `json:"webhook_event_id,omitempty"`
	RecordID       uint      `json:"record_id,omitempty"`
	Branch         Branch    `json:"branch"`
	Outcome        Outcome   `json:"outcome"`
	Redelivery     bool      `json:"redelivery"`
	CompletedAt    time.Time `json:"completed_at"`
}
