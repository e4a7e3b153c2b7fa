package handlers

import (
	"context"

	"github.com/manachat72/line-ai-chatbot/internal/domain"
	"github.com/manachat72/line-ai-chatbot/internal/services"
)

// Relay runs the per-event pipeline for a verified inbound event.
type Relay interface {
	Handle(ctx context.Context, ev domain.InboundEvent) services.Result
}

// SignatureVerifier authenticates a raw webhook body against its signature
// header value.
type SignatureVerifier interface {
	Verify(body []byte, signature string) bool
}

// RecordReader serves the read-only records API.
type RecordReader interface {
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ChatRecord, int64, error)
	Get(ctx context.Context, id uint) (*domain.ChatRecord, error)
}

// Handlers groups the webhook and records endpoints.
type Handlers struct {
	relay       Relay
	verifier    SignatureVerifier
	records     RecordReader
	concurrency int
}

// New binds the handlers to their collaborators. concurrency bounds how many
// events of a single callback are processed at once; values below 1 mean one
// at a time. records may be nil when the records API is not mounted.
func New(relay Relay, verifier SignatureVerifier, records RecordReader, concurrency int) *Handlers {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Handlers{relay: relay, verifier: verifier, records: records, concurrency: concurrency}
}
