// Package services – RelayService
//
// This file implements RelayService, which drives one verified inbound event
// through the pipeline:
//
//	Logged(pending) → Completed | Fallback → Dispatched | DeliveryFailed
//
// Persistence and notification are best effort: their failures are logged and
// counted but never change the reply the user receives. Every completion
// error, blocked result or empty text maps to the configured fallback text.
//
// Observability: Handle is OpenTelemetry-instrumented and reports Prometheus
// counters per branch, outcome and failed stage.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/manachat72/line-ai-chatbot/internal/domain"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Completer produces a reply for a prompt.
type Completer interface {
	Generate(ctx context.Context, prompt string) (domain.CompletionResult, error)
}

// Dispatcher delivers a reply using a single-use reply token.
type Dispatcher interface {
	Reply(ctx context.Context, payload domain.ReplyPayload) error
}

// Notifier publishes a summary of each processed event.
type Notifier interface {
	Publish(ctx context.Context, ex domain.Exchange) error
}

// Recorder is the persistence contract used by the pipeline. *Journal
// satisfies it.
type Recorder interface {
	RecordInbound(ctx context.Context, userID, message string) (domain.RecordHandle, error)
	UpdateReply(ctx context.Context, h domain.RecordHandle, finalText string) error
}

// Result is the terminal state of one event.
type Result struct {
	Outcome   domain.Outcome
	Branch    domain.Branch
	ReplyText string
	RecordID  uint

	// CompletionErr is set on the Fallback branch when the completion call
	// failed (as opposed to returning a blocked result).
	CompletionErr error
	// DeliveryErr is set when Outcome is OutcomeDeliveryFailed.
	DeliveryErr error
}

// RelayService processes inbound events. All fields are set at construction
// and only read afterwards, so a single instance may serve concurrent events.
type RelayService struct {
	Journal    Recorder
	Completer  Completer
	Dispatcher Dispatcher
	Notifier   Notifier // optional

	Prompt            PromptBuilder
	FallbackText      string
	CompletionTimeout time.Duration
}

// Handle runs the pipeline for ev, which must already have passed signature
// verification. It always attempts exactly one dispatch.
func (s *RelayService) Handle(ctx context.Context, ev domain.InboundEvent) Result {
	tr := otel.Tracer("services/RelayService")
	ctx, span := tr.Start(ctx, "Handle",
		trace.WithAttributes(
			attribute.String("user.id", ev.UserID),
			attribute.String("webhook.event_id", ev.WebhookEventID),
			attribute.Bool("webhook.redelivery", ev.Redelivery),
		),
	)
	defer span.End()

	lg := loggerFrom(ctx).With().
		Str("user_id", ev.UserID).
		Str("webhook_event_id", ev.WebhookEventID).
		Logger()
	if ev.Redelivery {
		lg.Info().Msg("processing redelivered event")
	}

	var res Result

	// Logged(pending)
	handle, err := s.record(ctx, ev)
	if err != nil {
		relayStageFailures.WithLabelValues("record").Inc()
		lg.Warn().Err(err).Str("stage", "record").Msg("inbound record not persisted")
	}
	res.RecordID = handle.ID

	// Completed | Fallback
	cres, cerr := s.complete(ctx, s.Prompt.Build(ev.Text))
	switch {
	case cerr != nil:
		relayStageFailures.WithLabelValues("complete").Inc()
		lg.Warn().Err(cerr).Str("stage", "complete").Msg("completion failed; using fallback")
		res.Branch, res.ReplyText, res.CompletionErr = domain.BranchFallback, s.FallbackText, cerr
	case !cres.Usable():
		lg.Info().
			Str("stage", "complete").
			Str("block_reason", cres.BlockReason).
			Str("finish_reason", cres.FinishReason).
			Msg("completion blocked or empty; using fallback")
		res.Branch, res.ReplyText = domain.BranchFallback, s.FallbackText
	default:
		res.Branch, res.ReplyText = domain.BranchCompleted, cres.Text
		if s.Journal != nil {
			if err := s.Journal.UpdateReply(ctx, handle, cres.Text); err != nil {
				relayStageFailures.WithLabelValues("update").Inc()
				lg.Warn().Err(err).Str("stage", "update").Uint("record_id", handle.ID).Msg("reply not persisted")
			}
		}
	}

	// Dispatched | DeliveryFailed
	if err := s.Dispatcher.Reply(ctx, domain.ReplyPayload{ReplyToken: ev.ReplyToken, Text: res.ReplyText}); err != nil {
		relayStageFailures.WithLabelValues("dispatch").Inc()
		lg.Error().Err(err).Str("stage", "dispatch").Str("branch", string(res.Branch)).Msg("reply delivery failed")
		span.SetStatus(codes.Error, "delivery failed")
		span.RecordError(err)
		res.Outcome, res.DeliveryErr = domain.OutcomeDeliveryFailed, err
	} else {
		res.Outcome = domain.OutcomeDispatched
	}

	relayEvents.WithLabelValues(string(res.Branch), string(res.Outcome)).Inc()
	span.SetAttributes(
		attribute.String("relay.branch", string(res.Branch)),
		attribute.String("relay.outcome", string(res.Outcome)),
	)
	lg.Debug().
		Uint("record_id", res.RecordID).
		Str("branch", string(res.Branch)).
		Str("outcome", string(res.Outcome)).
		Msg("event processed")

	s.notify(ctx, lg, ev, res)
	return res
}

func (s *RelayService) record(ctx context.Context, ev domain.InboundEvent) (domain.RecordHandle, error) {
	if s.Journal == nil {
		return domain.RecordHandle{}, nil
	}
	return s.Journal.RecordInbound(ctx, ev.UserID, ev.Text)
}

// complete bounds the call with CompletionTimeout and turns a panic in the
// completer into an error.
func (s *RelayService) complete(ctx context.Context, prompt string) (res domain.CompletionResult, err error) {
	if s.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.CompletionTimeout)
		defer cancel()
	}
	start := time.Now()
	defer func() {
		relayCompletionSeconds.Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			res, err = domain.CompletionResult{}, fmt.Errorf("completer panic: %v", r)
		}
	}()
	return s.Completer.Generate(ctx, prompt)
}

func (s *RelayService) notify(ctx context.Context, lg zerolog.Logger, ev domain.InboundEvent, res Result) {
	if s.Notifier == nil {
		return
	}
	err := s.Notifier.Publish(ctx, domain.Exchange{
		UserID:         ev.UserID,
		WebhookEventID: ev.WebhookEventID,
		RecordID:       res.RecordID,
		Branch:         res.Branch,
		Outcome:        res.Outcome,
		Redelivery:     ev.Redelivery,
		CompletedAt:    time.Now().UTC(),
	})
	if err != nil {
		relayStageFailures.WithLabelValues("notify").Inc()
		lg.Warn().Err(err).Str("stage", "notify").Msg("exchange event not published")
	}
}

// loggerFrom returns the logger attached to ctx, or the global logger.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
