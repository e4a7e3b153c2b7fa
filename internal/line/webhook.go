package line

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"golang.org/x/text/unicode/norm"

	"github.com/manachat72/line-ai-chatbot/internal/domain"
)

type envelope struct {
	Destination string            `json:"destination"`
	Events      []json.RawMessage `json:"events"`
}

// ParseEvents decodes a verified webhook body and returns the text message
// events it contains, in delivery order. Other event and message types, and
// events without a reply token (standby mode), are skipped. Text is
// normalized to NFC.
//
// Events are decoded one at a time: an event that fails to decode is
// dropped and reported in the returned error, while the usable events are
// still returned. A body that is not an envelope at all yields no events.
// Every error wraps ErrMalformedPayload.
func ParseEvents(body []byte) ([]domain.InboundEvent, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var errs []error
	out := make([]domain.InboundEvent, 0, len(env.Events))
	for i, raw := range env.Events {
		ev, err := webhook.UnmarshalEvent(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: event %d: %v", ErrMalformedPayload, i, err))
			continue
		}
		if in, ok := inbound(ev); ok {
			out = append(out, in)
		}
	}
	return out, errors.Join(errs...)
}

func inbound(ev webhook.EventInterface) (domain.InboundEvent, bool) {
	me, ok := ev.(webhook.MessageEvent)
	if !ok {
		return domain.InboundEvent{}, false
	}
	text, ok := me.Message.(webhook.TextMessageContent)
	if !ok {
		return domain.InboundEvent{}, false
	}
	if me.ReplyToken == "" || me.Mode == webhook.EventMode_STANDBY {
		return domain.InboundEvent{}, false
	}

	received := time.Now().UTC()
	if me.Timestamp > 0 {
		received = time.UnixMilli(me.Timestamp).UTC()
	}
	return domain.InboundEvent{
		ReplyToken:     me.ReplyToken,
		UserID:         sourceUser(me.Source),
		Text:           norm.NFC.String(text.Text),
		WebhookEventID: me.WebhookEventId,
		Redelivery:     me.DeliveryContext != nil && me.DeliveryContext.IsRedelivery,
		ReceivedAt:     received,
	}, true
}

func sourceUser(src webhook.SourceInterface) string {
	switch s := src.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	}
	return ""
}
