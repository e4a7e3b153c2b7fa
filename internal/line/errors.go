package line

import (
	"errors"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

var (
	// ErrInvalidSignature is reported when a webhook body does not carry a
	// valid X-Line-Signature for the configured channel secret.
	ErrInvalidSignature = webhook.ErrInvalidSignature
	// ErrMalformedPayload is returned when a correctly signed body, or one
	// of its events, cannot be decoded.
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrDelivery wraps every failure of the reply API call.
	ErrDelivery = errors.New("reply delivery failed")
)
