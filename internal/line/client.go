package line

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/manachat72/line-ai-chatbot/internal/domain"
)

const (
	// DefaultBaseURL is the production Messaging API host.
	DefaultBaseURL = "https://api.line.me"
	// MaxTextLength is the per-message character limit of the reply API.
	MaxTextLength = 5000
)

// Client sends replies through the Messaging API.
type Client struct {
	AccessToken string
	BaseURL     string

	api *messaging_api.MessagingApiAPI
}

// NewClient returns a Client with its own http.Client bounded by timeout.
func NewClient(accessToken, baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	api, err := messaging_api.NewMessagingApiAPI(accessToken,
		messaging_api.WithEndpoint(baseURL),
		messaging_api.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("messaging api client: %w", err)
	}
	return &Client{AccessToken: accessToken, BaseURL: baseURL, api: api}, nil
}

// Reply sends payload.Text as a single text message. Every failure, whether
// transport or non-2xx, is returned wrapping ErrDelivery. The call is made
// exactly once.
func (c *Client) Reply(ctx context.Context, payload domain.ReplyPayload) error {
	res, _, err := c.api.WithContext(ctx).ReplyMessageWithHttpInfo(&messaging_api.ReplyMessageRequest{
		ReplyToken: payload.ReplyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: Truncate(payload.Text, MaxTextLength)},
		},
	})
	if res != nil && res.Body != nil {
		defer res.Body.Close()
	}
	if err == nil {
		return nil
	}
	if res == nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	if id := res.Header.Get("X-Line-Request-Id"); id != "" {
		return fmt.Errorf("%w: status %d: %v [request %s]", ErrDelivery, res.StatusCode, err, id)
	}
	return fmt.Errorf("%w: status %d: %v", ErrDelivery, res.StatusCode, err)
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
