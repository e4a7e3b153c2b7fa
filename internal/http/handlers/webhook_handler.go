package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/manachat72/line-ai-chatbot/internal/http/middleware"
	"github.com/manachat72/line-ai-chatbot/internal/line"
)

// Callback godoc
// @ID          lineCallback
// @Summary     Receive LINE webhook events
// @Description Verifies X-Line-Signature over the raw body, then relays every text message event to the completion backend and replies through the reply token.
// @Description Always answers 200 "OK" once the signature is valid, whatever happened to individual events.
// @Tags        Webhook
// @Accept      json
// @Produce     plain
//
// @Param       X-Line-Signature  header  string  true  "base64(HMAC-SHA256(channel secret, body))"
// @Param       body              body    object  true  "LINE webhook envelope {destination, events[]}"
//
// @Success     200  {string}  string                  "OK"
// @Failure     400  {string}  string                  "Invalid signature (empty body)"
// @Failure     413  {object}  handlers.ErrorResponse  "Body too large"
// @Router      /callback [post]
func (h *Handlers) Callback(c *gin.Context) {
	lg := middleware.LoggerFrom(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "request body too large")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable request body")
		return
	}

	if !h.verifier.Verify(body, c.GetHeader(line.SignatureHeader)) {
		lg.Warn().Err(line.ErrInvalidSignature).Int("body_bytes", len(body)).Msg("webhook signature rejected")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	// Undecodable events are logged and skipped; the rest are still relayed
	// and LINE still gets its 200.
	events, err := line.ParseEvents(body)
	if err != nil {
		lg.Warn().Err(err).Int("events", len(events)).Msg("webhook payload partly undecodable")
	}

	// Events outlive a client disconnect; each one still gets its reply.
	ctx := context.WithoutCancel(c.Request.Context())

	var g errgroup.Group
	g.SetLimit(h.concurrency)
	for _, ev := range events {
		g.Go(func() error {
			h.relay.Handle(ctx, ev)
			return nil
		})
	}
	_ = g.Wait()

	lg.Debug().Int("events", len(events)).Msg("webhook processed")
	c.String(http.StatusOK, "OK")
}
