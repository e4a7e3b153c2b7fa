// Package line talks to the LINE Messaging API: it verifies and parses
// inbound webhook deliveries and sends replies with a reply token.
package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// SignatureHeader is the request header carrying the webhook signature.
const SignatureHeader = "X-Line-Signature"

// Verifier checks webhook signatures against one channel secret. It is
// immutable and safe for concurrent use.
type Verifier struct {
	secret string
}

// NewVerifier returns a Verifier for the given channel secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify reports whether signature equals base64(HMAC-SHA256(secret, body)).
// An empty secret, a missing header or an undecodable header never verifies.
func (v *Verifier) Verify(body []byte, signature string) bool {
	if v == nil || v.secret == "" || signature == "" {
		return false
	}
	return webhook.ValidateSignature(v.secret, signature, body)
}

// Sign returns the X-Line-Signature value for body under secret. The SDK
// only validates, so the sign side is computed here for tooling and tests.
func Sign(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
