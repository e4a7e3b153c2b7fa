// Package gemini adapts the Gen AI SDK to a single-turn completer. It sends
// one prompt with explicit safety settings and reduces the response to a
// domain.CompletionResult.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/manachat72/line-ai-chatbot/internal/domain"
)

// ErrExternalService wraps every transport, status and decoding failure.
var ErrExternalService = errors.New("completion service error")

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/"
	DefaultModel   = "gemini-1.5-flash"

	apiVersion = "v1beta"
)

// Harm categories understood by the API, keyed by the short names used in
// configuration.
var categories = map[string]genai.HarmCategory{
	"harassment":        genai.HarmCategoryHarassment,
	"hate_speech":       genai.HarmCategoryHateSpeech,
	"sexually_explicit": genai.HarmCategorySexuallyExplicit,
	"dangerous_content": genai.HarmCategoryDangerousContent,
}

// SafetySettings converts a short-name → threshold map into request
// settings, sorted by category. Unknown keys are skipped.
func SafetySettings(m map[string]string) []*genai.SafetySetting {
	out := make([]*genai.SafetySetting, 0, len(m))
	for k, th := range m {
		cat, ok := categories[k]
		if !ok || th == "" {
			continue
		}
		out = append(out, &genai.SafetySetting{Category: cat, Threshold: genai.HarmBlockThreshold(th)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Client calls generateContent for one model.
type Client struct {
	Model  string
	Safety []*genai.SafetySetting

	api *genai.Client
}

// NewClient returns a Client whose http.Client is bounded by timeout.
func NewClient(ctx context.Context, apiKey, model, baseURL string, safety []*genai.SafetySetting, timeout time.Duration) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    strings.TrimRight(baseURL, "/") + "/",
			APIVersion: apiVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &Client{Model: model, Safety: safety, api: gc}, nil
}

// Generate submits prompt as a single user turn.
//
// A response whose prompt was blocked, which has no candidates, or whose
// first candidate carries no text yields a Blocked result and a nil error.
// Every other failure (transport, deadline, non-2xx, undecodable body) is
// returned wrapping ErrExternalService.
func (c *Client) Generate(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	resp, err := c.api.Models.GenerateContent(ctx, c.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		SafetySettings: c.Safety,
	})
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	return reduce(resp), nil
}

func reduce(resp *genai.GenerateContentResponse) domain.CompletionResult {
	if resp == nil {
		return domain.CompletionResult{Blocked: true}
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return domain.CompletionResult{Blocked: true, BlockReason: string(resp.PromptFeedback.BlockReason)}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return domain.CompletionResult{Blocked: true}
	}

	cand := resp.Candidates[0]
	var sb strings.Builder
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p != nil {
				sb.WriteString(p.Text)
			}
		}
	}
	text := sb.String()
	finish := string(cand.FinishReason)
	if strings.TrimSpace(text) == "" {
		return domain.CompletionResult{Blocked: true, FinishReason: finish}
	}
	return domain.CompletionResult{Text: text, FinishReason: finish}
}
