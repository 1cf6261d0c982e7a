package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"interview-prep/domain"
)

// newLimiter returns nil when perSec is zero, which disables pacing.
func newLimiter(perSec float64) *rate.Limiter {
	if perSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSec), 1)
}

func waitLimiter(ctx context.Context, l *rate.Limiter, op string) error {
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		return &domain.UpstreamError{Op: op, Err: err}
	}
	return nil
}

// decodeJSONReply strips code fences from a model reply and decodes the JSON object into out.
// Anything else around the object makes the reply invalid.
func decodeJSONReply(op, content string, out any) error {
	cleaned := cleanJSONResponse(content)
	if !strings.HasPrefix(cleaned, "{") {
		return &domain.UpstreamError{Op: op, Err: fmt.Errorf("reply is not a JSON object: %.200q", content)}
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return &domain.UpstreamError{Op: op, Err: fmt.Errorf("failed to parse JSON: %w", err)}
	}
	return nil
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	return strings.TrimSpace(content)
}
