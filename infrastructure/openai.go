package infrastructure

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"interview-prep/domain"
)

// OpenAIClient is the structured-completion client backed by the chat completions API.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

type OpenAIOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	RatePerSec float64
}

func NewOpenAIClient(opts OpenAIOptions, log logrus.FieldLogger) *OpenAIClient {
	if opts.APIKey == "" {
		log.Warn("OPENAI_API_KEY environment variable not set. Set this variable for full functionality.")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   opts.Model,
		limiter: newLimiter(opts.RatePerSec),
		log:     log,
	}
}

// CompleteJSON requests a JSON object reply and decodes it into out. Failures are not retried.
func (c *OpenAIClient) CompleteJSON(ctx context.Context, systemPrompt, userContent string, out any) error {
	const op = "openai chat completion"

	if err := waitLimiter(ctx, c.limiter, op); err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userContent},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			c.log.WithFields(logrus.Fields{"status": apiErr.HTTPStatusCode, "code": apiErr.Code}).Warn("openai api error")
		}
		return &domain.UpstreamError{Op: op, Err: err}
	}
	if len(resp.Choices) == 0 {
		return &domain.UpstreamError{Op: op, Err: errors.New("no choices returned")}
	}

	c.log.WithFields(logrus.Fields{
		"model":      resp.Model,
		"tokens":     resp.Usage.TotalTokens,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("openai completion finished")

	return decodeJSONReply(op, resp.Choices[0].Message.Content, out)
}
