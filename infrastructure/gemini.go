package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"interview-prep/domain"
)

const defaultGeminiModel = "gemini-2.0-flash-001"

// GeminiClient is the structured-completion client backed by Vertex AI.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

// NewGeminiClient connects to Vertex AI with application default credentials.
func NewGeminiClient(ctx context.Context, project, location, model string, timeout time.Duration, ratePerSec float64, log logrus.FieldLogger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, project, location)
	if err != nil {
		return nil, fmt.Errorf("vertex ai client: %w", err)
	}
	if model == "" || strings.HasPrefix(model, "gpt") {
		model = defaultGeminiModel
	}
	return &GeminiClient{
		client:  client,
		model:   model,
		timeout: timeout,
		limiter: newLimiter(ratePerSec),
		log:     log,
	}, nil
}

func (g *GeminiClient) CompleteJSON(ctx context.Context, systemPrompt, userContent string, out any) error {
	const op = "gemini generate content"

	if err := waitLimiter(ctx, g.limiter, op); err != nil {
		return err
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)

	resp, err := model.GenerateContent(ctx, genai.Text(userContent))
	if err != nil {
		return &domain.UpstreamError{Op: op, Err: err}
	}

	text, err := candidateText(resp)
	if err != nil {
		return &domain.UpstreamError{Op: op, Err: err}
	}
	g.log.WithField("model", g.model).Debug("gemini completion finished")

	return decodeJSONReply(op, text, out)
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", errors.New("no parts in content")
	}

	var sb strings.Builder
	for _, p := range content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("no text in parts")
	}
	return sb.String(), nil
}
