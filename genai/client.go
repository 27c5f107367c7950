package genai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultModel   = "claude-haiku-4-5"
	maxRetries     = 3
	initialBackoff = 1 * time.Second
)

var ErrApiKeyRequired = errors.New("API key required")

// Completer produces a single text completion for a prompt. The agent pipeline
// depends on this interface so tests can substitute a canned implementation.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type anthropicCompleter struct {
	client         anthropic.Client
	model          anthropic.Model
	maxTokens      int64
	maxRetries     int
	initialBackoff time.Duration
}

// NewAnthropicCompleter builds the production Completer. The API key comes
// from ANTHROPIC_API_KEY; the model can be overridden with SYNTHESIZER_MODEL.
func NewAnthropicCompleter() (Completer, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY environment variable", ErrApiKeyRequired)
	}

	model := os.Getenv("SYNTHESIZER_MODEL")
	if model == "" {
		model = defaultModel
	}

	return &anthropicCompleter{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:          anthropic.Model(model),
		maxTokens:      2048,
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
	}, nil
}

func (c *anthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	tracer := otel.Tracer("bitbucket.org/mmdatafocus/suggestions_backend/genai")
	ctx, span := tracer.Start(ctx, "anthropic.messages.new")
	defer span.End()
	span.SetAttributes(attribute.String("genai.model", string(c.model)))

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.initialBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			span.SetAttributes(
				attribute.Int64("genai.input_tokens", message.Usage.InputTokens),
				attribute.Int64("genai.output_tokens", message.Usage.OutputTokens),
				attribute.Int("genai.attempts", attempt+1),
			)
			if len(message.Content) == 0 {
				return "", fmt.Errorf("unexpected response format: no content blocks")
			}
			content := message.Content[0]
			if content.Type != "text" {
				return "", fmt.Errorf("unexpected response format: not a text block (type=%s)", content.Type)
			}
			return content.Text, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isRetryable(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", fmt.Errorf("non-retryable error: %w", err)
		}
	}

	if lastErr != nil {
		span.RecordError(lastErr)
		span.SetStatus(codes.Error, lastErr.Error())
	}
	return "", fmt.Errorf("failed after %d retries: %w", c.maxRetries+1, lastErr)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		statusCode := apiErr.StatusCode
		return statusCode == 429 || statusCode >= 500
	}

	return false
}
