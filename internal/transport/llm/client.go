package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/civicassist/civicassist/internal/domain"
)

// Client is one chat-completion tier of the gateway, speaking the
// OpenAI-compatible wire contract (local LM Studio/Ollama endpoints and
// hosted APIs alike). Every call is bounded by the configured timeout;
// a timed-out call is abandoned, not retried.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	tier        string
	logger      *zap.Logger
}

// Config holds one tier's endpoint settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Tier        string
	Logger      *zap.Logger
}

// NewClient creates a chat-completion client for one gateway tier.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		tier:        cfg.Tier,
		logger:      logger,
	}
}

// Tier returns the tier name this client serves ("primary" or "secondary").
func (c *Client) Tier() string { return c.tier }

// ChatCompletion sends one chat request and returns the raw reply content.
// Transport failures, non-2xx responses, timeouts and empty replies all
// fail with ErrTierFailed so the gateway can escalate uniformly.
func (c *Client) ChatCompletion(ctx context.Context, messages []domain.ChatMessage, jsonMode bool) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toWireMessages(messages),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      false,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(callCtx, req)
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("llm request timed out",
				zap.String("tier", c.tier),
				zap.Duration("timeout", c.timeout),
			)
			return "", fmt.Errorf("%w: %s tier timed out after %s", domain.ErrTierFailed, c.tier, c.timeout)
		}
		c.logger.Warn("llm request failed",
			zap.String("tier", c.tier),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %s tier: %w", domain.ErrTierFailed, c.tier, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: %s tier returned empty content", domain.ErrTierFailed, c.tier)
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("llm response received",
		zap.String("tier", c.tier),
		zap.Int("content_len", len(content)),
		zap.Duration("latency", duration),
	)
	return content, nil
}

func toWireMessages(messages []domain.ChatMessage) []openai.ChatCompletionMessage {
	wire := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		wire[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return wire
}
