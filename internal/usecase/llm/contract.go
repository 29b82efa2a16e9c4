package llm

import (
	"context"

	"github.com/civicassist/civicassist/internal/domain"
)

// ChatTier is one attempt source in the gateway's escalation order.
type ChatTier interface {
	Tier() string
	ChatCompletion(ctx context.Context, messages []domain.ChatMessage, jsonMode bool) (string, error)
}
