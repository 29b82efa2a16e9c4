package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/civicassist/civicassist/internal/domain"
)

const systemPrompt = "You are an AI assistant helping with industrial compliance questions. " +
	"Provide clear, accurate information about regulations, required documents, " +
	"and approval processes."

const degradedReply = "The compliance assistant is temporarily unavailable. " +
	"Please try again later or contact a compliance officer directly."

// contextChunks is how many retrieved chunks augment a chat turn.
const contextChunks = 3

// Service answers free-form compliance questions. When the regulation
// index has content, the latest user turn is augmented with the closest
// chunks before the model call.
type Service struct {
	chatter   Chatter
	embedder  Embedder
	retriever Retriever
	logger    *zap.Logger
}

// New creates a chat service. embedder and retriever may be nil to
// disable retrieval augmentation.
func New(chatter Chatter, embedder Embedder, retriever Retriever, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{chatter: chatter, embedder: embedder, retriever: retriever, logger: logger}
}

// Respond generates the assistant's next turn. The reply degrades to a
// fixed message when every model tier fails; callers never see an error
// for model unavailability.
func (s *Service) Respond(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: conversation must not be empty", domain.ErrInvalidInput)
	}
	for i, m := range messages {
		switch m.Role {
		case domain.RoleSystem, domain.RoleUser, domain.RoleAssistant:
		default:
			return "", fmt.Errorf("%w: message %d has unknown role %q", domain.ErrInvalidInput, i, m.Role)
		}
	}

	conversation := make([]domain.ChatMessage, 0, len(messages)+1)
	offset := 0
	if messages[0].Role != domain.RoleSystem {
		conversation = append(conversation, domain.ChatMessage{
			Role:    domain.RoleSystem,
			Content: systemPrompt,
		})
		offset = 1
	}
	conversation = append(conversation, messages...)

	// Context attaches to the turn that was embedded, which is not
	// necessarily the final message of the conversation.
	if idx := lastUserIndex(messages); idx >= 0 {
		if regulations := s.retrieveContext(ctx, messages[idx].Content); regulations != "" {
			target := idx + offset
			conversation[target].Content = fmt.Sprintf(
				"%s\n\nRelevant regulations:\n%s", conversation[target].Content, regulations,
			)
		}
	}

	reply, err := s.chatter.Chat(ctx, conversation)
	if err != nil {
		s.logger.Error("chat degraded, all tiers failed", zap.Error(err))
		return degradedReply, nil
	}
	return reply, nil
}

// lastUserIndex returns the index of the latest user turn, -1 when the
// conversation has none.
func lastUserIndex(messages []domain.ChatMessage) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return i
		}
	}
	return -1
}

// retrieveContext embeds the query and returns the closest chunks as
// prompt context. Any failure here silently skips augmentation; chat must
// keep working without the index.
func (s *Service) retrieveContext(ctx context.Context, query string) string {
	if s.embedder == nil || s.retriever == nil {
		return ""
	}
	if strings.TrimSpace(query) == "" {
		return ""
	}

	count, err := s.retriever.Count(ctx)
	if err != nil || count == 0 {
		return ""
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Debug("chat augmentation skipped", zap.Error(err))
		return ""
	}

	hits, err := s.retriever.Query(ctx, embedding.Embedding, contextChunks, nil)
	if err != nil || len(hits) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, hit := range hits {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		fmt.Fprintf(&builder, "[%s] %s", hit.Metadata.RegulationName, hit.Text)
	}
	return builder.String()
}
