package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/portfolio-chat/internal/config"
	"github.com/zhouzirui/portfolio-chat/internal/model/chat"
	"github.com/zhouzirui/portfolio-chat/internal/model/profile"
	"github.com/zhouzirui/portfolio-chat/pkg/logger"
)

const historyLimit = 10

var ErrEmptyMessage = errors.New("message is required")

// Service answers chat requests with an LLM chain grounded on one profile.
type Service struct {
	chatModel model.BaseChatModel
	profile   profile.Profile
	system    string
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the service with the Ark model described by cfg.
func NewService(ctx context.Context, p profile.Profile, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, p, chatModel)
}

// NewServiceWithModel builds the chain around an existing chat model.
func NewServiceWithModel(ctx context.Context, p profile.Profile, chatModel model.BaseChatModel) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		profile:   p,
		system:    BuildSystemPrompt(p),
		chain:     runnable,
	}, nil
}

// Reply answers one widget request.
func (s *Service) Reply(ctx context.Context, req chat.Request) (chat.Response, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return chat.Response{}, ErrEmptyMessage
	}

	response, err := s.chain.Invoke(ctx, s.buildChainInput(req.ConversationHistory, message))
	if err != nil {
		return chat.Response{}, fmt.Errorf("failed to run AI chain: %w", err)
	}

	logger.InfoCF("ai", "generated response", map[string]interface{}{
		"profile": s.profile.ID,
		"history": len(req.ConversationHistory),
		"length":  len(response.Content),
	})
	return chat.Response{Response: response.Content}, nil
}

func (s *Service) buildChainInput(history []chat.Entry, message string) map[string]any {
	return map[string]any{
		"system":  s.system,
		"history": buildHistoryMessages(history, message),
		"query":   message,
	}
}

// buildHistoryMessages keeps the most recent entries. The widget sends the
// current message as the last history entry; that copy is dropped so the
// model sees it once.
func buildHistoryMessages(entries []chat.Entry, message string) []*schema.Message {
	if hasMatchingUserMessage(entries, message) {
		entries = entries[:len(entries)-1]
	}
	if len(entries) == 0 {
		return nil
	}

	startIdx := 0
	if len(entries) > historyLimit {
		startIdx = len(entries) - historyLimit
	}

	history := make([]*schema.Message, 0, len(entries)-startIdx)
	for _, entry := range entries[startIdx:] {
		switch entry.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(entry.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(entry.Content, nil))
		}
	}

	return history
}

func hasMatchingUserMessage(entries []chat.Entry, content string) bool {
	if len(entries) == 0 {
		return false
	}
	last := entries[len(entries)-1]
	return last.Role == chat.RoleUser && strings.TrimSpace(last.Content) == content
}
