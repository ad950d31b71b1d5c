package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/portfolio-chat/internal/model/chat"
	"github.com/zhouzirui/portfolio-chat/internal/model/profile"
)

type fakeModel struct {
	mu    sync.Mutex
	input []*schema.Message
	reply string
	err   error
}

func (m *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.input = input
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *fakeModel) BindTools([]*schema.ToolInfo) error { return nil }

func newTestService(t *testing.T, m *fakeModel) *Service {
	t.Helper()
	svc, err := NewServiceWithModel(context.Background(), profile.Seed()[0], m)
	require.NoError(t, err)
	return svc
}

func TestReplySendsSystemHistoryAndQuery(t *testing.T) {
	m := &fakeModel{reply: "I work on patents."}
	svc := newTestService(t, m)

	resp, err := svc.Reply(context.Background(), chat.Request{
		Message: "What do you do?",
		ConversationHistory: []chat.Entry{
			{Role: chat.RoleUser, Content: "Hi"},
			{Role: chat.RoleAssistant, Content: "Hello!"},
			{Role: chat.RoleUser, Content: "What do you do?"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "I work on patents.", resp.Response)

	require.Len(t, m.input, 4)
	assert.Equal(t, schema.System, m.input[0].Role)
	assert.Contains(t, m.input[0].Content, "Shashi Bhushan Jha")
	assert.Equal(t, "Hi", m.input[1].Content)
	assert.Equal(t, schema.Assistant, m.input[2].Role)
	assert.Equal(t, schema.User, m.input[3].Role)
	assert.Equal(t, "What do you do?", m.input[3].Content)
}

func TestReplyRejectsBlankMessage(t *testing.T) {
	svc := newTestService(t, &fakeModel{})

	_, err := svc.Reply(context.Background(), chat.Request{Message: "  "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestReplyWrapsModelError(t *testing.T) {
	boom := errors.New("quota exceeded")
	svc := newTestService(t, &fakeModel{err: boom})

	_, err := svc.Reply(context.Background(), chat.Request{Message: "hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestBuildHistoryMessagesCapsWindow(t *testing.T) {
	entries := make([]chat.Entry, 0, 14)
	for i := 0; i < 14; i++ {
		role := chat.RoleUser
		if i%2 == 1 {
			role = chat.RoleAssistant
		}
		entries = append(entries, chat.Entry{Role: role, Content: strings.Repeat("x", i+1)})
	}

	history := buildHistoryMessages(entries, "new question")
	require.Len(t, history, historyLimit)
	assert.Equal(t, strings.Repeat("x", 5), history[0].Content)
	assert.Equal(t, strings.Repeat("x", 14), history[len(history)-1].Content)
}

func TestBuildHistoryMessagesKeepsDifferentTrailingUserTurn(t *testing.T) {
	entries := []chat.Entry{{Role: chat.RoleUser, Content: "first"}}

	history := buildHistoryMessages(entries, "second")
	require.Len(t, history, 1)
	assert.Equal(t, "first", history[0].Content)

	assert.Empty(t, buildHistoryMessages(entries, "first"))
}

func TestBuildSystemPromptListsProfile(t *testing.T) {
	p := profile.Seed()[0]
	prompt := BuildSystemPrompt(p)

	for _, skill := range p.Skills {
		assert.Contains(t, prompt, skill)
	}
	assert.Contains(t, prompt, p.Contact)
	assert.Contains(t, prompt, p.Guardrail)
}
