package widget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zhouzirui/portfolio-chat/internal/model/chat"
	widgetmodel "github.com/zhouzirui/portfolio-chat/internal/model/widget"
	"github.com/zhouzirui/portfolio-chat/internal/service/chatclient"
	"github.com/zhouzirui/portfolio-chat/pkg/logger"
)

// ErrorMessage is shown as an error-marked assistant turn when an exchange fails.
const ErrorMessage = "I'm sorry, I'm having trouble connecting right now. Please try again later."

var ErrUnknownQuickAction = errors.New("unknown quick action")

// Result describes how a Submit call ended.
type Result int

const (
	// ResultIgnored means nothing happened: blank input, a send already in flight,
	// or a closed widget.
	ResultIgnored Result = iota
	ResultReplied
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultReplied:
		return "replied"
	case ResultFailed:
		return "failed"
	default:
		return "ignored"
	}
}

// Option tunes a Widget at construction.
type Option func(*Widget)

// WithID sets the instance identifier used in snapshots and logs.
func WithID(id string) Option {
	return func(w *Widget) {
		w.id = id
	}
}

// WithClock overrides the time source used to stamp turns.
func WithClock(now func() time.Time) Option {
	return func(w *Widget) {
		if now != nil {
			w.now = now
		}
	}
}

// Widget owns one chat instance: its configuration, transcript, history and
// session flags. At most one exchange with the chat API is in flight at a time.
type Widget struct {
	id           string
	cfg          widgetmodel.Config
	client       chatclient.Client
	quickActions []widgetmodel.QuickAction
	now          func() time.Time

	mu         sync.Mutex
	renderer   Renderer
	history    []chat.Entry
	transcript []chat.Turn
	state      chat.State
	showQuick  bool
	unread     bool
	epoch      uint64
	closed     bool
}

// New builds a widget from opts merged over the defaults and draws its initial
// view: greeting, quick actions, closed panel.
func New(opts widgetmodel.Options, renderer Renderer, client chatclient.Client, options ...Option) *Widget {
	if renderer == nil {
		renderer = nopRenderer{}
	}

	w := &Widget{
		cfg:          widgetmodel.Merge(widgetmodel.Defaults(), opts),
		client:       client,
		quickActions: widgetmodel.SeedQuickActions(),
		now:          time.Now,
		renderer:     renderer,
		showQuick:    true,
	}
	for _, opt := range options {
		opt(w)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.transcript = []chat.Turn{w.greetingTurn()}
	w.renderer.SetPanelOpen(false)
	w.renderer.SetLoadingIndicator(false)
	w.renderLocked()
	return w
}

// ID returns the instance identifier.
func (w *Widget) ID() string {
	return w.id
}

// Config returns the merged configuration.
func (w *Widget) Config() widgetmodel.Config {
	return w.cfg
}

// State returns the current session flags.
func (w *Widget) State() chat.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// History returns a copy of the conversation history.
func (w *Widget) History() []chat.Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]chat.Entry{}, w.history...)
}

// Transcript returns what the renderer was last asked to draw.
func (w *Widget) Transcript() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Toggle flips panel visibility and reports the new value.
func (w *Widget) Toggle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setOpenLocked(!w.state.IsOpen)
	return w.state.IsOpen
}

// SetOpen shows or hides the panel. It is a no-op when already in that state.
func (w *Widget) SetOpen(open bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.IsOpen != open {
		w.setOpenLocked(open)
	}
}

func (w *Widget) setOpenLocked(open bool) {
	if w.closed {
		return
	}
	w.state.IsOpen = open
	if open {
		w.unread = false
	}
	w.renderer.SetPanelOpen(open)
	w.renderLocked()
}

// ClearHistory empties the history and resets the transcript to the greeting.
// Panel and loading flags are left alone.
func (w *Widget) ClearHistory() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	w.history = nil
	w.transcript = []chat.Turn{w.greetingTurn()}
	w.showQuick = false
	w.unread = false
	w.epoch++
	w.renderLocked()
}

// QuickAction submits the predefined message at index. The shortcuts hide
// themselves on first use.
func (w *Widget) QuickAction(ctx context.Context, index int) (Result, error) {
	if index < 0 || index >= len(w.quickActions) {
		return ResultIgnored, fmt.Errorf("%w: %d", ErrUnknownQuickAction, index)
	}

	w.mu.Lock()
	if !w.closed && w.showQuick {
		w.showQuick = false
		w.renderLocked()
	}
	w.mu.Unlock()

	return w.Submit(ctx, w.quickActions[index].Message), nil
}

// Submit sends one visitor message and blocks until the exchange settles.
// Blank input and calls made while another exchange is in flight are ignored.
func (w *Widget) Submit(ctx context.Context, raw string) Result {
	message := strings.TrimSpace(raw)
	if message == "" {
		return ResultIgnored
	}

	w.mu.Lock()
	if w.closed || w.state.IsLoading {
		w.mu.Unlock()
		return ResultIgnored
	}

	w.transcript = append(w.transcript, chat.Turn{Role: chat.RoleUser, Content: message, CreatedAt: w.now()})
	w.history = append(w.history, chat.Entry{Role: chat.RoleUser, Content: message})
	req := chat.Request{
		Message:             message,
		ConversationHistory: Window(w.history, HistoryWindow),
	}
	w.state.IsLoading = true
	w.renderer.SetLoadingIndicator(true)
	w.renderLocked()
	epoch := w.epoch
	w.mu.Unlock()

	defer w.settle()

	resp, err := w.exchange(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		logger.ErrorCF("widget", "chat exchange failed", map[string]interface{}{
			"widget":   w.id,
			"endpoint": w.cfg.ChatURL(),
			"error":    err.Error(),
		})
		if w.epoch == epoch {
			w.transcript = append(w.transcript, chat.Turn{
				Role:      chat.RoleAssistant,
				Content:   ErrorMessage,
				Error:     true,
				CreatedAt: w.now(),
			})
		}
		return ResultFailed
	}

	// A reply that lands after ClearHistory belongs to a conversation that no
	// longer exists.
	if w.epoch == epoch {
		w.transcript = append(w.transcript, chat.Turn{Role: chat.RoleAssistant, Content: resp.Response, CreatedAt: w.now()})
		w.history = append(w.history, chat.Entry{Role: chat.RoleAssistant, Content: resp.Response})
		if !w.state.IsOpen {
			w.unread = true
		}
	}
	return ResultReplied
}

// exchange performs the single backend call, converting a panicking client
// into an ordinary failure.
func (w *Widget) exchange(ctx context.Context, req chat.Request) (resp chat.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chat client panic: %v", r)
		}
	}()

	if w.client == nil {
		return chat.Response{}, errors.New("chat client not configured")
	}
	return w.client.Send(ctx, w.cfg.Endpoint, req)
}

// settle clears the loading flag on every exit path of Submit.
func (w *Widget) settle() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state.IsLoading = false
	w.renderer.SetLoadingIndicator(false)
	w.renderLocked()
}

// Close detaches the renderer. Later calls leave the widget untouched.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.renderer = nopRenderer{}
}

func (w *Widget) greetingTurn() chat.Turn {
	return chat.Turn{
		Role:      chat.RoleAssistant,
		Content:   w.cfg.Greeting,
		Greeting:  true,
		CreatedAt: w.now(),
	}
}

func (w *Widget) renderLocked() {
	w.renderer.Render(w.snapshotLocked())
}

func (w *Widget) snapshotLocked() Snapshot {
	return Snapshot{
		ID:               w.id,
		Config:           w.cfg,
		Turns:            append([]chat.Turn(nil), w.transcript...),
		QuickActions:     append([]widgetmodel.QuickAction(nil), w.quickActions...),
		ShowQuickActions: w.showQuick,
		Unread:           w.unread,
		State:            w.state,
	}
}
