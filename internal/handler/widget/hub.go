package widget

import (
	"sync"

	"github.com/zhouzirui/portfolio-chat/internal/model/chat"
	"github.com/zhouzirui/portfolio-chat/internal/render"
	widgetservice "github.com/zhouzirui/portfolio-chat/internal/service/widget"
	"github.com/zhouzirui/portfolio-chat/pkg/logger"
)

const subscriberBuffer = 32

// Event types pushed to the page.
const (
	EventRender  = "render"
	EventLoading = "loading"
	EventPanel   = "panel"
)

// Event is one presentation update for a mounted widget.
type Event struct {
	Type    string     `json:"type"`
	HTML    string     `json:"html,omitempty"`
	Open    bool       `json:"open"`
	Loading bool       `json:"loading"`
	Unread  bool       `json:"unread"`
	State   chat.State `json:"state"`
}

// Hub is the rendering adapter for one mount id. It turns renderer calls into
// Events and fans them out to WebSocket and SSE subscribers. It outlives widget
// re-initialization so connected pages keep receiving updates.
type Hub struct {
	id   string
	html *render.HTML

	mu      sync.RWMutex
	subs    map[chan Event]struct{}
	render  *Event
	open    bool
	loading bool
	closed  bool
}

var _ widgetservice.Renderer = (*Hub)(nil)

// NewHub creates a hub that renders fragments with html.
func NewHub(id string, html *render.HTML) *Hub {
	return &Hub{
		id:   id,
		html: html,
		subs: make(map[chan Event]struct{}),
	}
}

// Render implements widget.Renderer.
func (h *Hub) Render(snap widgetservice.Snapshot) {
	fragment, err := h.html.TranscriptString(snap)
	if err != nil {
		logger.ErrorCF("hub", "failed to render transcript", map[string]interface{}{
			"widget": h.id,
			"error":  err.Error(),
		})
		return
	}

	ev := Event{
		Type:    EventRender,
		HTML:    fragment,
		Open:    snap.State.IsOpen,
		Loading: snap.State.IsLoading,
		Unread:  snap.Unread,
		State:   snap.State,
	}

	h.mu.Lock()
	h.render = &ev
	h.mu.Unlock()

	h.publish(ev)
}

// SetLoadingIndicator implements widget.Renderer.
func (h *Hub) SetLoadingIndicator(visible bool) {
	h.mu.Lock()
	h.loading = visible
	h.mu.Unlock()

	h.publish(Event{Type: EventLoading, Loading: visible})
}

// SetPanelOpen implements widget.Renderer.
func (h *Hub) SetPanelOpen(open bool) {
	h.mu.Lock()
	h.open = open
	h.mu.Unlock()

	h.publish(Event{Type: EventPanel, Open: open})
}

// Subscribe registers a listener. The current view is queued first so a page
// that connects late starts in sync. The returned func unsubscribes.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	ch <- Event{Type: EventPanel, Open: h.open}
	ch <- Event{Type: EventLoading, Loading: h.loading}
	if h.render != nil {
		ch <- *h.render
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
			h.mu.Unlock()
		})
	}
}

// Subscribers reports the number of live listeners.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *Hub) publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			logger.WarnCF("hub", "dropping event for slow subscriber", map[string]interface{}{
				"widget": h.id,
				"event":  ev.Type,
			})
		}
	}
}
