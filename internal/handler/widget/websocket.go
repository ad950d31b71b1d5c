package widget

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/portfolio-chat/internal/middleware"
	widgetservice "github.com/zhouzirui/portfolio-chat/internal/service/widget"
	"github.com/zhouzirui/portfolio-chat/pkg/logger"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Inbound message types sent by the page.
const (
	MessageSubmit      = "submit"
	MessageToggle      = "toggle"
	MessageClear       = "clear"
	MessageQuickAction = "quick_action"
)

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type controlPayload struct {
	Message string `json:"message"`
	Index   int    `json:"index"`
}

var errTooManyRequests = errors.New("too many requests, please try again later")

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *Handler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/widgets/{widgetID}", h.handleWebSocket)
}

// handleWebSocket binds one page to a mounted widget. Hub events are written
// by a single goroutine; inbound controls are dispatched to the widget.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "widgetID")
	ip := middleware.ClientIP(r)
	if _, err := h.registry.Get(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	hub, ok := h.hub(id)
	if !ok {
		http.Error(w, "widget has no event stream", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnCF("websocket", "upgrade failed", map[string]interface{}{
			"widget": id,
			"error":  err.Error(),
		})
		return
	}
	defer conn.Close()

	logger.InfoCF("websocket", "page connected", map[string]interface{}{"widget": id})

	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outbound := make(chan interface{}, subscriberBuffer)
	done := make(chan struct{})
	go writeLoop(ctx, conn, events, outbound, done)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.WarnCF("websocket", "read error", map[string]interface{}{
					"widget": id,
					"error":  err.Error(),
				})
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		// The widget may have been replaced since the page connected.
		widget, err := h.registry.Get(id)
		if err != nil {
			queue(outbound, errorEvent{Type: "error", Message: err.Error()})
			break
		}
		if err := h.dispatch(widget, ip, &msg); err != nil {
			queue(outbound, errorEvent{Type: "error", Message: err.Error()})
		}
	}

	cancel()
	<-done
	logger.InfoCF("websocket", "page disconnected", map[string]interface{}{"widget": id})
}

// dispatch applies one page control from ip. Exchanges share the HTTP submit
// budget and run in the background so the read loop keeps serving toggles
// while a reply is pending.
func (h *Handler) dispatch(widget *widgetservice.Widget, ip string, msg *inboundMessage) error {
	var payload controlPayload
	if len(msg.Data) > 0 && string(msg.Data) != "null" {
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return errors.New("invalid " + msg.Type + " payload")
		}
	}

	switch msg.Type {
	case MessageSubmit:
		if !h.allowExchange(ip) {
			return errTooManyRequests
		}
		go widget.Submit(context.Background(), payload.Message)
	case MessageToggle:
		widget.Toggle()
	case MessageClear:
		widget.ClearHistory()
	case MessageQuickAction:
		if payload.Index < 0 || payload.Index >= len(widget.Transcript().QuickActions) {
			return widgetservice.ErrUnknownQuickAction
		}
		if !h.allowExchange(ip) {
			return errTooManyRequests
		}
		go func(index int) {
			if _, err := widget.QuickAction(context.Background(), index); err != nil {
				logger.WarnCF("websocket", "quick action failed", map[string]interface{}{
					"widget": widget.ID(),
					"index":  index,
					"error":  err.Error(),
				})
			}
		}(payload.Index)
	default:
		return &unsupportedMessageError{kind: msg.Type}
	}
	return nil
}

type unsupportedMessageError struct {
	kind string
}

func (e *unsupportedMessageError) Error() string {
	return "unsupported message type: " + e.kind
}

func queue(outbound chan<- interface{}, v interface{}) {
	select {
	case outbound <- v:
	default:
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, events <-chan Event, outbound <-chan interface{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(v interface{}) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(v); err != nil {
			logger.DebugCF("websocket", "write failed", map[string]interface{}{"error": err.Error()})
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "widget removed"))
				return
			}
			if !write(ev) {
				return
			}
		case v := <-outbound:
			if !write(v) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
