package widget

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zhouzirui/portfolio-chat/internal/middleware"
	"github.com/zhouzirui/portfolio-chat/internal/model/chat"
	widgetmodel "github.com/zhouzirui/portfolio-chat/internal/model/widget"
	"github.com/zhouzirui/portfolio-chat/internal/render"
	widgetservice "github.com/zhouzirui/portfolio-chat/internal/service/widget"
	"github.com/zhouzirui/portfolio-chat/pkg/logger"
	"github.com/zhouzirui/portfolio-chat/pkg/utils"
)

const maxOptionsBytes = 64 << 10

var errEndpointNotAllowed = errors.New("endpoint not allowed")

// Settings guards the public widget surface. A nil limiter disables that
// throttle.
type Settings struct {
	// SubmitLimiter meters every exchange with the chat API, over HTTP and
	// WebSocket alike.
	SubmitLimiter *middleware.RateLimiter
	// MountLimiter meters POST /widgets.
	MountLimiter *middleware.RateLimiter
	// AllowedEndpoints are the chat backends a page may pick besides the
	// registry default.
	AllowedEndpoints []string
}

// Handler exposes mounted widgets over HTTP.
type Handler struct {
	registry  *widgetservice.Registry
	html      *render.HTML
	submit    *middleware.RateLimiter
	mount     *middleware.RateLimiter
	endpoints map[string]struct{}

	mu   sync.Mutex
	hubs map[string]*Hub
}

// New creates the widget handler.
func New(registry *widgetservice.Registry, html *render.HTML, settings Settings) *Handler {
	endpoints := map[string]struct{}{
		normalizeEndpoint(registry.Defaults().Endpoint): {},
	}
	for _, e := range settings.AllowedEndpoints {
		if e = normalizeEndpoint(e); e != "" {
			endpoints[e] = struct{}{}
		}
	}

	return &Handler{
		registry:  registry,
		html:      html,
		submit:    settings.SubmitLimiter,
		mount:     settings.MountLimiter,
		endpoints: endpoints,
		hubs:      make(map[string]*Hub),
	}
}

func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

func normalizeEndpoint(endpoint string) string {
	return strings.TrimRight(strings.TrimSpace(endpoint), "/")
}

// endpointAllowed keeps the server from calling arbitrary URLs on a visitor's
// behalf.
func (h *Handler) endpointAllowed(endpoint string) bool {
	_, ok := h.endpoints[normalizeEndpoint(endpoint)]
	return ok
}

// allowExchange reports whether ip may start another chat API call.
func (h *Handler) allowExchange(ip string) bool {
	return h.submit == nil || h.submit.Allow(ip)
}

// RegisterRoutes 注册 widget 相关的 API 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/widgets", func(wr chi.Router) {
		wr.With(limit(h.mount)).Post("/", h.handleInitialize)
		wr.Route("/{widgetID}", func(one chi.Router) {
			one.Get("/", h.handleGetState)
			one.Delete("/", h.handleRemove)
			one.Post("/toggle", h.handleToggle)
			one.Delete("/history", h.handleClearHistory)
			one.Get("/events", h.handleEvents)
			one.With(limit(h.submit)).Post("/messages", h.handleSubmit)
			one.With(limit(h.submit)).Post("/quick-actions/{index}", h.handleQuickAction)
		})
	})
}

// RegisterPageRoutes serves the embeddable widget markup.
func (h *Handler) RegisterPageRoutes(r chi.Router) {
	r.Get("/widgets/{widgetID}", h.handlePage)
}

type stateResponse struct {
	ID               string                    `json:"id"`
	Config           widgetmodel.Config        `json:"config"`
	State            chat.State                `json:"state"`
	History          []chat.Entry              `json:"history"`
	Turns            []chat.Turn               `json:"turns"`
	QuickActions     []widgetmodel.QuickAction `json:"quickActions,omitempty"`
	ShowQuickActions bool                      `json:"showQuickActions"`
	Unread           bool                      `json:"unread"`
}

func newStateResponse(w *widgetservice.Widget) stateResponse {
	snap := w.Transcript()
	resp := stateResponse{
		ID:               w.ID(),
		Config:           w.Config(),
		State:            snap.State,
		History:          w.History(),
		Turns:            snap.Turns,
		ShowQuickActions: snap.ShowQuickActions,
		Unread:           snap.Unread,
	}
	if snap.ShowQuickActions {
		resp.QuickActions = snap.QuickActions
	}
	return resp
}

// handleInitialize mounts a widget. Sending an existing id replaces that
// instance with a fresh one. An endpoint outside the allowlist is rejected.
func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID string `json:"id"`
		widgetmodel.Options
	}

	if err := json.NewDecoder(io.LimitReader(r.Body, maxOptionsBytes)).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Endpoint != nil && !h.endpointAllowed(*payload.Endpoint) {
		utils.RespondError(w, http.StatusBadRequest, errEndpointNotAllowed.Error())
		return
	}

	id := payload.ID
	if id == "" {
		id = r.URL.Query().Get("id")
	}
	if id == "" {
		id = uuid.NewString()
	}

	widget := h.mountWidget(id, payload.Options)

	utils.RespondJSON(w, http.StatusCreated, newStateResponse(widget))
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	widget, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, newStateResponse(widget))
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "widgetID")

	h.mu.Lock()
	err := h.registry.Remove(id)
	if err == nil {
		h.dropHubLocked(id)
	}
	h.mu.Unlock()

	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	widget, ok := h.lookup(w, r)
	if !ok {
		return
	}
	widget.Toggle()
	utils.RespondJSON(w, http.StatusOK, newStateResponse(widget))
}

func (h *Handler) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	widget, ok := h.lookup(w, r)
	if !ok {
		return
	}
	widget.ClearHistory()
	utils.RespondJSON(w, http.StatusOK, newStateResponse(widget))
}

type submitResponse struct {
	Result        string     `json:"result"`
	HistoryLength int        `json:"historyLength"`
	State         chat.State `json:"state"`
}

// handleSubmit runs one exchange and reports how it ended. The exchange is not
// tied to the HTTP request, so a visitor navigating away does not cut it short.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	widget, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxOptionsBytes)).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := widget.Submit(context.WithoutCancel(r.Context()), payload.Message)
	utils.RespondJSON(w, http.StatusOK, submitResponse{
		Result:        result.String(),
		HistoryLength: len(widget.History()),
		State:         widget.State(),
	})
}

func (h *Handler) handleQuickAction(w http.ResponseWriter, r *http.Request) {
	widget, ok := h.lookup(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid quick action index")
		return
	}

	result, err := widget.QuickAction(context.WithoutCancel(r.Context()), index)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, submitResponse{
		Result:        result.String(),
		HistoryLength: len(widget.History()),
		State:         widget.State(),
	})
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	widget, ok := h.lookup(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.html.Page(w, widget.Transcript()); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to render widget")
	}
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*widgetservice.Widget, bool) {
	widget, err := h.registry.Get(chi.URLParam(r, "widgetID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return widget, true
}

// mountWidget initializes id with its hub. h.mu is held across both so an
// eviction cannot close the hub a fresh instance is rendering into.
func (h *Handler) mountWidget(id string, opts widgetmodel.Options) *widgetservice.Widget {
	h.mu.Lock()
	defer h.mu.Unlock()

	hub, ok := h.hubs[id]
	if !ok {
		hub = NewHub(id, h.html)
		h.hubs[id] = hub
	}
	return h.registry.Initialize(id, opts, hub)
}

func (h *Handler) hub(id string) (*Hub, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	hub, ok := h.hubs[id]
	return hub, ok
}

func (h *Handler) dropHubLocked(id string) {
	if hub, ok := h.hubs[id]; ok {
		delete(h.hubs, id)
		hub.Close()
	}
}

// evictIdle removes instances unused since cutoff that no page is watching,
// closing their hubs. It returns how many were removed.
func (h *Handler) evictIdle(cutoff time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := h.registry.SweepIdle(cutoff, func(id string) bool {
		hub, ok := h.hubs[id]
		return ok && hub.Subscribers() > 0
	})
	for _, id := range ids {
		h.dropHubLocked(id)
	}
	if len(ids) > 0 {
		logger.InfoCF("widget", "evicted idle widgets", map[string]interface{}{
			"count":     len(ids),
			"remaining": h.registry.Len(),
		})
	}
	return len(ids)
}

// Run evicts instances idle for longer than idle until ctx is done.
func (h *Handler) Run(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}

	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.evictIdle(now.Add(-idle))
		}
	}
}
