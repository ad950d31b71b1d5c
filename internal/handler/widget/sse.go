package widget

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/portfolio-chat/pkg/logger"
	"github.com/zhouzirui/portfolio-chat/pkg/utils"
)

const keepAliveInterval = 25 * time.Second

// handleEvents streams hub events to pages that cannot hold a WebSocket.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "widgetID")
	if _, err := h.registry.Get(id); err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	hub, ok := h.hub(id)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "widget has no event stream")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				utils.SendSSEEvent(w, flusher, "end", map[string]string{"widget": id})
				return
			}
			if err := utils.SendSSEEvent(w, flusher, ev.Type, ev); err != nil {
				logger.DebugCF("sse", "client went away", map[string]interface{}{
					"widget": id,
					"error":  err.Error(),
				})
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		}
	}
}
