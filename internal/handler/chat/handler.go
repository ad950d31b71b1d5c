package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/portfolio-chat/internal/model/chat"
	"github.com/zhouzirui/portfolio-chat/internal/service/ai"
	"github.com/zhouzirui/portfolio-chat/pkg/logger"
	"github.com/zhouzirui/portfolio-chat/pkg/utils"
)

const maxRequestBytes = 256 << 10

// Replier answers one chat request.
type Replier interface {
	Reply(ctx context.Context, req chat.Request) (chat.Response, error)
}

// Handler 聊天后端的HTTP处理器
type Handler struct {
	replier Replier
}

// New 创建聊天处理器
func New(replier Replier) *Handler {
	return &Handler{replier: replier}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

// handleChat 处理 widget 发来的一轮对话
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.replier.Reply(r.Context(), req)
	if err != nil {
		if errors.Is(err, ai.ErrEmptyMessage) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.ErrorCF("chat", "reply failed", map[string]interface{}{
			"history": len(req.ConversationHistory),
			"error":   err.Error(),
		})
		utils.RespondError(w, http.StatusBadGateway, "assistant unavailable")
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}
