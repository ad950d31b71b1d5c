package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/portfolio-chat/internal/config"
	"github.com/zhouzirui/portfolio-chat/internal/handler/chat"
	profileHandler "github.com/zhouzirui/portfolio-chat/internal/handler/profile"
	"github.com/zhouzirui/portfolio-chat/internal/handler/widget"
	middlewarePkg "github.com/zhouzirui/portfolio-chat/internal/middleware"
	profileModel "github.com/zhouzirui/portfolio-chat/internal/model/profile"
	"github.com/zhouzirui/portfolio-chat/internal/render"
	aiService "github.com/zhouzirui/portfolio-chat/internal/service/ai"
	widgetService "github.com/zhouzirui/portfolio-chat/internal/service/widget"
	"github.com/zhouzirui/portfolio-chat/pkg/utils"
)

// NewRouter wires HTTP routes to core services. aiSvc may be nil, in which case
// POST /chat is not served and widgets must point at an external backend.
// Idle widgets are evicted until ctx is done.
func NewRouter(ctx context.Context, cfg *config.Config, registry *widgetService.Registry, html *render.HTML, profiles profileModel.Store, aiSvc *aiService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.AllowOrigins(cfg.Server.AllowedOrigins))

	settings := widget.Settings{AllowedEndpoints: cfg.Widget.AllowedEndpoints}
	if cfg.RateLimit.Enabled() {
		settings.SubmitLimiter = middlewarePkg.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	}
	if cfg.RateLimit.MountEnabled() {
		settings.MountLimiter = middlewarePkg.NewRateLimiter(cfg.RateLimit.MountPerMinute, cfg.RateLimit.MountBurst)
	}

	widgetHandler := widget.New(registry, html, settings)
	go widgetHandler.Run(ctx, cfg.Widget.IdleTimeout)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"widgets": registry.Len(),
			"chat":    aiSvc != nil && cfg.Server.ServeChat,
		})
	})

	r.Route("/api", func(api chi.Router) {
		widgetHandler.RegisterRoutes(api)
		profileHandler.New(profiles).RegisterRoutes(api)
	})
	widgetHandler.RegisterPageRoutes(r)
	widgetHandler.RegisterWebSocketRoutes(r)

	if aiSvc != nil && cfg.Server.ServeChat {
		chatHandler := chat.New(aiSvc)
		if settings.SubmitLimiter != nil {
			r.With(settings.SubmitLimiter.Middleware).Group(chatHandler.RegisterRoutes)
		} else {
			chatHandler.RegisterRoutes(r)
		}
	}

	return r
}
