package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/portfolio-chat/internal/config"
	"github.com/zhouzirui/portfolio-chat/internal/handler"
	"github.com/zhouzirui/portfolio-chat/internal/model/profile"
	"github.com/zhouzirui/portfolio-chat/internal/render"
	"github.com/zhouzirui/portfolio-chat/internal/service/ai"
	"github.com/zhouzirui/portfolio-chat/internal/service/chatclient"
	"github.com/zhouzirui/portfolio-chat/internal/service/widget"
	"github.com/zhouzirui/portfolio-chat/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logger.WarnCF("main", "failed to load .env file, continuing with system environment variables only", map[string]interface{}{
			"error": err.Error(),
		})
	}

	cfg, err := config.Load()
	if err != nil {
		logger.FatalCF("main", "failed to load configuration", map[string]interface{}{"error": err.Error()})
	}

	if err := logger.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		logger.WarnCF("main", "invalid log level, keeping info", map[string]interface{}{
			"level": cfg.Log.Level,
			"error": err.Error(),
		})
	}

	profiles := profile.NewMemoryStore(profile.Seed())
	aiService := newAIService(ctx, cfg, profiles)

	html, err := render.NewHTML()
	if err != nil {
		logger.FatalCF("main", "failed to parse widget templates", map[string]interface{}{"error": err.Error()})
	}

	client := chatclient.New(&http.Client{Timeout: cfg.Server.ChatTimeout})
	registry := widget.NewRegistry(client, cfg.Widget.Options())

	router := handler.NewRouter(ctx, cfg, registry, html, profiles, aiService)

	startServer(ctx, cfg.Server, router)
}

func newAIService(ctx context.Context, cfg *config.Config, profiles profile.Store) *ai.Service {
	if !cfg.AI.Enabled() {
		logger.InfoCF("main", "Ark credentials not configured, POST /chat disabled", nil)
		return nil
	}

	owner, ok := profiles.FindByID(cfg.AI.ProfileID)
	if !ok {
		logger.WarnCF("main", "unknown profile, falling back to default", map[string]interface{}{
			"profile": cfg.AI.ProfileID,
		})
		owner, _ = profiles.FindByID(profile.DefaultID)
	}

	svc, err := ai.NewService(ctx, owner, cfg.AI)
	if err != nil {
		logger.WarnCF("main", "failed to initialize AI service, continuing without POST /chat", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	logger.InfoCF("main", "AI service initialized", map[string]interface{}{
		"model":   cfg.AI.Model,
		"profile": owner.ID,
	})
	return svc
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.InfoCF("main", "portfolio chat server listening", map[string]interface{}{"addr": addr})
	if err := runServer(ctx, srv); err != nil {
		logger.FatalCF("main", "server error", map[string]interface{}{"error": err.Error()})
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
