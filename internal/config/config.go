package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	widgetmodel "github.com/zhouzirui/portfolio-chat/internal/model/widget"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Widget    WidgetConfig
	AI        AIConfig
	Log       LogConfig
	RateLimit RateLimitConfig
}

// Load 从环境变量加载配置。调用方负责先执行 godotenv.Load。
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	addr, err := listenAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	if err := cfg.AI.loadOptional(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port           string `env:"PORT" envDefault:"8000"`
	Addr           string
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	ChatTimeout    time.Duration `env:"CHAT_TIMEOUT" envDefault:"30s"`
	ServeChat      bool          `env:"SERVE_CHAT" envDefault:"true"`
}

// listenAddr 解析服务器监听地址。
func listenAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// WidgetConfig seeds the server-side default options for every mounted widget.
// Empty values keep the built-in defaults.
// AllowedEndpoints lists the extra chat backends a page may pick when
// mounting; WIDGET_ENDPOINT is always allowed.
type WidgetConfig struct {
	Endpoint         string        `env:"WIDGET_ENDPOINT"`
	Theme            string        `env:"WIDGET_THEME"`
	Position         string        `env:"WIDGET_POSITION"`
	Greeting         string        `env:"WIDGET_GREETING"`
	Placeholder      string        `env:"WIDGET_PLACEHOLDER"`
	Title            string        `env:"WIDGET_TITLE"`
	AllowedEndpoints []string      `env:"WIDGET_ALLOWED_ENDPOINTS" envSeparator:","`
	IdleTimeout      time.Duration `env:"WIDGET_IDLE_TIMEOUT" envDefault:"30m"`
}

// Options converts the configured values to widget options.
func (c WidgetConfig) Options() widgetmodel.Options {
	return widgetmodel.Options{
		Endpoint:    nonEmpty(c.Endpoint),
		Theme:       nonEmpty(c.Theme),
		Position:    nonEmpty(c.Position),
		Greeting:    nonEmpty(c.Greeting),
		Placeholder: nonEmpty(c.Placeholder),
		Title:       nonEmpty(c.Title),
	}
}

func nonEmpty(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// LogConfig controls pkg/logger.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// RateLimitConfig throttles message submission and widget mounting per client IP.
type RateLimitConfig struct {
	PerMinute      int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	Burst          int `env:"RATE_LIMIT_BURST" envDefault:"5"`
	MountPerMinute int `env:"RATE_LIMIT_MOUNT_PER_MINUTE" envDefault:"30"`
	MountBurst     int `env:"RATE_LIMIT_MOUNT_BURST" envDefault:"10"`
}

// Enabled reports whether submission is throttled at all.
func (c RateLimitConfig) Enabled() bool {
	return c.PerMinute > 0
}

// MountEnabled reports whether POST /api/widgets is throttled.
func (c RateLimitConfig) MountEnabled() bool {
	return c.MountPerMinute > 0
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey      string `env:"ARK_API_KEY"`
	AccessKey   string `env:"ARK_ACCESS_KEY"`
	SecretKey   string `env:"ARK_SECRET_KEY"`
	Model       string `env:"ARK_MODEL"`
	BaseURL     string `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	Region      string `env:"ARK_REGION" envDefault:"cn-beijing"`
	ProfileID   string `env:"PROFILE_ID" envDefault:"shashi"`
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// loadOptional fills the tuning knobs that stay nil when unset.
func (c *AIConfig) loadOptional() error {
	var err error
	if c.Temperature, err = parseOptionalFloatEnv("ARK_TEMPERATURE"); err != nil {
		return err
	}
	if c.TopP, err = parseOptionalFloatEnv("ARK_TOP_P"); err != nil {
		return err
	}
	if c.MaxTokens, err = parseOptionalIntEnv("ARK_MAX_TOKENS"); err != nil {
		return err
	}
	return nil
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
