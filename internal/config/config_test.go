package config

import (
	"testing"
	"time"
)

func TestListenAddr(t *testing.T) {
	tests := []struct {
		name     string
		port     string
		expected string
		wantErr  bool
	}{
		{"bare port", "9000", ":9000", false},
		{"empty uses default", "", ":8000", false},
		{"host and port", "127.0.0.1:9000", "127.0.0.1:9000", false},
		{"colon prefix", ":7000", ":7000", false},
		{"contains space", "80 80", "", true},
		{"not a number", "http", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			addr, err := listenAddr(tc.port)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.port)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if addr != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, addr)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ARK_API_KEY", "")
	t.Setenv("ARK_MODEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8000" {
		t.Errorf("Expected :8000, got %q", cfg.Server.Addr)
	}
	if cfg.Server.ChatTimeout != 30*time.Second {
		t.Errorf("Expected 30s chat timeout, got %s", cfg.Server.ChatTimeout)
	}
	if cfg.AI.Enabled() {
		t.Error("Expected AI disabled without credentials")
	}
	if cfg.AI.ProfileID != "shashi" {
		t.Errorf("Expected default profile, got %q", cfg.AI.ProfileID)
	}
	if cfg.RateLimit.PerMinute != 20 || cfg.RateLimit.Burst != 5 {
		t.Errorf("Unexpected rate limit %+v", cfg.RateLimit)
	}
	if !cfg.RateLimit.MountEnabled() || cfg.RateLimit.MountBurst != 10 {
		t.Errorf("Unexpected mount limit %+v", cfg.RateLimit)
	}
	if cfg.Widget.IdleTimeout != 30*time.Minute {
		t.Errorf("Expected 30m idle timeout, got %s", cfg.Widget.IdleTimeout)
	}
}

func TestLoadWidgetOptions(t *testing.T) {
	t.Setenv("WIDGET_TITLE", "Ask Shashi")
	t.Setenv("WIDGET_ENDPOINT", "https://api.example.com")
	t.Setenv("WIDGET_THEME", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	opts := cfg.Widget.Options()
	if opts.Title == nil || *opts.Title != "Ask Shashi" {
		t.Errorf("Expected title override, got %v", opts.Title)
	}
	if opts.Endpoint == nil || *opts.Endpoint != "https://api.example.com" {
		t.Errorf("Expected endpoint override, got %v", opts.Endpoint)
	}
	if opts.Theme != nil {
		t.Errorf("Expected blank theme to keep default, got %q", *opts.Theme)
	}
	if opts.Greeting != nil {
		t.Error("Expected unset greeting to stay nil")
	}
}

func TestLoadAllowedEndpoints(t *testing.T) {
	t.Setenv("WIDGET_ALLOWED_ENDPOINTS", "https://a.example.com,https://b.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if len(cfg.Widget.AllowedEndpoints) != 2 || cfg.Widget.AllowedEndpoints[1] != "https://b.example.com/" {
		t.Fatalf("Unexpected allowed endpoints %v", cfg.Widget.AllowedEndpoints)
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Fatalf("Expected 2 origins, got %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadOptionalTuning(t *testing.T) {
	t.Setenv("ARK_TEMPERATURE", "0.3")
	t.Setenv("ARK_MAX_TOKENS", "512")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.AI.Temperature == nil || *cfg.AI.Temperature != 0.3 {
		t.Errorf("Expected temperature 0.3, got %v", cfg.AI.Temperature)
	}
	if cfg.AI.MaxTokens == nil || *cfg.AI.MaxTokens != 512 {
		t.Errorf("Expected max tokens 512, got %v", cfg.AI.MaxTokens)
	}
	if cfg.AI.TopP != nil {
		t.Error("Expected unset top_p to stay nil")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "PORT", "eighty"},
		{"bad temperature", "ARK_TEMPERATURE", "warm"},
		{"bad timeout", "CHAT_TIMEOUT", "soon"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}

func TestAIConfigEnabled(t *testing.T) {
	tests := []struct {
		name     string
		cfg      AIConfig
		expected bool
	}{
		{"api key and model", AIConfig{APIKey: "k", Model: "m"}, true},
		{"ak sk and model", AIConfig{AccessKey: "a", SecretKey: "s", Model: "m"}, true},
		{"missing model", AIConfig{APIKey: "k"}, false},
		{"partial ak sk", AIConfig{AccessKey: "a", Model: "m"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.Enabled(); got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}
