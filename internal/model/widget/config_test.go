package widget

import (
	"encoding/json"
	"testing"
)

func TestMergeKeepsDefaultsForOmittedKeys(t *testing.T) {
	cfg := Merge(Defaults(), Options{})
	if cfg != Defaults() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestMergeOverridesExactlyTheGivenKey(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		check func(Config) bool
	}{
		{"endpoint", Options{Endpoint: String("https://api.example.com")}, func(c Config) bool { return c.Endpoint == "https://api.example.com" }},
		{"theme", Options{Theme: String("light")}, func(c Config) bool { return c.Theme == "light" }},
		{"position", Options{Position: String("bottom-left")}, func(c Config) bool { return c.Position == "bottom-left" }},
		{"greeting", Options{Greeting: String("Hello")}, func(c Config) bool { return c.Greeting == "Hello" }},
		{"placeholder", Options{Placeholder: String("Ask me")}, func(c Config) bool { return c.Placeholder == "Ask me" }},
		{"title", Options{Title: String("Bot")}, func(c Config) bool { return c.Title == "Bot" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Merge(Defaults(), tc.opts)
			if !tc.check(cfg) {
				t.Fatalf("override not applied: %+v", cfg)
			}

			diff := 0
			def := Defaults()
			for _, pair := range [][2]string{
				{cfg.Endpoint, def.Endpoint},
				{cfg.Theme, def.Theme},
				{cfg.Position, def.Position},
				{cfg.Greeting, def.Greeting},
				{cfg.Placeholder, def.Placeholder},
				{cfg.Title, def.Title},
			} {
				if pair[0] != pair[1] {
					diff++
				}
			}
			if diff != 1 {
				t.Fatalf("expected exactly one changed key, got %d", diff)
			}
		})
	}
}

func TestOptionsIgnoreUnknownKeys(t *testing.T) {
	var opts Options
	raw := []byte(`{"theme":"light","unknown":"x","apiUrl":"ignored"}`)
	if err := json.Unmarshal(raw, &opts); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}

	cfg := Merge(Defaults(), opts)
	if cfg.Theme != "light" {
		t.Fatalf("expected theme light, got %s", cfg.Theme)
	}
	if cfg.Endpoint != DefaultEndpoint {
		t.Fatalf("expected default endpoint, got %s", cfg.Endpoint)
	}
}

func TestOverlayPrefersTop(t *testing.T) {
	base := Options{Theme: String("light"), Title: String("Base")}
	got := base.Overlay(Options{Title: String("Top")})

	if *got.Theme != "light" || *got.Title != "Top" {
		t.Fatalf("unexpected overlay result: theme=%s title=%s", *got.Theme, *got.Title)
	}
}

func TestChatURLTrimsTrailingSlash(t *testing.T) {
	cfg := Config{Endpoint: "https://api.example.com/"}
	if got := cfg.ChatURL(); got != "https://api.example.com/chat" {
		t.Fatalf("unexpected chat url %s", got)
	}
}
