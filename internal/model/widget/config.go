package widget

import "strings"

// Default values used when an option is omitted.
const (
	DefaultEndpoint    = "http://localhost:8000"
	DefaultTheme       = "dark"
	DefaultPosition    = "bottom-right"
	DefaultGreeting    = "Hi! I'm Shashi's AI Assistant. How can I help you today?"
	DefaultPlaceholder = "Type your message..."
	DefaultTitle       = "Shashi's AI Assistant"
)

// Config is the immutable configuration of one widget instance.
type Config struct {
	Endpoint    string `json:"endpoint"`
	Theme       string `json:"theme"`
	Position    string `json:"position"`
	Greeting    string `json:"greeting"`
	Placeholder string `json:"placeholder"`
	Title       string `json:"title"`
}

// Options are caller-supplied overrides. A nil field keeps the default.
// Unknown JSON keys are ignored by encoding/json.
type Options struct {
	Endpoint    *string `json:"endpoint,omitempty"`
	Theme       *string `json:"theme,omitempty"`
	Position    *string `json:"position,omitempty"`
	Greeting    *string `json:"greeting,omitempty"`
	Placeholder *string `json:"placeholder,omitempty"`
	Title       *string `json:"title,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Endpoint:    DefaultEndpoint,
		Theme:       DefaultTheme,
		Position:    DefaultPosition,
		Greeting:    DefaultGreeting,
		Placeholder: DefaultPlaceholder,
		Title:       DefaultTitle,
	}
}

// Merge applies opts over base key by key.
func Merge(base Config, opts Options) Config {
	cfg := base
	if opts.Endpoint != nil {
		cfg.Endpoint = *opts.Endpoint
	}
	if opts.Theme != nil {
		cfg.Theme = *opts.Theme
	}
	if opts.Position != nil {
		cfg.Position = *opts.Position
	}
	if opts.Greeting != nil {
		cfg.Greeting = *opts.Greeting
	}
	if opts.Placeholder != nil {
		cfg.Placeholder = *opts.Placeholder
	}
	if opts.Title != nil {
		cfg.Title = *opts.Title
	}
	return cfg
}

// Overlay merges two option sets; keys set in top win.
func (o Options) Overlay(top Options) Options {
	out := o
	if top.Endpoint != nil {
		out.Endpoint = top.Endpoint
	}
	if top.Theme != nil {
		out.Theme = top.Theme
	}
	if top.Position != nil {
		out.Position = top.Position
	}
	if top.Greeting != nil {
		out.Greeting = top.Greeting
	}
	if top.Placeholder != nil {
		out.Placeholder = top.Placeholder
	}
	if top.Title != nil {
		out.Title = top.Title
	}
	return out
}

// ChatURL returns the chat API target for this configuration.
func (c Config) ChatURL() string {
	return strings.TrimRight(c.Endpoint, "/") + "/chat"
}

// String is a helper for building Options literals.
func String(v string) *string {
	return &v
}
