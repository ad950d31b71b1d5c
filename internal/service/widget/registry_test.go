package widget_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zhouzirui/portfolio-chat/internal/model/chat"
	widgetmodel "github.com/zhouzirui/portfolio-chat/internal/model/widget"
	"github.com/zhouzirui/portfolio-chat/internal/service/widget"
)

type fixedClient struct{}

func (fixedClient) Send(context.Context, string, chat.Request) (chat.Response, error) {
	return chat.Response{Response: "ok"}, nil
}

func TestRegistryInitializeAssignsID(t *testing.T) {
	reg := widget.NewRegistry(fixedClient{}, widgetmodel.Options{})

	w := reg.Initialize("", widgetmodel.Options{}, nil)
	if w.ID() == "" {
		t.Fatal("expected generated id")
	}

	got, err := reg.Get(w.ID())
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if got != w {
		t.Fatal("expected the same instance")
	}
}

func TestRegistryInitializeReplacesExisting(t *testing.T) {
	reg := widget.NewRegistry(fixedClient{}, widgetmodel.Options{})
	ctx := context.Background()

	first := reg.Initialize("page", widgetmodel.Options{}, nil)
	first.Toggle()
	first.Submit(ctx, "hello")

	second := reg.Initialize("page", widgetmodel.Options{Theme: widgetmodel.String("light")}, nil)

	if reg.Len() != 1 {
		t.Fatalf("expected one instance, got %d", reg.Len())
	}
	if second.State() != (chat.State{}) {
		t.Fatalf("expected fresh state, got %+v", second.State())
	}
	if len(second.History()) != 0 {
		t.Fatalf("expected empty history, got %d", len(second.History()))
	}
	if second.Config().Theme != "light" {
		t.Fatalf("expected theme light, got %s", second.Config().Theme)
	}
	if res := first.Submit(ctx, "stale"); res != widget.ResultIgnored {
		t.Fatalf("expected torn-down instance to ignore submit, got %s", res)
	}
}

func TestRegistryInstancesDoNotShareState(t *testing.T) {
	reg := widget.NewRegistry(fixedClient{}, widgetmodel.Options{})
	ctx := context.Background()

	a := reg.Initialize("a", widgetmodel.Options{}, nil)
	b := reg.Initialize("b", widgetmodel.Options{}, nil)

	a.Submit(ctx, "only a")
	a.Toggle()

	if len(b.History()) != 0 || b.State().IsOpen {
		t.Fatalf("instance b changed: history=%d state=%+v", len(b.History()), b.State())
	}
}

func TestRegistryDefaultsSitBeneathCallerOptions(t *testing.T) {
	defaults := widgetmodel.Options{
		Endpoint: widgetmodel.String("https://api.example.com"),
		Title:    widgetmodel.String("Portfolio Bot"),
	}
	reg := widget.NewRegistry(fixedClient{}, defaults)

	w := reg.Initialize("x", widgetmodel.Options{Title: widgetmodel.String("Custom")}, nil)
	cfg := w.Config()

	if cfg.Endpoint != "https://api.example.com" {
		t.Fatalf("unexpected endpoint %s", cfg.Endpoint)
	}
	if cfg.Title != "Custom" {
		t.Fatalf("unexpected title %s", cfg.Title)
	}
	if cfg.Theme != widgetmodel.DefaultTheme {
		t.Fatalf("unexpected theme %s", cfg.Theme)
	}
}

func TestRegistryRemove(t *testing.T) {
	reg := widget.NewRegistry(fixedClient{}, widgetmodel.Options{})
	reg.Initialize("gone", widgetmodel.Options{}, nil)

	if err := reg.Remove("gone"); err != nil {
		t.Fatalf("Remove err: %v", err)
	}
	if _, err := reg.Get("gone"); !errors.Is(err, widget.ErrWidgetNotFound) {
		t.Fatalf("expected ErrWidgetNotFound, got %v", err)
	}
	if err := reg.Remove("gone"); !errors.Is(err, widget.ErrWidgetNotFound) {
		t.Fatalf("expected ErrWidgetNotFound on second remove, got %v", err)
	}
}

func TestRegistrySweepIdle(t *testing.T) {
	reg := widget.NewRegistry(fixedClient{}, widgetmodel.Options{})
	idle := reg.Initialize("idle", widgetmodel.Options{}, nil)
	reg.Initialize("watched", widgetmodel.Options{}, nil)

	if got := reg.SweepIdle(time.Now().Add(-time.Minute), nil); len(got) != 0 {
		t.Fatalf("expected nothing swept before the cutoff, got %v", got)
	}

	removed := reg.SweepIdle(time.Now().Add(time.Minute), func(id string) bool { return id == "watched" })
	if len(removed) != 1 || removed[0] != "idle" {
		t.Fatalf("expected only idle swept, got %v", removed)
	}
	if _, err := reg.Get("idle"); !errors.Is(err, widget.ErrWidgetNotFound) {
		t.Fatalf("expected ErrWidgetNotFound, got %v", err)
	}
	if _, err := reg.Get("watched"); err != nil {
		t.Fatalf("expected watched instance to survive, got %v", err)
	}
	if res := idle.Submit(context.Background(), "late"); res != widget.ResultIgnored {
		t.Fatalf("expected swept instance to ignore submit, got %s", res)
	}
}

func TestRegistryDefaultsReflectConfiguredEndpoint(t *testing.T) {
	reg := widget.NewRegistry(fixedClient{}, widgetmodel.Options{Endpoint: widgetmodel.String("https://api.example.com")})

	if got := reg.Defaults().Endpoint; got != "https://api.example.com" {
		t.Fatalf("unexpected default endpoint %s", got)
	}
	if got := reg.Defaults().Theme; got != widgetmodel.DefaultTheme {
		t.Fatalf("unexpected default theme %s", got)
	}
}
