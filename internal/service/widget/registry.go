package widget

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	widgetmodel "github.com/zhouzirui/portfolio-chat/internal/model/widget"
	"github.com/zhouzirui/portfolio-chat/internal/service/chatclient"
	"github.com/zhouzirui/portfolio-chat/pkg/logger"
)

var ErrWidgetNotFound = errors.New("widget not found")

// Registry keeps independent widget instances keyed by mount id.
type Registry struct {
	client   chatclient.Client
	defaults widgetmodel.Options
	options  []Option

	mu      sync.Mutex
	widgets map[string]*mount
}

type mount struct {
	widget   *Widget
	lastSeen time.Time
}

// NewRegistry returns an empty registry. defaults are applied beneath every
// caller's options; extra Options are passed to each new Widget.
func NewRegistry(client chatclient.Client, defaults widgetmodel.Options, options ...Option) *Registry {
	return &Registry{
		client:   client,
		defaults: defaults,
		options:  options,
		widgets:  make(map[string]*mount),
	}
}

// Defaults returns the configuration a widget gets when the caller overrides
// nothing.
func (r *Registry) Defaults() widgetmodel.Config {
	return widgetmodel.Merge(widgetmodel.Defaults(), r.defaults)
}

// Initialize mounts a widget under id. An existing instance with the same id is
// torn down and replaced, so repeated calls never leave two live instances.
// An empty id gets a fresh uuid.
func (r *Registry) Initialize(id string, opts widgetmodel.Options, renderer Renderer) *Widget {
	if id == "" {
		id = uuid.NewString()
	}

	options := append([]Option{WithID(id)}, r.options...)
	w := New(r.defaults.Overlay(opts), renderer, r.client, options...)

	r.mu.Lock()
	previous, replaced := r.widgets[id]
	r.widgets[id] = &mount{widget: w, lastSeen: time.Now()}
	r.mu.Unlock()

	if replaced {
		previous.widget.Close()
	}

	logger.InfoCF("widget", "widget initialized", map[string]interface{}{
		"widget":   id,
		"replaced": replaced,
		"endpoint": w.Config().Endpoint,
	})
	return w
}

// Get returns the live instance for id and marks it as active.
func (r *Registry) Get(id string) (*Widget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.widgets[id]
	if !ok {
		return nil, ErrWidgetNotFound
	}
	m.lastSeen = time.Now()
	return m.widget, nil
}

// Remove tears down and forgets the instance for id.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	m, ok := r.widgets[id]
	delete(r.widgets, id)
	r.mu.Unlock()

	if !ok {
		return ErrWidgetNotFound
	}
	m.widget.Close()
	return nil
}

// SweepIdle tears down every instance last used before cutoff, except those
// for which keep reports true. It returns the removed ids.
func (r *Registry) SweepIdle(cutoff time.Time, keep func(id string) bool) []string {
	var removed []*Widget

	r.mu.Lock()
	for id, m := range r.widgets {
		if !m.lastSeen.Before(cutoff) {
			continue
		}
		if keep != nil && keep(id) {
			continue
		}
		delete(r.widgets, id)
		removed = append(removed, m.widget)
	}
	r.mu.Unlock()

	ids := make([]string, 0, len(removed))
	for _, w := range removed {
		w.Close()
		ids = append(ids, w.ID())
	}
	return ids
}

// Len reports how many instances are mounted.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.widgets)
}
