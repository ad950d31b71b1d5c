package widget

import (
	"github.com/zhouzirui/portfolio-chat/internal/model/chat"
	widgetmodel "github.com/zhouzirui/portfolio-chat/internal/model/widget"
)

// Renderer is the presentation side of a widget instance. Methods are invoked
// with the widget lock held, in state-transition order, and must not call back
// into the Widget.
type Renderer interface {
	Render(snapshot Snapshot)
	SetLoadingIndicator(visible bool)
	SetPanelOpen(open bool)
}

// Snapshot is everything a renderer needs to draw the transcript.
type Snapshot struct {
	ID               string                    `json:"id"`
	Config           widgetmodel.Config        `json:"config"`
	Turns            []chat.Turn               `json:"turns"`
	QuickActions     []widgetmodel.QuickAction `json:"quickActions"`
	ShowQuickActions bool                      `json:"showQuickActions"`
	Unread           bool                      `json:"unread"`
	State            chat.State                `json:"state"`
}

type nopRenderer struct{}

func (nopRenderer) Render(Snapshot)          {}
func (nopRenderer) SetLoadingIndicator(bool) {}
func (nopRenderer) SetPanelOpen(bool)        {}
