package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/zhouzirui/portfolio-chat/internal/model/chat"
	"github.com/zhouzirui/portfolio-chat/internal/service/widget"
)

// ClockFormat is how turn timestamps are shown (two-digit hour and minute).
const ClockFormat = "15:04"

// HTML renders widget snapshots as markup. All visitor and chat API text goes
// through html/template's contextual escaping.
type HTML struct {
	tmpl *template.Template
}

// NewHTML parses the widget templates.
func NewHTML() (*HTML, error) {
	funcs := template.FuncMap{
		"clock":  clock,
		"sender": sender,
	}

	tmpl := template.New("render").Funcs(funcs)
	for _, src := range []string{transcriptTemplate, widgetTemplate, pageTemplate} {
		if _, err := tmpl.Parse(src); err != nil {
			return nil, fmt.Errorf("parse widget templates: %w", err)
		}
	}

	return &HTML{tmpl: tmpl}, nil
}

// MustHTML is NewHTML for package-level initialization.
func MustHTML() *HTML {
	h, err := NewHTML()
	if err != nil {
		panic(err)
	}
	return h
}

// Page writes a standalone document hosting the widget.
func (h *HTML) Page(w io.Writer, snap widget.Snapshot) error {
	return h.tmpl.ExecuteTemplate(w, "page", snap)
}

// Widget writes the toggle control and panel.
func (h *HTML) Widget(w io.Writer, snap widget.Snapshot) error {
	return h.tmpl.ExecuteTemplate(w, "widget", snap)
}

// Transcript writes the message list fragment, including quick actions and the
// typing indicator when they are visible.
func (h *HTML) Transcript(w io.Writer, snap widget.Snapshot) error {
	return h.tmpl.ExecuteTemplate(w, "transcript", snap)
}

// TranscriptString is Transcript into a string.
func (h *HTML) TranscriptString(snap widget.Snapshot) (string, error) {
	var buf bytes.Buffer
	if err := h.Transcript(&buf, snap); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func clock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(ClockFormat)
}

// sender maps roles to the CSS classes the stylesheet expects.
func sender(t chat.Turn) string {
	if t.Role == chat.RoleUser {
		return "user"
	}
	return "bot"
}
