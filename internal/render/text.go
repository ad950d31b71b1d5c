package render

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/zhouzirui/portfolio-chat/internal/model/chat"
	"github.com/zhouzirui/portfolio-chat/internal/service/widget"
)

// Text renders snapshots for a terminal. Control characters in turn content are
// escaped so chat API output cannot drive the terminal.
type Text struct {
	out   io.Writer
	shown int
}

// NewText writes to out.
func NewText(out io.Writer) *Text {
	return &Text{out: out}
}

// Render prints turns not yet shown. A shrinking transcript (after a clear)
// reprints from the greeting.
func (t *Text) Render(snap widget.Snapshot) {
	if len(snap.Turns) < t.shown {
		fmt.Fprintln(t.out, "--- conversation cleared ---")
		t.shown = 0
	}

	for _, turn := range snap.Turns[t.shown:] {
		fmt.Fprintln(t.out, FormatTurn(snap.Config.Title, turn))
	}
	if t.shown == 0 && snap.ShowQuickActions {
		for i, a := range snap.QuickActions {
			fmt.Fprintf(t.out, "  [%d] %s %s\n", i+1, a.Icon, a.Label)
		}
	}
	t.shown = len(snap.Turns)
}

// SetLoadingIndicator implements widget.Renderer.
func (t *Text) SetLoadingIndicator(visible bool) {
	if visible {
		fmt.Fprintln(t.out, "  ...")
	}
}

// SetPanelOpen implements widget.Renderer.
func (t *Text) SetPanelOpen(open bool) {
	if open {
		fmt.Fprintln(t.out, "[chat opened]")
		return
	}
	fmt.Fprintln(t.out, "[chat closed]")
}

// FormatTurn renders one turn as a single terminal line.
func FormatTurn(title string, turn chat.Turn) string {
	speaker := "you"
	if turn.Role == chat.RoleAssistant {
		speaker = title
	}
	if turn.Error {
		speaker += " (error)"
	}
	return fmt.Sprintf("%s %s: %s", clock(turn.CreatedAt), speaker, EscapeControl(turn.Content))
}

// EscapeControl replaces non-printing characters other than newline and tab
// with their Go escape form.
func EscapeControl(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteString(strings.Trim(fmt.Sprintf("%q", r), "'"))
	}
	return b.String()
}
