package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/zhouzirui/portfolio-chat/internal/render"
	"github.com/zhouzirui/portfolio-chat/internal/service/widget"
)

var commands = map[string]string{
	"/open":    "show the chat panel",
	"/close":   "hide the chat panel",
	"/toggle":  "flip the chat panel",
	"/clear":   "forget the conversation",
	"/quick":   "send quick action N (1-based)",
	"/history": "print the history sent to the chat API",
	"/help":    "list commands",
	"/quit":    "exit",
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// session routes terminal lines to one widget.
type session struct {
	w   *widget.Widget
	out io.Writer
	wg  sync.WaitGroup
}

func newSession(w *widget.Widget, out io.Writer) *session {
	return &session{w: w, out: out}
}

// handle applies one input line and reports whether the user asked to quit.
// Messages are sent in the background so the panel stays controllable while a
// reply is pending.
func (s *session) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		s.send(func() { s.w.Submit(ctx, line) })
		return false
	}

	name, arg, _ := strings.Cut(line, " ")
	switch name {
	case "/quit", "/exit":
		return true
	case "/open":
		s.w.SetOpen(true)
	case "/close":
		s.w.SetOpen(false)
	case "/toggle":
		s.w.Toggle()
	case "/clear":
		s.w.ClearHistory()
	case "/quick":
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			fmt.Fprintln(s.out, "usage: /quick N")
			return false
		}
		s.send(func() {
			if _, err := s.w.QuickAction(ctx, n-1); err != nil {
				fmt.Fprintln(s.out, err)
			}
		})
	case "/history":
		s.printHistory()
	case "/help":
		for _, c := range commandNames() {
			fmt.Fprintf(s.out, "  %-9s %s\n", c, commands[c])
		}
	default:
		fmt.Fprintf(s.out, "unknown command %s, try /help\n", name)
	}
	return false
}

func (s *session) send(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *session) wait() {
	s.wg.Wait()
}

func (s *session) printHistory() {
	history := s.w.History()
	if len(history) == 0 {
		fmt.Fprintln(s.out, "(no history)")
		return
	}
	for i, entry := range history {
		fmt.Fprintf(s.out, "%2d %-9s %s\n", i+1, entry.Role, render.EscapeControl(entry.Content))
	}
}
