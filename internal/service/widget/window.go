package widget

import "github.com/zhouzirui/portfolio-chat/internal/model/chat"

// HistoryWindow is the number of most recent entries sent with each request.
const HistoryWindow = 10

// Window returns a copy of the last size entries of history, oldest first.
func Window(history []chat.Entry, size int) []chat.Entry {
	if size <= 0 || len(history) == 0 {
		return []chat.Entry{}
	}

	start := 0
	if len(history) > size {
		start = len(history) - size
	}

	out := make([]chat.Entry, len(history)-start)
	copy(out, history[start:])
	return out
}
