package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Configure 根据级别与输出格式重建全局 logger。format 为 "console" 时输出可读文本。
func Configure(level, format string) error {
	lvl := zerolog.InfoLevel
	if raw := strings.TrimSpace(level); raw != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(raw))
		if err != nil {
			return err
		}
		lvl = parsed
	}

	var out io.Writer = os.Stderr
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	SetOutput(out, lvl)
	return nil
}

// SetOutput replaces the sink, mainly for tests.
func SetOutput(w io.Writer, level zerolog.Level) {
	mu.Lock()
	base = zerolog.New(w).Level(level).With().Timestamp().Logger()
	mu.Unlock()
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

func emit(ev *zerolog.Event, component, msg string, fields map[string]interface{}) {
	if ev == nil {
		return
	}
	if component != "" {
		ev = ev.Str("component", component)
	}
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(msg)
}

// DebugCF logs at debug level with a component tag and optional fields.
func DebugCF(component, msg string, fields map[string]interface{}) {
	emit(current().Debug(), component, msg, fields)
}

// InfoCF logs at info level with a component tag and optional fields.
func InfoCF(component, msg string, fields map[string]interface{}) {
	emit(current().Info(), component, msg, fields)
}

// WarnCF logs at warn level with a component tag and optional fields.
func WarnCF(component, msg string, fields map[string]interface{}) {
	emit(current().Warn(), component, msg, fields)
}

// ErrorCF logs at error level with a component tag and optional fields.
func ErrorCF(component, msg string, fields map[string]interface{}) {
	emit(current().Error(), component, msg, fields)
}

// FatalCF logs and exits the process.
func FatalCF(component, msg string, fields map[string]interface{}) {
	emit(current().Fatal(), component, msg, fields)
}
