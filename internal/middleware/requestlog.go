package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/portfolio-chat/pkg/logger"
)

// RequestLog writes one structured access line per request through pkg/logger.
func RequestLog(next http.Handler) http.Handler {
	return chimw.RequestLogger(requestLogFormatter{})(next)
}

type requestLogFormatter struct{}

func (requestLogFormatter) NewLogEntry(r *http.Request) chimw.LogEntry {
	return &requestLogEntry{
		fields: map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"remote":     ClientIP(r),
			"request_id": chimw.GetReqID(r.Context()),
		},
	}
}

type requestLogEntry struct {
	fields map[string]interface{}
}

func (e *requestLogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	e.fields["status"] = status
	e.fields["bytes"] = bytes
	e.fields["elapsed_ms"] = elapsed.Milliseconds()

	switch {
	case status >= 500:
		logger.ErrorCF("http", "request served", e.fields)
	case status >= 400:
		logger.WarnCF("http", "request served", e.fields)
	default:
		logger.InfoCF("http", "request served", e.fields)
	}
}

func (e *requestLogEntry) Panic(v interface{}, stack []byte) {
	e.fields["panic"] = v
	e.fields["stack"] = string(stack)
	logger.ErrorCF("http", "request panicked", e.fields)
}
