package authclient

import (
	"fmt"
	"net/http"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// HTTPDoer is the transport used for outgoing requests. *http.Client
// satisfies it; tests swap in recording doubles.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SessionListener is notified with a snapshot after every session mutation.
// Listeners run on the mutating goroutine; keep them cheap.
type SessionListener func(Session)

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
