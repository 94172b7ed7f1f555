package app

import (
	"context"
	"log/slog"
	"net/http"
)

type sessionKey string

const (
	SessionKeyGuest  = sessionKey("guest")
	contextKeyLogger = sessionKey("logger")
)

func (s sessionKey) String() string {
	return string(s)
}

// contextGetHolder returns the session token that owns seat holds made by
// this requester.
func (app *Application) contextGetHolder(r *http.Request) string {
	return app.sessionManager.Token(r.Context())
}

func (app *Application) contextSetLogger(r *http.Request, logger *slog.Logger) *http.Request {
	ctx := context.WithValue(r.Context(), contextKeyLogger, logger)
	return r.WithContext(ctx)
}

func (app *Application) contextGetLogger(r *http.Request) *slog.Logger {
	logger, ok := r.Context().Value(contextKeyLogger).(*slog.Logger)
	if !ok {
		return app.logger
	}

	return logger
}
