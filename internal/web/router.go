package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/comigor/chatbot-go/internal/logger"
)

// Options configures the optional parts of the HTTP surface.
type Options struct {
	BotName string
	// Recorder receives every successful exchange; nil disables history.
	Recorder Recorder
	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

// NewRouter wires HTTP routes to the responder.
func NewRouter(responder Responder, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	h := NewHandler(responder, opts.BotName, opts.Recorder)
	h.RegisterRoutes(r)

	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
	}

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.L.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
