/*
Package handler provides the HTTP handlers and routing setup for the Dance Floor Server.

This file defines the main Router, applying middleware for request ids, logging, CORS and
panic recovery before delegating to the API, WebSocket and static bundle handlers.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"dancefloor/internal/pkg/limiter"
	"dancefloor/internal/pkg/logx"
)

const (
	// WebSocketPath is the event channel endpoint. Paths under it are never served the index document.
	WebSocketPath = "/ws"

	// ConnectRate and ConnectBurst limit WebSocket upgrades per client IP.
	ConnectRate  = 1
	ConnectBurst = 10

	// APIRate and APIBurst limit /api requests per client IP. Each request is a round trip through the Floor's event loop.
	APIRate  = 5
	APIBurst = 20
)

// Router builds the HTTP routing table. The limiter's sweep goroutine stops when ctx is cancelled.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	connectLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(ConnectRate), ConnectBurst)
	apiLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(APIRate), APIBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if origin == "" || sameOrigin(r, origin) {
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := deps.Config.AllowedOrigins
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", HandleHealth(deps))

	r.Route("/api", func(api chi.Router) {
		api.Use(apiLimiter.Middleware)
		api.Get("/participants", HandleParticipants(deps))
	})

	r.Get(WebSocketPath, HandleWebSocket(wsUpgrader, connectLimiter, deps))

	static := HandleStatic(deps.Config.StaticDir, WebSocketPath)
	r.Get("/*", static)
	r.Head("/*", static)

	return r
}

// sameOrigin reports whether origin names the host the request was sent to.
func sameOrigin(r *http.Request, origin string) bool {
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}
