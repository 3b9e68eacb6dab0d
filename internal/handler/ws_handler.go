/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains HandleWebSocket, which rate limits upgrades per client IP, upgrades the
connection, registers it with the Floor and runs its read and write pumps.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"dancefloor/internal/app/presence"
	"dancefloor/internal/pkg/errs"
	"dancefloor/internal/pkg/limiter"
	"dancefloor/internal/pkg/logx"
	"dancefloor/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc that turns a request into a floor connection.
// The handler blocks for the lifetime of the connection.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := presence.NewClient(deps.Floor, conn)

		go client.WritePump()

		if !deps.Floor.Connect(client) {
			logx.Warn("WebSocket connection dropped: floor is shutting down.", "conn_id", client.ID())
			client.Close()
			return
		}

		logx.Debug("WebSocket connection established", "conn_id", client.ID())

		client.ReadPump()
	}
}
