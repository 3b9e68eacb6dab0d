/*
Package handler provides HTTP handler functions for inspecting the floor.
*/
package handler

import (
	"context"
	"net/http"
	"time"

	"dancefloor/internal/pkg/errs"
	"dancefloor/internal/pkg/logx"
	"dancefloor/internal/pkg/resp"
)

// snapshotTimeout bounds how long a participants request waits on the floor event loop.
const snapshotTimeout = 2 * time.Second

// HandleHealth reports liveness together with the current floor counts.
func HandleHealth(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := deps.Floor.Stats()

		resp.RespondSuccess(w, r, map[string]any{
			"status":       "ok",
			"service":      "Dance Floor Server",
			"participants": stats.Participants,
			"connections":  stats.Connections,
		})
	}
}

// HandleParticipants returns every participant currently on the floor.
func HandleParticipants(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), snapshotTimeout)
		defer cancel()

		participants, err := deps.Floor.Snapshot(ctx)
		if err != nil {
			logx.Error(err, "Failed to read floor snapshot")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"participants": participants,
		})
	}
}
