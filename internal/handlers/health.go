package handlers

import (
	"context"
	"net/http"

	"smartbin-backend/pkg/utils"
)

// Pinger reports whether the durable store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health answers liveness probes and reports the database state.
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			utils.RespondJSON(w, http.StatusServiceUnavailable, utils.Envelope{
				"success":  false,
				"message":  "Database connection failed.",
				"database": "down",
			})
			return
		}
		utils.RespondSuccess(w, http.StatusOK, "OK", utils.Envelope{"database": "up"})
	}
}
