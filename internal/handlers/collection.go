package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"smartbin-backend/internal/dashboard"
	"smartbin-backend/internal/models"
	"smartbin-backend/internal/reconcile"
	"smartbin-backend/internal/vehicle"
	"smartbin-backend/pkg/utils"
)

// LogCollection records a physical collection and reconciles it against the
// latest lid-lock alert.
func LogCollection(rec *reconcile.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LogCollectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Missing bin_id.")
			return
		}

		entry, err := rec.LogCollection(r.Context(), strings.TrimSpace(req.BinID), strings.TrimSpace(req.CollectorID))
		if err != nil {
			respondAppError(w, logger, err, "Error logging collection.")
			return
		}

		msg := fmt.Sprintf("Collection logged successfully for %s. Time to clear: %d min. Reward issued: %t",
			entry.BinID, entry.TimeToCollectMin, entry.RewardIssued)
		utils.RespondSuccess(w, http.StatusOK, msg, utils.Envelope{
			"reward_issued": entry.RewardIssued,
			"collection":    entry,
		})
	}
}

// GetVehicleRoute reports the simulated vehicle's position right now.
func GetVehicleRoute(route *vehicle.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.RespondSuccess(w, http.StatusOK, "", utils.Envelope{"route": route.Snapshot(time.Now())})
	}
}

// GetPickupPlan orders the lid-locked bins into a run from the vehicle's
// current position.
func GetPickupPlan(dash *dashboard.Service, route *vehicle.Route, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, err := dash.PickupPlan(r.Context(), route, time.Now())
		if err != nil {
			respondAppError(w, logger, err, "Error planning pickups.")
			return
		}
		logger.Debug().Int("stops", len(plan.Stops)).Float64("total_km", plan.TotalKM).Msg("🚛 pickup plan built")
		utils.RespondSuccess(w, http.StatusOK, "", utils.Envelope{"plan": plan})
	}
}
