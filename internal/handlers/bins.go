package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"smartbin-backend/internal/charts"
	"smartbin-backend/internal/dashboard"
	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/models"
	"smartbin-backend/pkg/utils"
)

// chartReadings bounds the history drawn on a fill chart.
const chartReadings = 200

// BinRegistrar inserts new bins into the registry.
type BinRegistrar interface {
	InsertBin(ctx context.Context, bin models.Bin) error
}

// RegisterBin adds a bin to the registry.
func RegisterBin(bins BinRegistrar, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterBinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Missing required data fields.")
			return
		}
		req.BinID = strings.TrimSpace(req.BinID)
		req.SupervisorName = strings.TrimSpace(req.SupervisorName)

		if missing := req.MissingFields(); len(missing) > 0 {
			logger.Debug().Strs("missing", missing).Msg("register bin rejected")
			utils.RespondError(w, http.StatusBadRequest, "Missing required data fields.")
			return
		}
		if *req.MaxCapacityCM <= 0 {
			utils.RespondError(w, http.StatusBadRequest, "max_capacity_cm must be greater than zero.")
			return
		}

		bin := req.ToBin(time.Now())
		if err := bins.InsertBin(r.Context(), bin); err != nil {
			if errors.HasCode(err, errors.ErrIntegrityViolation) {
				logger.Warn().Str("bin_id", bin.BinID).Msg("⚠️ duplicate bin registration")
				utils.RespondError(w, http.StatusConflict, "Registration failed. Bin ID may already exist or data is invalid.")
				return
			}
			respondAppError(w, logger, err, "Database connection failed.")
			return
		}

		logger.Info().Str("bin_id", bin.BinID).Float64("max_capacity_cm", bin.MaxCapacityCM).Msg("✅ bin registered")
		utils.RespondSuccess(w, http.StatusCreated,
			fmt.Sprintf("Dustbin %s registered successfully. Please refresh dashboard.", bin.BinID),
			utils.Envelope{"bin_id": bin.BinID})
	}
}

// GetRegisteredBins lists every registered bin.
func GetRegisteredBins(dash *dashboard.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bins, err := dash.ListBins(r.Context())
		if err != nil {
			respondAppError(w, logger, err, "Error fetching bins.")
			return
		}
		if bins == nil {
			bins = []models.BinResponse{}
		}
		utils.RespondSuccess(w, http.StatusOK, "", utils.Envelope{"bins": bins})
	}
}

// GetLatestTelemetry returns the live status of every bin that has a reading.
func GetLatestTelemetry(dash *dashboard.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latest, err := dash.ListLiveStatus(r.Context())
		if err != nil {
			respondAppError(w, logger, err, "Could not retrieve registered bin list.")
			return
		}
		if latest == nil {
			latest = []models.PerBinStatus{}
		}
		utils.RespondSuccess(w, http.StatusOK, "", utils.Envelope{"latest_data": latest})
	}
}

// GetBinTelemetry returns durable telemetry of one bin, newest first.
// The optional limit query parameter caps the number of records.
func GetBinTelemetry(dash *dashboard.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		binID := chi.URLParam(r, "id")

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				utils.RespondError(w, http.StatusBadRequest, "limit must be a positive integer.")
				return
			}
			limit = n
		}

		records, err := dash.TelemetryHistory(r.Context(), binID, limit)
		if err != nil {
			respondAppError(w, logger, err, "Error fetching telemetry.")
			return
		}

		out := make([]models.TelemetryResponse, 0, len(records))
		for i := range records {
			out = append(out, records[i].ToTelemetryResponse())
		}
		utils.RespondSuccess(w, http.StatusOK, "", utils.Envelope{"bin_id": binID, "telemetry": out})
	}
}

// GetBinChart renders the fill history of one bin as a PNG.
func GetBinChart(dash *dashboard.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		binID := chi.URLParam(r, "id")

		records, err := dash.TelemetryHistory(r.Context(), binID, chartReadings)
		if err != nil {
			respondAppError(w, logger, err, "Error fetching telemetry.")
			return
		}

		var buf bytes.Buffer
		if err := charts.FillHistoryPNG(&buf, binID, records); err != nil {
			respondAppError(w, logger, err, "Error rendering chart.")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}

// GetBinAnalysis returns the collection performance report of one bin.
func GetBinAnalysis(dash *dashboard.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		binID := chi.URLParam(r, "id")

		report, err := dash.AnalyzeBin(r.Context(), binID)
		if err != nil {
			respondAppError(w, logger, err, "Error generating analysis.")
			return
		}
		utils.RespondSuccess(w, http.StatusOK, "", utils.Envelope{"analysis": report})
	}
}
