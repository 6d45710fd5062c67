// Package dashboard answers the operator dashboard's read queries.
package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"smartbin-backend/internal/livestore"
	"smartbin-backend/internal/models"
	"smartbin-backend/internal/threshold"
	"smartbin-backend/internal/vehicle"
)

// recentReadings bounds the telemetry handed to the classifier.
const recentReadings = 20

// Registry is the read side of the bin registry.
type Registry interface {
	ListBins(ctx context.Context) ([]models.Bin, error)
	GetBin(ctx context.Context, binID string) (*models.Bin, error)
}

// History is the read side of the telemetry history and collection log.
type History interface {
	TelemetryHistory(ctx context.Context, binID string, limit int) ([]models.TelemetryRecord, error)
	CollectionHistory(ctx context.Context, binID string) ([]models.CollectionLogEntry, error)
}

// Service is the dashboard query layer.
type Service struct {
	registry   Registry
	live       livestore.Store
	history    History
	classifier Classifier
	now        func() time.Time
	logger     zerolog.Logger
}

// NewService constructs a Service. A nil classifier selects the default rules.
func NewService(registry Registry, live livestore.Store, history History, classifier Classifier, logger zerolog.Logger) *Service {
	if classifier == nil {
		classifier = NewDefaultClassifier()
	}
	return &Service{
		registry:   registry,
		live:       live,
		history:    history,
		classifier: classifier,
		now:        time.Now,
		logger:     logger.With().Str("component", "dashboard").Logger(),
	}
}

// ListBins returns the whole registry.
func (s *Service) ListBins(ctx context.Context) ([]models.BinResponse, error) {
	bins, err := s.registry.ListBins(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.BinResponse, 0, len(bins))
	for i := range bins {
		out = append(out, bins[i].ToBinResponse())
	}
	return out, nil
}

// ListLiveStatus returns the live status of every registered bin that has
// reported. Bins whose live read fails are left out.
func (s *Service) ListLiveStatus(ctx context.Context) ([]models.PerBinStatus, error) {
	bins, err := s.registry.ListBins(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]models.PerBinStatus, 0, len(bins))
	s.eachLive(ctx, bins, func(bin models.Bin, reading models.LiveReading) {
		statuses = append(statuses, Project(bin, reading))
	})
	return statuses, nil
}

func (s *Service) eachLive(ctx context.Context, bins []models.Bin, fn func(models.Bin, models.LiveReading)) {
	for _, bin := range bins {
		reading, err := s.live.GetLatest(ctx, bin.BinID)
		if err != nil {
			s.logger.Warn().Err(err).Str("bin_id", bin.BinID).Msg("⚠️ live read failed, omitting bin")
			continue
		}
		if reading == nil {
			continue
		}
		fn(bin, *reading)
	}
}

// PickupPlan orders the bins whose lid is locked into a collection run
// starting at the vehicle's position at time at.
func (s *Service) PickupPlan(ctx context.Context, route *vehicle.Route, at time.Time) (*models.PickupPlan, error) {
	bins, err := s.registry.ListBins(ctx)
	if err != nil {
		return nil, err
	}

	var stops []models.PickupStop
	s.eachLive(ctx, bins, func(bin models.Bin, reading models.LiveReading) {
		status := Project(bin, reading)
		if !status.IsLidLocked {
			return
		}
		stops = append(stops, models.PickupStop{
			BinID:          bin.BinID,
			Latitude:       bin.Latitude,
			Longitude:      bin.Longitude,
			FillPercentage: status.FillPercentage,
		})
	})

	start := route.Snapshot(at).CurrentPosition
	ordered, total := vehicle.PlanPickups(start, stops)
	return &models.PickupPlan{
		VehicleID: route.VehicleID,
		Start:     start,
		Stops:     ordered,
		TotalKM:   total,
	}, nil
}

// Project maps a live reading onto the dashboard row, recomputing the
// derived values from the bin's capacity.
func Project(bin models.Bin, reading models.LiveReading) models.PerBinStatus {
	eval := threshold.Evaluate(bin.MaxCapacityCM, reading.LevelCM)
	level := 0.0
	if reading.LevelCM != nil {
		level = *reading.LevelCM
	}
	return models.PerBinStatus{
		BinID:          bin.BinID,
		Timestamp:      reading.Timestamp.UTC().Format(time.RFC3339),
		FillLevelCM:    level,
		FillPercentage: eval.Percentage,
		AlertTriggered: eval.SegregatorRequired,
		IsLidLocked:    eval.LidLocked,
		CollectionTime: nil,
		DelayMinutes:   0,
	}
}

// AnalyzeBin builds the performance report of one bin.
func (s *Service) AnalyzeBin(ctx context.Context, binID string) (*models.AnalysisReport, error) {
	bin, err := s.registry.GetBin(ctx, binID)
	if err != nil {
		return nil, err
	}

	collections, err := s.history.CollectionHistory(ctx, binID)
	if err != nil {
		return nil, err
	}
	recent, err := s.history.TelemetryHistory(ctx, binID, recentReadings)
	if err != nil {
		return nil, err
	}

	assessment := s.classifier.Classify(AnalysisInput{
		Bin:         *bin,
		Collections: collections,
		Recent:      recent,
	})

	report := &models.AnalysisReport{
		BinID:             binID,
		Urgency:           assessment.Urgency,
		CoreIssue:         assessment.CoreIssue,
		Precautions:       assessment.Precautions,
		CollectionHistory: make([]models.CollectionHistoryItem, 0, len(collections)),
		TotalCollections:  len(collections),
		AnalysisTimestamp: s.now().UTC().Format(time.RFC3339),
	}
	if report.Precautions == nil {
		report.Precautions = []string{}
	}
	for i := range collections {
		report.CollectionHistory = append(report.CollectionHistory, collections[i].ToHistoryItem())
		if collections[i].IsOnTime {
			report.OnTimeCollections++
		}
	}
	return report, nil
}

// TelemetryHistory returns up to limit durable records of a registered
// bin, newest first.
func (s *Service) TelemetryHistory(ctx context.Context, binID string, limit int) ([]models.TelemetryRecord, error) {
	if _, err := s.registry.GetBin(ctx, binID); err != nil {
		return nil, err
	}
	return s.history.TelemetryHistory(ctx, binID, limit)
}
