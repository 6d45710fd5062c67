package database

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"smartbin-backend/internal/models"
)

// AppendTelemetry writes one immutable history row and sets rec.ID.
func (s *Store) AppendTelemetry(ctx context.Context, rec *models.TelemetryRecord) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := s.q(`
		INSERT INTO telemetry (bin_id, timestamp, fill_level_cm, fill_percentage,
			is_lid_locked, alert_triggered, delay_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := s.db.QueryRowxContext(ctx, query,
		rec.BinID, rec.Timestamp, rec.FillLevelCM, rec.FillPercentage,
		rec.IsLidLocked, rec.AlertTriggered, rec.DelayMinutes,
	).Scan(&rec.ID)
	if err != nil {
		return classify(err)
	}
	return nil
}

// LatestAlertTime returns the timestamp of the newest telemetry row for the
// bin whose fill percentage reached minPercent, or nil when there is none.
func (s *Store) LatestAlertTime(ctx context.Context, binID string, minPercent int) (*time.Time, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var ts int64
	query := s.q(`
		SELECT timestamp FROM telemetry
		WHERE bin_id = ? AND fill_percentage >= ?
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`)
	if err := s.db.GetContext(ctx, &ts, query, binID, minPercent); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(err)
	}
	t := time.Unix(ts, 0).UTC()
	return &t, nil
}

// TelemetryHistory returns up to limit rows for the bin, newest first.
func (s *Store) TelemetryHistory(ctx context.Context, binID string, limit int) ([]models.TelemetryRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	var records []models.TelemetryRecord
	query := s.q(`
		SELECT id, bin_id, timestamp, fill_level_cm, fill_percentage,
			is_lid_locked, alert_triggered, delay_minutes
		FROM telemetry
		WHERE bin_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`)
	if err := s.db.SelectContext(ctx, &records, query, binID, limit); err != nil {
		return nil, classify(err)
	}
	return records, nil
}
