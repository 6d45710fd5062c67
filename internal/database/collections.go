package database

import (
	"context"

	"smartbin-backend/internal/models"
)

// AppendCollection writes one collection log entry.
func (s *Store) AppendCollection(ctx context.Context, entry models.CollectionLogEntry) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := s.q(`
		INSERT INTO collection_log (id, bin_id, collection_time, alert_time,
			time_to_collect_min, is_on_time, reward_issued, collector_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.BinID, entry.CollectionTime, entry.AlertTime,
		entry.TimeToCollectMin, entry.IsOnTime, entry.RewardIssued, entry.CollectorID,
	)
	return classify(err)
}

// CollectionHistory returns every collection of the bin, newest first.
// Entries logged in the same second keep insertion order through seq.
func (s *Store) CollectionHistory(ctx context.Context, binID string) ([]models.CollectionLogEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var entries []models.CollectionLogEntry
	query := s.q(`
		SELECT id, bin_id, collection_time, alert_time, time_to_collect_min,
			is_on_time, reward_issued, collector_id
		FROM collection_log
		WHERE bin_id = ?
		ORDER BY collection_time DESC, seq DESC
	`)
	if err := s.db.SelectContext(ctx, &entries, query, binID); err != nil {
		return nil, classify(err)
	}
	return entries, nil
}
