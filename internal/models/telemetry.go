package models

import "time"

// LiveReading is the most recent raw measurement for one bin as held by the
// live store. Derived values are device-supplied and not trusted downstream.
type LiveReading struct {
	BinID              string    `json:"-"`
	LevelCM            *float64  `json:"garbage_level_cm,omitempty"`
	FillPercentage     int       `json:"fill_percentage"`
	SegregatorRequired bool      `json:"segregator_required"`
	Timestamp          time.Time `json:"timestamp"`
}

// TelemetryRecord is an immutable row of the durable telemetry history.
type TelemetryRecord struct {
	ID             int64   `json:"id" db:"id"`
	BinID          string  `json:"bin_id" db:"bin_id"`
	Timestamp      int64   `json:"timestamp" db:"timestamp"` // Unix timestamp
	FillLevelCM    float64 `json:"fill_level_cm" db:"fill_level_cm"`
	FillPercentage int     `json:"fill_percentage" db:"fill_percentage"`
	IsLidLocked    bool    `json:"is_lid_locked" db:"is_lid_locked"`
	AlertTriggered bool    `json:"alert_triggered" db:"alert_triggered"`
	DelayMinutes   int     `json:"delay_minutes" db:"delay_minutes"`
}

// TelemetryResponse is what we send to the client with ISO timestamps
type TelemetryResponse struct {
	ID             int64   `json:"id"`
	BinID          string  `json:"bin_id"`
	TimestampIso   string  `json:"timestamp"`
	FillLevelCM    float64 `json:"fill_level_cm"`
	FillPercentage int     `json:"fill_percentage"`
	IsLidLocked    bool    `json:"is_lid_locked"`
	AlertTriggered bool    `json:"alert_triggered"`
	DelayMinutes   int     `json:"delay_minutes"`
}

// Time returns the record timestamp.
func (t *TelemetryRecord) Time() time.Time {
	return time.Unix(t.Timestamp, 0)
}

// ToTelemetryResponse converts a TelemetryRecord to TelemetryResponse
func (t *TelemetryRecord) ToTelemetryResponse() TelemetryResponse {
	return TelemetryResponse{
		ID:             t.ID,
		BinID:          t.BinID,
		TimestampIso:   t.Time().UTC().Format(time.RFC3339),
		FillLevelCM:    t.FillLevelCM,
		FillPercentage: t.FillPercentage,
		IsLidLocked:    t.IsLidLocked,
		AlertTriggered: t.AlertTriggered,
		DelayMinutes:   t.DelayMinutes,
	}
}

// PerBinStatus is the dashboard projection of a live reading.
type PerBinStatus struct {
	BinID          string  `json:"bin_id"`
	Timestamp      string  `json:"timestamp"`
	FillLevelCM    float64 `json:"fill_level_cm"`
	FillPercentage int     `json:"fill_percentage"`
	AlertTriggered bool    `json:"alert_triggered"`
	IsLidLocked    bool    `json:"is_lid_locked"`
	CollectionTime *string `json:"collection_time"`
	DelayMinutes   int     `json:"delay_minutes"`
}
