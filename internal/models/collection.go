package models

import "time"

// CollectionLogEntry is an immutable record of one physical collection.
type CollectionLogEntry struct {
	ID               string `json:"id" db:"id"`
	BinID            string `json:"bin_id" db:"bin_id"`
	CollectionTime   int64  `json:"collection_time" db:"collection_time"` // Unix timestamp
	AlertTime        *int64 `json:"alert_time,omitempty" db:"alert_time"` // Unix timestamp, nil when no alert preceded
	TimeToCollectMin int    `json:"time_to_collect_min" db:"time_to_collect_min"`
	IsOnTime         bool   `json:"is_on_time" db:"is_on_time"`
	RewardIssued     bool   `json:"reward_issued" db:"reward_issued"`
	CollectorID      string `json:"collector_id" db:"collector_id"`
}

// LogCollectionRequest is the request body for POST /api/v1/log_collection
type LogCollectionRequest struct {
	BinID       string `json:"bin_id"`
	CollectorID string `json:"collector_id,omitempty"`
}

// CollectionHistoryItem is one row of the analysis report history.
type CollectionHistoryItem struct {
	Time   *string `json:"time"`
	Delay  int     `json:"delay"`
	OnTime bool    `json:"on_time"`
	Reward bool    `json:"reward"`
}

// ToHistoryItem converts a CollectionLogEntry to CollectionHistoryItem
func (c *CollectionLogEntry) ToHistoryItem() CollectionHistoryItem {
	iso := time.Unix(c.CollectionTime, 0).UTC().Format(time.RFC3339)
	return CollectionHistoryItem{
		Time:   &iso,
		Delay:  c.TimeToCollectMin,
		OnTime: c.IsOnTime,
		Reward: c.RewardIssued,
	}
}

// AnalysisReport summarises the collection performance of one bin.
type AnalysisReport struct {
	BinID             string                  `json:"bin_id"`
	Urgency           string                  `json:"urgency"`
	CoreIssue         string                  `json:"core_issue"`
	Precautions       []string                `json:"precautions"`
	CollectionHistory []CollectionHistoryItem `json:"collection_history"`
	TotalCollections  int                     `json:"total_collections"`
	OnTimeCollections int                     `json:"on_time_collections"`
	AnalysisTimestamp string                  `json:"analysis_timestamp"`
}
