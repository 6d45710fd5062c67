package dashboard

import (
	"smartbin-backend/internal/models"
	"smartbin-backend/internal/threshold"
)

// Urgency levels reported by the analysis.
const (
	UrgencyRoutine  = "ROUTINE"
	UrgencyElevated = "ELEVATED"
	UrgencyCritical = "CRITICAL"
)

// AnalysisInput is everything a classifier may look at. Both slices are
// newest first.
type AnalysisInput struct {
	Bin         models.Bin
	Collections []models.CollectionLogEntry
	Recent      []models.TelemetryRecord
}

// Assessment is the qualitative part of an analysis report.
type Assessment struct {
	Urgency     string
	CoreIssue   string
	Precautions []string
}

// Classifier turns a bin's history into an assessment.
type Classifier interface {
	Classify(in AnalysisInput) Assessment
}

// Rule is one candidate assessment and the condition that selects it.
type Rule struct {
	Assessment
	Evaluator func(in AnalysisInput) bool
}

// RuleClassifier returns the assessment of the first matching rule, or the
// fallback when none match.
type RuleClassifier struct {
	Rules    []Rule
	Fallback Assessment
}

func (c RuleClassifier) Classify(in AnalysisInput) Assessment {
	for _, r := range c.Rules {
		if r.Evaluator(in) {
			return r.Assessment
		}
	}
	return c.Fallback
}

// FluctuationSwing is the jump in fill percentage between consecutive
// readings that counts as a sensor spike.
const FluctuationSwing = 40

// NewDefaultClassifier returns the built-in rule set.
func NewDefaultClassifier() RuleClassifier {
	return RuleClassifier{
		Rules: []Rule{
			{
				Assessment: Assessment{
					Urgency:   UrgencyCritical,
					CoreIssue: "Imminent Overflow Due to Missed Route",
					Precautions: []string{
						"Issue a high-priority alert to the assigned collector team.",
						"Verify Ultrasonic sensor stability (Check logs for temperature/vibration spikes).",
						"Remotely lock the lid mechanism to prevent spillage in 2 hours.",
					},
				},
				Evaluator: overflowPending,
			},
			{
				Assessment: Assessment{
					Urgency:   UrgencyElevated,
					CoreIssue: "Sensor Data Anomaly (Rapid Fluctuation)",
					Precautions: []string{
						"Verify Ultrasonic sensor stability (Check logs for temperature/vibration spikes).",
						"Schedule an on-site sensor inspection.",
					},
				},
				Evaluator: rapidFluctuation,
			},
			{
				Assessment: Assessment{
					Urgency:   UrgencyElevated,
					CoreIssue: "Repeated Late Collections",
					Precautions: []string{
						"Review the collection route covering this bin.",
						"Notify the collector supervisor about missed service targets.",
					},
				},
				Evaluator: mostlyLate,
			},
		},
		Fallback: Assessment{
			Urgency:   UrgencyRoutine,
			CoreIssue: "Normal Fill Rate",
			Precautions: []string{
				"Maintain current collection schedule.",
				"Monitor fill rate variance hourly.",
			},
		},
	}
}

// overflowPending: the newest reading is at lid-lock level and no
// collection happened since it was taken.
func overflowPending(in AnalysisInput) bool {
	if len(in.Recent) == 0 || !threshold.LidLocked(in.Recent[0].FillPercentage) {
		return false
	}
	if len(in.Collections) == 0 {
		return true
	}
	return in.Collections[0].CollectionTime < in.Recent[0].Timestamp
}

// rapidFluctuation: at least two large jumps among the recent readings.
func rapidFluctuation(in AnalysisInput) bool {
	spikes := 0
	for i := 1; i < len(in.Recent); i++ {
		delta := in.Recent[i].FillPercentage - in.Recent[i-1].FillPercentage
		if delta < 0 {
			delta = -delta
		}
		if delta >= FluctuationSwing {
			spikes++
		}
	}
	return spikes >= 2
}

// mostlyLate: three or more collections, fewer than half on time.
func mostlyLate(in AnalysisInput) bool {
	if len(in.Collections) < 3 {
		return false
	}
	onTime := 0
	for _, c := range in.Collections {
		if c.IsOnTime {
			onTime++
		}
	}
	return onTime*2 < len(in.Collections)
}
