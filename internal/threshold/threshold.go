// Package threshold maps raw ultrasonic distance readings to fill
// percentages and the lid, segregator and collection thresholds derived
// from them. Every function here is pure.
package threshold

import (
	"math"
	"time"
)

const (
	// LidLockPercent is the fill level at which the lid locks and a bin
	// counts as full for collection reconciliation.
	LidLockPercent = 90

	// SegregatorPercent is the fill level at which the segregator is required.
	SegregatorPercent = 98

	// MaxCollectionDelay is the longest alert-to-collection gap, in minutes,
	// that still counts as on time.
	MaxCollectionDelay = 180
)

// Reading is the set of values derived from one raw measurement.
type Reading struct {
	Percentage         int
	LidLocked          bool
	SegregatorRequired bool
}

// FillPercentage converts the sensor-to-waste distance into a 0-100 fill
// percentage for a bin of the given capacity. A nil or negative level, or a
// non-positive capacity, yields 0.
func FillPercentage(maxCapacity float64, level *float64) int {
	if level == nil || *level < 0 || maxCapacity <= 0 || math.IsNaN(*level) {
		return 0
	}

	l := math.Min(*level, maxCapacity)
	pct := math.Floor((maxCapacity - l) * 100 / maxCapacity)

	return clamp(int(pct), 0, 100)
}

// LidLocked reports whether a bin at the given percentage locks its lid.
func LidLocked(percentage int) bool {
	return percentage >= LidLockPercent
}

// SegregatorRequired reports whether a bin at the given percentage needs
// the segregator.
func SegregatorRequired(percentage int) bool {
	return percentage >= SegregatorPercent
}

// Evaluate derives every threshold flag for one measurement.
func Evaluate(maxCapacity float64, level *float64) Reading {
	pct := FillPercentage(maxCapacity, level)
	return Reading{
		Percentage:         pct,
		LidLocked:          LidLocked(pct),
		SegregatorRequired: SegregatorRequired(pct),
	}
}

// CollectionDelay returns the whole minutes between alert and collection,
// truncated toward zero.
func CollectionDelay(alert, collection time.Time) int {
	return int(collection.Sub(alert).Seconds() / 60)
}

// OnTime reports whether a collection delay meets the service target.
func OnTime(delayMinutes int) bool {
	return delayMinutes <= MaxCollectionDelay
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
