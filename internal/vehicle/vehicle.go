// Package vehicle simulates a collection truck cycling through a fixed
// list of waypoints. Position is a pure function of wall-clock time.
package vehicle

import (
	"time"

	"smartbin-backend/internal/config"
	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/models"
)

// DefaultWaypoints is route R03 through Hyderabad.
var DefaultWaypoints = []models.Position{
	{Latitude: 17.4300, Longitude: 78.4100},
	{Latitude: 17.4000, Longitude: 78.4500},
	{Latitude: 17.4450, Longitude: 78.3950},
	{Latitude: 17.3850, Longitude: 78.4867},
	{Latitude: 17.3900, Longitude: 78.5000},
}

const (
	DefaultVehicleID = "TRK-A01"
	DefaultStatus    = "In Service, Route R03"
	DefaultInterval  = 10 * time.Second
)

// Route is the simulated vehicle and its waypoints.
type Route struct {
	VehicleID string
	Status    string
	Waypoints []models.Position
	Interval  time.Duration
}

// NewRoute builds a Route from config, falling back to the defaults.
func NewRoute(cfg config.VehicleConfig) (*Route, error) {
	r := &Route{
		VehicleID: cfg.VehicleID,
		Status:    cfg.Status,
		Interval:  cfg.Interval,
		Waypoints: DefaultWaypoints,
	}
	if r.VehicleID == "" {
		r.VehicleID = DefaultVehicleID
	}
	if r.Status == "" {
		r.Status = DefaultStatus
	}
	if r.Interval == 0 {
		r.Interval = DefaultInterval
	}
	if r.Interval < time.Second {
		return nil, errors.WithMessage(errors.ErrInvalidConfig, "vehicle interval must be at least one second")
	}
	if len(cfg.Waypoints) > 0 {
		r.Waypoints = make([]models.Position, len(cfg.Waypoints))
		for i, wp := range cfg.Waypoints {
			r.Waypoints[i] = models.Position{Latitude: wp.Latitude, Longitude: wp.Longitude}
		}
	}
	return r, nil
}

// IndexAt returns floor(t / interval) mod len(waypoints), with t measured
// from the unix epoch at nanosecond precision.
func (r *Route) IndexAt(t time.Time) int {
	step := int64(r.Interval)
	n := int64(len(r.Waypoints))
	idx := (t.UnixNano() / step) % n
	if idx < 0 {
		idx += n
	}
	return int(idx)
}

// Snapshot reports where the vehicle is at t and the waypoints it has
// passed in the current lap, current position included.
func (r *Route) Snapshot(t time.Time) models.VehicleRoute {
	idx := r.IndexAt(t)
	path := make([]models.Position, idx+1)
	copy(path, r.Waypoints[:idx+1])

	return models.VehicleRoute{
		VehicleID:       r.VehicleID,
		CurrentPosition: r.Waypoints[idx],
		PathHistory:     path,
		Status:          r.Status,
		Timestamp:       t.UTC().Format(time.RFC3339),
	}
}
