package models

// Position is a latitude/longitude pair.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// VehicleRoute is the reported state of the simulated collection vehicle.
type VehicleRoute struct {
	VehicleID       string     `json:"vehicle_id"`
	CurrentPosition Position   `json:"current_position"`
	PathHistory     []Position `json:"path_history"`
	Status          string     `json:"status"`
	Timestamp       string     `json:"timestamp"`
}

// PickupStop is one full bin on a planned collection run.
type PickupStop struct {
	BinID          string  `json:"bin_id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	FillPercentage int     `json:"fill_percentage"`
	DistanceKM     float64 `json:"distance_km"`
}

// PickupPlan orders the bins awaiting collection from the vehicle's position.
type PickupPlan struct {
	VehicleID string       `json:"vehicle_id"`
	Start     Position     `json:"start"`
	Stops     []PickupStop `json:"stops"`
	TotalKM   float64      `json:"total_km"`
}
