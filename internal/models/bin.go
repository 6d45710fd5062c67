package models

import "time"

// Bin is a registered physical waste receptacle.
type Bin struct {
	BinID            string  `json:"bin_id" db:"bin_id"`
	Latitude         float64 `json:"latitude" db:"latitude"`
	Longitude        float64 `json:"longitude" db:"longitude"`
	SupervisorName   string  `json:"supervisor_name" db:"supervisor_name"`
	LocationName     string  `json:"location_name" db:"location_name"`
	BinType          string  `json:"bin_type" db:"bin_type"`
	MaxCapacityCM    float64 `json:"max_capacity_cm" db:"max_capacity_cm"`
	InstallationDate int64   `json:"installation_date" db:"installation_date"` // Unix timestamp (midnight UTC)
	CreatedAt        int64   `json:"created_at" db:"created_at"`               // Unix timestamp
}

// BinResponse is what we send to the client with an ISO installation date
type BinResponse struct {
	BinID            string  `json:"bin_id"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	SupervisorName   string  `json:"supervisor_name"`
	LocationName     string  `json:"location_name"`
	BinType          string  `json:"bin_type"`
	MaxCapacityCM    float64 `json:"max_capacity_cm"`
	InstallationDate string  `json:"installation_date"`
}

// RegisterBinRequest is the request body for POST /api/v1/register_bin.
// Pointers distinguish a missing field from a zero coordinate.
type RegisterBinRequest struct {
	BinID          string   `json:"bin_id"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	SupervisorName string   `json:"supervisor_name"`
	LocationName   string   `json:"location_name,omitempty"`
	BinType        string   `json:"bin_type,omitempty"`
	MaxCapacityCM  *float64 `json:"max_capacity_cm"`
}

const (
	DefaultLocationName = "N/A"
	DefaultBinType      = "General"
)

// MissingFields lists the required fields absent from the request.
func (r *RegisterBinRequest) MissingFields() []string {
	var missing []string
	if r.BinID == "" {
		missing = append(missing, "bin_id")
	}
	if r.Latitude == nil {
		missing = append(missing, "latitude")
	}
	if r.Longitude == nil {
		missing = append(missing, "longitude")
	}
	if r.SupervisorName == "" {
		missing = append(missing, "supervisor_name")
	}
	if r.MaxCapacityCM == nil {
		missing = append(missing, "max_capacity_cm")
	}
	return missing
}

// ToBin converts the request into a Bin installed on the given day.
func (r *RegisterBinRequest) ToBin(now time.Time) Bin {
	b := Bin{
		BinID:          r.BinID,
		SupervisorName: r.SupervisorName,
		LocationName:   r.LocationName,
		BinType:        r.BinType,
	}
	if r.Latitude != nil {
		b.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		b.Longitude = *r.Longitude
	}
	if r.MaxCapacityCM != nil {
		b.MaxCapacityCM = *r.MaxCapacityCM
	}
	if b.LocationName == "" {
		b.LocationName = DefaultLocationName
	}
	if b.BinType == "" {
		b.BinType = DefaultBinType
	}
	utc := now.UTC()
	b.InstallationDate = time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC).Unix()
	b.CreatedAt = now.Unix()
	return b
}

// ToBinResponse converts a Bin to BinResponse
func (b *Bin) ToBinResponse() BinResponse {
	return BinResponse{
		BinID:            b.BinID,
		Latitude:         b.Latitude,
		Longitude:        b.Longitude,
		SupervisorName:   b.SupervisorName,
		LocationName:     b.LocationName,
		BinType:          b.BinType,
		MaxCapacityCM:    b.MaxCapacityCM,
		InstallationDate: time.Unix(b.InstallationDate, 0).UTC().Format("2006-01-02"),
	}
}
