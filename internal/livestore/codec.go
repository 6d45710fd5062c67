package livestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/models"
)

// Payload is the JSON document a device writes under its live node. The
// same document travels over MQTT.
type Payload struct {
	GarbageLevelCM     *float64 `json:"garbage_level_cm,omitempty"`
	FillPercentage     int      `json:"fill_percentage"`
	SegregatorRequired Flag     `json:"segregator_required"`
	Timestamp          string   `json:"timestamp,omitempty"`
}

// Flag is a boolean that devices send as 0/1.
type Flag bool

// MarshalJSON writes the flag as 0 or 1.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// UnmarshalJSON accepts 0/1, true/false and their string forms.
func (f *Flag) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	switch s {
	case "", "null":
		*f = false
		return nil
	}
	if b, err := strconv.ParseBool(s); err == nil {
		*f = Flag(b)
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("segregator_required: unsupported value %s", data)
	}
	*f = n != 0
	return nil
}

// timestampLayouts are tried in order; naive layouts are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseTimestamp reads the device timestamp formats.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Newf(errors.ErrInvalidArgument, "unrecognised timestamp %q", s)
}

// Encode converts a reading into its wire form.
func Encode(r models.LiveReading) Payload {
	p := Payload{
		FillPercentage:     r.FillPercentage,
		SegregatorRequired: Flag(r.SegregatorRequired),
	}
	if r.LevelCM != nil {
		level := *r.LevelCM
		p.GarbageLevelCM = &level
	}
	if !r.Timestamp.IsZero() {
		p.Timestamp = r.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return p
}

// Decode converts a wire payload into a reading for binID. A payload
// without a timestamp is stamped with now.
func Decode(binID string, p Payload, now time.Time) (*models.LiveReading, error) {
	r := &models.LiveReading{
		BinID:              binID,
		FillPercentage:     p.FillPercentage,
		SegregatorRequired: bool(p.SegregatorRequired),
		Timestamp:          now.UTC(),
	}
	if p.GarbageLevelCM != nil {
		level := *p.GarbageLevelCM
		if math.IsNaN(level) || math.IsInf(level, 0) {
			return nil, errors.Newf(errors.ErrInvalidArgument, "bin %s: garbage_level_cm is not finite", binID)
		}
		r.LevelCM = &level
	}
	if p.Timestamp != "" {
		ts, err := ParseTimestamp(p.Timestamp)
		if err != nil {
			return nil, err
		}
		r.Timestamp = ts
	}
	return r, nil
}

// Marshal encodes a reading as a JSON document.
func Marshal(r models.LiveReading) ([]byte, error) {
	return json.Marshal(Encode(r))
}

// Unmarshal decodes a JSON document into a reading for binID.
func Unmarshal(binID string, data []byte, now time.Time) (*models.LiveReading, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidArgument, fmt.Errorf("bin %s: decode payload: %w", binID, err))
	}
	return Decode(binID, p, now)
}
