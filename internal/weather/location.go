package weather

import (
	"encoding/json"
	"fmt"
	"time"
)

// ServerLocation is the default location stored for one chat server.
type ServerLocation struct {
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	DisplayName string    `json:"display_name"`
	SetByUserID int64     `json:"set_by_user_id"`
	SetAt       Timestamp `json:"set_at"`
}

// Coordinate returns the stored coordinate.
func (l ServerLocation) Coordinate() Coordinate {
	return Coordinate{Lat: l.Lat, Lon: l.Lon}
}

// Timestamp is an ISO-8601 instant. It also reads the zone-less form
// ("2024-05-01T09:30:00.123456") found in files written by earlier versions of the bot.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}
