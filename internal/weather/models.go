package weather

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Coordinate is a latitude/longitude pair in signed degrees.
// Values are used as returned by the provider; no range normalization is applied.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("Lat: %.2f, Lon: %.2f", c.Lat, c.Lon)
}

// ResolvedLocation is the output of the Resolver.
type ResolvedLocation struct {
	Coordinate  Coordinate `json:"coordinate"`
	DisplayName string     `json:"displayName"`
}

// LocationQuery is the optional free-text location a caller may supply.
type LocationQuery struct {
	City    string `json:"city"`
	State   string `json:"state_code"`
	Country string `json:"country_code"`
}

// IsZero reports whether no city was given, meaning the stored/default location applies.
func (q LocationQuery) IsZero() bool {
	return q.City == ""
}

// EffectiveLocation is the location a request ends up using.
type EffectiveLocation struct {
	Coordinate  Coordinate `json:"coordinate"`
	DisplayName string     `json:"displayName"`
	// Description is the longer form shown while fetching, e.g. with coordinates or a
	// hint that the global default is in use.
	Description string `json:"description"`
	Source      Source `json:"source"`
}

// Source tells where an EffectiveLocation came from.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceServer   Source = "server"
	SourceDefault  Source = "default"
)

// Number is a JSON value that is expected to be numeric but may be absent or of another type.
// Valid is false unless the JSON value was a number.
type Number struct {
	Value float64
	Valid bool
}

// Num builds a valid Number.
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

// UnmarshalJSON accepts any JSON value; only numbers produce a valid Number.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		// Strings, objects and the like are kept as "not numeric".
		return nil
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

// MarshalJSON writes null for invalid numbers.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Int returns the value as an int when it is a whole number.
func (n Number) Int() (int, bool) {
	if !n.Valid || n.Value != math.Trunc(n.Value) {
		return 0, false
	}
	return int(n.Value), true
}

// AirQualityEntry is one element of an air-pollution list response.
type AirQualityEntry struct {
	Timestamp  int64              `json:"dt"`
	Index      Number             `json:"aqi"`
	Components map[string]float64 `json:"components,omitempty"`
}

// Time returns the entry timestamp.
func (e AirQualityEntry) Time() time.Time {
	return time.Unix(e.Timestamp, 0).UTC()
}

// WeatherEntry is a current-weather object or one element of the weather forecast list.
// Temperatures are in Kelvin, as the provider returns them without a units parameter.
type WeatherEntry struct {
	Timestamp   int64  `json:"dt"`
	Description string `json:"description"`
	Icon        string `json:"icon"`

	Temp       Number `json:"temp"`
	FeelsLike  Number `json:"feelsLike"`
	Humidity   Number `json:"humidity"`
	Pressure   Number `json:"pressure"`
	WindSpeed  Number `json:"windSpeed"`
	Visibility Number `json:"visibility"`

	// Sunrise and Sunset are unix seconds; 0 means the provider did not send them.
	Sunrise int64 `json:"sunrise,omitempty"`
	Sunset  int64 `json:"sunset,omitempty"`
}

// Time returns the entry timestamp.
func (e WeatherEntry) Time() time.Time {
	return time.Unix(e.Timestamp, 0).UTC()
}

// AirQualityReport is a selected air-quality entry ready for display.
type AirQualityReport struct {
	Location   EffectiveLocation `json:"location"`
	ObservedAt time.Time         `json:"observedAt"`
	Index      Number            `json:"aqi"`
	Category   string            `json:"category"`
	Components []Component       `json:"components"`
}

// WeatherReport is a selected weather entry ready for display.
type WeatherReport struct {
	Location   EffectiveLocation `json:"location"`
	ObservedAt time.Time         `json:"observedAt"`
	Entry      WeatherEntry      `json:"entry"`
	Fields     []Field           `json:"fields"`
	Temp       Temperature       `json:"temperature"`
	FeelsLike  Temperature       `json:"feelsLike"`
}

// AirQualityReading is a refreshed current reading kept in the history store.
type AirQualityReading struct {
	ServerID  int64           `json:"serverId"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Entry     AirQualityEntry `json:"entry"`
}
