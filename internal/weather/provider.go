package weather

import (
	"context"
)

// GeocodeResult is one match of a direct geocoding lookup.
// Optional fields are empty strings or invalid Numbers when the provider omits them.
type GeocodeResult struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Country string `json:"country"`
	Lat     Number `json:"lat"`
	Lon     Number `json:"lon"`
}

// Geocoder turns a comma-joined place query into matches.
type Geocoder interface {
	Geocode(ctx context.Context, query string, limit int) ([]GeocodeResult, error)
}

// Provider abstracts the measurement endpoints of the weather data source (OpenWeatherMap).
type Provider interface {
	Name() string
	CurrentAirPollution(ctx context.Context, c Coordinate) ([]AirQualityEntry, error)
	AirPollutionForecast(ctx context.Context, c Coordinate) ([]AirQualityEntry, error)
	CurrentWeather(ctx context.Context, c Coordinate) (WeatherEntry, error)
	WeatherForecast(ctx context.Context, c Coordinate) ([]WeatherEntry, error)
}

// LocationStore is the contract for the per-server default location store.
type LocationStore interface {
	Get(serverID int64) (ServerLocation, bool)
	Set(serverID int64, loc ServerLocation) error
	All() map[int64]ServerLocation
}

// ReadingStore keeps refreshed air-quality readings per server.
type ReadingStore interface {
	SaveReading(r AirQualityReading)
	History(serverID int64) ([]AirQualityReading, error)
}
