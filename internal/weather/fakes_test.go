package weather

import (
	"context"
	"sync"
	"time"
)

type fakeGeocoder struct {
	results []GeocodeResult
	err     error

	queries []string
	limits  []int
}

func (f *fakeGeocoder) Geocode(_ context.Context, query string, limit int) ([]GeocodeResult, error) {
	f.queries = append(f.queries, query)
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeProvider struct {
	mu sync.Mutex

	current     []AirQualityEntry
	forecast    []AirQualityEntry
	weatherNow  WeatherEntry
	weatherList []WeatherEntry
	err         error

	// coordinates records every coordinate queried.
	coordinates []Coordinate
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) record(c Coordinate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coordinates = append(f.coordinates, c)
}

func (f *fakeProvider) CurrentAirPollution(_ context.Context, c Coordinate) ([]AirQualityEntry, error) {
	f.record(c)
	return f.current, f.err
}

func (f *fakeProvider) AirPollutionForecast(_ context.Context, c Coordinate) ([]AirQualityEntry, error) {
	f.record(c)
	return f.forecast, f.err
}

func (f *fakeProvider) CurrentWeather(_ context.Context, c Coordinate) (WeatherEntry, error) {
	f.record(c)
	return f.weatherNow, f.err
}

func (f *fakeProvider) WeatherForecast(_ context.Context, c Coordinate) ([]WeatherEntry, error) {
	f.record(c)
	return f.weatherList, f.err
}

type fakeLocations struct {
	mu   sync.Mutex
	data map[int64]ServerLocation
	err  error
}

func newFakeLocations() *fakeLocations {
	return &fakeLocations{data: make(map[int64]ServerLocation)}
}

func (f *fakeLocations) Get(id int64) (ServerLocation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loc, ok := f.data[id]
	return loc, ok
}

func (f *fakeLocations) Set(id int64, loc ServerLocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[id] = loc
	return f.err
}

func (f *fakeLocations) All() map[int64]ServerLocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]ServerLocation, len(f.data))
	for k, v := range f.data {
		out[k] = v
	}
	return out
}

type fakeReadings struct {
	mu       sync.Mutex
	readings []AirQualityReading
}

func (f *fakeReadings) SaveReading(r AirQualityReading) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings = append(f.readings, r)
}

func (f *fakeReadings) History(serverID int64) ([]AirQualityReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []AirQualityReading
	for _, r := range f.readings {
		if r.ServerID == serverID {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoMeasurementData
	}
	return out, nil
}

// pacific is a fixed zone so date arithmetic in tests does not depend on the host.
var pacific = time.FixedZone("PDT", -7*60*60)

func at(year int, month time.Month, day, hour int) int64 {
	return time.Date(year, month, day, hour, 0, 0, 0, pacific).Unix()
}
