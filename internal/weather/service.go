package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// ErrServerRequired is returned by server-scoped operations called without a server id.
var ErrServerRequired = errors.New("command can only be used in a server")

// FetchError wraps a measurement failure with the operation and the location it was for.
type FetchError struct {
	Op       string
	Location string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s for %s: %v", e.Op, e.Location, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Operation names used in FetchError.Op.
const (
	OpCurrentAirQuality  = "current air quality"
	OpAirQualityForecast = "air quality forecast"
	OpCurrentWeather     = "current weather"
	OpWeatherForecast    = "weather forecast"
)

// Options configures a Service.
type Options struct {
	// DefaultLocation is used when neither a query nor a server default is available.
	DefaultLocation Coordinate
	// DefaultDisplayName is the short name of the default location, e.g. "Merced, CA".
	DefaultDisplayName string
	// TimeZone is the caller's local zone for forecast selection and display. Defaults to time.Local.
	TimeZone *time.Location
	// APIKeyConfigured must be true for any provider-backed operation to run.
	APIKeyConfigured bool
	// Now overrides the clock; used by tests.
	Now func() time.Time
}

// Service resolves the effective location of a request, queries the provider and
// reduces the result to a single displayable entry.
type Service struct {
	resolver  *Resolver
	provider  Provider
	locations LocationStore
	readings  ReadingStore
	opts      Options
}

// NewService creates a new Service.
func NewService(provider Provider, geocoder Geocoder, locations LocationStore, readings ReadingStore, opts Options) *Service {
	if opts.TimeZone == nil {
		opts.TimeZone = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		resolver:  NewResolver(geocoder),
		provider:  provider,
		locations: locations,
		readings:  readings,
		opts:      opts,
	}
}

// TimeZone returns the zone used for selection and display.
func (s *Service) TimeZone() *time.Location {
	return s.opts.TimeZone
}

func (s *Service) now() time.Time {
	return s.opts.Now().In(s.opts.TimeZone)
}

// EffectiveLocation decides which coordinate a request uses: an explicit query is resolved,
// otherwise the server's stored default, otherwise the configured global default.
// A serverID of 0 means the request did not come from a server.
func (s *Service) EffectiveLocation(ctx context.Context, serverID int64, q LocationQuery) (EffectiveLocation, error) {
	if !q.IsZero() {
		resolved, err := s.resolver.Resolve(ctx, q.City, q.State, q.Country)
		if err != nil {
			return EffectiveLocation{}, err
		}
		return EffectiveLocation{
			Coordinate:  resolved.Coordinate,
			DisplayName: resolved.DisplayName,
			Description: fmt.Sprintf("%s (%s)", resolved.DisplayName, resolved.Coordinate),
			Source:      SourceExplicit,
		}, nil
	}

	if serverID != 0 && s.locations != nil {
		if stored, ok := s.locations.Get(serverID); ok {
			name := stored.DisplayName
			if name == "" {
				name = stored.Coordinate().String()
			}
			return EffectiveLocation{
				Coordinate:  stored.Coordinate(),
				DisplayName: name,
				Description: name,
				Source:      SourceServer,
			}, nil
		}
	}

	return EffectiveLocation{
		Coordinate:  s.opts.DefaultLocation,
		DisplayName: s.opts.DefaultDisplayName,
		Description: s.opts.DefaultDisplayName + " (Default location being used! Please set location with /setlocation command)",
		Source:      SourceDefault,
	}, nil
}

// SetServerLocation resolves q and stores it as the server's default, replacing any previous one.
func (s *Service) SetServerLocation(ctx context.Context, serverID, userID int64, q LocationQuery) (ServerLocation, error) {
	if serverID == 0 {
		return ServerLocation{}, ErrServerRequired
	}
	if !s.opts.APIKeyConfigured {
		return ServerLocation{}, ErrAPIKeyMissing
	}

	resolved, err := s.resolver.Resolve(ctx, q.City, q.State, q.Country)
	if err != nil {
		return ServerLocation{}, err
	}

	rec := ServerLocation{
		Lat:         resolved.Coordinate.Lat,
		Lon:         resolved.Coordinate.Lon,
		DisplayName: resolved.DisplayName,
		SetByUserID: userID,
		SetAt:       Timestamp{Time: s.now()},
	}
	if err := s.locations.Set(serverID, rec); err != nil {
		return ServerLocation{}, fmt.Errorf("save server location: %w", err)
	}

	log.Printf("INFO: server %d location set to %s by user %d", serverID, rec.DisplayName, userID)
	return rec, nil
}

// ServerLocation returns the stored default for serverID.
func (s *Service) ServerLocation(serverID int64) (ServerLocation, bool) {
	if s.locations == nil {
		return ServerLocation{}, false
	}
	return s.locations.Get(serverID)
}

// CurrentAirQuality returns the first entry of the current air-pollution list.
func (s *Service) CurrentAirQuality(ctx context.Context, serverID int64, q LocationQuery) (AirQualityReport, error) {
	loc, err := s.prepare(ctx, serverID, q)
	if err != nil {
		return AirQualityReport{}, err
	}

	entries, err := s.provider.CurrentAirPollution(ctx, loc.Coordinate)
	if err != nil {
		return AirQualityReport{}, &FetchError{Op: OpCurrentAirQuality, Location: loc.DisplayName, Err: err}
	}
	entry, err := SelectCurrent(entries)
	if err != nil {
		return AirQualityReport{}, &FetchError{Op: OpCurrentAirQuality, Location: loc.DisplayName, Err: err}
	}
	return s.airQualityReport(loc, entry), nil
}

// ForecastAirQuality returns the forecast entry closest to tomorrow's local midday.
func (s *Service) ForecastAirQuality(ctx context.Context, serverID int64, q LocationQuery) (AirQualityReport, error) {
	loc, err := s.prepare(ctx, serverID, q)
	if err != nil {
		return AirQualityReport{}, err
	}

	entries, err := s.provider.AirPollutionForecast(ctx, loc.Coordinate)
	if err != nil {
		return AirQualityReport{}, &FetchError{Op: OpAirQualityForecast, Location: loc.DisplayName, Err: err}
	}
	if len(entries) == 0 {
		return AirQualityReport{}, &FetchError{Op: OpAirQualityForecast, Location: loc.DisplayName, Err: ErrNoMeasurementData}
	}
	entry, err := SelectForecast(entries, s.now())
	if err != nil {
		return AirQualityReport{}, &FetchError{Op: OpAirQualityForecast, Location: loc.DisplayName, Err: err}
	}
	return s.airQualityReport(loc, entry), nil
}

// CurrentWeather returns the current conditions object.
func (s *Service) CurrentWeather(ctx context.Context, serverID int64, q LocationQuery) (WeatherReport, error) {
	loc, err := s.prepare(ctx, serverID, q)
	if err != nil {
		return WeatherReport{}, err
	}

	entry, err := s.provider.CurrentWeather(ctx, loc.Coordinate)
	if err != nil {
		return WeatherReport{}, &FetchError{Op: OpCurrentWeather, Location: loc.DisplayName, Err: err}
	}
	return s.weatherReport(loc, entry), nil
}

// ForecastWeather returns the weather forecast entry closest to tomorrow's local midday.
func (s *Service) ForecastWeather(ctx context.Context, serverID int64, q LocationQuery) (WeatherReport, error) {
	loc, err := s.prepare(ctx, serverID, q)
	if err != nil {
		return WeatherReport{}, err
	}

	entries, err := s.provider.WeatherForecast(ctx, loc.Coordinate)
	if err != nil {
		return WeatherReport{}, &FetchError{Op: OpWeatherForecast, Location: loc.DisplayName, Err: err}
	}
	if len(entries) == 0 {
		return WeatherReport{}, &FetchError{Op: OpWeatherForecast, Location: loc.DisplayName, Err: ErrNoMeasurementData}
	}
	entry, err := SelectForecast(entries, s.now())
	if err != nil {
		return WeatherReport{}, &FetchError{Op: OpWeatherForecast, Location: loc.DisplayName, Err: err}
	}
	return s.weatherReport(loc, entry), nil
}

// RefreshAirQuality fetches current air quality for every server with a stored location
// and records the readings. Failures are logged per server; the job never aborts early.
func (s *Service) RefreshAirQuality(ctx context.Context) error {
	if !s.opts.APIKeyConfigured {
		return ErrAPIKeyMissing
	}
	if s.locations == nil || s.readings == nil {
		return nil
	}

	servers := s.locations.All()
	log.Printf("DEBUG: RefreshAirQuality called for %d servers", len(servers))

	var wg sync.WaitGroup
	for serverID, loc := range servers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			entries, err := s.provider.CurrentAirPollution(ctx, loc.Coordinate())
			if err != nil {
				log.Printf("ERROR: air quality refresh failed for server %d (%s): %v", serverID, loc.DisplayName, err)
				return
			}
			entry, err := SelectCurrent(entries)
			if err != nil {
				log.Printf("INFO: no air quality data for server %d (%s)", serverID, loc.DisplayName)
				return
			}

			s.readings.SaveReading(AirQualityReading{
				ServerID:  serverID,
				FetchedAt: s.now(),
				Entry:     entry,
			})
		}()
	}
	wg.Wait()
	return nil
}

// AirQualityHistory returns the refreshed readings for a server and their summary.
func (s *Service) AirQualityHistory(serverID int64) (AirQualitySummary, []AirQualityReading, error) {
	if s.readings == nil {
		return AirQualitySummary{}, nil, ErrNoMeasurementData
	}
	readings, err := s.readings.History(serverID)
	if err != nil {
		return AirQualitySummary{}, nil, err
	}
	return SummarizeReadings(serverID, readings), readings, nil
}

func (s *Service) prepare(ctx context.Context, serverID int64, q LocationQuery) (EffectiveLocation, error) {
	if !s.opts.APIKeyConfigured {
		return EffectiveLocation{}, ErrAPIKeyMissing
	}
	return s.EffectiveLocation(ctx, serverID, q)
}

func (s *Service) airQualityReport(loc EffectiveLocation, e AirQualityEntry) AirQualityReport {
	return AirQualityReport{
		Location:   loc,
		ObservedAt: e.Time().In(s.opts.TimeZone),
		Index:      e.Index,
		Category:   AQICategory(e.Index),
		Components: ExtractComponents(e.Components),
	}
}

func (s *Service) weatherReport(loc EffectiveLocation, e WeatherEntry) WeatherReport {
	return WeatherReport{
		Location:   loc,
		ObservedAt: e.Time().In(s.opts.TimeZone),
		Entry:      e,
		Fields:     ExtractWeatherFields(e, s.opts.TimeZone),
		Temp:       KelvinToTemperature(e.Temp),
		FeelsLike:  KelvinToTemperature(e.FeelsLike),
	}
}
