package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/i474232898/air-quality-bot/internal/weather"
	"github.com/i474232898/air-quality-bot/internal/weather/providers"
)

type AppConfig struct {
	// OpenWeatherMap key. Commands answer "API key not configured." while it is empty.
	OpenWeatherAPIKey string `envconfig:"API_KEY"`
	// AdminToken guards the set-location endpoint.
	AdminToken string `envconfig:"ADMIN_TOKEN"`

	Port        string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`

	LocationsFile string `envconfig:"LOCATIONS_FILE" default:"server_locations.json" validate:"required"`

	// Global default location (Merced, California).
	DefaultLat         float64 `envconfig:"TEST_LATITUDE" default:"37.3022" validate:"gte=-90,lte=90"`
	DefaultLon         float64 `envconfig:"TEST_LONGITUDE" default:"-120.4822" validate:"gte=-180,lte=180"`
	DefaultDisplayName string  `envconfig:"DEFAULT_LOCATION_NAME" default:"Merced, CA" validate:"required"`

	// TimeZone is an IANA name; "Local" uses the host zone.
	TimeZone string `envconfig:"TIMEZONE" default:"Local"`

	GeocodingURL            string `envconfig:"DIRECT_GEOCODING_API_URL" default:"http://api.openweathermap.org/geo/1.0/direct" validate:"url"`
	AirPollutionURL         string `envconfig:"AIR_POLLUTION_CURRENT_API_URL" default:"http://api.openweathermap.org/data/2.5/air_pollution" validate:"url"`
	AirPollutionForecastURL string `envconfig:"AIR_POLLUTION_FORECAST_API_URL" default:"http://api.openweathermap.org/data/2.5/air_pollution/forecast" validate:"url"`
	WeatherURL              string `envconfig:"WEATHER_API_URL" default:"http://api.openweathermap.org/data/2.5/weather" validate:"url"`
	WeatherForecastURL      string `envconfig:"WEATHER_FORECAST_API_URL" default:"http://api.openweathermap.org/data/2.5/forecast" validate:"url"`

	// RefreshInterval controls how often current air quality is refreshed for stored servers.
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"30m"`

	// In-memory reading history retention.
	StoreMaxHistory int           `envconfig:"STORE_MAX_HISTORY" default:"48" validate:"gte=0"` // roughly 24h at 30-minute intervals
	StoreMaxAge     time.Duration `envconfig:"STORE_MAX_AGE" default:"24h"`
}

var validate = validator.New()

// Load reads configuration from the environment (and .env, if present) with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	if cfg.OpenWeatherAPIKey == "" {
		log.Printf("INFO: API_KEY is not set; provider-backed commands will be refused")
	}
	return cfg, nil
}

// Location returns the configured time zone.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	return loc, nil
}

// DefaultLocation returns the global fallback coordinate.
func (c *AppConfig) DefaultLocation() weather.Coordinate {
	return weather.Coordinate{Lat: c.DefaultLat, Lon: c.DefaultLon}
}

// Endpoints returns the provider URLs.
func (c *AppConfig) Endpoints() providers.Endpoints {
	return providers.Endpoints{
		Geocoding:            c.GeocodingURL,
		AirPollution:         c.AirPollutionURL,
		AirPollutionForecast: c.AirPollutionForecastURL,
		Weather:              c.WeatherURL,
		WeatherForecast:      c.WeatherForecastURL,
	}
}
