package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/air-quality-bot/internal/weather"
)

// Endpoints holds the OpenWeatherMap endpoint URLs.
type Endpoints struct {
	Geocoding            string
	AirPollution         string
	AirPollutionForecast string
	Weather              string
	WeatherForecast      string
}

// DefaultEndpoints returns the public OpenWeatherMap endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Geocoding:            "http://api.openweathermap.org/geo/1.0/direct",
		AirPollution:         "http://api.openweathermap.org/data/2.5/air_pollution",
		AirPollutionForecast: "http://api.openweathermap.org/data/2.5/air_pollution/forecast",
		Weather:              "http://api.openweathermap.org/data/2.5/weather",
		WeatherForecast:      "http://api.openweathermap.org/data/2.5/forecast",
	}
}

// OpenWeatherProvider implements weather.Provider and weather.Geocoder for OpenWeatherMap.
type OpenWeatherProvider struct {
	name      string
	apiKey    string
	endpoints Endpoints
	client    *http.Client
	circuit   *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, endpoints Endpoints) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:      "openweathermap",
		apiKey:    apiKey,
		endpoints: endpoints,
		client:    client,
		circuit:   gobreaker.NewCircuitBreaker(CircuitSettings("openweather")),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Geocode calls the direct geocoding endpoint.
func (p *OpenWeatherProvider) Geocode(ctx context.Context, query string, limit int) ([]weather.GeocodeResult, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("limit", strconv.Itoa(limit))
	values.Set("appid", p.apiKey)

	var payload []weather.GeocodeResult
	if err := getJSON(ctx, p.client, p.circuit, p.endpoints.Geocoding, values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (p *OpenWeatherProvider) CurrentAirPollution(ctx context.Context, c weather.Coordinate) ([]weather.AirQualityEntry, error) {
	return p.airPollution(ctx, p.endpoints.AirPollution, c)
}

func (p *OpenWeatherProvider) AirPollutionForecast(ctx context.Context, c weather.Coordinate) ([]weather.AirQualityEntry, error) {
	return p.airPollution(ctx, p.endpoints.AirPollutionForecast, c)
}

type airPollutionPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			AQI weather.Number `json:"aqi"`
		} `json:"main"`
		Components map[string]weather.Number `json:"components"`
	} `json:"list"`
}

func (p *OpenWeatherProvider) airPollution(ctx context.Context, endpoint string, c weather.Coordinate) ([]weather.AirQualityEntry, error) {
	var payload airPollutionPayload
	if err := getJSON(ctx, p.client, p.circuit, endpoint, p.coordinateValues(c), &payload); err != nil {
		return nil, err
	}

	entries := make([]weather.AirQualityEntry, 0, len(payload.List))
	for _, item := range payload.List {
		entries = append(entries, weather.AirQualityEntry{
			Timestamp:  item.Dt,
			Index:      item.Main.AQI,
			Components: validComponents(item.Components),
		})
	}
	return entries, nil
}

// validComponents drops pollutants the provider sent as null or non-numeric.
func validComponents(raw map[string]weather.Number) map[string]float64 {
	if raw == nil {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		if v.Valid {
			out[k] = v.Value
		}
	}
	return out
}

// weatherPayload is shared by the current-weather object and each forecast list item.
type weatherPayload struct {
	Dt   int64 `json:"dt"`
	Main *struct {
		Temp      weather.Number `json:"temp"`
		FeelsLike weather.Number `json:"feels_like"`
		Humidity  weather.Number `json:"humidity"`
		Pressure  weather.Number `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed weather.Number `json:"speed"`
	} `json:"wind"`
	Visibility weather.Number `json:"visibility"`
	Sys        struct {
		Sunrise weather.Number `json:"sunrise"`
		Sunset  weather.Number `json:"sunset"`
	} `json:"sys"`
}

// CurrentWeather fetches the current conditions. Temperatures stay in Kelvin.
func (p *OpenWeatherProvider) CurrentWeather(ctx context.Context, c weather.Coordinate) (weather.WeatherEntry, error) {
	var payload weatherPayload
	if err := getJSON(ctx, p.client, p.circuit, p.endpoints.Weather, p.coordinateValues(c), &payload); err != nil {
		return weather.WeatherEntry{}, err
	}
	if payload.Main == nil || len(payload.Weather) == 0 {
		return weather.WeatherEntry{}, weather.ErrNoMeasurementData
	}
	return payload.toEntry(), nil
}

// WeatherForecast fetches the 3-hourly forecast list. Items without a main block are skipped.
func (p *OpenWeatherProvider) WeatherForecast(ctx context.Context, c weather.Coordinate) ([]weather.WeatherEntry, error) {
	var payload struct {
		List []weatherPayload `json:"list"`
	}
	if err := getJSON(ctx, p.client, p.circuit, p.endpoints.WeatherForecast, p.coordinateValues(c), &payload); err != nil {
		return nil, err
	}

	entries := make([]weather.WeatherEntry, 0, len(payload.List))
	for _, item := range payload.List {
		if item.Main == nil {
			continue
		}
		entries = append(entries, item.toEntry())
	}
	return entries, nil
}

func (w weatherPayload) toEntry() weather.WeatherEntry {
	e := weather.WeatherEntry{
		Timestamp:  w.Dt,
		WindSpeed:  w.Wind.Speed,
		Visibility: w.Visibility,
	}
	if w.Main != nil {
		e.Temp = w.Main.Temp
		e.FeelsLike = w.Main.FeelsLike
		e.Humidity = w.Main.Humidity
		e.Pressure = w.Main.Pressure
	}
	if len(w.Weather) > 0 {
		e.Description = w.Weather[0].Description
		e.Icon = w.Weather[0].Icon
	}
	if w.Sys.Sunrise.Valid {
		e.Sunrise = int64(w.Sys.Sunrise.Value)
	}
	if w.Sys.Sunset.Valid {
		e.Sunset = int64(w.Sys.Sunset.Value)
	}
	return e
}

func (p *OpenWeatherProvider) coordinateValues(c weather.Coordinate) url.Values {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%g", c.Lat))
	values.Set("lon", fmt.Sprintf("%g", c.Lon))
	values.Set("appid", p.apiKey)
	return values
}
