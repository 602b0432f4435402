package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/air-quality-bot/internal/weather"
)

// newTestProvider serves every endpoint from a single handler; the path tells them apart.
func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenWeatherProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOpenWeatherProvider(srv.Client(), "test-key", Endpoints{
		Geocoding:            srv.URL + "/geo/1.0/direct",
		AirPollution:         srv.URL + "/data/2.5/air_pollution",
		AirPollutionForecast: srv.URL + "/data/2.5/air_pollution/forecast",
		Weather:              srv.URL + "/data/2.5/weather",
		WeatherForecast:      srv.URL + "/data/2.5/forecast",
	})
}

func TestGeocode(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geo/1.0/direct", r.URL.Path)
		assert.Equal(t, "Merced,CA,US", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		w.Write([]byte(`[{"name":"Merced","state":"California","country":"US","lat":37.3022,"lon":-120.4822}]`))
	})

	got, err := p.Geocode(context.Background(), "Merced,CA,US", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Merced", got[0].Name)
	assert.Equal(t, "California", got[0].State)
	assert.Equal(t, weather.Num(37.3022), got[0].Lat)
	assert.Equal(t, weather.Num(-120.4822), got[0].Lon)
}

func TestGeocode_MissingCoordinates(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"Springfield"}]`))
	})

	got, err := p.Geocode(context.Background(), "Springfield", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Lat.Valid)
	assert.False(t, got[0].Lon.Valid)
}

func TestGeocode_NonListIsMalformed(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"cod":"400"}`))
	})

	_, err := p.Geocode(context.Background(), "x", 1)
	assert.True(t, errors.Is(err, weather.ErrMalformedPayload))
	assert.NotContains(t, err.Error(), "test-key")
}

func TestCurrentAirPollution(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/air_pollution", r.URL.Path)
		assert.Equal(t, "37.3022", r.URL.Query().Get("lat"))
		assert.Equal(t, "-120.4822", r.URL.Query().Get("lon"))
		w.Write([]byte(`{"coord":{"lon":-120.48,"lat":37.3},"list":[
			{"dt":1714579200,"main":{"aqi":2},"components":{"co":201.94,"no2":0.77,"pm2_5":0.5}}
		]}`))
	})

	got, err := p.CurrentAirPollution(context.Background(), weather.Coordinate{Lat: 37.3022, Lon: -120.4822})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, int64(1714579200), got[0].Timestamp)
	assert.Equal(t, weather.Num(2), got[0].Index)
	assert.Equal(t, map[string]float64{"co": 201.94, "no2": 0.77, "pm2_5": 0.5}, got[0].Components)
}

func TestAirPollutionForecast_MissingList(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/air_pollution/forecast", r.URL.Path)
		w.Write([]byte(`{"coord":{"lon":1,"lat":2}}`))
	})

	got, err := p.AirPollutionForecast(context.Background(), weather.Coordinate{Lat: 2, Lon: 1})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAirPollution_NonIntegerIndex(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"list":[{"dt":1,"main":{"aqi":"high"},"components":{}}]}`))
	})

	got, err := p.CurrentAirPollution(context.Background(), weather.Coordinate{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Index.Valid)
	assert.Equal(t, "Unknown", weather.AQICategory(got[0].Index))
}

func TestAirPollution_NullComponentsAreOmitted(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"list":[{"dt":1,"main":{"aqi":2},"components":{"co":null,"no2":"n/a","pm10":3.5}}]}`))
	})

	got, err := p.CurrentAirPollution(context.Background(), weather.Coordinate{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, map[string]float64{"pm10": 3.5}, got[0].Components)

	components := weather.ExtractComponents(got[0].Components)
	require.Len(t, components, 1)
	assert.Equal(t, "pm10", components[0].Key)
}

func TestCurrentWeather(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("units"), "temperatures are converted locally from Kelvin")
		w.Write([]byte(`{
			"weather":[{"description":"clear sky","icon":"01d"}],
			"main":{"temp":300.0,"feels_like":299.5,"humidity":40,"pressure":1012},
			"visibility":10000,
			"wind":{"speed":3.6},
			"dt":1714579200,
			"sys":{"sunrise":1714568400,"sunset":1714618800}
		}`))
	})

	got, err := p.CurrentWeather(context.Background(), weather.Coordinate{Lat: 1, Lon: 2})
	require.NoError(t, err)

	assert.Equal(t, "clear sky", got.Description)
	assert.Equal(t, "01d", got.Icon)
	assert.Equal(t, weather.Num(300), got.Temp)
	assert.Equal(t, weather.Num(1012), got.Pressure)
	assert.Equal(t, weather.Num(3.6), got.WindSpeed)
	assert.Equal(t, int64(1714568400), got.Sunrise)
	assert.Equal(t, int64(1714618800), got.Sunset)
}

func TestCurrentWeather_MissingMain(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"weather":[],"dt":1}`))
	})

	_, err := p.CurrentWeather(context.Background(), weather.Coordinate{})
	assert.True(t, errors.Is(err, weather.ErrNoMeasurementData))
}

func TestWeatherForecast(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/forecast", r.URL.Path)
		w.Write([]byte(`{"list":[
			{"dt":100,"main":{"temp":280.1},"weather":[{"description":"rain","icon":"10d"}]},
			{"dt":200},
			{"dt":300,"main":{"temp":281.2}}
		]}`))
	})

	got, err := p.WeatherForecast(context.Background(), weather.Coordinate{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(100), got[0].Timestamp)
	assert.Equal(t, "rain", got[0].Description)
	assert.Equal(t, int64(300), got[1].Timestamp)
	assert.Empty(t, got[1].Description)
}

func TestRequestError_HTTPStatus(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod":401,"message":"Invalid API key."}`))
	})

	_, err := p.CurrentAirPollution(context.Background(), weather.Coordinate{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, weather.ErrProviderUnavailable))

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, KindHTTPStatus, reqErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, reqErr.StatusCode)
	assert.Equal(t, "Invalid API key.", reqErr.APIMessage)
	assert.NotContains(t, err.Error(), "test-key")
}

func TestRequestError_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := &http.Client{Timeout: 20 * time.Millisecond}
	p := NewOpenWeatherProvider(client, "k", Endpoints{AirPollution: srv.URL})

	_, err := p.CurrentAirPollution(context.Background(), weather.Coordinate{})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, KindTimeout, reqErr.Kind)
	assert.True(t, errors.Is(err, weather.ErrProviderUnavailable))
}

func TestRequestError_Connection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewOpenWeatherProvider(&http.Client{Timeout: time.Second}, "k", Endpoints{Weather: url})

	_, err := p.CurrentWeather(context.Background(), weather.Coordinate{})
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, KindConnection, reqErr.Kind)
}

func TestCircuitOpensAfterServerErrors(t *testing.T) {
	calls := 0
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		_, err := p.CurrentAirPollution(context.Background(), weather.Coordinate{})
		require.Error(t, err)
	}

	_, err := p.CurrentAirPollution(context.Background(), weather.Coordinate{})
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, KindCircuitOpen, reqErr.Kind)
	assert.True(t, errors.Is(err, weather.ErrProviderUnavailable))
	assert.Equal(t, 5, calls, "an open circuit must not reach the provider")
}

func TestCircuitIgnoresClientErrors(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 10; i++ {
		_, err := p.CurrentAirPollution(context.Background(), weather.Coordinate{})
		var reqErr *RequestError
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, KindHTTPStatus, reqErr.Kind)
	}
}
