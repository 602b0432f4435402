package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/air-quality-bot/internal/message"
	"github.com/i474232898/air-quality-bot/internal/store"
	"github.com/i474232898/air-quality-bot/internal/weather"
)

var validate = validator.New()

// AdminTokenHeader carries the static key that authorizes set-location.
const AdminTokenHeader = "X-Admin-Token"

// response is a rendered message plus the structured data behind it.
type response struct {
	message.Message
	Data any `json:"data,omitempty"`
}

// RegisterRoutes wires the command surface into the Fiber app.
// Measurement commands are available both with and without a server id; without one
// the explicit location or the global default is used.
func RegisterRoutes(app *fiber.App, service *weather.Service, adminToken string) {
	v1 := app.Group("/api/v1")

	v1.Get("/aqi/info", func(c *fiber.Ctx) error {
		return c.JSON(response{Message: message.AQIInfo()})
	})

	servers := v1.Group("/servers/:serverID")
	for _, r := range []fiber.Router{v1, servers} {
		r.Get("/aqi/current", measurementHandler(func(ctx context.Context, serverID int64, q weather.LocationQuery) (response, error) {
			report, err := service.CurrentAirQuality(ctx, serverID, q)
			return response{Message: message.CurrentAirQuality(report), Data: report}, err
		}))
		r.Get("/aqi/forecast", measurementHandler(func(ctx context.Context, serverID int64, q weather.LocationQuery) (response, error) {
			report, err := service.ForecastAirQuality(ctx, serverID, q)
			return response{Message: message.AirQualityForecast(report), Data: report}, err
		}))
		r.Get("/weather/current", measurementHandler(func(ctx context.Context, serverID int64, q weather.LocationQuery) (response, error) {
			report, err := service.CurrentWeather(ctx, serverID, q)
			return response{Message: message.CurrentWeather(report), Data: report}, err
		}))
		r.Get("/weather/forecast", measurementHandler(func(ctx context.Context, serverID int64, q weather.LocationQuery) (response, error) {
			report, err := service.ForecastWeather(ctx, serverID, q)
			return response{Message: message.WeatherForecast(report), Data: report}, err
		}))
	}

	servers.Get("/location", func(c *fiber.Ctx) error {
		serverID, err := parseServerID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		loc, ok := service.ServerLocation(serverID)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, message.NoLocationSetText)
		}
		return c.JSON(response{Message: message.ServerLocation(loc), Data: loc})
	})

	servers.Put("/location", requireAdmin(adminToken), func(c *fiber.Ctx) error {
		serverID, err := parseServerID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var req setLocationRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, err := service.SetServerLocation(c.UserContext(), serverID, req.UserID, req.toQuery())
		if err != nil {
			return commandError(err)
		}
		return c.JSON(response{Message: message.LocationSet(loc), Data: loc})
	})

	servers.Get("/aqi/history", func(c *fiber.Ctx) error {
		serverID, err := parseServerID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		summary, readings, err := service.AirQualityHistory(serverID)
		if err != nil {
			return commandError(err)
		}
		return c.JSON(response{
			Message: message.AirQualityHistory(summary),
			Data: fiber.Map{
				"summary":  summary,
				"readings": readings,
			},
		})
	})
}

type measurementFunc func(ctx context.Context, serverID int64, q weather.LocationQuery) (response, error)

func measurementHandler(fn measurementFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		serverID, err := parseServerID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		q, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		resp, err := fn(c.UserContext(), serverID, q.toQuery())
		if err != nil {
			return commandError(err)
		}
		return c.JSON(resp)
	}
}

// locationQuery holds the optional location query parameters.
// State and country only make sense together with a city.
type locationQuery struct {
	City    string `validate:"required_with=State Country,max=100"`
	State   string `validate:"max=100"`
	Country string `validate:"max=100"`
}

func (l locationQuery) toQuery() weather.LocationQuery {
	return weather.LocationQuery{City: l.City, State: l.State, Country: l.Country}
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	var q locationQuery

	q.City = c.Query("city")
	q.State = c.Query("state_code")
	q.Country = c.Query("country_code")

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// setLocationRequest is the body of PUT /servers/:serverID/location.
type setLocationRequest struct {
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state_code" validate:"max=100"`
	Country string `json:"country_code" validate:"max=100"`
	UserID  int64  `json:"user_id" validate:"required"`
}

func (r setLocationRequest) toQuery() weather.LocationQuery {
	return weather.LocationQuery{City: r.City, State: r.State, Country: r.Country}
}

// parseServerID returns 0 when the route has no server id.
func parseServerID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("serverID")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("serverID must be a positive integer")
	}
	return id, nil
}

func requireAdmin(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := c.Get(AdminTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return fiber.NewError(fiber.StatusForbidden, message.NoPermissionText)
		}
		return c.Next()
	}
}

// commandError maps a service failure to a status code and its user-facing text.
func commandError(err error) error {
	return fiber.NewError(statusFor(err), message.Text(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, weather.ErrAPIKeyMissing):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, weather.ErrServerRequired):
		return fiber.StatusBadRequest
	case errors.Is(err, weather.ErrLocationNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, weather.ErrLocationIncomplete):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, weather.ErrNoSuitableEntry), errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, weather.ErrNoMeasurementData), errors.Is(err, weather.ErrMalformedPayload):
		return fiber.StatusBadGateway
	case errors.Is(err, weather.ErrProviderUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error as an ephemeral message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	text := message.UnexpectedErrorText
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		text = e.Message
	}
	return c.Status(code).JSON(fiber.Map{
		"error":     true,
		"content":   text,
		"ephemeral": true,
	})
}
