package message

import (
	"errors"
	"fmt"

	"github.com/i474232898/air-quality-bot/internal/store"
	"github.com/i474232898/air-quality-bot/internal/weather"
	"github.com/i474232898/air-quality-bot/internal/weather/providers"
)

// Failure texts that do not depend on the request.
const (
	APIKeyMissingText   = "Sorry, the API key for OpenWeatherMap is not configured. Please contact the bot administrator."
	ServerRequiredText  = "This command can only be used in a server."
	NoPermissionText    = "You do not have permission to use this command."
	NoHistoryText       = "No air quality readings have been recorded for this server yet."
	NoLocationSetText   = "No default location has been set for this server. Use /setlocation to set one."
	UnexpectedErrorText = "An unexpected error occurred. Please try again later."
)

// ForError renders err as an ephemeral message naming the step that failed:
// location resolution, data fetch, or entry selection.
func ForError(err error) Message {
	return Message{Content: Text(err), Ephemeral: true}
}

// Text returns the user-facing text for err.
func Text(err error) string {
	var (
		notFound   *weather.LocationNotFoundError
		incomplete *weather.LocationIncompleteError
		fetchErr   *weather.FetchError
	)

	switch {
	case errors.Is(err, weather.ErrAPIKeyMissing):
		return APIKeyMissingText
	case errors.Is(err, weather.ErrServerRequired):
		return ServerRequiredText
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &incomplete):
		return incomplete.Error()
	case errors.As(err, &fetchErr):
		return fetchText(fetchErr)
	case errors.Is(err, store.ErrNotFound):
		return NoHistoryText
	default:
		return UnexpectedErrorText
	}
}

func fetchText(e *weather.FetchError) string {
	switch {
	case errors.Is(e, weather.ErrNoSuitableEntry):
		return fmt.Sprintf("Could not find a suitable %s for **%s** in the API response.", e.Op, e.Location)
	case errors.Is(e, weather.ErrNoMeasurementData):
		return fmt.Sprintf("Could not retrieve %s for **%s**. The provider returned no data.", e.Op, e.Location)
	case errors.Is(e, weather.ErrMalformedPayload):
		return fmt.Sprintf("Could not retrieve %s for **%s**. The provider sent an unexpected response.", e.Op, e.Location)
	}

	text := fmt.Sprintf("Could not retrieve %s for **%s**.", e.Op, e.Location)
	var reqErr *providers.RequestError
	if errors.As(e, &reqErr) {
		switch {
		case reqErr.APIMessage != "":
			return text + " API Message: " + reqErr.APIMessage
		case reqErr.Kind == providers.KindTimeout:
			return text + " The weather service timed out. Please try again later."
		}
	}
	return text + " Please try again later."
}
