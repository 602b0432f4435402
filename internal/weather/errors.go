package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable covers transport failures, timeouts, non-2xx responses and an open circuit.
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	// ErrMalformedPayload is returned when a provider response cannot be decoded into the expected shape.
	ErrMalformedPayload = errors.New("malformed provider payload")
	// ErrLocationNotFound is returned when geocoding yields no match for the query.
	ErrLocationNotFound = errors.New("location not found")
	// ErrLocationIncomplete is returned when geocoding matched a name but returned no coordinates.
	ErrLocationIncomplete = errors.New("location has no coordinates")
	// ErrNoMeasurementData is returned when the provider list is empty or missing.
	ErrNoMeasurementData = errors.New("no measurement data")
	// ErrNoSuitableEntry is returned when a forecast list has no entry passing the selection rules.
	ErrNoSuitableEntry = errors.New("no suitable forecast entry")
	// ErrAPIKeyMissing is returned when no provider API key is configured.
	ErrAPIKeyMissing = errors.New("api key not configured")
)

// LocationNotFoundError carries the constructed geocoding query.
type LocationNotFoundError struct {
	Query string
	// Cause is set when the lookup failed at the transport level rather than returning no match.
	Cause error
}

func (e *LocationNotFoundError) Error() string {
	return fmt.Sprintf("Could not find location '%s'.", e.Query)
}

func (e *LocationNotFoundError) Is(target error) bool {
	return target == ErrLocationNotFound
}

func (e *LocationNotFoundError) Unwrap() error {
	return e.Cause
}

// LocationIncompleteError carries the display name resolved before coordinates were found missing.
type LocationIncompleteError struct {
	DisplayName string
}

func (e *LocationIncompleteError) Error() string {
	return fmt.Sprintf("Found '%s' but could not retrieve coordinates.", e.DisplayName)
}

func (e *LocationIncompleteError) Is(target error) bool {
	return target == ErrLocationIncomplete
}
