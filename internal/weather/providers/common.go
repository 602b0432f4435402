package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/air-quality-bot/internal/weather"
)

// ErrorKind classifies why a provider request failed.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindConnection  ErrorKind = "connection"
	KindHTTPStatus  ErrorKind = "http_status"
	KindCircuitOpen ErrorKind = "circuit_open"
)

// RequestError is the failure result of a provider request.
// It always matches weather.ErrProviderUnavailable with errors.Is.
type RequestError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	// APIMessage is the "message" field of the provider's error body, if any.
	APIMessage string
	Err        error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		if e.APIMessage != "" {
			return fmt.Sprintf("%s: status %d from %s: %s", e.Kind, e.StatusCode, e.URL, e.APIMessage)
		}
		return fmt.Sprintf("%s: status %d from %s", e.Kind, e.StatusCode, e.URL)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
	}
}

func (e *RequestError) Is(target error) bool {
	return target == weather.ErrProviderUnavailable
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// CircuitSettings returns the breaker settings used for the provider.
func CircuitSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client errors (bad key, bad query) say nothing about provider health.
		IsSuccessful: func(err error) bool {
			var reqErr *RequestError
			if errors.As(err, &reqErr) && reqErr.Kind == KindHTTPStatus {
				return reqErr.StatusCode < 500 && reqErr.StatusCode != http.StatusTooManyRequests
			}
			return err == nil
		},
	}
}

// getJSON performs a single GET of baseURL with params through the circuit breaker and
// decodes the JSON body into out. There is no retry: a failure is returned immediately.
func getJSON(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, baseURL string, params url.Values, out any) error {
	u := fmt.Sprintf("%s?%s", baseURL, params.Encode())
	// The API key must not end up in logs or error messages.
	redacted := redactURL(baseURL, params)

	result, err := cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, classifyTransportError(redacted, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, classifyTransportError(redacted, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &RequestError{
				Kind:       KindHTTPStatus,
				URL:        redacted,
				StatusCode: resp.StatusCode,
				APIMessage: apiMessage(body),
			}
		}
		return body, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &RequestError{Kind: KindCircuitOpen, URL: redacted, Err: err}
		}
		return err
	}

	body, ok := result.([]byte)
	if !ok {
		return fmt.Errorf("unexpected result type from circuit breaker")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", weather.ErrMalformedPayload, redacted, err)
	}
	return nil
}

func classifyTransportError(u string, err error) error {
	kind := KindConnection
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &RequestError{Kind: kind, URL: u, Err: err}
}

func apiMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

func redactURL(baseURL string, params url.Values) string {
	clean := url.Values{}
	for k, v := range params {
		if k == "appid" {
			continue
		}
		clean[k] = v
	}
	if len(clean) == 0 {
		return baseURL
	}
	return baseURL + "?" + clean.Encode()
}
