package weather

import (
	"context"
	"log"

	"github.com/i474232898/air-quality-bot/internal/common"
)

// Resolver turns a free-text city/state/country into coordinates and a display name.
type Resolver struct {
	geocoder Geocoder
}

// NewResolver creates a Resolver backed by the given geocoder.
func NewResolver(geocoder Geocoder) *Resolver {
	return &Resolver{geocoder: geocoder}
}

// BuildQuery joins the non-empty parts in city, state, country order with commas.
func BuildQuery(city, state, country string) string {
	return common.JoinNonEmpty(",", city, state, country)
}

// DisplayName joins the non-empty parts in city, state, country order with ", ".
func DisplayName(city, state, country string) string {
	return common.JoinNonEmpty(", ", city, state, country)
}

// Resolve performs a single geocoding lookup (limit 1, no retries).
//
// A transport failure is reported the same way as an empty result, as a
// *LocationNotFoundError; the underlying error is logged and kept as its cause.
// A match without coordinates yields a *LocationIncompleteError.
func (r *Resolver) Resolve(ctx context.Context, city, state, country string) (ResolvedLocation, error) {
	query := BuildQuery(city, state, country)

	results, err := r.geocoder.Geocode(ctx, query, 1)
	if err != nil {
		log.Printf("ERROR: geocoding failed for %q: %v", query, err)
		return ResolvedLocation{}, &LocationNotFoundError{Query: query, Cause: err}
	}
	if len(results) == 0 {
		return ResolvedLocation{}, &LocationNotFoundError{Query: query}
	}

	match := results[0]
	name := DisplayName(
		common.FirstNonEmpty(match.Name, city),
		common.FirstNonEmpty(match.State, state),
		common.FirstNonEmpty(match.Country, country),
	)

	if !match.Lat.Valid || !match.Lon.Valid {
		return ResolvedLocation{}, &LocationIncompleteError{DisplayName: name}
	}

	return ResolvedLocation{
		Coordinate:  Coordinate{Lat: match.Lat.Value, Lon: match.Lon.Value},
		DisplayName: name,
	}, nil
}
