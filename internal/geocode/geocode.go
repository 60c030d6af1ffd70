// Package geocode resolves a free-text street query to candidate locations
// and picks the one to search around.
package geocode

import (
	"context"
	"errors"
	"fmt"

	"github.com/handiism/streetgrab/internal/model"
)

// ErrNoResults is wrapped by GeocodeError when a query matches nothing.
var ErrNoResults = errors.New("no geocoder results")

// GeocodeError reports a query the geocoder could not resolve.
type GeocodeError struct {
	Query string
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("could not geocode %q", e.Query)
}

func (e *GeocodeError) Unwrap() error {
	return ErrNoResults
}

// Geocoder returns candidates for a query, most relevant first.
//
// Implementations must return a *GeocodeError when nothing matches.
type Geocoder interface {
	Geocode(ctx context.Context, query string) ([]model.GeoCandidate, error)
}

// PickRoad returns the first candidate classified as a road, falling back
// to the first candidate overall.
func PickRoad(query string, candidates []model.GeoCandidate) (model.GeoCandidate, error) {
	if len(candidates) == 0 {
		return model.GeoCandidate{}, &GeocodeError{Query: query}
	}
	for _, c := range candidates {
		if c.IsRoad() {
			return c, nil
		}
	}
	return candidates[0], nil
}

// Resolve geocodes query and picks a candidate with PickRoad.
func Resolve(ctx context.Context, g Geocoder, query string) (model.GeoCandidate, error) {
	candidates, err := g.Geocode(ctx, query)
	if err != nil {
		return model.GeoCandidate{}, err
	}
	return PickRoad(query, candidates)
}
