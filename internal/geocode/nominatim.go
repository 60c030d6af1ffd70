package geocode

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/handiism/streetgrab/internal/http"
	"github.com/handiism/streetgrab/internal/model"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim instance.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// Nominatim geocodes queries against a Nominatim search endpoint.
//
// Calls are spaced by at least the configured minimum delay, as the public
// instance's usage policy allows one request per second.
type Nominatim struct {
	client  *http.Client
	baseURL string
	limit   int
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewNominatim creates a Nominatim geocoder.
//
// Parameters:
//   - client: HTTP client carrying the User-Agent Nominatim requires
//   - baseURL: service root; empty means DefaultNominatimURL
//   - limit: maximum number of candidates to request
//   - minDelay: minimum spacing between consecutive requests
func NewNominatim(client *http.Client, baseURL string, limit int, minDelay time.Duration, logger *zap.Logger) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if minDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(minDelay), 1)
	}
	return &Nominatim{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   limit,
		limiter: limiter,
		logger:  logger,
	}
}

// place is one entry of a Nominatim "format=json" response.
type place struct {
	DisplayName string   `json:"display_name"`
	Class       string   `json:"class"`
	Type        string   `json:"type"`
	BoundingBox []string `json:"boundingbox"` // south, north, west, east
}

// Geocode implements Geocoder.
func (n *Nominatim) Geocode(ctx context.Context, query string) ([]model.GeoCandidate, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {strconv.Itoa(n.limit)},
	}

	var places []place
	if err := n.client.GetJSON(ctx, n.baseURL+"/search", params, &places); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}

	candidates := make([]model.GeoCandidate, 0, len(places))
	for _, p := range places {
		box, err := parseBoundingBox(p.BoundingBox)
		if err != nil {
			n.logger.Debug("skipping geocoder result", zap.String("label", p.DisplayName), zap.Error(err))
			continue
		}
		candidates = append(candidates, model.GeoCandidate{
			Label: p.DisplayName,
			Class: p.Class,
			Type:  p.Type,
			Box:   box,
		})
	}

	n.logger.Debug("geocoded", zap.String("query", query), zap.Int("candidates", len(candidates)))

	if len(candidates) == 0 {
		return nil, &GeocodeError{Query: query}
	}
	return candidates, nil
}

func parseBoundingBox(raw []string) (model.BoundingBox, error) {
	if len(raw) != 4 {
		return model.BoundingBox{}, fmt.Errorf("bounding box has %d elements, want 4", len(raw))
	}
	var v [4]float64
	for i, s := range raw {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.BoundingBox{}, fmt.Errorf("bounding box element %d: %w", i, err)
		}
		v[i] = f
	}
	return model.BoundingBox{South: v[0], North: v[1], West: v[2], East: v[3]}, nil
}
