package geocode

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/handiism/streetgrab/internal/http"
	"github.com/handiism/streetgrab/internal/model"
)

func TestPickRoad(t *testing.T) {
	place := model.GeoCandidate{Label: "Main Street station", Class: "railway"}
	road := model.GeoCandidate{Label: "Main Street", Class: "highway", Type: "residential"}
	town := model.GeoCandidate{Label: "Main", Class: "place"}

	tests := []struct {
		name       string
		candidates []model.GeoCandidate
		want       model.GeoCandidate
		wantErr    bool
	}{
		{"prefers highway", []model.GeoCandidate{place, road, town}, road, false},
		{"falls back to first", []model.GeoCandidate{town, place}, town, false},
		{"single highway", []model.GeoCandidate{road}, road, false},
		{"empty", nil, model.GeoCandidate{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PickRoad("Main Street", tt.candidates)
			if tt.wantErr {
				var geoErr *GeocodeError
				if !errors.As(err, &geoErr) {
					t.Fatalf("expected *GeocodeError, got %v", err)
				}
				if !errors.Is(err, ErrNoResults) {
					t.Error("GeocodeError should unwrap to ErrNoResults")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("PickRoad() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

type fakeGeocoder struct {
	candidates []model.GeoCandidate
	err        error
}

func (f fakeGeocoder) Geocode(ctx context.Context, query string) ([]model.GeoCandidate, error) {
	return f.candidates, f.err
}

func TestResolve(t *testing.T) {
	road := model.GeoCandidate{Class: "highway"}
	got, err := Resolve(context.Background(), fakeGeocoder{candidates: []model.GeoCandidate{{Class: "place"}, road}}, "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != road {
		t.Errorf("Resolve() = %+v, want %+v", got, road)
	}

	wantErr := errors.New("boom")
	if _, err := Resolve(context.Background(), fakeGeocoder{err: wantErr}, "q"); !errors.Is(err, wantErr) {
		t.Errorf("Resolve() error = %v, want %v", err, wantErr)
	}
}

const nominatimBody = `[
	{"display_name":"Main Street Station","class":"railway","type":"station","boundingbox":["51.50","51.51","-0.13","-0.12"]},
	{"display_name":"Main Street","class":"highway","type":"residential","boundingbox":["51.5072","51.5080","-0.1281","-0.1270"]},
	{"display_name":"Broken","class":"highway","type":"primary","boundingbox":["x"]}
]`

func TestNominatim_Geocode(t *testing.T) {
	var gotQuery, gotFormat, gotLimit, gotUA string
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q, want /search", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotFormat = r.URL.Query().Get("format")
		gotLimit = r.URL.Query().Get("limit")
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, nominatimBody)
	}))
	defer srv.Close()

	n := NewNominatim(http.NewClient("streetgrab-test", 5*time.Second), srv.URL, 10, 0, nil)
	candidates, err := n.Geocode(context.Background(), "Main Street")
	if err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}

	if gotQuery != "Main Street" || gotFormat != "json" || gotLimit != "10" {
		t.Errorf("query params q=%q format=%q limit=%q", gotQuery, gotFormat, gotLimit)
	}
	if gotUA != "streetgrab-test" {
		t.Errorf("User-Agent = %q", gotUA)
	}

	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2 (malformed box skipped)", len(candidates))
	}

	want := model.BoundingBox{West: -0.1281, South: 51.5072, East: -0.1270, North: 51.5080}
	if candidates[1].Box != want {
		t.Errorf("Box = %+v, want %+v", candidates[1].Box, want)
	}
	if candidates[1].Class != "highway" || candidates[1].Type != "residential" {
		t.Errorf("candidate = %+v", candidates[1])
	}

	picked, err := PickRoad("Main Street", candidates)
	if err != nil || picked.Label != "Main Street" {
		t.Errorf("PickRoad() = %+v, %v", picked, err)
	}
}

func TestNominatim_NoResults(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	n := NewNominatim(http.NewClient("", 5*time.Second), srv.URL, 10, 0, nil)
	_, err := n.Geocode(context.Background(), "Nowhere Lane")

	var geoErr *GeocodeError
	if !errors.As(err, &geoErr) {
		t.Fatalf("expected *GeocodeError, got %v", err)
	}
	if geoErr.Query != "Nowhere Lane" {
		t.Errorf("Query = %q", geoErr.Query)
	}
}

func TestNominatim_RateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, nominatimBody)
	}))
	defer srv.Close()

	minDelay := 100 * time.Millisecond
	n := NewNominatim(http.NewClient("", 5*time.Second), srv.URL, 10, minDelay, nil)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := n.Geocode(context.Background(), "Main Street"); err != nil {
			t.Fatalf("Geocode failed: %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed < 2*minDelay-10*time.Millisecond {
		t.Errorf("3 calls took %v, want at least %v", elapsed, 2*minDelay)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}
