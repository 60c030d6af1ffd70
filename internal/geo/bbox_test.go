package geo

import (
	"math"
	"testing"

	"github.com/handiism/streetgrab/internal/model"
)

func TestPad_ContainsInput(t *testing.T) {
	boxes := []model.BoundingBox{
		{West: -0.1281, South: 51.5072, East: -0.1270, North: 51.5080},
		{West: 151.2090, South: -33.8700, East: 151.2100, North: -33.8680},
		{West: -74.0100, South: 40.7000, East: -73.9900, North: 40.7200},
		{West: 10, South: 0, East: 10.001, North: 0.001},
	}

	for _, box := range boxes {
		for _, r := range []float64{0.5, 25, 100, 5000} {
			padded := Pad(box, r)
			if !(padded.West < box.West && padded.South < box.South &&
				padded.East > box.East && padded.North > box.North) {
				t.Errorf("Pad(%v, %v) = %v, want strict containment", box, r, padded)
			}
			if !padded.Valid() {
				t.Errorf("Pad(%v, %v) = %v is not a valid box", box, r, padded)
			}
		}
	}
}

func TestPad_ZeroRadius(t *testing.T) {
	box := model.BoundingBox{West: 2.29, South: 48.85, East: 2.30, North: 48.86}
	if got := Pad(box, 0); got != box {
		t.Errorf("Pad(box, 0) = %v, want %v", got, box)
	}
}

func TestDeltas(t *testing.T) {
	tests := []struct {
		name    string
		box     model.BoundingBox
		metres  float64
		wantLat float64
		wantLon float64
	}{
		{
			name:    "equator",
			box:     model.BoundingBox{West: 0, South: -0.001, East: 0.001, North: 0.001},
			metres:  111320,
			wantLat: 1,
			wantLon: 1,
		},
		{
			name:    "sixty degrees north",
			box:     model.BoundingBox{West: 0, South: 60, East: 0.001, North: 60},
			metres:  111320,
			wantLat: 1,
			wantLon: 2,
		},
		{
			name:    "twenty five metres at equator",
			box:     model.BoundingBox{West: 0, South: 0, East: 0.001, North: 0},
			metres:  25,
			wantLat: 0.025 / 111.32,
			wantLon: 0.025 / 111.32,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dLat, dLon := Deltas(tt.box, tt.metres)
			if math.Abs(dLat-tt.wantLat) > 1e-9 {
				t.Errorf("dLat = %v, want %v", dLat, tt.wantLat)
			}
			if math.Abs(dLon-tt.wantLon) > 1e-9 {
				t.Errorf("dLon = %v, want %v", dLon, tt.wantLon)
			}
		})
	}
}
