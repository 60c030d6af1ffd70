// Package geo pads geographic bounding boxes by a distance in metres.
package geo

import (
	"math"

	"github.com/handiism/streetgrab/internal/model"
)

// KmPerDegreeLat is the length of one degree of latitude.
const KmPerDegreeLat = 111.32

// Pad expands box by metres on every side.
//
// Degrees of longitude are scaled by the cosine of the box's mean latitude.
// No clamping is done, so boxes near the poles or across the antimeridian
// come out unusable.
func Pad(box model.BoundingBox, metres float64) model.BoundingBox {
	dLat, dLon := Deltas(box, metres)
	return model.BoundingBox{
		West:  box.West - dLon,
		South: box.South - dLat,
		East:  box.East + dLon,
		North: box.North + dLat,
	}
}

// Deltas returns the latitude and longitude offsets, in degrees, that
// correspond to metres at the box's mean latitude.
func Deltas(box model.BoundingBox, metres float64) (dLat, dLon float64) {
	meanLat := (box.North + box.South) / 2
	kmPerDegreeLon := KmPerDegreeLat * math.Cos(meanLat*math.Pi/180)

	km := metres / 1000
	return km / KmPerDegreeLat, km / kmPerDegreeLon
}
