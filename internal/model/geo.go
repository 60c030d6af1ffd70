package model

import (
	"fmt"
	"strconv"
	"strings"
)

// HighwayClass is the geocoder classification tag for road entities.
const HighwayClass = "highway"

// BoundingBox is a rectangular geographic extent in degrees.
type BoundingBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// String returns the box as "west,south,east,north", the form expected by
// the imagery metadata API.
func (b BoundingBox) String() string {
	parts := []string{
		strconv.FormatFloat(b.West, 'f', -1, 64),
		strconv.FormatFloat(b.South, 'f', -1, 64),
		strconv.FormatFloat(b.East, 'f', -1, 64),
		strconv.FormatFloat(b.North, 'f', -1, 64),
	}
	return strings.Join(parts, ",")
}

// Contains reports whether other lies within b (edges inclusive).
func (b BoundingBox) Contains(other BoundingBox) bool {
	return b.West <= other.West && b.South <= other.South &&
		b.East >= other.East && b.North >= other.North
}

// Valid reports whether west < east and south < north.
func (b BoundingBox) Valid() bool {
	return b.West < b.East && b.South < b.North
}

// GeoCandidate is a single geocoder result.
type GeoCandidate struct {
	// Label is the free-text display name.
	Label string

	// Class is the classification tag, e.g. "highway" or "place".
	Class string

	// Type is the sub-type within Class, e.g. "residential".
	Type string

	// Box is the raw bounding box reported by the geocoder.
	Box BoundingBox
}

// IsRoad reports whether the candidate is classified as a road.
func (c GeoCandidate) IsRoad() bool {
	return c.Class == HighwayClass
}

// Describe formats the candidate for diagnostic output.
func (c GeoCandidate) Describe() string {
	return fmt.Sprintf("class=%s type=%s bbox=[%g %g %g %g]",
		c.Class, c.Type, c.Box.South, c.Box.North, c.Box.West, c.Box.East)
}
