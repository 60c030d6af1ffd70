// Package model defines the core data structures used throughout
// streetgrab.
//
// # Geocoding
//
// GeoCandidate is one result from the geocoding service. Candidates only
// live long enough for one of them to be picked:
//
//	cand := model.GeoCandidate{Label: "Main Street", Class: "highway", Box: box}
//
// # Bounding Box
//
// BoundingBox is the rectangular search extent, in degrees:
//
//	box := model.BoundingBox{West: -0.1, South: 51.5, East: -0.09, North: 51.51}
//	fmt.Println(box.String()) // "-0.1,51.5,-0.09,51.51"
//
// # Images
//
// ImageRecord is one entry from the imagery metadata API. AttributionRow is
// what gets written to attribution.csv for every kept image:
//
//	row := model.NewAttributionRow(record, "img_123.jpg")
package model
