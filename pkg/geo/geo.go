// Package geo converts between the external [longitude, latitude] pair
// representation and the GeoJSON point stored in MongoDB.
package geo

import (
	pkgerrors "proximity-service/pkg/errors"
)

// PointType is the GeoJSON type tag for a single point.
const PointType = "Point"

// Point is a GeoJSON point as persisted on the user document.
// Coordinates are always [longitude, latitude] in that order.
type Point struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// PointFromCoords wraps a [lon, lat] pair as a GeoJSON point.
// The pair is copied so later mutation of the caller's slice never
// reaches a document already handed to the repository.
func PointFromCoords(coords []float64) (Point, error) {
	if len(coords) != 2 {
		return Point{}, pkgerrors.NewValidationError("loc", "coordinates must be a [longitude, latitude] pair")
	}

	c := make([]float64, 2)
	copy(c, coords)

	return Point{Type: PointType, Coordinates: c}, nil
}

// Coords extracts the [lon, lat] pair from a stored point, again as a
// copy. A document whose point lost its expected shape is corrupt.
func (p Point) Coords() ([]float64, error) {
	if p.Type != PointType || len(p.Coordinates) != 2 {
		return nil, pkgerrors.NewCorruptDataError("stored location is not a valid GeoJSON point", nil)
	}

	c := make([]float64, 2)
	copy(c, p.Coordinates)

	return c, nil
}

// Lon returns the longitude of the point. Shape must have been checked.
func (p Point) Lon() float64 { return p.Coordinates[0] }

// Lat returns the latitude of the point.
func (p Point) Lat() float64 { return p.Coordinates[1] }
