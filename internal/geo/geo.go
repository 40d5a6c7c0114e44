// Package geo implements the geofence check between a submitter and a collection bin.
package geo

import (
	"errors"
	"fmt"
	"math"
)

const (
	// EarthRadiusMeters is the mean radius used for great-circle distances.
	EarthRadiusMeters = 6371000.0
	// AllowedRadiusMeters is how close a submitter must be to the claimed bin.
	AllowedRadiusMeters = 30.0
)

// ErrInvalidCoordinates is returned for positions that are not finite or lie
// outside latitude [-90, 90] and longitude [-180, 180].
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Validate checks that p is a finite position within degree bounds.
func (p Point) Validate() error {
	switch {
	case math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90:
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinates, p.Lat)
	case math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) || p.Lng < -180 || p.Lng > 180:
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinates, p.Lng)
	}
	return nil
}

// BinLocation is the snapshot of a registered bin read for one request.
type BinLocation struct {
	ID        string
	Latitude  float64
	Longitude float64
}

// Point returns the bin position.
func (b BinLocation) Point() Point {
	return Point{Lat: b.Latitude, Lng: b.Longitude}
}

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b Point) float64 {
	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dPhi := radians(b.Lat - a.Lat)
	dLambda := radians(b.Lng - a.Lng)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Verify returns the distance between the submitter and the bin in meters.
func Verify(lat, lng float64, bin BinLocation) float64 {
	return Distance(Point{Lat: lat, Lng: lng}, bin.Point())
}

// WithinRange reports whether distanceM satisfies the geofence.
func WithinRange(distanceM float64) bool {
	return distanceM <= AllowedRadiusMeters
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
