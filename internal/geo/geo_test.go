package geo

import (
	"errors"
	"math"
	"testing"
)

var connaughtPlace = Point{Lat: 28.6328, Lng: 77.2195}

func TestDistanceToSelfIsZero(t *testing.T) {
	if d := Distance(connaughtPlace, connaughtPlace); d != 0 {
		t.Fatalf("expected 0m, got %f", d)
	}
	if !WithinRange(Distance(connaughtPlace, connaughtPlace)) {
		t.Fatal("expected zero distance to be within range")
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	points := []Point{
		connaughtPlace,
		{Lat: 28.5677, Lng: 77.2756},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 51.5074, Lng: -0.1278},
		{Lat: 89.9, Lng: 0},
	}
	for _, a := range points {
		for _, b := range points {
			ab, ba := Distance(a, b), Distance(b, a)
			if math.Abs(ab-ba) > 1e-6 {
				t.Fatalf("distance not symmetric for %v/%v: %f vs %f", a, b, ab, ba)
			}
		}
	}
}

func TestDistanceKnownValues(t *testing.T) {
	cases := []struct {
		name string
		a, b Point
		want float64
		tol  float64
	}{
		{
			name: "one degree of latitude",
			a:    Point{Lat: 0, Lng: 0},
			b:    Point{Lat: 1, Lng: 0},
			want: EarthRadiusMeters * math.Pi / 180,
			tol:  1e-6,
		},
		{
			name: "connaught place to lajpat nagar",
			a:    connaughtPlace,
			b:    Point{Lat: 28.5677, Lng: 77.2756},
			want: 9077,
			tol:  20,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Distance(tc.a, tc.b)
			if math.Abs(got-tc.want) > tc.tol {
				t.Fatalf("expected %f±%f, got %f", tc.want, tc.tol, got)
			}
		})
	}
}

func TestVerifyUsesBinCoordinates(t *testing.T) {
	bin := BinLocation{ID: "BIN-CP", Latitude: connaughtPlace.Lat, Longitude: connaughtPlace.Lng}

	// ~0.0001 degrees of latitude is a little over 11 meters.
	d := Verify(connaughtPlace.Lat+0.0001, connaughtPlace.Lng, bin)
	if d < 11 || d > 12 {
		t.Fatalf("expected ~11.1m, got %f", d)
	}
	if !WithinRange(d) {
		t.Fatalf("expected %fm to be within range", d)
	}
}

func TestWithinRangeBoundary(t *testing.T) {
	if !WithinRange(AllowedRadiusMeters) {
		t.Fatal("expected exactly 30m to be accepted")
	}
	if WithinRange(math.Nextafter(AllowedRadiusMeters, 31)) {
		t.Fatal("expected anything beyond 30m to be rejected")
	}
}

func TestPointValidate(t *testing.T) {
	valid := []Point{connaughtPlace, {Lat: 90, Lng: 180}, {Lat: -90, Lng: -180}}
	for _, p := range valid {
		if err := p.Validate(); err != nil {
			t.Errorf("Validate(%v) returned error: %v", p, err)
		}
	}

	invalid := []Point{
		{Lat: math.NaN(), Lng: 77.2195},
		{Lat: 28.6328, Lng: math.NaN()},
		{Lat: math.Inf(1), Lng: 77.2195},
		{Lat: 28.6328, Lng: math.Inf(-1)},
		{Lat: 200, Lng: 77.2195},
		{Lat: 28.6328 + 360, Lng: 77.2195},
		{Lat: 28.6328, Lng: 181},
	}
	for _, p := range invalid {
		if err := p.Validate(); !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("Validate(%v) = %v, want ErrInvalidCoordinates", p, err)
		}
	}
}
