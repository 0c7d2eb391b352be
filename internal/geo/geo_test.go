package geo

import (
	"math"
	"testing"
)

func TestDistanceZero(t *testing.T) {
	p := Point{Lat: 59.3293, Lng: 18.0686}
	if d := Distance(p, p); d != 0 {
		t.Errorf("expected 0 distance to self, got %f", d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Point{Lat: 59.3293, Lng: 18.0686}  // Stockholm
	b := Point{Lat: 57.7089, Lng: 11.9746}  // Gothenburg
	c := Point{Lat: -33.8688, Lng: 151.209} // Sydney

	pairs := [][2]Point{{a, b}, {b, c}, {a, c}}
	for _, pair := range pairs {
		d1 := Distance(pair[0], pair[1])
		d2 := Distance(pair[1], pair[0])
		if math.Abs(d1-d2) > 1e-9 {
			t.Errorf("distance not symmetric: %f vs %f", d1, d2)
		}
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// Stockholm to Gothenburg is roughly 398 km as the crow flies.
	a := Point{Lat: 59.3293, Lng: 18.0686}
	b := Point{Lat: 57.7089, Lng: 11.9746}

	d := Distance(a, b)
	if d < 390000 || d > 410000 {
		t.Errorf("expected ~398 km, got %f m", d)
	}
}

func TestDistanceShortRange(t *testing.T) {
	// Two points ~22 m apart (0.0002 degrees latitude).
	a := Point{Lat: 59.3293, Lng: 18.0686}
	b := Point{Lat: 59.3295, Lng: 18.0686}

	d := Distance(a, b)
	if d < 20 || d > 25 {
		t.Errorf("expected ~22 m, got %f", d)
	}
}

func TestWithin(t *testing.T) {
	a := Point{Lat: 59.3293, Lng: 18.0686}
	b := Point{Lat: 59.3295, Lng: 18.0686} // ~22 m north

	if !Within(a, b, 25) {
		t.Error("expected points within 25 m radius")
	}
	if Within(a, b, 20) {
		t.Error("expected points outside 20 m radius")
	}
	if !Within(a, a, 0) {
		t.Error("expected point within zero radius of itself")
	}
}
