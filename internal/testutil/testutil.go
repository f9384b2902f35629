// Package testutil provides shared jet and event fixtures for tests.
//
// This package centralises the synthetic events used by the pipeline, store
// and monitor tests so that they agree on what a "typical" event looks like.
package testutil

import (
	"math"
	"math/rand"
	"testing"

	"github.com/banshee-data/jetfilter/internal/events"
	"github.com/banshee-data/jetfilter/internal/jets"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// CentralJet returns a massless jet at eta 0 whose Et equals its Pt.
func CentralJet(pt, phi float64) jets.Jet {
	return jets.Jet{Pt: pt, Et: pt, Phi: phi}
}

// Dijet returns two central jets of transverse energy et separated by dphi
// in azimuth. dphi = pi is a perfectly balanced back-to-back pair.
func Dijet(et, dphi float64) []jets.Jet {
	return []jets.Jet{
		CentralJet(et, 0),
		CentralJet(et, dphi),
	}
}

// SyntheticEvents returns n reproducible events with between zero and six
// jets each, falling pT spectra and |eta| up to 4.
func SyntheticEvents(n int, seed int64) []events.Event {
	rng := rand.New(rand.NewSource(seed))
	out := make([]events.Event, n)
	for i := range out {
		nj := rng.Intn(7)
		js := make([]jets.Jet, nj)
		for k := range js {
			pt := 20 + rng.ExpFloat64()*80
			eta := (rng.Float64()*2 - 1) * 4
			phi := (rng.Float64()*2 - 1) * math.Pi
			mass := rng.Float64() * 0.1 * pt
			js[k] = jets.Jet{Pt: pt, Eta: eta, Phi: phi, Mass: mass}
			js[k].Et = js[k].TransverseEnergy()
		}
		out[i] = events.Event{
			Run:   1,
			Lumi:  uint32(1 + i/100),
			Event: uint64(1000 + i),
			Jets:  js,
		}
	}
	return out
}
