// Package jets defines the reconstructed-jet input model consumed by the
// event filter.
//
// Jets arrive pre-formed from the event store. This package never builds or
// calibrates them; it only exposes the kinematic views the filter scores on.
// Key types: Jet, Collection, Ref.
package jets

import (
	"math"

	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/spatial/r2"
)

// Jet is one reconstructed jet. Values are read-only for the duration of a
// filter decision.
type Jet struct {
	Pt   float64 `json:"pt"`
	Et   float64 `json:"et,omitempty"`
	Mass float64 `json:"mass,omitempty"`
	Eta  float64 `json:"eta"`
	Phi  float64 `json:"phi"`
}

// FourMomentum returns the Cartesian four-vector of the jet built from
// (pt, eta, phi, mass).
func (j Jet) FourMomentum() fmom.PxPyPzE {
	p4 := fmom.NewPtEtaPhiM(j.Pt, j.Eta, j.Phi, j.Mass)
	var v fmom.PxPyPzE
	v.Set(&p4)
	return v
}

// TransverseEnergy returns Et when the producer supplied it, otherwise the
// transverse energy of the jet's four-vector.
func (j Jet) TransverseEnergy() float64 {
	if j.Et != 0 || j.Pt == 0 {
		return j.Et
	}
	p4 := j.FourMomentum()
	return p4.Et()
}

// Score returns the scoring variable: transverse energy when useEt is set,
// transverse momentum otherwise.
func (j Jet) Score(useEt bool) float64 {
	if useEt {
		return j.TransverseEnergy()
	}
	return j.Pt
}

// AbsEta returns |eta|.
func (j Jet) AbsEta() float64 {
	return math.Abs(j.Eta)
}

// Momentum returns the transverse momentum vector (px, py).
func (j Jet) Momentum() r2.Vec {
	return j.ScaledMomentum(j.Pt)
}

// ScaledMomentum returns a transverse vector of magnitude v along the jet's
// azimuth. The MHT accumulators use it with the scoring variable so that
// eT-scored selections sum eT-weighted directions.
func (j Jet) ScaledMomentum(v float64) r2.Vec {
	sin, cos := math.Sincos(j.Phi)
	return r2.Vec{X: v * cos, Y: v * sin}
}
