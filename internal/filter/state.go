package filter

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/jetfilter/internal/jets"
)

// runningState is the per-event scratch space of one Evaluate call. It is
// created zeroed for every event and never outlives the call.
type runningState struct {
	nj  int     // jets passing the HT / counting selection
	mht r2.Vec  // negated vector sum of MHT-selected jets
	ht  float64 // scalar sum of HT-selected scores
	dht float64 // signed running difference, mode 5 only

	// Selected jets' transverse energies and momenta, mode 5 only.
	et []float64
	px []float64
	py []float64

	triggered bool

	alphaTExact  float64
	alphaTApprox float64
	hasExact     bool
	hasApprox    bool
	degenerate   bool
}

// subtractMHT folds a jet into the missing-momentum vector.
func (s *runningState) subtractMHT(j jets.Jet, score float64) {
	s.mht = r2.Sub(s.mht, j.ScaledMomentum(score))
}

// addHT folds a jet into the scalar sum and the selected-jet count.
func (s *runningState) addHT(score float64) {
	s.ht += score
	s.nj++
}

// addSelected records the selected jet's four-vector components for the
// exact AlphaT search.
func (s *runningState) addSelected(j jets.Jet) {
	p4 := j.FourMomentum()
	s.et = append(s.et, p4.Et())
	s.px = append(s.px, p4.Px())
	s.py = append(s.py, p4.Py())
}

// updateDHT adds the score while fewer than two jets are selected (counting
// the current one) and subtracts it afterwards.
func (s *runningState) updateDHT(score float64) {
	if s.nj < 2 {
		s.dht += score
	} else {
		s.dht -= score
	}
}

func (s *runningState) missingHT() float64 {
	return r2.Norm(s.mht)
}

func (s *runningState) diagnostics() Diagnostics {
	return Diagnostics{
		NJet:         s.nj,
		HT:           s.ht,
		MHT:          s.missingHT(),
		MHTVec:       s.mht,
		AlphaTExact:  s.alphaTExact,
		AlphaTApprox: s.alphaTApprox,
		HasExact:     s.hasExact,
		HasApprox:    s.hasApprox,
		Degenerate:   s.degenerate,
	}
}
