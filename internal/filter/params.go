package filter

import (
	"errors"
	"fmt"
)

// ErrInconsistentConfig is returned when the threshold and eta arrays do not
// fit the configured mode. It is a startup-time condition: a Filter is never
// built from inconsistent parameters.
var ErrInconsistentConfig = errors.New("inconsistent filter configuration")

// Selection indices into MinPtJet and EtaJet.
const (
	htSelection  = 0
	mhtSelection = 1
)

// Params is the validated configuration of one filter instance.
type Params struct {
	Mode  Mode
	UsePt bool

	// MinPtJet and EtaJet hold (threshold, |eta| window) pairs. Index 0
	// governs the HT / jet-counting selection, index 1 the MHT selection.
	MinPtJet []float64
	EtaJet   []float64

	MinMHT    float64
	MinMeff   float64
	MinPT12   float64
	MinHT     float64
	MinAlphaT float64

	// MinNJet is carried as a sanity bound only.
	MinNJet int

	InputTag string
	SaveTag  bool
}

// Validate checks that the parameters are usable by Evaluate without any
// out-of-range access.
func (p Params) Validate() error {
	if !p.Mode.Valid() {
		return fmt.Errorf("%w: mode must be 1-5, got %d", ErrInconsistentConfig, int(p.Mode))
	}
	if len(p.MinPtJet) != len(p.EtaJet) {
		return fmt.Errorf("%w: min_pt_jet has %d entries but eta_jet has %d",
			ErrInconsistentConfig, len(p.MinPtJet), len(p.EtaJet))
	}
	if len(p.MinPtJet) < 1 {
		return fmt.Errorf("%w: min_pt_jet and eta_jet must not be empty", ErrInconsistentConfig)
	}
	if p.Mode.NeedsMHTSelection() && len(p.MinPtJet) < 2 {
		return fmt.Errorf("%w: mode %s needs two min_pt_jet/eta_jet entries, got %d",
			ErrInconsistentConfig, p.Mode, len(p.MinPtJet))
	}
	if p.MinNJet < 0 {
		return fmt.Errorf("%w: min_n_jet must be non-negative, got %d", ErrInconsistentConfig, p.MinNJet)
	}
	return nil
}

// useEt reports whether jets are scored on transverse energy.
func (p Params) useEt() bool {
	return !p.UsePt || p.Mode.forcesEt()
}

func (p Params) passes(sel int, score, absEta float64) bool {
	return score > p.MinPtJet[sel] && absEta < p.EtaJet[sel]
}
