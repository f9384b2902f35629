package filter

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/jetfilter/internal/jets"
)

// Result is the outcome of filtering one event.
type Result struct {
	// Accept is the filter decision: the mode criterion fired and at least
	// one jet passed the published-jet cut.
	Accept bool
	// Triggered reports whether the mode criterion alone was satisfied.
	Triggered bool
	Mode      Mode

	// Jets lists, in input order, every jet whose scoring variable exceeds
	// MinPtJet[0]. Empty unless Triggered.
	Jets []jets.Ref

	// CollectionTag is the input collection tag, set only when SaveTag is
	// configured.
	CollectionTag string

	Diagnostics Diagnostics
}

// Diagnostics exposes the accumulated sums behind a decision. For mode 5 the
// values are those at the point the decision latched, or at the end of the
// pass.
type Diagnostics struct {
	NJet   int
	HT     float64
	MHT    float64
	MHTVec r2.Vec

	AlphaTExact  float64
	AlphaTApprox float64
	HasExact     bool
	HasApprox    bool

	// Degenerate is set when the AlphaT approximation hit a non-positive
	// square-root argument for at least one update.
	Degenerate bool
}

// Meff returns the effective mass MHT + HT.
func (d Diagnostics) Meff() float64 {
	return d.MHT + d.HT
}
