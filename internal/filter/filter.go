package filter

import (
	"github.com/banshee-data/jetfilter/internal/jets"
)

// Filter applies one configured selection mode to events.
type Filter struct {
	params Params

	// Logf receives per-update AlphaT diagnostics when non-nil. Set it before
	// the filter is shared between goroutines.
	Logf func(format string, v ...interface{})
}

// New validates p and returns a filter for it.
func New(p Params) (*Filter, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.MinPtJet = append([]float64(nil), p.MinPtJet...)
	p.EtaJet = append([]float64(nil), p.EtaJet...)
	return &Filter{params: p}, nil
}

// Params returns a copy of the filter's parameters.
func (f *Filter) Params() Params {
	p := f.params
	p.MinPtJet = append([]float64(nil), p.MinPtJet...)
	p.EtaJet = append([]float64(nil), p.EtaJet...)
	return p
}

// Evaluate decides whether the event described by c is accepted.
func (f *Filter) Evaluate(c jets.Collection) Result {
	res := Result{Mode: f.params.Mode}
	if f.params.SaveTag {
		res.CollectionTag = c.Tag
	}
	if c.Len() == 0 {
		return res
	}

	st := f.accumulate(c.Jets)
	res.Diagnostics = st.diagnostics()
	res.Triggered = f.dispatch(st)
	if !res.Triggered {
		return res
	}

	useEt := f.params.useEt()
	minPt := f.params.MinPtJet[htSelection]
	res.Jets = c.Refs(func(j jets.Jet) bool {
		return j.Score(useEt) > minPt
	})
	res.Accept = len(res.Jets) > 0
	return res
}

// accumulate runs the single pass over the jets. Each mode folds in only the
// sums its criterion reads.
func (f *Filter) accumulate(js []jets.Jet) *runningState {
	p := f.params
	useEt := p.useEt()
	st := &runningState{}

	for _, j := range js {
		score := j.Score(useEt)
		absEta := j.AbsEta()

		switch p.Mode {
		case ModeMHT:
			if p.passes(mhtSelection, score, absEta) {
				st.subtractMHT(j, score)
			}

		case ModeMeff:
			if p.passes(mhtSelection, score, absEta) {
				st.subtractMHT(j, score)
			}
			if p.passes(htSelection, score, absEta) {
				st.addHT(score)
			}

		case ModePT12:
			if p.passes(htSelection, score, absEta) {
				st.nj++
				st.subtractMHT(j, score)
				if st.nj == 2 {
					return st
				}
			}

		case ModeHT:
			if p.passes(htSelection, score, absEta) {
				st.addHT(score)
			}

		case ModeHTAlphaT:
			if p.passes(mhtSelection, score, absEta) {
				st.subtractMHT(j, score)
			}
			if !p.passes(htSelection, score, absEta) {
				continue
			}
			st.addHT(score)
			st.addSelected(j)
			st.updateDHT(score)
			f.evaluateAlphaT(st)
			if st.ht > p.MinHT && st.hasApprox && st.alphaTApprox > p.MinAlphaT {
				st.triggered = true
				return st
			}
		}
	}
	return st
}

// evaluateAlphaT refreshes both AlphaT values from the current running sums.
// Only the approximation takes part in the decision.
func (f *Filter) evaluateAlphaT(st *runningState) {
	st.alphaTExact, st.hasExact = ExactAlphaT(st.et, st.px, st.py)
	st.alphaTApprox, st.hasApprox = ApproxAlphaT(st.ht, st.missingHT(), st.nj, st.dht)
	if st.nj >= 2 && !st.hasApprox {
		st.degenerate = true
	}

	if f.Logf != nil {
		f.Logf("alphaT nj=%d exact=%.4f (ok=%t) approx=%.4f (ok=%t)",
			st.nj, st.alphaTExact, st.hasExact, st.alphaTApprox, st.hasApprox)
	}
}

// dispatch applies the configured mode's threshold test to the accumulated
// sums.
func (f *Filter) dispatch(st *runningState) bool {
	p := f.params
	switch p.Mode {
	case ModeMHT:
		return st.missingHT() > p.MinMHT
	case ModeMeff:
		return st.missingHT()+st.ht > p.MinMeff
	case ModePT12:
		return st.missingHT() > p.MinPT12 && st.nj > 1
	case ModeHT:
		return st.ht > p.MinHT
	case ModeHTAlphaT:
		return st.triggered
	default:
		return false
	}
}
