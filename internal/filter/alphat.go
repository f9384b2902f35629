package filter

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MaxAlphaTJets bounds the exact AlphaT search. The bipartition enumeration
// visits 2^(n-1) masks, so larger selections are reported as not computed
// rather than enumerated.
const MaxAlphaTJets = 20

// degenerateTolerance is the relative size below which a square-root
// argument of the AlphaT denominator is treated as zero.
const degenerateTolerance = 1e-12

// ExactAlphaT computes AlphaT from the full bipartition search:
//
//	0.5 * (ΣEt - min|ΔΣEt|) / sqrt((ΣEt)² - (ΣPx)² - (ΣPy)²)
//
// et, px and py must have the same length. The second result is false when
// no jets are given, when there are more than MaxAlphaTJets jets, or when the
// denominator is degenerate.
func ExactAlphaT(et, px, py []float64) (float64, bool) {
	n := len(et)
	if n == 0 || n > MaxAlphaTJets || len(px) != n || len(py) != n {
		return 0, false
	}

	sumEt := floats.Sum(et)
	sumPx := floats.Sum(px)
	sumPy := floats.Sum(py)

	arg := sumEt*sumEt - (sumPx*sumPx + sumPy*sumPy)
	if isDegenerate(arg, sumEt*sumEt) {
		return 0, false
	}
	return 0.5 * (sumEt - minDeltaSumEt(et)) / math.Sqrt(arg), true
}

// minDeltaSumEt returns the smallest |ΣEt(side A) - ΣEt(side B)| over all
// assignments of the jets to two sides. The first jet is pinned to side A so
// each partition and its mirror image are visited once; bit j-1 of the mask
// places jet j on side B.
func minDeltaSumEt(et []float64) float64 {
	n := len(et)
	if n == 1 {
		return math.Abs(et[0])
	}

	minDiff := math.Inf(1)
	partitions := uint32(1) << uint(n-1)
	for mask := uint32(0); mask < partitions; mask++ {
		diff := et[0]
		for j := 1; j < n; j++ {
			if (mask>>uint(j-1))&1 == 1 {
				diff -= et[j]
			} else {
				diff += et[j]
			}
		}
		if d := math.Abs(diff); d < minDiff {
			minDiff = d
		}
	}
	return minDiff
}

// ApproxAlphaT computes the fast AlphaT approximation from the running sums:
//
//	nj in {2,3}: (HT - |dHT|) / (2 sqrt(HT² - MHT²))
//	nj > 3:      HT / (2 sqrt(HT² - MHT²))
//
// The approximation is undefined below two jets. A degenerate denominator
// (MHT at or above HT) also reports false.
func ApproxAlphaT(ht, mht float64, nj int, dht float64) (float64, bool) {
	if nj < 2 {
		return 0, false
	}
	arg := ht*ht - mht*mht
	if isDegenerate(arg, ht*ht) {
		return 0, false
	}
	num := ht
	if nj <= 3 {
		num = ht - math.Abs(dht)
	}
	return num / (2 * math.Sqrt(arg)), true
}

func isDegenerate(arg, scale float64) bool {
	if math.IsNaN(arg) || math.IsInf(arg, 0) {
		return true
	}
	return arg <= degenerateTolerance*scale
}
