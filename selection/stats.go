package selection

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// welchTTest performs Welch's t-test (unequal variance) on two samples and
// returns the two-sided p-value and the difference of means (a - b), per
// spec.md §4.2.1. Degenerate cases (either sample has zero variance and the
// means are equal, or either has fewer than 2 observations) report p=1 —
// "no evidence of a difference" — which the Welch policy treats as
// inactivity, rather than dividing by zero.
func welchTTest(a, b []float64) (p, meanDiff float64) {
	meanA, meanB := stat.Mean(a, nil), stat.Mean(b, nil)
	meanDiff = meanA - meanB

	if len(a) < 2 || len(b) < 2 {
		return 1, meanDiff
	}

	varA, varB := stat.Variance(a, nil), stat.Variance(b, nil)
	nA, nB := float64(len(a)), float64(len(b))
	seA, seB := varA/nA, varB/nB

	if seA+seB == 0 {
		if meanDiff == 0 {
			return 1, meanDiff
		}
		// Zero pooled variance but different means: maximally significant.
		return 0, meanDiff
	}

	se := math.Sqrt(seA + seB)
	tStat := meanDiff / se

	df := math.Pow(seA+seB, 2) / (math.Pow(seA, 2)/(nA-1) + math.Pow(seB, 2)/(nB-1))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	// Two-sided p-value from the CDF, mirroring scipy.stats.ttest_ind.
	p = 2 * (1 - dist.CDF(math.Abs(tStat)))
	return p, meanDiff
}

// theilSenFit holds the median-slope regression spec.md §4.2.2 requires:
// the median slope and intercept of the best-fit line through y (sampled
// at equally-spaced steps 0..len(y)-1), plus a [lo, hi] confidence band on
// the slope at the requested confidence level.
type theilSenFit struct {
	Slope, Intercept float64
	LoSlope, HiSlope float64
}

// theilSen computes the Theil-Sen estimator for y against x = 0..n-1, with
// a Sen (1968) confidence interval on the slope at the given confidence
// level (e.g. 0.99 for p_threshold = 0.01). This is the same construction
// scipy.stats.theilslopes uses, which the source this design was distilled
// from calls directly; gonum has no equivalent built in, so the estimator
// itself — median-of-pairwise-slopes plus the rank-based confidence bound —
// is hand-rolled here, grounded on that reference algorithm.
func theilSen(y []float64, confidence float64) theilSenFit {
	n := len(y)
	slopes := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			slopes = append(slopes, (y[j]-y[i])/float64(j-i))
		}
	}
	sort.Float64s(slopes)

	medSlope := median(slopes)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	medIntercept := median(y) - medSlope*median(xs)

	significance := 1 - confidence
	if significance < 0 {
		significance = 0
	}
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(significance / 2)

	nt := float64(len(slopes))
	ny := float64(n)
	sigma := math.Sqrt(ny * (ny - 1) * (2*ny + 5) / 18)

	ru := int(math.Round((nt - z*sigma) / 2))
	if ru > len(slopes)-1 {
		ru = len(slopes) - 1
	}
	rl := int(math.Round((nt+z*sigma)/2)) - 1
	if rl < 0 {
		rl = 0
	}

	return theilSenFit{
		Slope:     medSlope,
		Intercept: medIntercept,
		LoSlope:   slopes[rl],
		HiSlope:   slopes[ru],
	}
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
