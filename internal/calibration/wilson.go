package calibration

import "math"

// WilsonInterval returns the closed-form Wilson score interval for a binomial
// proportion. Zero trials return the maximal-uncertainty interval [0,1].
func WilsonInterval(successes, trials int, confidence float64) (lower, upper float64) {
	if trials <= 0 {
		return 0, 1
	}

	z := zFor(confidence)
	n := float64(trials)
	p := float64(successes) / n
	z2 := z * z

	center := (float64(successes) + z2/2) / (n + z2)
	half := z * math.Sqrt(p*(1-p)/n+z2/(4*n*n)) / (1 + z2/n)

	lower = clamp01(center - half)
	upper = clamp01(center + half)
	return lower, upper
}

// zFor maps a confidence level to its two-sided normal quantile. Only the
// levels used in practice are tabulated; anything else falls back to 95%.
func zFor(confidence float64) float64 {
	switch {
	case math.Abs(confidence-0.90) < 1e-9:
		return 1.6449
	case math.Abs(confidence-0.99) < 1e-9:
		return 2.5758
	default:
		return 1.96
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
