package calibration

import "github.com/Abdr007/prism-ai-sub001/internal/domain/models"

// Interval is a calibrated probability with its empirical uncertainty band.
type Interval struct {
	Probability float64 `json:"probability"` // logistic point estimate
	Lower       float64 `json:"lower"`
	Upper       float64 `json:"upper"`
	SampleSize  int     `json:"sample_size"` // trials in the matched bin
}

// ProbabilityWithInterval reports the logistic point estimate for rawScore and
// the Wilson band of the calibration bin containing it. Without a matching
// bin the band is the maximal-uncertainty [0,1].
func ProbabilityWithInterval(rawScore float64, params models.CalibrationParams, confidence float64) Interval {
	out := Interval{
		Probability: Probability(rawScore, params),
		Lower:       0,
		Upper:       1,
	}
	for i, b := range params.Bins {
		if !b.Contains(rawScore, i == len(params.Bins)-1) {
			continue
		}
		out.SampleSize = b.Trials
		out.Lower, out.Upper = WilsonInterval(b.Successes, b.Trials, confidence)
		return out
	}
	return out
}

// BuildBins partitions the 0-100 score range into count equal-width bins and
// tallies sample outcomes into them. Scores outside the range clamp to the
// edge bins.
func BuildBins(samples []Sample, count int) []models.CalibrationBin {
	if count <= 0 {
		count = 10
	}
	width := 100.0 / float64(count)
	bins := make([]models.CalibrationBin, count)
	for i := range bins {
		bins[i].Lower = float64(i) * width
		bins[i].Upper = float64(i+1) * width
	}

	for _, s := range samples {
		idx := int(s.RawScore / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= count {
			idx = count - 1
		}
		bins[idx].Trials++
		bins[idx].Successes += s.Outcome
	}
	return bins
}
