package engine

import (
	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/models"
)

// Classify compares a sealed bucket against the baseline and the absolute
// volume floor. A zero baseline carries no signal and never produces a hit.
// Both thresholds are inclusive.
func Classify(bucket models.VolumeBucket, baseline models.BaselineSnapshot, ratioThreshold, minVolume float64) (ratio float64, hit bool) {
	if baseline.MedianVolume <= 0 {
		return 0, false
	}
	ratio = bucket.TotalNotional / baseline.MedianVolume
	hit = ratio >= ratioThreshold && bucket.TotalNotional >= minVolume
	return ratio, hit
}
