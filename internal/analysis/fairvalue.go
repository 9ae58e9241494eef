package analysis

import (
	"fmt"
	"math"
	"strings"
)

const (
	fallbackStdRatio = 0.1
	minimalStdRatio  = 0.05
	bandMinRows      = 25
)

// fairValueBands estimates a low/mid/high price band for every price-like
// column with at least one numeric value.
func fairValueBands(accs []*columnAccumulator, rows int64) []FairValueBand {
	bands := []FairValueBand{}
	if len(accs) == 0 || rows == 0 {
		return bands
	}
	hasDelivery := len(columnsWith(accs, RoleDelivery)) > 0

	for _, c := range accs {
		if !c.is(RolePrice) || c.numericCount == 0 {
			continue
		}
		mean, ok := c.mean()
		if !ok || !isFinite(mean) {
			continue
		}
		std, measured := c.stdDev()
		if !measured {
			std = math.Abs(mean) * fallbackStdRatio
		}
		if !isFinite(std) || std == 0 {
			std = math.Abs(mean) * minimalStdRatio
		}

		low := math.Max(mean-std, *c.min)
		high := math.Min(mean+std, *c.max)
		// the band always contains the mean
		low = math.Min(low, mean)
		high = math.Max(high, mean)

		band := FairValueBand{
			Column:   c.name,
			Guidance: fairValueGuidance(c, rows, measured, hasDelivery),
		}
		if isFinite(low) && isFinite(high) {
			band.LowEstimate = floatPtr(roundHalfUp(low, 2))
			band.MidEstimate = floatPtr(roundHalfUp(mean, 2))
			band.HighEstimate = floatPtr(roundHalfUp(high, 2))
		}
		bands = append(bands, band)
	}
	return bands
}

func fairValueGuidance(c *columnAccumulator, rows int64, measured, hasDelivery bool) string {
	var b strings.Builder
	if measured {
		b.WriteString("Band derived from the observed price distribution.")
	} else {
		b.WriteString("Band interpolated from limited variance; add more samples for greater confidence.")
	}
	if rows < bandMinRows {
		b.WriteString(" Add 25+ rows to stabilise marketplace pricing guidance.")
	}
	if c.numericCount < rows {
		missing := (1 - float64(c.numericCount)/float64(max(1, rows))) * 100
		fmt.Fprintf(&b, " %s%% of records lacked numeric values in %s.", formatPercent(missing), c.name)
	}
	if hasDelivery {
		b.WriteString(" Align delivery commitments with the median price before publishing.")
	}
	return strings.TrimSpace(b.String())
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
