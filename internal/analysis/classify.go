package analysis

import (
	"fmt"
	"math"
	"strconv"
)

// Inferred column types.
const (
	TypeNumeric = "numeric"
	TypeDate    = "date"
	TypeBoolean = "boolean"
	TypeText    = "text"
	TypeEmpty   = "empty"
)

const (
	missingRatioThreshold = 0.30
	smallSampleRows       = 10

	alertSmallSample = "Sample contains fewer than 10 records. Consider uploading a larger extract for a more reliable assessment."
	alertNoRows      = "No data rows detected. Ensure the file includes at least one record."
	recFallback      = "Document key data points in the contract description so buyers understand the dataset scope."
)

// InferType picks a column type from the final category counts. Equal
// counts resolve as numeric, then date, then boolean.
func InferType(numeric, date, boolean, nonNull int64) string {
	switch {
	case numeric > 0 && numeric >= boolean && numeric >= date:
		return TypeNumeric
	case date > 0 && date >= boolean:
		return TypeDate
	case boolean > 0:
		return TypeBoolean
	case nonNull == 0:
		return TypeEmpty
	default:
		return TypeText
	}
}

func (c *columnAccumulator) profile(rows int64) ColumnProfile {
	p := ColumnProfile{
		Name:           c.name,
		InferredType:   InferType(c.numericCount, c.dateCount, c.booleanCount, c.nonNull),
		PopulatedCount: c.nonNull,
		EmptyCount:     c.empty,
		FillRate:       c.fillRate(rows),
		DistinctCount:  int64(c.distinct.size()),
	}
	if c.numericCount > 0 {
		p.NumericMin = floatPtr(*c.min)
		p.NumericMax = floatPtr(*c.max)
		avg, _ := c.mean()
		p.NumericAverage = floatPtr(avg)
	}
	if len(c.examples) > 0 {
		p.ExampleValue = c.examples[0]
	}
	return p
}

// qualityAlerts reports column-level data quality problems. The empty
// distinct-set rule only ever fires for columns with no populated values.
func (c *columnAccumulator) qualityAlerts(rows int64) []string {
	if rows == 0 {
		return nil
	}
	var alerts []string
	missing := float64(c.empty) / float64(rows)
	if missing > missingRatioThreshold {
		alerts = append(alerts, fmt.Sprintf(
			"%s has %s%% missing values. Consider cleaning or annotating these gaps in the contract.",
			c.name, formatPercent(missing*100)))
	}
	if c.distinct.size() == 0 {
		alerts = append(alerts, fmt.Sprintf("%s contains identical values for every record in the sample.", c.name))
	}
	return alerts
}

// classify builds the column profiles, quality alerts and de-duplicated
// contract recommendations for a finished row pass.
func classify(accs []*columnAccumulator, rows int64) ([]ColumnProfile, []string, []string) {
	profiles := make([]ColumnProfile, 0, len(accs))
	alerts := []string{}
	var recs []string
	for _, c := range accs {
		profiles = append(profiles, c.profile(rows))
		alerts = append(alerts, c.qualityAlerts(rows)...)
		recs = append(recs, c.recommendations...)
	}
	if rows < smallSampleRows {
		alerts = append(alerts, alertSmallSample)
	}
	if rows == 0 {
		alerts = append(alerts, alertNoRows)
	}
	if len(recs) == 0 {
		recs = append(recs, recFallback)
	}
	return profiles, alerts, dedupe(recs)
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// roundHalfUp rounds to the given number of decimal places, ties toward +Inf.
func roundHalfUp(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	scaled := v * scale
	if math.IsInf(scaled, 0) {
		return v
	}
	return math.Floor(scaled+0.5) / scale
}

func formatPercent(pct float64) string {
	return strconv.FormatFloat(roundHalfUp(pct, 0), 'f', 0, 64)
}

func formatFixed2(v float64) string {
	return strconv.FormatFloat(roundHalfUp(v, 2), 'f', 2, 64)
}
