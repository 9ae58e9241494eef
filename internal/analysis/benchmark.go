package analysis

import (
	"fmt"
	"math"
)

const (
	ClusterTransactional = "Transactional fulfillment cluster"
	ClusterAudience      = "Audience segmentation cluster"
	ClusterExploratory   = "Exploratory contract cluster"

	benchmarkMinRows     = 50
	minCoverage          = 0.6
	baseVolatility       = 0.45
	contextWeightStep    = 0.2
	outlierZScore        = 2.5
	longTailDistinctMin  = 50
	actionBundlePricing  = "Bundle pricing with delivery and quantity terms so marketplace buyers can compare peer listings."
	actionMoreRows       = "Upload at least 50 representative rows to tighten the benchmark cluster before publishing."
	actionFillPricing    = "Fill in missing pricing values to avoid noisy guidance and failed auto-valuation checks."
	actionSegments       = "Highlight the strongest customer or market segments to differentiate your contract summary."
	actionCohorts        = "Group long-tail buyer attributes into broader cohorts so recommendation models stay stable."
	actionTagMetrics     = "Tag core commercial metrics so the platform can align the offer with historical performance."
	descTransactional    = "Pricing columns align with comparable delivery and quantity patterns observed in live marketplace contracts."
	descAudience         = "Categorical buyer and geography fields mirror clusters used to power demand forecasts and targeting guidance."
	descExploratory      = "The sample lacks strong signals for existing benchmarks. Add pricing, delivery or audience markers to unlock guidance."
)

// benchmarkInsights groups columns into commercial clusters. A sample with no
// rows or no columns produces no insights.
func benchmarkInsights(accs []*columnAccumulator, rows int64) []BenchmarkInsight {
	insights := []BenchmarkInsight{}
	if len(accs) == 0 || rows == 0 {
		return insights
	}

	var prices []*columnAccumulator
	for _, c := range columnsWith(accs, RolePrice) {
		if c.numericCount > 0 {
			prices = append(prices, c)
		}
	}
	delivery := columnsWith(accs, RoleDelivery)
	volume := columnsWith(accs, RoleVolume)
	buyers := columnsWith(accs, RoleBuyer)
	geo := columnsWith(accs, RoleGeography)

	if len(prices) > 0 {
		actions := []string{actionBundlePricing}
		if rows < benchmarkMinRows {
			actions = append(actions, actionMoreRows)
		}
		for _, c := range prices {
			if float64(c.numericCount) < float64(rows)*minCoverage {
				actions = append(actions, actionFillPricing)
				break
			}
		}
		insights = append(insights, BenchmarkInsight{
			Cluster:            ClusterTransactional,
			Description:        descTransactional,
			SupportingColumns:  uniqueNames(prices, volume, delivery),
			RecommendedActions: actions,
			Anomalies:          priceAnomalies(prices, rows, len(delivery) > 0, len(volume) > 0),
		})
	}

	if len(buyers) > 0 || len(geo) > 0 {
		actions := []string{actionSegments}
		for _, c := range buyers {
			if c.distinct.size() > longTailDistinctMin {
				actions = append(actions, actionCohorts)
				break
			}
		}
		anomalies := []string{}
		for _, c := range buyers {
			if c.fillRate(rows) < minCoverage {
				anomalies = append(anomalies, fmt.Sprintf(
					"%s is sparsely populated, reducing confidence in demand-segmentation scoring.", c.name))
			}
		}
		insights = append(insights, BenchmarkInsight{
			Cluster:            ClusterAudience,
			Description:        descAudience,
			SupportingColumns:  uniqueNames(buyers, geo),
			RecommendedActions: actions,
			Anomalies:          anomalies,
		})
	}

	if len(insights) == 0 {
		insights = append(insights, BenchmarkInsight{
			Cluster:            ClusterExploratory,
			Description:        descExploratory,
			SupportingColumns:  []string{},
			RecommendedActions: []string{actionTagMetrics},
			Anomalies:          []string{},
		})
	}
	return insights
}

// contextWeight relaxes the volatility threshold when delivery or volume
// columns give pricing variance a plausible explanation.
func contextWeight(hasDelivery, hasVolume bool) float64 {
	w := 0.0
	if hasDelivery {
		w += contextWeightStep
	}
	if hasVolume {
		w += contextWeightStep
	}
	return w
}

func priceAnomalies(prices []*columnAccumulator, rows int64, hasDelivery, hasVolume bool) []string {
	var out []string
	threshold := baseVolatility - contextWeight(hasDelivery, hasVolume)
	for _, c := range prices {
		mean, okMean := c.mean()
		std, okStd := c.stdDev()
		if okMean && okStd {
			if std > 0 && mean != 0 && math.Abs(std/mean) > threshold {
				against := "peer listings"
				switch {
				case hasDelivery:
					against = "delivery windows"
				case hasVolume:
					against = "volume tiers"
				}
				out = append(out, fmt.Sprintf(
					"%s shows volatile pricing against %s; normalise your units or provide context notes.",
					c.name, against))
			}
			if c.min != nil && c.max != nil && std > 0 {
				if math.Abs(*c.min-mean)/std > outlierZScore {
					out = append(out, fmt.Sprintf(
						"Minimum %s value (%s) is an outlier versus benchmark contracts.", c.name, formatFixed2(*c.min)))
				}
				if math.Abs(*c.max-mean)/std > outlierZScore {
					out = append(out, fmt.Sprintf(
						"Maximum %s value (%s) is an outlier versus benchmark contracts.", c.name, formatFixed2(*c.max)))
				}
			}
		}
		if rows > 0 && float64(c.numericCount) < float64(rows)*minCoverage {
			missing := (1 - float64(c.numericCount)/float64(rows)) * 100
			out = append(out, fmt.Sprintf(
				"%s is missing in %s%% of rows; fill pricing gaps before activating valuation bots.",
				c.name, formatPercent(missing)))
		}
	}
	return dedupe(out)
}
