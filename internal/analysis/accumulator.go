package analysis

import (
	"math"
	"strings"
)

const (
	// MaxDistinctTracked caps the distinct-value set kept per column.
	MaxDistinctTracked = 200
	// MaxSampleRows is the number of leading rows copied into a report.
	MaxSampleRows = 5

	maxExamples = 3
)

// Observed value categories used by the recommendation triggers.
const (
	observedNumeric = "numeric"
	observedDate    = "date"
	observedBoolean = "boolean"
	observedText    = "text"
)

// Authoring recommendations raised by column-name keywords.
const (
	recPricing    = "Use this column to set pricing or valuation terms in the contract."
	recVolume     = "This numeric column can define the volume or units covered by the contract."
	recTimeline   = "Leverage this date field to define contract delivery or effective timelines."
	recConsent    = "Clarify how consent or activation status impacts buyer obligations."
	recBuyers     = "Reference this field when describing the target buyers or segments."
	recProvenance = "Use this attribute to document data provenance within the contract."
)

// distinctSet is an insertion-ordered set that silently stops growing at its cap.
type distinctSet struct {
	limit int
	order []string
	index map[string]struct{}
}

func newDistinctSet(limit int) *distinctSet {
	return &distinctSet{limit: limit, index: make(map[string]struct{})}
}

func (s *distinctSet) add(v string) {
	if len(s.order) >= s.limit {
		return
	}
	if _, ok := s.index[v]; ok {
		return
	}
	s.index[v] = struct{}{}
	s.order = append(s.order, v)
}

func (s *distinctSet) size() int { return len(s.order) }

// columnAccumulator collects running statistics for one column. It is owned
// by a single analysis run and discarded once profiled.
type columnAccumulator struct {
	name  string
	lower string

	nonNull int64
	empty   int64

	numericCount int64
	booleanCount int64
	dateCount    int64

	sum   float64
	sumSq float64
	min   *float64
	max   *float64

	distinct        *distinctSet
	examples        []string
	recommendations []string
}

func newAccumulators(headers []string) []*columnAccumulator {
	accs := make([]*columnAccumulator, len(headers))
	for i, h := range headers {
		accs[i] = &columnAccumulator{
			name:     h,
			lower:    strings.ToLower(h),
			distinct: newDistinctSet(MaxDistinctTracked),
		}
	}
	return accs
}

// accept classifies a single raw value. Boolean tokens take priority over
// numeric parsing, which takes priority over dates; anything else is text.
func (c *columnAccumulator) accept(raw string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		c.empty++
		return
	}
	c.nonNull++
	c.distinct.add(v)
	if len(c.examples) < maxExamples {
		c.examples = append(c.examples, v)
	}

	if looksBoolean(v) {
		c.booleanCount++
		c.observe(observedBoolean)
		return
	}
	if x, ok := parseNumeric(v); ok {
		c.addNumeric(x)
		c.observe(observedNumeric)
		return
	}
	if looksLikeDate(v) {
		c.dateCount++
		c.observe(observedDate)
		return
	}
	c.observe(observedText)
}

func (c *columnAccumulator) addNumeric(x float64) {
	c.numericCount++
	c.sum += x
	c.sumSq += x * x
	if c.min == nil || x < *c.min {
		c.min = floatPtr(x)
	}
	if c.max == nil || x > *c.max {
		c.max = floatPtr(x)
	}
}

// observe fires the keyword triggers for the observed value category. The
// buyer and provenance triggers apply to every populated value.
func (c *columnAccumulator) observe(kind string) {
	switch kind {
	case observedNumeric:
		if containsAny(c.lower, "price", "value", "cost", "amount") {
			c.recommend(recPricing)
		}
		if containsAny(c.lower, "quantity", "volume", "units", "size") {
			c.recommend(recVolume)
		}
	case observedDate:
		if containsAny(c.lower, "delivery", "effective", "start", "end") {
			c.recommend(recTimeline)
		}
	case observedBoolean:
		if containsAny(c.lower, "consent", "opt", "active") {
			c.recommend(recConsent)
		}
	}
	if containsAny(c.lower, "buyer", "customer") {
		c.recommend(recBuyers)
	}
	if containsAny(c.lower, "seller", "provider", "source") {
		c.recommend(recProvenance)
	}
}

func (c *columnAccumulator) recommend(r string) {
	for _, existing := range c.recommendations {
		if existing == r {
			return
		}
	}
	c.recommendations = append(c.recommendations, r)
}

func (c *columnAccumulator) mean() (float64, bool) {
	if c.numericCount == 0 {
		return 0, false
	}
	return c.sum / float64(c.numericCount), true
}

// stdDev is the population standard deviation derived from the running sums.
// It is undefined for fewer than two numeric values.
func (c *columnAccumulator) stdDev() (float64, bool) {
	if c.numericCount <= 1 {
		return 0, false
	}
	n := float64(c.numericCount)
	m := c.sum / n
	variance := c.sumSq/n - m*m
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance), true
}

func (c *columnAccumulator) fillRate(rows int64) float64 {
	if rows == 0 {
		return 0
	}
	return float64(c.nonNull) / float64(rows)
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func floatPtr(v float64) *float64 { return &v }
