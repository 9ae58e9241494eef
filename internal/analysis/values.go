package analysis

import (
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

var booleanTokens = map[string]struct{}{
	"true": {}, "false": {}, "yes": {}, "no": {}, "y": {}, "n": {}, "0": {}, "1": {},
}

func looksBoolean(v string) bool {
	_, ok := booleanTokens[strings.ToLower(v)]
	return ok
}

// parseNumeric rejects zero-padded identifiers such as "007", strips
// thousands separators and parses the rest as a finite float.
func parseNumeric(v string) (float64, bool) {
	if len(v) > 1 && v[0] == '0' && !strings.Contains(v, ".") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ISO layouts are strict: the calendar date must exist.
var isoLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
}

// offsetLayouts are the date-time forms a zone region suffix may follow.
var offsetLayouts = isoLayouts[1:]

func looksLikeDate(v string) bool {
	for _, l := range isoLayouts {
		if _, err := time.Parse(l, v); err == nil {
			return true
		}
	}
	return looksZoned(v) || looksNumericDate(v, '/') || looksNumericDate(v, '-')
}

// looksZoned accepts an offset date-time followed by a known region id, e.g.
// "2024-09-01T10:00:00+02:00[Europe/Paris]".
func looksZoned(v string) bool {
	i := strings.IndexByte(v, '[')
	if i <= 0 || !strings.HasSuffix(v, "]") || !strings.Contains(v[:i], "T") {
		return false
	}
	zone := v[i+1 : len(v)-1]
	if zone == "" || zone == "Local" {
		return false
	}
	if _, err := time.LoadLocation(zone); err != nil {
		return false
	}
	for _, l := range offsetLayouts {
		if _, err := time.Parse(l, v[:i]); err == nil {
			return true
		}
	}
	return false
}

// looksNumericDate matches month-first or day-first dates such as 9/30/2024
// or 30-9-2024. Resolution is lenient: any day from 1 to 31 is accepted for
// any month and clamped to the month's length, so 2/30/2024 counts.
func looksNumericDate(v string, sep byte) bool {
	parts := strings.Split(v, string(sep))
	if len(parts) != 3 || len(parts[2]) != 4 {
		return false
	}
	a, okA := dateField(parts[0], 2)
	b, okB := dateField(parts[1], 2)
	_, okY := dateField(parts[2], 4)
	if !okA || !okB || !okY {
		return false
	}
	monthFirst := a >= 1 && a <= 12 && b >= 1 && b <= 31
	dayFirst := a >= 1 && a <= 31 && b >= 1 && b <= 12
	return monthFirst || dayFirst
}

func dateField(s string, maxDigits int) (int, bool) {
	if s == "" || len(s) > maxDigits {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}
