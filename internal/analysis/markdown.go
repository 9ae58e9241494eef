package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

const maxCellWidth = 80

// Markdown renders the report as bracketed plain-text sections with a
// sample-row table.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.FileName != "" {
		fmt.Fprintf(&b, "File: %s (%s, %s)\n", r.FileName, strings.ToUpper(r.Format), humanize.IBytes(uint64(max(r.FileSize, 0))))
	}
	fmt.Fprintf(&b, "Rows: %s\n", humanize.Comma(r.RowCount))
	fmt.Fprintf(&b, "Columns: %d\n", r.ColumnCount)
	if r.Summary != "" {
		b.WriteString(r.Summary)
		b.WriteString("\n")
	}

	if len(r.Columns) > 0 {
		b.WriteString("\n[SCHEMA]\n")
		for _, c := range r.Columns {
			fmt.Fprintf(&b, "- %s: %s (populated %d, empty %d, fill %.1f%%, distinct %d)",
				safeName(c.Name), c.InferredType, c.PopulatedCount, c.EmptyCount, c.FillRate*100, c.DistinctCount)
			if c.NumericMin != nil && c.NumericMax != nil && c.NumericAverage != nil {
				fmt.Fprintf(&b, "; min %.4g, max %.4g, mean %.4g", *c.NumericMin, *c.NumericMax, *c.NumericAverage)
			}
			if c.ExampleValue != "" {
				fmt.Fprintf(&b, "; e.g. %s", safeVal(truncate(c.ExampleValue)))
			}
			b.WriteString("\n")
		}
	}

	writeList(&b, "QUALITY ALERTS", r.QualityAlerts)
	writeList(&b, "CONTRACT RECOMMENDATIONS", r.ContractRecommendations)

	if len(r.BenchmarkInsights) > 0 {
		b.WriteString("\n[BENCHMARK INSIGHTS]\n")
		for _, in := range r.BenchmarkInsights {
			fmt.Fprintf(&b, "- %s: %s\n", in.Cluster, in.Description)
			if len(in.SupportingColumns) > 0 {
				fmt.Fprintf(&b, "  columns: %s\n", strings.Join(in.SupportingColumns, ", "))
			}
			for _, a := range in.RecommendedActions {
				fmt.Fprintf(&b, "  • %s\n", a)
			}
			for _, a := range in.Anomalies {
				fmt.Fprintf(&b, "  ! %s\n", a)
			}
		}
	}

	if len(r.FairValueBands) > 0 {
		b.WriteString("\n[FAIR VALUE BANDS]\n")
		for _, fv := range r.FairValueBands {
			if fv.LowEstimate == nil || fv.MidEstimate == nil || fv.HighEstimate == nil {
				fmt.Fprintf(&b, "- %s: n/a\n", fv.Column)
			} else {
				fmt.Fprintf(&b, "- %s: %.2f / %.2f / %.2f (low / mid / high)\n",
					fv.Column, *fv.LowEstimate, *fv.MidEstimate, *fv.HighEstimate)
			}
			if fv.Guidance != "" {
				fmt.Fprintf(&b, "  %s\n", fv.Guidance)
			}
		}
	}

	if len(r.SampleRows) > 0 && len(r.Columns) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeVal(safeName(c.Name)))
		}
		b.WriteString(" |\n| ")
		for i := range r.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.SampleRows {
			b.WriteString("| ")
			for i, c := range r.Columns {
				if i > 0 {
					b.WriteString(" | ")
				}
				v, _ := row.Get(c.Name)
				b.WriteString(safeVal(truncate(v)))
			}
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n[%s]\n", title)
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteString("\n")
	}
}

// truncate shortens s to maxCellWidth runes.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxCellWidth {
		return s
	}
	r := []rune(s)
	return string(r[:maxCellWidth-3]) + "..."
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
