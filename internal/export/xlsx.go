package export

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/samplescope-cli/internal/analysis"
)

// Workbook sheet names.
const (
	SheetSummary    = "Summary"
	SheetColumns    = "Columns"
	SheetQuality    = "Quality"
	SheetBenchmarks = "Benchmarks"
	SheetFairValue  = "Fair Value"
	SheetSamples    = "Samples"
)

// WriteXLSX writes the report as a workbook with one sheet per section.
func WriteXLSX(rep *analysis.Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return eris.Wrap(err, "rename summary sheet")
	}
	for _, name := range []string{SheetColumns, SheetQuality, SheetBenchmarks, SheetFairValue, SheetSamples} {
		if _, err := f.NewSheet(name); err != nil {
			return eris.Wrapf(err, "create sheet %s", name)
		}
	}

	summary := [][]any{
		{"File", rep.FileName},
		{"Size (bytes)", rep.FileSize},
		{"Format", rep.Format},
		{"Rows", rep.RowCount},
		{"Columns", rep.ColumnCount},
		{"Summary", rep.Summary},
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return err
	}

	cols := [][]any{{"Column", "Type", "Populated", "Empty", "Fill Rate", "Min", "Max", "Average", "Distinct", "Example"}}
	for _, c := range rep.Columns {
		cols = append(cols, []any{
			c.Name, c.InferredType, c.PopulatedCount, c.EmptyCount, c.FillRate,
			num(c.NumericMin), num(c.NumericMax), num(c.NumericAverage), c.DistinctCount, c.ExampleValue,
		})
	}
	if err := writeRows(f, SheetColumns, cols); err != nil {
		return err
	}

	quality := [][]any{{"Kind", "Message"}}
	for _, a := range rep.QualityAlerts {
		quality = append(quality, []any{"alert", a})
	}
	for _, r := range rep.ContractRecommendations {
		quality = append(quality, []any{"recommendation", r})
	}
	if err := writeRows(f, SheetQuality, quality); err != nil {
		return err
	}

	bench := [][]any{{"Cluster", "Description", "Supporting Columns", "Recommended Actions", "Anomalies"}}
	for _, in := range rep.BenchmarkInsights {
		bench = append(bench, []any{
			in.Cluster, in.Description,
			strings.Join(in.SupportingColumns, ", "),
			strings.Join(in.RecommendedActions, "\n"),
			strings.Join(in.Anomalies, "\n"),
		})
	}
	if err := writeRows(f, SheetBenchmarks, bench); err != nil {
		return err
	}

	bands := [][]any{{"Column", "Low", "Mid", "High", "Guidance"}}
	for _, b := range rep.FairValueBands {
		bands = append(bands, []any{b.Column, num(b.LowEstimate), num(b.MidEstimate), num(b.HighEstimate), b.Guidance})
	}
	if err := writeRows(f, SheetFairValue, bands); err != nil {
		return err
	}

	var header []any
	for _, c := range rep.Columns {
		header = append(header, c.Name)
	}
	samples := [][]any{header}
	for _, row := range rep.SampleRows {
		vals := make([]any, len(rep.Columns))
		for i, c := range rep.Columns {
			v, _ := row.Get(c.Name)
			vals[i] = v
		}
		samples = append(samples, vals)
	}
	if err := writeRows(f, SheetSamples, samples); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "mkdir %s", dir)
		}
	}
	tmp := path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		return eris.Wrap(err, "save workbook")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrap(err, "atomic rename")
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return eris.Wrap(err, "cell name")
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return eris.Wrapf(err, "write %s row %d", sheet, i+1)
		}
	}
	return nil
}

// num leaves missing estimates as blank cells.
func num(p *float64) any {
	if p == nil {
		return ""
	}
	return *p
}
