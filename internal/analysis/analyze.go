package analysis

import (
	"bytes"
	"errors"
	"io"

	"github.com/KaramelBytes/samplescope-cli/internal/parser"
)

// ErrEmptyInput is returned when no sample bytes were supplied.
var ErrEmptyInput = errors.New("An uploaded data sample is required.")

// DefaultFileName names samples uploaded without a filename.
const DefaultFileName = "sample"

// Analyze profiles an in-memory sample. The format is chosen from the
// filename: a .json suffix selects JSON, anything else is read as CSV.
func Analyze(data []byte, filename string) (*Report, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	return AnalyzeReader(bytes.NewReader(data), filename, int64(len(data)))
}

// AnalyzeReader profiles a sample stream in a single pass. size is reported
// back as the report's file size. A stream without any records yields the
// empty report rather than an error.
func AnalyzeReader(r io.Reader, filename string, size int64) (*Report, error) {
	if r == nil {
		return nil, ErrEmptyInput
	}
	if filename == "" {
		filename = DefaultFileName
	}
	reader := parser.ForFile(filename)
	format := reader.Format()

	table, err := reader.Open(r)
	if err != nil {
		if errors.Is(err, parser.ErrNoRecords) {
			return EmptyReport(filename, size, format), nil
		}
		return nil, err
	}

	headers := table.Headers()
	if len(headers) == 0 {
		return EmptyReport(filename, size, format), nil
	}
	accs := newAccumulators(headers)
	samples := []Row{}
	var rows int64
	for {
		values, err := table.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows++
		var sample Row
		if rows <= MaxSampleRows {
			sample = make(Row, 0, len(headers))
		}
		for i, h := range headers {
			accs[i].accept(values[i])
			if sample != nil {
				sample = append(sample, Field{Name: h, Value: values[i]})
			}
		}
		if sample != nil {
			samples = append(samples, sample)
		}
	}

	profiles, alerts, recs := classify(accs, rows)
	return &Report{
		FileName:                filename,
		FileSize:                size,
		Format:                  format,
		RowCount:                rows,
		ColumnCount:             len(headers),
		Columns:                 profiles,
		QualityAlerts:           alerts,
		ContractRecommendations: recs,
		SampleRows:              samples,
		BenchmarkInsights:       benchmarkInsights(accs, rows),
		FairValueBands:          fairValueBands(accs, rows),
		Summary:                 summarize(len(headers), rows, format),
	}, nil
}
