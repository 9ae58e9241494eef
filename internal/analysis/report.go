package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	emptyAlert   = "No records were detected in the uploaded sample."
	emptyRec     = "Provide a sample that includes representative columns so the platform can recommend contract fields."
	emptySummary = "No structured data detected in the provided sample."
)

// Report is the profiling result for one uploaded sample. Slices are never
// nil so they serialize as empty lists.
type Report struct {
	FileName                string             `json:"fileName" yaml:"fileName"`
	FileSize                int64              `json:"fileSize" yaml:"fileSize"`
	Format                  string             `json:"format" yaml:"format"`
	RowCount                int64              `json:"rowCount" yaml:"rowCount"`
	ColumnCount             int                `json:"columnCount" yaml:"columnCount"`
	Columns                 []ColumnProfile    `json:"columns" yaml:"columns"`
	QualityAlerts           []string           `json:"qualityAlerts" yaml:"qualityAlerts"`
	ContractRecommendations []string           `json:"contractRecommendations" yaml:"contractRecommendations"`
	SampleRows              []Row              `json:"sampleRows" yaml:"sampleRows"`
	BenchmarkInsights       []BenchmarkInsight `json:"benchmarkInsights" yaml:"benchmarkInsights"`
	FairValueBands          []FairValueBand    `json:"fairValueBands" yaml:"fairValueBands"`
	Summary                 string             `json:"summary" yaml:"summary"`
}

// ColumnProfile summarizes one column. Numeric fields are nil unless the
// column held at least one numeric value.
type ColumnProfile struct {
	Name           string   `json:"name" yaml:"name"`
	InferredType   string   `json:"inferredType" yaml:"inferredType"`
	PopulatedCount int64    `json:"populatedCount" yaml:"populatedCount"`
	EmptyCount     int64    `json:"emptyCount" yaml:"emptyCount"`
	FillRate       float64  `json:"fillRate" yaml:"fillRate"`
	NumericMin     *float64 `json:"numericMin" yaml:"numericMin"`
	NumericMax     *float64 `json:"numericMax" yaml:"numericMax"`
	NumericAverage *float64 `json:"numericAverage" yaml:"numericAverage"`
	DistinctCount  int64    `json:"distinctCount" yaml:"distinctCount"`
	ExampleValue   string   `json:"exampleValue" yaml:"exampleValue"`
}

// BenchmarkInsight maps the sample onto a known marketplace cluster.
type BenchmarkInsight struct {
	Cluster            string   `json:"cluster" yaml:"cluster"`
	Description        string   `json:"description" yaml:"description"`
	SupportingColumns  []string `json:"supportingColumns" yaml:"supportingColumns"`
	RecommendedActions []string `json:"recommendedActions" yaml:"recommendedActions"`
	Anomalies          []string `json:"anomalies" yaml:"anomalies"`
}

// FairValueBand is a suggested price range. The estimates are either all
// set, with Low <= Mid <= High, or all nil.
type FairValueBand struct {
	Column       string   `json:"column" yaml:"column"`
	LowEstimate  *float64 `json:"lowEstimate" yaml:"lowEstimate"`
	MidEstimate  *float64 `json:"midEstimate" yaml:"midEstimate"`
	HighEstimate *float64 `json:"highEstimate" yaml:"highEstimate"`
	Guidance     string   `json:"guidance" yaml:"guidance"`
}

// Field is one column value of a sample row.
type Field struct {
	Name  string
	Value string
}

// Row is a sample row kept in column order.
type Row []Field

// Get returns the value stored for a column.
func (r Row) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// MarshalJSON encodes the row as an object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("sample row: expected object, got %v", tok)
	}
	out := Row{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		var v string
		if err := dec.Decode(&v); err != nil {
			return err
		}
		out = append(out, Field{Name: kt.(string), Value: v})
	}
	*r = out
	return nil
}

// MarshalYAML encodes the row as a mapping node with keys in column order.
func (r Row) MarshalYAML() (interface{}, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range r {
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Value},
		)
	}
	return n, nil
}

// EmptyReport is the canonical result for a sample with no usable records.
func EmptyReport(fileName string, size int64, format string) *Report {
	return &Report{
		FileName:                fileName,
		FileSize:                size,
		Format:                  format,
		Columns:                 []ColumnProfile{},
		QualityAlerts:           []string{emptyAlert},
		ContractRecommendations: []string{emptyRec},
		SampleRows:              []Row{},
		BenchmarkInsights:       []BenchmarkInsight{},
		FairValueBands:          []FairValueBand{},
		Summary:                 emptySummary,
	}
}

func summarize(columns int, rows int64, format string) string {
	return fmt.Sprintf("Detected %d column%s and %d row%s from the %s sample.",
		columns, plural(int64(columns)), rows, plural(rows), strings.ToUpper(format))
}

func plural(n int64) string {
	if n == 1 {
		return ""
	}
	return "s"
}
