package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/KaramelBytes/samplescope-cli/internal/parser"
)

const contractCSV = "price,delivery_date,buyer\n100,2024-09-01,Acme\n150,2024-10-15,Globex"

func TestAnalyzeContractSample(t *testing.T) {
	rep, err := Analyze([]byte(contractCSV), "listing.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rep.RowCount != 2 || rep.ColumnCount != 3 || rep.Format != "csv" {
		t.Fatalf("counts: rows=%d cols=%d format=%s", rep.RowCount, rep.ColumnCount, rep.Format)
	}
	if rep.FileName != "listing.csv" || rep.FileSize != int64(len(contractCSV)) {
		t.Fatalf("file: %s %d", rep.FileName, rep.FileSize)
	}
	found := false
	for _, r := range rep.ContractRecommendations {
		if strings.Contains(r, "pricing or valuation") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no pricing recommendation: %v", rep.ContractRecommendations)
	}
	want := []string{recPricing, recTimeline, recBuyers}
	if strings.Join(rep.ContractRecommendations, "|") != strings.Join(want, "|") {
		t.Fatalf("recommendations=%v", rep.ContractRecommendations)
	}
	if len(rep.BenchmarkInsights) == 0 {
		t.Fatalf("expected benchmark insights")
	}
	if len(rep.FairValueBands) != 1 || rep.FairValueBands[0].Column != "price" || rep.FairValueBands[0].MidEstimate == nil {
		t.Fatalf("bands=%+v", rep.FairValueBands)
	}
	types := []string{TypeNumeric, TypeDate, TypeText}
	for i, c := range rep.Columns {
		if c.InferredType != types[i] {
			t.Errorf("%s inferred %s, want %s", c.Name, c.InferredType, types[i])
		}
	}
	if rep.Summary != "Detected 3 columns and 2 rows from the CSV sample." {
		t.Fatalf("summary=%q", rep.Summary)
	}
	if len(rep.QualityAlerts) != 1 || rep.QualityAlerts[0] != alertSmallSample {
		t.Fatalf("alerts=%v", rep.QualityAlerts)
	}
	if v, ok := rep.SampleRows[1].Get("buyer"); !ok || v != "Globex" {
		t.Fatalf("sample row=%v", rep.SampleRows[1])
	}
}

func TestAnalyzeNestedJSON(t *testing.T) {
	rep, err := Analyze([]byte(`[{"price":200,"metadata":{"effective_date":"2024-08-01"}}]`), "feed.JSON")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rep.Format != "json" {
		t.Fatalf("format=%s", rep.Format)
	}
	names := map[string]bool{}
	for _, c := range rep.Columns {
		names[c.Name] = true
	}
	if !names["price"] || !names["metadata.effective_date"] {
		t.Fatalf("columns=%+v", rep.Columns)
	}
	if rep.Summary != "Detected 2 columns and 1 row from the JSON sample." {
		t.Fatalf("summary=%q", rep.Summary)
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	if _, err := Analyze(nil, "x.csv"); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err=%v, want ErrEmptyInput", err)
	}
	if _, err := AnalyzeReader(nil, "x.csv", 0); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err=%v, want ErrEmptyInput", err)
	}

	for _, name := range []string{"empty.csv", "empty.json"} {
		rep, err := AnalyzeReader(strings.NewReader(""), name, 0)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		assertEmptyReport(t, rep)
	}
}

func TestAnalyzeUnsupportedJSONRoot(t *testing.T) {
	for _, doc := range []string{`42`, `null`, `[]`, `[1,2,3]`, `{}`} {
		rep, err := Analyze([]byte(doc), "x.json")
		if err != nil {
			t.Fatalf("%s: %v", doc, err)
		}
		assertEmptyReport(t, rep)
	}
}

func assertEmptyReport(t *testing.T, rep *Report) {
	t.Helper()
	if rep.RowCount != 0 || rep.ColumnCount != 0 || len(rep.Columns) != 0 {
		t.Fatalf("empty report has counts: %+v", rep)
	}
	if len(rep.QualityAlerts) != 1 || rep.QualityAlerts[0] != "No records were detected in the uploaded sample." {
		t.Fatalf("alerts=%v", rep.QualityAlerts)
	}
	if len(rep.ContractRecommendations) != 1 {
		t.Fatalf("recommendations=%v", rep.ContractRecommendations)
	}
	if rep.Summary != "No structured data detected in the provided sample." {
		t.Fatalf("summary=%q", rep.Summary)
	}
	out, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"columns":[]`, `"sampleRows":[]`, `"benchmarkInsights":[]`, `"fairValueBands":[]`} {
		if !bytes.Contains(out, []byte(key)) {
			t.Fatalf("missing %s in %s", key, out)
		}
	}
}

func TestAnalyzeHeaderOnlyCSV(t *testing.T) {
	rep, err := Analyze([]byte("price,qty\n"), "h.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rep.RowCount != 0 || rep.ColumnCount != 2 {
		t.Fatalf("rows=%d cols=%d", rep.RowCount, rep.ColumnCount)
	}
	if len(rep.QualityAlerts) != 2 || rep.QualityAlerts[1] != alertNoRows {
		t.Fatalf("alerts=%v", rep.QualityAlerts)
	}
	for _, c := range rep.Columns {
		if c.FillRate != 0 || c.InferredType != TypeEmpty {
			t.Fatalf("column=%+v", c)
		}
	}
	if len(rep.BenchmarkInsights) != 0 || len(rep.FairValueBands) != 0 {
		t.Fatalf("unexpected insights or bands")
	}
}

func TestAnalyzeStripsThousandsSeparator(t *testing.T) {
	rep, err := Analyze([]byte("price\n\"1,234.50\"\n"), "p.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	c := rep.Columns[0]
	if c.InferredType != TypeNumeric || c.NumericMin == nil || *c.NumericMin != 1234.50 {
		t.Fatalf("column=%+v", c)
	}
	if v, _ := rep.SampleRows[0].Get("price"); v != "1,234.50" {
		t.Fatalf("sample value=%q", v)
	}
}

func TestAnalyzeMissingRatioAlert(t *testing.T) {
	data := "id,region\n1,north\n2,\n3,\n4,south\n5,east\n6,west\n7,\n8,north\n9,south\n10,east\n"
	rep, err := Analyze([]byte(data), "m.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// region misses 3/10, which is not above the threshold
	for _, a := range rep.QualityAlerts {
		if strings.Contains(a, "missing values") {
			t.Fatalf("unexpected alert %q", a)
		}
	}

	data = "id,region\n1,north\n2,\n3,\n4,\n5,east\n6,west\n7,\n8,north\n9,south\n10,east\n"
	rep, err = Analyze([]byte(data), "m.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	want := "region has 40% missing values. Consider cleaning or annotating these gaps in the contract."
	if len(rep.QualityAlerts) != 1 || rep.QualityAlerts[0] != want {
		t.Fatalf("alerts=%v", rep.QualityAlerts)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	data := []byte(contractCSV + "\n175,2024-11-30,Initech\n,2025-01-02,\n")
	a, err := Analyze(data, "d.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	b, err := Analyze(data, "d.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if !bytes.Equal(ja, jb) {
		t.Fatalf("reports differ:\n%s\n%s", ja, jb)
	}
}

func TestAnalyzeInvariants(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("sku,amount,flag\n")
	for i := 0; i < 300; i++ {
		amount := fmt.Sprintf("%d.5", i%40)
		if i%7 == 0 {
			amount = ""
		}
		fmt.Fprintf(&sb, "SKU-%d,%s,%v\n", i, amount, i%2 == 0)
	}
	rep, err := Analyze([]byte(sb.String()), "inv.csv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for _, c := range rep.Columns {
		if c.FillRate < 0 || c.FillRate > 1 {
			t.Errorf("%s fillRate=%v", c.Name, c.FillRate)
		}
		if c.DistinctCount > min(c.PopulatedCount, MaxDistinctTracked) {
			t.Errorf("%s distinct=%d populated=%d", c.Name, c.DistinctCount, c.PopulatedCount)
		}
	}
	if rep.Columns[0].DistinctCount != MaxDistinctTracked {
		t.Fatalf("sku distinct=%d", rep.Columns[0].DistinctCount)
	}
	if rep.Columns[2].InferredType != TypeBoolean {
		t.Fatalf("flag inferred %s", rep.Columns[2].InferredType)
	}
	if len(rep.SampleRows) != MaxSampleRows {
		t.Fatalf("sample rows=%d", len(rep.SampleRows))
	}
	for _, b := range rep.FairValueBands {
		low, mid, high := bandValues(t, b)
		if !(low <= mid && mid <= high) {
			t.Fatalf("band out of order: %+v", b)
		}
	}
}

func TestAnalyzeSampleRowsKeepColumnOrder(t *testing.T) {
	rep, err := Analyze([]byte("zeta,alpha,mid\n1,2,3\n"), "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rep.FileName != DefaultFileName || rep.Format != "csv" {
		t.Fatalf("file=%s format=%s", rep.FileName, rep.Format)
	}
	out, err := json.Marshal(rep.SampleRows)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `[{"zeta":"1","alpha":"2","mid":"3"}]` {
		t.Fatalf("sample rows=%s", out)
	}
	var back []Row
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back) != 1 || back[0][0].Name != "zeta" || back[0][2].Value != "3" {
		t.Fatalf("round trip=%v", back)
	}
}

func TestAnalyzeMalformedJSON(t *testing.T) {
	_, err := Analyze([]byte(`[{"price": 1,`), "bad.json")
	if !errors.Is(err, parser.ErrMalformed) {
		t.Fatalf("err=%v, want ErrMalformed", err)
	}
}
