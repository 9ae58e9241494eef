package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/samplescope-cli/internal/analysis"
)

const listingCSV = "product,price,shipping_days\nA,100,2\nB,150,3\nC,125,4\n"

// isolate points HOME at a temp dir so no user config leaks into the run.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg = nil
	cfgFile = ""
	t.Cleanup(func() { cfg = nil })
	return home
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Reset sticky flags that may persist Changed state across invocations
	resetFlags(analyzeCmd.Flags().Lookup("format"), analyzeCmd.Flags().Lookup("output"))
	resetFlags(analyzeBatchCmd.Flags().Lookup("format"), analyzeBatchCmd.Flags().Lookup("out-dir"), analyzeBatchCmd.Flags().Lookup("quiet"))
	anaFormat, anaOutputPath = "", ""
	abFormat, abOutDir, abQuiet = "", "", false

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(flags ...*pflag.Flag) {
	for _, fl := range flags {
		if fl == nil {
			continue
		}
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
}

func writeSample(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestCLI_AnalyzeJSONToStdout(t *testing.T) {
	home := isolate(t)
	in := writeSample(t, home, "listing.csv", listingCSV)

	out, err := runCmd(t, "analyze", in, "--format", "json")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var rep analysis.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, out)
	}
	if rep.FileName != "listing.csv" || rep.Format != "csv" || rep.RowCount != 3 {
		t.Fatalf("unexpected report header: %+v", rep)
	}
	if len(rep.FairValueBands) != 1 || rep.FairValueBands[0].Column != "price" {
		t.Fatalf("expected a single price band, got %+v", rep.FairValueBands)
	}
}

func TestCLI_AnalyzeMarkdownDefault(t *testing.T) {
	home := isolate(t)
	in := writeSample(t, home, "listing.csv", listingCSV)

	out, err := runCmd(t, "analyze", in)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	for _, want := range []string{"[DATASET SUMMARY]", "File: listing.csv", "[FAIR VALUE BANDS]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("markdown output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_AnalyzeWritesOutputByExtension(t *testing.T) {
	home := isolate(t)
	in := writeSample(t, home, "listing.csv", listingCSV)

	jsonOut := filepath.Join(home, "reports", "listing.json")
	out, err := runCmd(t, "analyze", in, "-o", jsonOut)
	if err != nil {
		t.Fatalf("analyze -o json: %v", err)
	}
	if !strings.Contains(out, "Wrote json report") {
		t.Fatalf("expected confirmation, got %q", out)
	}
	b, err := os.ReadFile(jsonOut)
	if err != nil {
		t.Fatalf("read json report: %v", err)
	}
	if !json.Valid(b) {
		t.Fatalf("json report is not valid JSON")
	}

	xlsxOut := filepath.Join(home, "reports", "listing.xlsx")
	if _, err := runCmd(t, "analyze", in, "-o", xlsxOut); err != nil {
		t.Fatalf("analyze -o xlsx: %v", err)
	}
	f, err := excelize.OpenFile(xlsxOut)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	if idx, _ := f.GetSheetIndex("Columns"); idx < 0 {
		t.Fatalf("workbook missing Columns sheet: %v", f.GetSheetList())
	}
}

func TestCLI_AnalyzeXLSXNeedsOutput(t *testing.T) {
	home := isolate(t)
	in := writeSample(t, home, "listing.csv", listingCSV)

	if _, err := runCmd(t, "analyze", in, "--format", "xlsx"); err == nil || !strings.Contains(err.Error(), "requires --output") {
		t.Fatalf("expected xlsx without --output to fail, got %v", err)
	}
}

func TestCLI_AnalyzeMissingFile(t *testing.T) {
	home := isolate(t)
	if _, err := runCmd(t, "analyze", filepath.Join(home, "nope.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestCLI_AnalyzeEmptyFileGivesEmptyReport(t *testing.T) {
	home := isolate(t)
	in := writeSample(t, home, "blank.json", "")

	out, err := runCmd(t, "analyze", in, "--format", "json")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var rep analysis.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.RowCount != 0 || len(rep.Columns) != 0 || len(rep.QualityAlerts) != 1 {
		t.Fatalf("expected canonical empty report, got %+v", rep)
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolate(t)

	if _, err := runCmd(t, "config", "set", "output_format", "yaml"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".samplescope", "config.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	out, err := runCmd(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "output_format: yaml") {
		t.Fatalf("show did not reflect saved value:\n%s", out)
	}
	if _, err := runCmd(t, "config", "set", "output_format", "pdf"); err == nil {
		t.Fatalf("expected invalid format to be rejected")
	}
}

func TestIsDropFile(t *testing.T) {
	cases := map[string]bool{
		"sample.csv":         true,
		"SAMPLE.JSON":        true,
		"export.tsv":         false,
		"notes.txt":          true,
		"sample.report.json": false,
		".hidden.csv":        false,
		"book.xlsx":          false,
		"README":             false,
	}
	for name, want := range cases {
		if got := isDropFile(name); got != want {
			t.Errorf("isDropFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestProcessDropWritesReport(t *testing.T) {
	home := isolate(t)
	in := writeSample(t, home, "drop.csv", listingCSV)

	out, err := processDrop(in, "", "yaml")
	if err != nil {
		t.Fatalf("processDrop: %v", err)
	}
	if out != filepath.Join(home, "drop.report.yaml") {
		t.Fatalf("unexpected report path %s", out)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(b), "fileName: drop.csv") {
		t.Fatalf("yaml report missing file name:\n%s", b)
	}

	outDir := filepath.Join(home, "out")
	out, err = processDrop(in, outDir, "markdown")
	if err != nil {
		t.Fatalf("processDrop out-dir: %v", err)
	}
	if out != filepath.Join(outDir, "drop.report.md") {
		t.Fatalf("unexpected report path %s", out)
	}
}
