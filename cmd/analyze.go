package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/samplescope-cli/internal/analysis"
	"github.com/KaramelBytes/samplescope-cli/internal/export"
)

var (
	anaOutputPath string
	anaFormat     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Profile a CSV or JSON sample and print or write the report",
	Long: `Profile a CSV or JSON sample. Files ending in .json are read as JSON; everything
else is read as CSV. The report is printed to stdout, or written to --output in the
format given by --format or inferred from the output extension.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		format := resolveFormat(cmd, anaFormat, anaOutputPath)
		if format == export.FormatXLSX && anaOutputPath == "" {
			return fmt.Errorf("--format xlsx requires --output")
		}
		rep, err := analyzeFile(path)
		if err != nil {
			return err
		}
		if anaOutputPath == "" {
			b, err := export.Render(rep, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		}
		if err := export.Write(rep, format, anaOutputPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s report to %s\n", format, anaOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "", "report format: markdown|json|yaml|xlsx (default from config or output extension)")
}

// analyzeFile streams a sample from disk through the engine.
func analyzeFile(path string) (*analysis.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, eris.Wrapf(err, "stat %s", path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	rep, err := analysis.AnalyzeReader(f, filepath.Base(path), info.Size())
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", path, err)
	}
	return rep, nil
}

// resolveFormat picks the report format: an explicit flag wins, then the
// output extension, then the configured default.
func resolveFormat(cmd *cobra.Command, flagVal, outPath string) string {
	def := effectiveConfig().OutputFormat
	if cmd.Flags().Changed("format") && flagVal != "" {
		return export.NormalizeFormat(flagVal)
	}
	if outPath != "" {
		return export.FormatFromPath(outPath, def)
	}
	return export.NormalizeFormat(def)
}
