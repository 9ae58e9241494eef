package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/samplescope-cli/internal/export"
	"github.com/KaramelBytes/samplescope-cli/internal/watch"
)

var (
	watchOutDir string
	watchFormat string
)

var dropExtensions = map[string]struct{}{".csv": {}, ".txt": {}, ".json": {}}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Profile samples dropped into a directory",
	Long: `Watch a directory and profile every .csv, .txt or .json file created or
rewritten in it. Reports are written as <name>.report.<ext> next to the sample, or
into --out-dir (config watch_output_dir).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		outDir := watchOutDir
		if outDir == "" {
			outDir = effectiveConfig().WatchOutputDir
		}
		format := resolveFormat(cmd, watchFormat, "")
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		log := logger.Named("watch")

		m, err := watch.NewMonitor(dir, isDropFile)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("watching", zap.String("dir", dir), zap.String("format", format), zap.String("out_dir", outDir))
		return m.Watch(ctx, func(path string) {
			out, err := processDrop(path, outDir, format)
			if err != nil {
				log.Error("analysis failed", zap.String("file", path), zap.Error(err))
				return
			}
			log.Info("report written", zap.String("file", path), zap.String("report", out))
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchOutDir, "out-dir", "", "directory for reports (default: next to each sample)")
	watchCmd.Flags().StringVar(&watchFormat, "format", "", "report format: markdown|json|yaml|xlsx (default from config)")
}

// isDropFile accepts sample extensions and skips the watcher's own reports.
func isDropFile(name string) bool {
	if strings.Contains(name, ".report.") || strings.HasPrefix(name, ".") {
		return false
	}
	_, ok := dropExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// processDrop analyzes one dropped file and writes its report, returning the
// report path.
func processDrop(path, outDir, format string) (string, error) {
	rep, err := analyzeFile(path)
	if err != nil {
		return "", err
	}
	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(outDir, base+".report"+export.Extension(format))
	if err := export.Write(rep, format, out); err != nil {
		return "", err
	}
	return out, nil
}
