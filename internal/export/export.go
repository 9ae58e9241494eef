package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/samplescope-cli/internal/analysis"
)

// Supported report formats.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatXLSX     = "xlsx"
)

// Formats lists every supported format name.
var Formats = []string{FormatMarkdown, FormatJSON, FormatYAML, FormatXLSX}

// ErrBinaryFormat is returned when a binary format is rendered to memory.
var ErrBinaryFormat = eris.New("xlsx output requires a file path")

// Render serializes the report in a text format.
func Render(rep *analysis.Report, format string) ([]byte, error) {
	switch NormalizeFormat(format) {
	case FormatMarkdown:
		return []byte(rep.Markdown()), nil
	case FormatJSON:
		b, err := PrettyJSON(rep)
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case FormatYAML:
		b, err := yaml.Marshal(rep)
		if err != nil {
			return nil, eris.Wrap(err, "marshal yaml")
		}
		return b, nil
	case FormatXLSX:
		return nil, ErrBinaryFormat
	default:
		return nil, fmt.Errorf("unsupported format: %s (use %s)", format, strings.Join(Formats, ", "))
	}
}

// Write renders the report to path, picking the writer for the format.
func Write(rep *analysis.Report, format, path string) error {
	if NormalizeFormat(format) == FormatXLSX {
		return WriteXLSX(rep, path)
	}
	b, err := Render(rep, format)
	if err != nil {
		return err
	}
	return WriteFile(path, b)
}

// NormalizeFormat maps aliases such as "md" or "yml" to their canonical name.
func NormalizeFormat(format string) string {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "md", "markdown", "":
		return FormatMarkdown
	case "yml", "yaml":
		return FormatYAML
	default:
		return f
	}
}

// FormatFromPath infers a format from the file extension. Unknown
// extensions fall back to def.
func FormatFromPath(path, def string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".xlsx":
		return FormatXLSX
	case ".md", ".markdown", ".txt":
		return FormatMarkdown
	default:
		return NormalizeFormat(def)
	}
}

// Extension returns the file extension used for a format.
func Extension(format string) string {
	switch NormalizeFormat(format) {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	case FormatXLSX:
		return ".xlsx"
	default:
		return ".md"
	}
}

// WriteFile writes data to a temp file and atomically renames it into place.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "mkdir %s", dir)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrap(err, "write temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrap(err, "atomic rename")
	}
	return nil
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "marshal json")
	}
	return b, nil
}
