package cmdutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"nathanbeddoewebdev/dockctl/internal/config"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by -o.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// AddOutputFlag registers -o/--output on a list command.
func AddOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Output format: table, json or yaml (default from config, else table)")
}

// OutputFormat returns the -o value, falling back to the configured default
// and then to table.
func OutputFormat(cmd *cobra.Command, cfg *config.Config) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	if format == "" && cfg != nil {
		format = cfg.Output
	}
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (expected table, json or yaml)", format)
	}
}

// Print writes v as JSON or YAML, or calls table with a tabwriter for the
// table format.
func Print(cmd *cobra.Command, format string, v any, table func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		table(w)
		return w.Flush()
	}
}

// Dash returns "-" for empty cells.
func Dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

// Ago renders a backend timestamp relative to now ("3 hours ago"). Values
// that do not parse are returned as-is.
func Ago(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return humanize.Time(t)
		}
	}
	return Dash(s)
}

// ShortID truncates a container or image ID for table output.
func ShortID(id string) string {
	id = strings.TrimPrefix(id, "sha256:")
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
