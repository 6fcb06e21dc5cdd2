package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

var outputFormats = []string{"table", "json", "yaml"}

// writeFormatted encodes v as JSON or YAML, or hands a tabwriter to table.
func writeFormatted(w io.Writer, format string, v interface{}, table func(w io.Writer)) error {
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml", "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	case "table", "text", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(outputFormats, ", "))
	}
}
