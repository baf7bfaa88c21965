package base

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidFormat returns true if format can be passed to Output.
func ValidFormat(format string) bool {
	return format == FormatJSON || format == FormatYAML
}

// Output writes v to the UI in the given format. YAML is produced from the
// JSON encoding so both formats carry the same field names.
func (c *Command) Output(format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding output: %w", err)
	}

	switch format {
	case FormatJSON:
		c.UI.Output(string(data))
	case FormatYAML:
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("error encoding output: %w", err)
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return fmt.Errorf("error encoding output: %w", err)
		}
		c.UI.Output(string(out))
	default:
		return fmt.Errorf("unsupported output format: %q", format)
	}
	return nil
}
