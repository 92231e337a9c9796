package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format renders the batch result as text, json, or yaml.
func (r *Result) Format(format string) (string, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return r.formatText(), nil
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding json: %w", err)
		}
		return string(data), nil
	case "yaml":
		data, err := yaml.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("encoding yaml: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}

func (r *Result) formatText() string {
	var b strings.Builder
	for _, fr := range r.Files {
		fmt.Fprintf(&b, "=== %s ===\n", fr.Path)
		if fr.Error != "" {
			fmt.Fprintf(&b, "error: %s\n\n", fr.Error)
			continue
		}
		b.WriteString(fr.Result.Text)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "%d processed, %d failed in %s\n", r.Processed, r.Failed, r.Duration.Round(time.Millisecond))
	return b.String()
}

// Save writes the formatted result to a file, or stdout when path is empty.
func (r *Result) Save(format, path string) error {
	out, err := r.Format(format)
	if err != nil {
		return err
	}
	if path == "" {
		_, err := fmt.Print(out)
		return err
	}
	return os.WriteFile(path, []byte(out), 0o644)
}
