// Package format renders API responses for the terminal. The row model
// is deliberately loose: responses are decoded JSON (maps, slices,
// scalars) and every renderer has to cope with whatever shape the
// backend produced.
package format

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is an output format selected by the --format flag.
type Format string

const (
	JSON  Format = "json"
	Table Format = "table"
	YAML  Format = "yaml"
	CSV   Format = "csv"
	Tree  Format = "tree"
)

// All lists the accepted --format values for help text.
func All() []string {
	return []string{string(JSON), string(Table), string(CSV), string(YAML), string(Tree)}
}

// Parse validates a --format flag value.
func Parse(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case JSON:
		return JSON, nil
	case Table:
		return Table, nil
	case YAML:
		return YAML, nil
	case CSV:
		return CSV, nil
	case Tree:
		return Tree, nil
	}
	return "", fmt.Errorf("unknown output format %q (expected one of %s)", s, strings.Join(All(), ", "))
}

// Render formats data in the requested format.
func Render(data any, f Format) (string, error) {
	return RenderTitled(data, f, "Data")
}

// RenderTitled is Render with a custom root label for the tree format.
func RenderTitled(data any, f Format, title string) (string, error) {
	switch f {
	case Table:
		return renderTable(data), nil
	case YAML:
		return renderYAML(data)
	case CSV:
		return renderCSV(data)
	case Tree:
		return renderTree(data, title), nil
	default:
		return renderJSON(data)
	}
}

func renderJSON(data any) (string, error) {
	if data == nil {
		return "null", nil
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func renderYAML(data any) (string, error) {
	out, err := yaml.Marshal(data)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}
