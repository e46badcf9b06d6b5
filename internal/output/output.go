package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mj1618/droidtile/internal/layout"
	"github.com/mj1618/droidtile/internal/model"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// Stdout is where Print writes. Tests swap it.
var Stdout io.Writer = os.Stdout

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatYAML, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (expected yaml or json)", s)
	}
}

// WindowsResult is the output of `list` and the list_windows tool.
type WindowsResult struct {
	Display int            `yaml:"display"  json:"display"`
	Screen  model.Rect     `yaml:"screen"   json:"screen"`
	TS      int64          `yaml:"ts"       json:"ts"`
	Windows []model.Window `yaml:"windows"  json:"windows"`
}

// Leaf is one tile of a layout with its computed bounds.
type Leaf struct {
	Path   string     `yaml:"path"          json:"path"`
	App    string     `yaml:"app,omitempty" json:"app,omitempty"`
	Bounds model.Rect `yaml:"bounds"        json:"bounds"`
	// LTRB is the [left,top,right,bottom] form used by `am task resize`.
	LTRB string `yaml:"ltrb" json:"ltrb"`
}

// BoundsResult is the output of `layout bounds` and the layout_bounds tool.
type BoundsResult struct {
	Workspace string     `yaml:"workspace,omitempty" json:"workspace,omitempty"`
	Screen    model.Rect `yaml:"screen"              json:"screen"`
	Gap       int        `yaml:"gap"                 json:"gap"`
	Leaves    []Leaf     `yaml:"leaves"              json:"leaves"`
}

// NewBoundsResult lists every leaf of tree within screen, gap-inset the
// way the reconciler applies it.
func NewBoundsResult(name string, tree layout.Node, screen model.Rect, gap int) BoundsResult {
	res := BoundsResult{Workspace: name, Screen: screen, Gap: gap, Leaves: []Leaf{}}
	for _, lr := range layout.ComputeLeafBounds(tree, screen) {
		b := lr.Bounds
		if inset, ok := b.Inset(gap); ok {
			b = inset
		}
		leaf := Leaf{Path: lr.Path, Bounds: b, LTRB: b.String()}
		if lr.Leaf.App != nil {
			leaf.App = lr.Leaf.App.Package
		}
		res.Leaves = append(res.Leaves, leaf)
	}
	return res
}

// StatusResult is the output of the status tool and `droidtile run --once`.
type StatusResult struct {
	Backend  string           `yaml:"backend"  json:"backend"`
	Displays []model.Snapshot `yaml:"displays" json:"displays"`
}

// Print serializes v to Stdout in the current output format.
func Print(v interface{}) error {
	return Fprint(Stdout, OutputFormat, v)
}

// Fprint serializes v to w in format f.
func Fprint(w io.Writer, f Format, v interface{}) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		if PrettyOutput {
			enc.SetIndent("", "  ")
		}
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("json encode: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("yaml encode: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", f)
	}
}

// YAML renders v as a YAML document, as MCP tool results do.
func YAML(v interface{}) (string, error) {
	var buf bytes.Buffer
	if err := Fprint(&buf, FormatYAML, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
