package layout

import (
	"fmt"
	"strings"

	"github.com/mj1618/droidtile/internal/model"
)

const defaultRatio = 0.5

// Spec is the declarative form of a layout tree as written in config files.
// A spec without Split is a leaf; App may be empty for an unassigned tile.
type Spec struct {
	Split  string   `yaml:"split,omitempty"  json:"split,omitempty"  mapstructure:"split"  jsonschema:"enum=horizontal,enum=vertical,enum=h,enum=v"`
	Ratio  *float64 `yaml:"ratio,omitempty"  json:"ratio,omitempty"  mapstructure:"ratio"  jsonschema:"exclusiveMinimum=0,exclusiveMaximum=1"`
	First  *Spec    `yaml:"first,omitempty"  json:"first,omitempty"  mapstructure:"first"`
	Second *Spec    `yaml:"second,omitempty" json:"second,omitempty" mapstructure:"second"`
	App    string   `yaml:"app,omitempty"    json:"app,omitempty"    mapstructure:"app"`
	Label  string   `yaml:"label,omitempty"  json:"label,omitempty"  mapstructure:"label"`
}

// Build converts s into a validated tree.
func (s *Spec) Build() (Node, error) {
	n, err := s.build("")
	if err != nil {
		return nil, err
	}
	if err := Validate(n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Spec) build(path string) (Node, error) {
	if s == nil {
		return Empty(), nil
	}

	switch strings.ToLower(strings.TrimSpace(s.Split)) {
	case "":
		if s.First != nil || s.Second != nil {
			return nil, fmt.Errorf("node %q: children given without split direction", displayPath(path))
		}
		if s.App == "" {
			return Empty(), nil
		}
		return NewLeaf(&model.AppIdentity{Package: s.App, Label: s.Label}), nil
	case "horizontal", "h":
		first, second, ratio, err := s.children(path)
		if err != nil {
			return nil, err
		}
		n, err := NewHSplit(first, second, ratio)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", displayPath(path), err)
		}
		return n, nil
	case "vertical", "v":
		first, second, ratio, err := s.children(path)
		if err != nil {
			return nil, err
		}
		n, err := NewVSplit(first, second, ratio)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", displayPath(path), err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("node %q: unknown split %q (expected horizontal or vertical)", displayPath(path), s.Split)
	}
}

func (s *Spec) children(path string) (Node, Node, float64, error) {
	if s.App != "" {
		return nil, nil, 0, fmt.Errorf("node %q: split nodes cannot hold an app", displayPath(path))
	}
	first, err := s.First.build(childPath(path, 0))
	if err != nil {
		return nil, nil, 0, err
	}
	second, err := s.Second.build(childPath(path, 1))
	if err != nil {
		return nil, nil, 0, err
	}
	ratio := defaultRatio
	if s.Ratio != nil {
		ratio = *s.Ratio
	}
	return first, second, ratio, nil
}

// Describe converts a tree back into its declarative form.
func Describe(n Node) *Spec {
	switch v := n.(type) {
	case *Leaf:
		if v.App == nil {
			return &Spec{}
		}
		return &Spec{App: v.App.Package, Label: v.App.Label}
	case *HSplit:
		r := v.Ratio
		return &Spec{Split: "horizontal", Ratio: &r, First: Describe(v.Left), Second: Describe(v.Right)}
	case *VSplit:
		r := v.Ratio
		return &Spec{Split: "vertical", Ratio: &r, First: Describe(v.Top), Second: Describe(v.Bottom)}
	}
	return nil
}
