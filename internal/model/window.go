package model

import "image"

// AppIdentity identifies an application. Package is the unique key.
type AppIdentity struct {
	Package string      `yaml:"package"         json:"package"`
	Label   string      `yaml:"label,omitempty" json:"label,omitempty"`
	Icon    image.Image `yaml:"-"               json:"-"`
}

// DisplayName returns the label when set, otherwise the package name.
func (a AppIdentity) DisplayName() string {
	if a.Label != "" {
		return a.Label
	}
	return a.Package
}

// Window represents an observed application window.
type Window struct {
	Package            string `yaml:"package"                       json:"package"`
	Title              string `yaml:"title,omitempty"               json:"title,omitempty"`
	ID                 int    `yaml:"id"                            json:"id"`
	DisplayID          int    `yaml:"display"                       json:"display"`
	Bounds             Rect   `yaml:"bounds"                        json:"bounds"`
	NeedsRepositioning bool   `yaml:"needs_repositioning,omitempty" json:"needs_repositioning,omitempty"`
}

// Packages returns the package names of windows in order.
func Packages(windows []Window) []string {
	out := make([]string, 0, len(windows))
	for _, w := range windows {
		out = append(out, w.Package)
	}
	return out
}
