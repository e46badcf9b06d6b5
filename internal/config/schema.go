package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of the config file.
func Schema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.FieldNameTag = "yaml"
	schema := r.Reflect(&Config{})
	schema.ID = "https://github.com/mj1618/droidtile/config.schema.json"
	schema.Title = "droidtile configuration"
	schema.Description = "Tiling layouts and reconciliation settings for droidtile"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}
