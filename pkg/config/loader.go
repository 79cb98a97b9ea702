package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kaptinlin/jsonschema"
	"github.com/oarkflow/bcl"
	"github.com/oarkflow/json"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaBytes []byte

// Load reads a config file on top of Default. The decoder is chosen by
// extension: .yaml/.yml, .json (validated against schema.json) or .bcl.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("yaml %s: %w", path, err)
		}
	case ".json":
		if err := validateJSON(data); err != nil {
			return nil, fmt.Errorf("json %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("json %s: %w", path, err)
		}
	case ".bcl":
		if _, err := bcl.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("bcl %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config extension %q", ext)
	}
	return cfg, nil
}

func validateJSON(data []byte) error {
	schema, err := jsonschema.NewCompiler().Compile(schemaBytes)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	result := schema.Validate(doc)
	if !result.IsValid() {
		var msgs []string
		for field, e := range result.Errors {
			msgs = append(msgs, fmt.Sprintf("%s: %v", field, e))
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	return nil
}
