package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"
)

//go:embed schema/config.schema.json
var embeddedSchema []byte

const embeddedSchemaURL = "https://github.com/ekisa-team/yoloexport/schema/config.schema.json"

// LoadAndValidate loads and validates the configuration.
// Fields absent from the file keep their Default values. An empty schemaPath selects
// the embedded schema.
func LoadAndValidate(path, schemaPath string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read config: %w", err)
	}

	return Parse(data, schemaPath)
}

// Parse validates and decodes raw YAML.
func Parse(data []byte, schemaPath string) (*Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: invalid YAML: %w", err)
	}

	cfg := Default()
	if raw == nil {
		return cfg, nil
	}

	schema, err := compileSchema(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("config: failed to compile schema: %w", err)
	}

	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal into Config struct: %w", err)
	}

	return cfg, nil
}

func compileSchema(schemaPath string) (*jsonschema.Schema, error) {
	if schemaPath != "" {
		return jsonschema.Compile(schemaPath)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(embeddedSchemaURL, bytes.NewReader(embeddedSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(embeddedSchemaURL)
}
