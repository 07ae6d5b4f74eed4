// Package schema reads declarative model definitions and compiles them into
// model factories registered on a model.Registry.
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelDef declares one model
type ModelDef struct {
	Name       string         `yaml:"name"`
	Table      string         `yaml:"table"`
	IDField    string         `yaml:"id_field"`
	Caption    string         `yaml:"caption"`
	ReadOnly   bool           `yaml:"read_only"`
	Fields     FieldDefs      `yaml:"fields"`
	References []ReferenceDef `yaml:"references"`
}

// FieldDef is one named field option bag
type FieldDef struct {
	Name    string
	Options map[string]any
}

// FieldDefs keeps fields in the order they were declared
type FieldDefs []FieldDef

// UnmarshalYAML decodes a mapping of field name to option bag, preserving order
func (f *FieldDefs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: fields must be a mapping", node.Line)
	}
	defs := make(FieldDefs, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var opts map[string]any
		if err := node.Content[i+1].Decode(&opts); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		defs = append(defs, FieldDef{Name: name, Options: opts})
	}
	*f = defs
	return nil
}

// ReferenceDef declares a to-one link to another model
type ReferenceDef struct {
	Name       string         `yaml:"name"`
	Model      string         `yaml:"model"`
	OurField   string         `yaml:"our_field"`
	TheirField string         `yaml:"their_field"`
	Field      map[string]any `yaml:"field"`
}

// Parse reads the models list from a YAML document. Other top-level keys are
// ignored so that the models can share a file with other settings; unknown
// keys inside a model or reference are rejected.
func Parse(data []byte) ([]ModelDef, error) {
	var top map[string]yaml.Node
	if err := yaml.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("failed to parse models: %w", err)
	}
	node, ok := top["models"]
	if !ok {
		return nil, nil
	}

	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(out))
	dec.KnownFields(true)

	var defs []ModelDef
	if err := dec.Decode(&defs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse models: %w", err)
	}
	return defs, nil
}

// ParseFile reads model definitions from a YAML file
func ParseFile(path string) ([]ModelDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data)
}
