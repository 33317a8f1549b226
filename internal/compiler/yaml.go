package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/criteria/internal/criteria"
)

// schemaFile is the YAML layout of a schema file.
type schemaFile struct {
	Schemas []criteria.Schema `yaml:"schemas"`
}

// ParseSchemasYAML decodes a YAML schema file and registers its schemas.
// Unknown keys are rejected.
//
//	schemas:
//	  - name: users
//	    identifier: uuid
//	    fields: [uuid, name]
func ParseSchemasYAML(data []byte) (*criteria.Registry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file schemaFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &CompileError{Field: "schemas", Message: "no schemas declared"}
		}
		return nil, &CompileError{Field: "yaml", Message: err.Error()}
	}
	if len(file.Schemas) == 0 {
		return nil, &CompileError{Field: "schemas", Message: "no schemas declared"}
	}

	return criteria.NewRegistry(file.Schemas...)
}

// yamlToJSONCompatible converts values produced by yaml.v3 into the shapes
// encoding/json accepts: map keys become strings and timestamps become
// {"$time": ...} envelopes.
func yamlToJSONCompatible(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			conv, err := yamlToJSONCompatible(elem)
			if err != nil {
				return nil, err
			}
			out[k] = conv
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("yaml: non-string key %v", k)
			}
			conv, err := yamlToJSONCompatible(elem)
			if err != nil {
				return nil, err
			}
			out[key] = conv
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			conv, err := yamlToJSONCompatible(elem)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	default:
		return timeEnvelope(val), nil
	}
}
