package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/ir"
)

// Format names a criteria document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatFromPath guesses a document format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("unsupported file extension %q (want .json, .yaml, .yml or .cue)", filepath.Ext(path))
	}
}

// DecodeCriteria decodes a criteria document. An empty format sniffs JSON
// (leading '{') and falls back to YAML.
func DecodeCriteria(data []byte, format Format) (criteria.Primitive, error) {
	if format == "" {
		format = FormatYAML
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
			format = FormatJSON
		}
	}

	switch format {
	case FormatJSON:
		return criteria.DecodePrimitive(data)

	case FormatYAML:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return criteria.Primitive{}, &CompileError{Field: "yaml", Message: err.Error()}
		}
		return decodeNative(raw)

	case FormatCUE:
		v := cuecontext.New().CompileBytes(data, cue.Filename("criteria.cue"))
		return CompileCriteria(v)

	default:
		return criteria.Primitive{}, fmt.Errorf("unsupported criteria format %q", format)
	}
}

// CompileCriteria reads a criteria document from CUE. When the value has a
// top-level "criteria" field that field is the document.
func CompileCriteria(v cue.Value) (criteria.Primitive, error) {
	if err := v.Err(); err != nil {
		return criteria.Primitive{}, formatCUEError(err)
	}
	if inner := v.LookupPath(cue.ParsePath("criteria")); inner.Exists() {
		v = inner
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return criteria.Primitive{}, formatCUEError(err)
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return criteria.Primitive{}, formatCUEError(err)
	}
	return criteria.DecodePrimitive(data)
}

// decodeNative routes a decoded YAML tree through JSON so the strict
// criteria decoder and the IR value codec apply.
func decodeNative(raw any) (criteria.Primitive, error) {
	if raw == nil {
		return criteria.Primitive{}, &CompileError{Field: "criteria", Message: "empty document"}
	}
	conv, err := yamlToJSONCompatible(raw)
	if err != nil {
		return criteria.Primitive{}, &CompileError{Field: "yaml", Message: err.Error()}
	}
	data, err := json.Marshal(conv)
	if err != nil {
		return criteria.Primitive{}, fmt.Errorf("encode criteria document: %w", err)
	}
	return criteria.DecodePrimitive(data)
}

func timeEnvelope(v any) any {
	if t, ok := v.(time.Time); ok {
		return map[string]any{ir.TimeKey: t.UTC().Format(time.RFC3339Nano)}
	}
	return v
}

// LoadCriteriaFile reads and decodes a criteria document, choosing the
// format from the file extension.
func LoadCriteriaFile(path string) (criteria.Primitive, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return criteria.Primitive{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return criteria.Primitive{}, fmt.Errorf("read criteria %s: %w", path, err)
	}
	if format == FormatCUE {
		v := cuecontext.New().CompileBytes(data, cue.Filename(path))
		return CompileCriteria(v)
	}
	p, err := DecodeCriteria(data, format)
	if err != nil {
		return criteria.Primitive{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
