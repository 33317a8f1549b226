package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/criteria/internal/criteria"
)

// LoadSchemas loads a schema registry from a file or directory.
//
// A directory is loaded as one CUE package (all .cue files unify). A file is
// decoded by extension: .cue, .yaml/.yml or .json.
func LoadSchemas(path string) (*criteria.Registry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("schema path: %w", err)
	}
	if info.IsDir() {
		return loadSchemaDir(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCUE:
		v := cuecontext.New().CompileBytes(data, cue.Filename(path))
		return CompileSchemas(v)
	case FormatYAML:
		reg, err := ParseSchemasYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return reg, nil
	default:
		return parseSchemasJSON(path, data)
	}
}

func parseSchemasJSON(path string, data []byte) (*criteria.Registry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var file struct {
		Schemas []criteria.Schema `json:"schemas"`
	}
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(file.Schemas) == 0 {
		return nil, &CompileError{Field: "schemas", Message: "no schemas declared in " + path}
	}
	return criteria.NewRegistry(file.Schemas...)
}

func loadSchemaDir(dir string) (*criteria.Registry, error) {
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(cueFiles) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileSchemas(value)
}

// FindCUEFiles returns the .cue files directly inside dir.
func FindCUEFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, err
	}
	return matches, nil
}
