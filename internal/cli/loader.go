package cli

import (
	"fmt"
	"os"

	"github.com/roach88/criteria/internal/compiler"
	"github.com/roach88/criteria/internal/criteria"
)

// LoadError represents a failure to load a schema or criteria document.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadRegistry loads the schema registry named by the --schema flag or
// the schema config key.
func LoadRegistry(schemaPath string) (*criteria.Registry, error) {
	if schemaPath == "" {
		return nil, &LoadError{Code: ErrCodeNoSchema, Message: "no schema given (use --schema or set schema in criteria.yaml)"}
	}
	if _, err := os.Stat(schemaPath); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema path not found: %s", schemaPath)}
	}

	reg, err := compiler.LoadSchemas(schemaPath)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeCompile, Message: fmt.Sprintf("loading schemas from %s", schemaPath), Err: err}
	}
	return reg, nil
}

// LoadCriteria decodes the criteria document at path and builds it
// against reg. Build errors keep their criteria error code.
func LoadCriteria(reg *criteria.Registry, path string, opts ...criteria.Option) (*criteria.Criteria, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("criteria file not found: %s", path)}
	}

	doc, err := compiler.LoadCriteriaFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDocument, Message: fmt.Sprintf("decoding %s", path), Err: err}
	}
	return criteria.Build(reg, doc, opts...)
}
