package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/criteria/internal/criteria"
)

// CompileSchema parses a CUE value into a schema descriptor.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the schema struct itself; its label is the name:
//
//	schema: users: {
//		alias:      "u"
//		identifier: "uuid"
//		fields: {uuid: string, name: string, age: int}
//		relations: posts: {
//			cardinality:    "one_to_many"
//			target:         "posts"
//			local_field:    "uuid"
//			relation_field: "user_uuid"
//		}
//	}
//
// fields may also be a list of names. The result is not validated; pass it
// to criteria.NewRegistry.
func CompileSchema(v cue.Value) (criteria.Schema, error) {
	if err := v.Err(); err != nil {
		return criteria.Schema{}, formatCUEError(err)
	}

	var s criteria.Schema

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		s.Name = strings.Trim(labels[len(labels)-1].String(), `"`)
	}
	if name, ok, err := optionalString(v, "name"); err != nil {
		return criteria.Schema{}, err
	} else if ok {
		s.Name = name
	}

	identifier, ok, err := optionalString(v, "identifier")
	if err != nil {
		return criteria.Schema{}, err
	}
	if !ok {
		return criteria.Schema{}, &CompileError{
			Field:   "identifier",
			Message: "identifier is required",
			Pos:     v.Pos(),
		}
	}
	s.Identifier = identifier

	if s.Alias, _, err = optionalString(v, "alias"); err != nil {
		return criteria.Schema{}, err
	}

	s.Fields, err = parseFields(v)
	if err != nil {
		return criteria.Schema{}, err
	}

	s.Relations, err = parseRelations(v)
	if err != nil {
		return criteria.Schema{}, err
	}

	return s, nil
}

func optionalString(v cue.Value, path string) (string, bool, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return "", false, nil
	}
	s, err := val.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

// parseFields accepts a struct of field: type or a list of field names.
func parseFields(v cue.Value) ([]string, error) {
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   "fields",
			Message: "fields are required",
			Pos:     v.Pos(),
		}
	}

	var fields []string
	switch fieldsVal.IncompleteKind() {
	case cue.ListKind:
		iter, err := fieldsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			name, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			fields = append(fields, name)
		}

	case cue.StructKind:
		iter, err := fieldsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			if err := checkFieldType(iter.Label(), iter.Value()); err != nil {
				return nil, err
			}
			fields = append(fields, iter.Label())
		}

	default:
		return nil, &CompileError{
			Field:   "fields",
			Message: "fields must be a struct of field types or a list of names",
			Pos:     fieldsVal.Pos(),
		}
	}

	return fields, nil
}

// checkFieldType accepts the CUE kinds a filter value can be compared
// against. Times are declared as string.
func checkFieldType(name string, v cue.Value) error {
	switch v.IncompleteKind() {
	case cue.StringKind, cue.IntKind, cue.FloatKind, cue.NumberKind,
		cue.BoolKind, cue.ListKind, cue.StructKind:
		return nil
	default:
		return &CompileError{
			Field:   "fields." + name,
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// parseRelations reads relations keyed by alias.
func parseRelations(v cue.Value) ([]criteria.Relation, error) {
	relVal := v.LookupPath(cue.ParsePath("relations"))
	if !relVal.Exists() {
		return nil, nil
	}

	iter, err := relVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var relations []criteria.Relation
	for iter.Next() {
		var rel criteria.Relation
		if err := iter.Value().Decode(&rel); err != nil {
			return nil, formatCUEError(err)
		}
		rel.Alias = iter.Label()
		if rel.Target == "" {
			return nil, &CompileError{
				Field:   "relations." + rel.Alias + ".target",
				Message: "relation target is required",
				Pos:     iter.Value().Pos(),
			}
		}
		relations = append(relations, rel)
	}

	return relations, nil
}

// CompileSchemas compiles every schema under the top-level "schema" field
// and registers them together.
func CompileSchemas(v cue.Value) (*criteria.Registry, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schemasVal := v.LookupPath(cue.ParsePath("schema"))
	if !schemasVal.Exists() {
		return nil, &CompileError{
			Field:   "schema",
			Message: "no schemas declared",
			Pos:     v.Pos(),
		}
	}

	iter, err := schemasVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var schemas []criteria.Schema
	for iter.Next() {
		s, err := CompileSchema(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", iter.Label(), err)
		}
		schemas = append(schemas, s)
	}

	return criteria.NewRegistry(schemas...)
}
