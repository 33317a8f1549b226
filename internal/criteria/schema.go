package criteria

import (
	"fmt"
	"slices"
)

// Cardinality describes how many target rows a relation reaches.
type Cardinality string

const (
	OneToOne   Cardinality = "one_to_one"
	OneToMany  Cardinality = "one_to_many"
	ManyToOne  Cardinality = "many_to_one"
	ManyToMany Cardinality = "many_to_many"
)

// Valid reports whether c is one of the declared cardinalities.
func (c Cardinality) Valid() bool {
	switch c {
	case OneToOne, OneToMany, ManyToOne, ManyToMany:
		return true
	default:
		return false
	}
}

// PivotReference ties a column of a pivot table to a field of a schema.
type PivotReference struct {
	PivotField string `json:"pivot_field" yaml:"pivot_field"`
	Reference  string `json:"reference" yaml:"reference"`
}

// Relation declares a joinable alias on a schema.
//
// Simple relations use LocalField (on the owning schema) and RelationField
// (on the target). Many-to-many relations go through PivotTable:
// PivotLocal.Reference is a field on the owning schema and
// PivotRelation.Reference a field on the target.
type Relation struct {
	Alias         string         `json:"alias" yaml:"alias"`
	Cardinality   Cardinality    `json:"cardinality" yaml:"cardinality"`
	Target        string         `json:"target" yaml:"target"`
	LocalField    string         `json:"local_field,omitempty" yaml:"local_field,omitempty"`
	RelationField string         `json:"relation_field,omitempty" yaml:"relation_field,omitempty"`
	PivotTable    string         `json:"pivot_table,omitempty" yaml:"pivot_table,omitempty"`
	PivotLocal    PivotReference `json:"pivot_local,omitzero" yaml:"pivot_local,omitempty"`
	PivotRelation PivotReference `json:"pivot_relation,omitzero" yaml:"pivot_relation,omitempty"`
}

// IsPivot reports whether the relation joins through a pivot table.
func (r Relation) IsPivot() bool {
	return r.Cardinality == ManyToMany
}

// Schema is the runtime descriptor criteria are validated against.
//
// The criteria package only reads schemas; it never mutates one.
type Schema struct {
	Name       string     `json:"name" yaml:"name"`
	Alias      string     `json:"alias,omitempty" yaml:"alias,omitempty"`
	Fields     []string   `json:"fields" yaml:"fields"`
	Identifier string     `json:"identifier" yaml:"identifier"`
	Relations  []Relation `json:"relations,omitempty" yaml:"relations,omitempty"`
}

// SourceAlias returns the alias a translator should use for the schema's
// source, defaulting to its name.
func (s *Schema) SourceAlias() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Name
}

// HasField reports whether field is declared.
func (s *Schema) HasField(field string) bool {
	return slices.Contains(s.Fields, field)
}

// Relation looks up a relation by alias.
func (s *Schema) Relation(alias string) (Relation, bool) {
	for _, r := range s.Relations {
		if r.Alias == alias {
			return r, true
		}
	}
	return Relation{}, false
}

// Validate checks the descriptor is internally consistent. Relation targets
// are resolved by Registry, not here.
func (s *Schema) Validate() error {
	invalid := func(format string, args ...any) error {
		return newError(ErrCodeInvalidSchema, s.Name, format, args...)
	}

	if s.Name == "" {
		return invalid("schema name is required")
	}
	if len(s.Fields) == 0 {
		return invalid("schema %q declares no fields", s.Name)
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f == "" {
			return invalid("schema %q has an empty field name", s.Name)
		}
		if seen[f] {
			return invalid("schema %q declares field %q twice", s.Name, f)
		}
		seen[f] = true
	}
	if !seen[s.Identifier] {
		return invalid("identifier %q is not a field of schema %q", s.Identifier, s.Name)
	}

	aliases := make(map[string]bool, len(s.Relations))
	for _, r := range s.Relations {
		if err := s.validateRelation(r, seen); err != nil {
			return err
		}
		if aliases[r.Alias] {
			return invalid("schema %q declares relation %q twice", s.Name, r.Alias)
		}
		aliases[r.Alias] = true
	}
	return nil
}

func (s *Schema) validateRelation(r Relation, fields map[string]bool) error {
	where := fmt.Sprintf("relation %q of schema %q", r.Alias, s.Name)
	switch {
	case r.Alias == "":
		return newError(ErrCodeInvalidSchema, s.Name, "schema %q has a relation without alias", s.Name)
	case !r.Cardinality.Valid():
		return newError(ErrCodeInvalidSchema, r.Alias, "%s: unknown cardinality %q", where, r.Cardinality)
	case r.Target == "":
		return newError(ErrCodeInvalidSchema, r.Alias, "%s: target schema is required", where)
	}

	if r.IsPivot() {
		switch {
		case r.PivotTable == "":
			return newError(ErrCodeInvalidSchema, r.Alias, "%s: many_to_many requires pivot_table", where)
		case r.PivotLocal.PivotField == "" || r.PivotRelation.PivotField == "":
			return newError(ErrCodeInvalidSchema, r.Alias, "%s: pivot fields are required", where)
		case !fields[r.PivotLocal.Reference]:
			return newError(ErrCodeInvalidSchema, r.Alias, "%s: pivot_local references unknown field %q", where, r.PivotLocal.Reference)
		case r.PivotRelation.Reference == "":
			return newError(ErrCodeInvalidSchema, r.Alias, "%s: pivot_relation reference is required", where)
		}
		return nil
	}

	switch {
	case !fields[r.LocalField]:
		return newError(ErrCodeInvalidSchema, r.Alias, "%s: local_field %q is not declared", where, r.LocalField)
	case r.RelationField == "":
		return newError(ErrCodeInvalidSchema, r.Alias, "%s: relation_field is required", where)
	}
	return nil
}

// Registry resolves schema names. Registration order is preserved.
type Registry struct {
	schemas map[string]*Schema
	order   []string
}

// NewRegistry registers every schema and checks that all relation targets
// resolve and reference declared fields.
func NewRegistry(schemas ...Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		if err := r.add(s); err != nil {
			return nil, err
		}
	}
	if err := r.checkTargets(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRegistry(schemas ...Schema) *Registry {
	r, err := NewRegistry(schemas...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) add(s Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if _, dup := r.schemas[s.Name]; dup {
		return newError(ErrCodeInvalidSchema, s.Name, "schema %q registered twice", s.Name)
	}
	owned := s
	owned.Fields = slices.Clone(s.Fields)
	owned.Relations = slices.Clone(s.Relations)
	r.schemas[s.Name] = &owned
	r.order = append(r.order, s.Name)
	return nil
}

func (r *Registry) checkTargets() error {
	for _, name := range r.order {
		s := r.schemas[name]
		for _, rel := range s.Relations {
			target, ok := r.schemas[rel.Target]
			if !ok {
				return newError(ErrCodeInvalidSchema, rel.Alias,
					"relation %q of schema %q targets unknown schema %q", rel.Alias, s.Name, rel.Target)
			}
			ref := rel.RelationField
			if rel.IsPivot() {
				ref = rel.PivotRelation.Reference
			}
			if !target.HasField(ref) {
				return newError(ErrCodeInvalidSchema, rel.Alias,
					"relation %q of schema %q references unknown field %q on %q", rel.Alias, s.Name, ref, rel.Target)
			}
		}
	}
	return nil
}

// Get returns the schema registered under name.
func (r *Registry) Get(name string) (*Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// MustGet is like Get but panics when name is not registered.
func (r *Registry) MustGet(name string) *Schema {
	s, ok := r.schemas[name]
	if !ok {
		panic(fmt.Sprintf("criteria: schema %q not registered", name))
	}
	return s
}

// Names returns schema names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Schemas returns schemas in registration order.
func (r *Registry) Schemas() []*Schema {
	out := make([]*Schema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.schemas[name])
	}
	return out
}
