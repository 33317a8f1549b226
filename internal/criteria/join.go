package criteria

// PivotParameters describe a join routed through a junction table.
type PivotParameters struct {
	Table    string
	Local    PivotReference
	Relation PivotReference
}

// JoinParameters are the resolved join columns handed to a visitor.
//
// For a simple join, ParentAlias.LocalField = Alias.RelationField.
// For a pivot join, ParentAlias.<Pivot.Local.Reference> = pivot.<Pivot.Local.PivotField>
// and pivot.<Pivot.Relation.PivotField> = Alias.<Pivot.Relation.Reference>.
type JoinParameters struct {
	ParentSchema  string
	ParentAlias   string
	Alias         string
	TargetSchema  string
	Cardinality   Cardinality
	LocalField    string
	RelationField string
	Pivot         *PivotParameters
}

// IsPivot reports whether the join goes through a pivot table.
func (p JoinParameters) IsPivot() bool {
	return p.Pivot != nil
}

// JoinOverride substitutes parts of a relation's declared join columns.
// Empty fields keep the declared value.
type JoinOverride struct {
	LocalField    string          `json:"local_field,omitempty" yaml:"local_field,omitempty"`
	RelationField string          `json:"relation_field,omitempty" yaml:"relation_field,omitempty"`
	PivotTable    string          `json:"pivot_table,omitempty" yaml:"pivot_table,omitempty"`
	PivotLocal    *PivotReference `json:"pivot_local,omitempty" yaml:"pivot_local,omitempty"`
	PivotRelation *PivotReference `json:"pivot_relation,omitempty" yaml:"pivot_relation,omitempty"`
}

// resolveJoin computes join parameters for rel between parent and child and
// checks that every referenced field exists on the side it belongs to.
func resolveJoin(parent *Schema, parentAlias string, rel Relation, child *Schema, override *JoinOverride) (JoinParameters, error) {
	params := JoinParameters{
		ParentSchema: parent.Name,
		ParentAlias:  parentAlias,
		Alias:        rel.Alias,
		TargetSchema: child.Name,
		Cardinality:  rel.Cardinality,
	}

	if override != nil {
		if rel.IsPivot() && (override.LocalField != "" || override.RelationField != "") {
			return JoinParameters{}, newError(ErrCodeInvalidJoin, rel.Alias,
				"join %q is a pivot relation; override the pivot table or references instead of local/relation fields", rel.Alias)
		}
		if !rel.IsPivot() && (override.PivotTable != "" || override.PivotLocal != nil || override.PivotRelation != nil) {
			return JoinParameters{}, newError(ErrCodeInvalidJoin, rel.Alias,
				"join %q is a simple relation; pivot overrides do not apply", rel.Alias)
		}
	}

	if rel.IsPivot() {
		pivot := PivotParameters{
			Table:    rel.PivotTable,
			Local:    rel.PivotLocal,
			Relation: rel.PivotRelation,
		}
		if override != nil {
			if override.PivotTable != "" {
				pivot.Table = override.PivotTable
			}
			if override.PivotLocal != nil {
				pivot.Local = mergeReference(pivot.Local, *override.PivotLocal)
			}
			if override.PivotRelation != nil {
				pivot.Relation = mergeReference(pivot.Relation, *override.PivotRelation)
			}
		}
		if !parent.HasField(pivot.Local.Reference) {
			return JoinParameters{}, unknownField(parent.Name, pivot.Local.Reference)
		}
		if !child.HasField(pivot.Relation.Reference) {
			return JoinParameters{}, unknownField(child.Name, pivot.Relation.Reference)
		}
		params.Pivot = &pivot
		return params, nil
	}

	params.LocalField = rel.LocalField
	params.RelationField = rel.RelationField
	if override != nil {
		if override.LocalField != "" {
			params.LocalField = override.LocalField
		}
		if override.RelationField != "" {
			params.RelationField = override.RelationField
		}
	}
	if !parent.HasField(params.LocalField) {
		return JoinParameters{}, unknownField(parent.Name, params.LocalField)
	}
	if !child.HasField(params.RelationField) {
		return JoinParameters{}, unknownField(child.Name, params.RelationField)
	}
	return params, nil
}

func mergeReference(base, override PivotReference) PivotReference {
	if override.PivotField != "" {
		base.PivotField = override.PivotField
	}
	if override.Reference != "" {
		base.Reference = override.Reference
	}
	return base
}
