package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/ir"
)

// Insert writes one row into the table of schema and returns its identifier.
//
// Keys of row must be declared fields. When the identifier is absent or
// null a new one is generated; fields not present in row are stored as NULL.
func (s *Store) Insert(ctx context.Context, schema string, row ir.IRObject) (ir.IRValue, error) {
	sc, ok := s.reg.Get(schema)
	if !ok {
		return nil, fmt.Errorf("insert: %w", &criteria.Error{
			Code:    criteria.ErrCodeInvalidSchema,
			Message: fmt.Sprintf("schema %q is not registered", schema),
			Field:   schema,
		})
	}
	for _, key := range row.SortedKeys() {
		if !sc.HasField(key) {
			return nil, fmt.Errorf("insert %s: %w", schema, &criteria.Error{
				Code:    criteria.ErrCodeUnknownField,
				Message: fmt.Sprintf("field %q is not declared on schema %q", key, schema),
				Field:   key,
				Details: map[string]string{"schema": schema},
			})
		}
	}

	id := row[sc.Identifier]
	if ir.IsNull(id) {
		id = ir.IRString(s.ids.Generate())
	}

	cols := make([]string, 0, len(sc.Fields))
	args := make([]any, 0, len(sc.Fields))
	for _, field := range sc.Fields {
		v := row[field]
		if field == sc.Identifier {
			v = id
		}
		arg, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("insert %s.%s: %w", schema, field, err)
		}
		cols = append(cols, quoteIdent(field))
		args = append(args, arg)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(sc.Name), strings.Join(cols, ", "), placeholders(len(cols)))
	if err := s.exec(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("insert %s: %w", schema, err)
	}

	s.logger.Debug("row inserted", "schema", schema, "id", id)
	return id, nil
}

// Link records a pivot row for the many-to-many relation alias of schema.
// local is the value of the relation's pivot_local reference field and
// target that of its pivot_relation reference field. Duplicate links are
// ignored.
func (s *Store) Link(ctx context.Context, schema, relation string, local, target ir.IRValue) error {
	sc, ok := s.reg.Get(schema)
	if !ok {
		return fmt.Errorf("link: schema %q is not registered", schema)
	}
	rel, ok := sc.Relation(relation)
	if !ok {
		return fmt.Errorf("link: %w", &criteria.Error{
			Code:    criteria.ErrCodeUnknownRelation,
			Message: fmt.Sprintf("relation %q is not declared on schema %q", relation, schema),
			Field:   relation,
			Details: map[string]string{"schema": schema},
		})
	}
	if !rel.IsPivot() {
		return fmt.Errorf("link: relation %q of %q is %s, not many_to_many", relation, schema, rel.Cardinality)
	}

	localArg, err := encodeValue(local)
	if err != nil {
		return fmt.Errorf("link %s.%s: %w", schema, relation, err)
	}
	targetArg, err := encodeValue(target)
	if err != nil {
		return fmt.Errorf("link %s.%s: %w", schema, relation, err)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, ?) ON CONFLICT DO NOTHING",
		quoteIdent(rel.PivotTable),
		quoteIdent(rel.PivotLocal.PivotField),
		quoteIdent(rel.PivotRelation.PivotField))
	if err := s.exec(ctx, stmt, localArg, targetArg); err != nil {
		return fmt.Errorf("link %s.%s: %w", schema, relation, err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
