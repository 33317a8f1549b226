package criteria

import "fmt"

// Visitor is implemented by translators. C is translator context threaded
// through the walk and R is whatever the translator produces.
//
// The visitor drives recursion: it decides when to visit joins (Joins, in
// insertion order), the root group (Root) and orders (Orders, by sequence
// id). An empty root group means no filtering and must not be an error.
type Visitor[C, R any] interface {
	VisitRoot(c *Criteria, ctx C) (R, error)
	VisitInnerJoin(c *Criteria, p JoinParameters, ctx C) (R, error)
	VisitLeftJoin(c *Criteria, p JoinParameters, ctx C) (R, error)
	VisitOuterJoin(c *Criteria, p JoinParameters, ctx C) (R, error)
	VisitFilterGroup(g *FilterGroup, alias string, ctx C) (R, error)
	VisitFilter(f Filter, alias string, ctx C) (R, error)
}

// Accept dispatches c to the visitor method matching its variant. Join
// variants must have been attached with Join first.
func Accept[C, R any](c *Criteria, v Visitor[C, R], ctx C) (R, error) {
	var zero R
	if c.variant == VariantRoot {
		return v.VisitRoot(c, ctx)
	}

	if c.params == nil {
		return zero, newError(ErrCodeInvalidJoin, "", "%s join criteria for %q is not attached to a parent", c.variant, c.schema.Name)
	}
	switch c.variant {
	case VariantInner:
		return v.VisitInnerJoin(c, *c.params, ctx)
	case VariantLeft:
		return v.VisitLeftJoin(c, *c.params, ctx)
	case VariantOuter:
		return v.VisitOuterJoin(c, *c.params, ctx)
	default:
		return zero, fmt.Errorf("criteria: unknown variant %q", c.variant)
	}
}

// AcceptItem dispatches one group item to VisitFilter or VisitFilterGroup.
func AcceptItem[C, R any](item FilterItem, alias string, v Visitor[C, R], ctx C) (R, error) {
	var zero R
	switch it := item.(type) {
	case Filter:
		return v.VisitFilter(it, alias, ctx)
	case *FilterGroup:
		return v.VisitFilterGroup(it, alias, ctx)
	default:
		return zero, fmt.Errorf("criteria: unknown filter item %T", item)
	}
}
