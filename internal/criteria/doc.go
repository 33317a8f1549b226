// Package criteria is a backend-agnostic query criteria model.
//
// A Criteria describes filters, joins, ordering and pagination over a
// runtime Schema. It never executes anything and knows no query dialect:
// translators implement Visitor and walk the tree with Accept.
//
// Key constraints:
//   - Filters are validated against their operator's value family at construction
//   - The root filter group is always normalized (see Normalize)
//   - Order sequence ids come from a Sequencer and strictly increase
//   - Joins form a tree; each join owns its child Criteria
//   - Failed builder calls leave the Criteria unchanged
//
// Typical use:
//
//	c := criteria.NewRoot(users)
//	_ = c.Where(criteria.FilterPrimitive{Field: "age", Operator: criteria.OpGreaterThan, Value: ir.IRInt(18)})
//	_ = c.OrderBy("created_at", criteria.Desc, false)
//	sql, err := criteria.Accept(c, translator, ctx)
package criteria
