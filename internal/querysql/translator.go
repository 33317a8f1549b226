package querysql

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/criteria/internal/criteria"
)

// Query is a translated statement with positional parameters.
type Query struct {
	SQL    string
	Params []any
}

// Translator renders criteria trees as parameterized SQLite SELECT statements.
//
// CRITICAL: values are never interpolated; every value is a ? parameter.
// CRITICAL: every statement ends in ORDER BY with the root identifier as
// the final tie-break so results are deterministic.
//
// The SQL assumes a connection opened by the store package: LIKE is case
// sensitive (PRAGMA case_sensitive_like) and REGEXP is a registered function.
// Array and JSON fields hold JSON text.
type Translator struct{}

var _ criteria.Visitor[*buildContext, string] = (*Translator)(nil)

// NewTranslator creates a new Translator.
func NewTranslator() *Translator {
	return &Translator{}
}

// buildContext accumulates state while the visitor walks a tree. Parameters
// are appended in the order their placeholders appear in the SQL text.
type buildContext struct {
	params []any
	orders []aliasedOrder
}

type aliasedOrder struct {
	alias string
	order criteria.Order
}

func (b *buildContext) bind(v any) string {
	b.params = append(b.params, v)
	return "?"
}

// Translate converts a root criteria into a SELECT of the root's columns.
func (t *Translator) Translate(c *criteria.Criteria) (Query, error) {
	if c == nil {
		return Query{}, fmt.Errorf("cannot translate nil criteria")
	}
	if c.Variant() != criteria.VariantRoot {
		return Query{}, fmt.Errorf("translate requires root criteria, got %s", c.Variant())
	}

	ctx := &buildContext{}
	sql, err := criteria.Accept(c, t, ctx)
	if err != nil {
		return Query{}, err
	}
	return Query{SQL: sql, Params: ctx.params}, nil
}

// VisitRoot builds the complete statement.
func (t *Translator) VisitRoot(c *criteria.Criteria, ctx *buildContext) (string, error) {
	alias := c.Alias()
	schema := c.Schema()

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(c.Joins()) > 0 {
		// One-to-many and pivot joins fan out root rows.
		sb.WriteString("DISTINCT ")
	}
	fmt.Fprintf(&sb, "%s.* FROM %s AS %s", quoteIdent(alias), quoteIdent(schema.Name), quoteIdent(alias))

	joins, err := t.visitJoins(c, ctx)
	if err != nil {
		return "", err
	}
	sb.WriteString(joins)

	var where []string
	root, err := t.VisitFilterGroup(c.Root(), alias, ctx)
	if err != nil {
		return "", err
	}
	if root != "" {
		where = append(where, root)
	}
	boundary, err := c.Boundary()
	if err != nil {
		return "", err
	}
	if boundary != nil {
		sql, err := t.renderBoolExpr(boundary, alias, ctx)
		if err != nil {
			return "", fmt.Errorf("cursor boundary: %w", err)
		}
		where = append(where, sql)
	}
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	ctx.orders = appendOrders(ctx.orders, alias, c.Orders())
	sb.WriteString(" ORDER BY ")
	sb.WriteString(stableOrderKey(ctx.orders, alias, schema.Identifier))

	sb.WriteString(t.pagination(c, ctx))
	return sb.String(), nil
}

// VisitInnerJoin renders an INNER JOIN clause and its nested joins.
func (t *Translator) VisitInnerJoin(c *criteria.Criteria, p criteria.JoinParameters, ctx *buildContext) (string, error) {
	return t.visitJoin(c, p, "INNER JOIN", ctx)
}

// VisitLeftJoin renders a LEFT JOIN clause and its nested joins.
func (t *Translator) VisitLeftJoin(c *criteria.Criteria, p criteria.JoinParameters, ctx *buildContext) (string, error) {
	return t.visitJoin(c, p, "LEFT JOIN", ctx)
}

// VisitOuterJoin renders a FULL OUTER JOIN clause (SQLite 3.39+).
func (t *Translator) VisitOuterJoin(c *criteria.Criteria, p criteria.JoinParameters, ctx *buildContext) (string, error) {
	return t.visitJoin(c, p, "FULL OUTER JOIN", ctx)
}

// visitJoin puts the join's own filters in its ON clause so they restrict
// the joined rows without turning a LEFT JOIN into an INNER one. Pivot joins
// go through the junction table aliased as <alias>_pivot.
func (t *Translator) visitJoin(c *criteria.Criteria, p criteria.JoinParameters, kind string, ctx *buildContext) (string, error) {
	var sb strings.Builder
	var on string

	if p.IsPivot() {
		pivotAlias := p.Alias + "_pivot"
		fmt.Fprintf(&sb, " %s %s AS %s ON %s = %s",
			kind,
			quoteIdent(p.Pivot.Table),
			quoteIdent(pivotAlias),
			column(p.ParentAlias, p.Pivot.Local.Reference),
			column(pivotAlias, p.Pivot.Local.PivotField))
		on = fmt.Sprintf("%s = %s",
			column(pivotAlias, p.Pivot.Relation.PivotField),
			column(p.Alias, p.Pivot.Relation.Reference))
	} else {
		on = fmt.Sprintf("%s = %s",
			column(p.ParentAlias, p.LocalField),
			column(p.Alias, p.RelationField))
	}

	filter, err := t.VisitFilterGroup(c.Root(), p.Alias, ctx)
	if err != nil {
		return "", fmt.Errorf("join %q: %w", p.Alias, err)
	}
	if filter != "" {
		on += " AND " + filter
	}
	fmt.Fprintf(&sb, " %s %s AS %s ON %s", kind, quoteIdent(p.TargetSchema), quoteIdent(p.Alias), on)

	ctx.orders = appendOrders(ctx.orders, p.Alias, c.Orders())

	nested, err := t.visitJoins(c, ctx)
	if err != nil {
		return "", err
	}
	sb.WriteString(nested)
	return sb.String(), nil
}

func (t *Translator) visitJoins(c *criteria.Criteria, ctx *buildContext) (string, error) {
	var sb strings.Builder
	for _, j := range c.Joins() {
		sql, err := criteria.Accept(j.Criteria, t, ctx)
		if err != nil {
			return "", err
		}
		sb.WriteString(sql)
	}
	return sb.String(), nil
}

// VisitFilterGroup renders a group. An empty group renders as "" (no
// filtering); groups of two or more items are parenthesized.
func (t *Translator) VisitFilterGroup(g *criteria.FilterGroup, alias string, ctx *buildContext) (string, error) {
	if g.IsEmpty() {
		return "", nil
	}

	items := g.Items()
	parts := make([]string, 0, len(items))
	for _, item := range items {
		sql, err := criteria.AcceptItem(item, alias, t, ctx)
		if err != nil {
			return "", err
		}
		if sql != "" {
			parts = append(parts, sql)
		}
	}

	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], nil
	default:
		return "(" + strings.Join(parts, " "+string(g.LogicalOperator())+" ") + ")", nil
	}
}

// VisitFilter renders one leaf predicate.
func (t *Translator) VisitFilter(f criteria.Filter, alias string, ctx *buildContext) (string, error) {
	sql, err := renderFilter(column(alias, f.Field()), f.Operator(), f.Value(), ctx)
	if err != nil {
		return "", fmt.Errorf("filter %s.%s %s: %w", alias, f.Field(), f.Operator(), err)
	}
	return sql, nil
}

func (t *Translator) renderBoolExpr(e criteria.BoolExpr, alias string, ctx *buildContext) (string, error) {
	switch expr := e.(type) {
	case criteria.Comparison:
		return renderFilter(column(alias, expr.Field), expr.Operator, expr.Value, ctx)
	case criteria.Conjunction:
		return t.renderTerms(expr.Terms, " AND ", alias, ctx)
	case criteria.Disjunction:
		return t.renderTerms(expr.Terms, " OR ", alias, ctx)
	default:
		return "", fmt.Errorf("unsupported boolean expression: %T", e)
	}
}

func (t *Translator) renderTerms(terms []criteria.BoolExpr, sep, alias string, ctx *buildContext) (string, error) {
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		sql, err := t.renderBoolExpr(term, alias, ctx)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func appendOrders(dst []aliasedOrder, alias string, orders []criteria.Order) []aliasedOrder {
	for _, o := range orders {
		dst = append(dst, aliasedOrder{alias: alias, order: o})
	}
	return dst
}

// stableOrderKey merges root and join orders by sequence id and appends the
// root identifier as the final tie-break unless it is already ordered.
func stableOrderKey(orders []aliasedOrder, alias, identifier string) string {
	slices.SortStableFunc(orders, func(a, b aliasedOrder) int {
		return cmp.Compare(a.order.SequenceID(), b.order.SequenceID())
	})

	parts := make([]string, 0, len(orders)+1)
	hasIdentifier := false
	for _, o := range orders {
		nulls := "NULLS LAST"
		if o.order.NullsFirst() {
			nulls = "NULLS FIRST"
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", column(o.alias, o.order.Field()), o.order.Direction(), nulls))
		if o.alias == alias && o.order.Field() == identifier {
			hasIdentifier = true
		}
	}
	if !hasIdentifier {
		parts = append(parts, column(alias, identifier)+" ASC")
	}
	return strings.Join(parts, ", ")
}

// pagination renders LIMIT/OFFSET for the active mode. Under a cursor the
// skip is ignored and take caps the page.
func (t *Translator) pagination(c *criteria.Criteria, ctx *buildContext) string {
	take, hasTake := c.Take()
	switch c.Mode() {
	case criteria.PaginationOffset:
		skip, hasSkip := c.Skip()
		switch {
		case hasTake && hasSkip:
			return fmt.Sprintf(" LIMIT %s OFFSET %s", ctx.bind(int64(take)), ctx.bind(int64(skip)))
		case hasTake:
			return " LIMIT " + ctx.bind(int64(take))
		case hasSkip:
			return fmt.Sprintf(" LIMIT -1 OFFSET %s", ctx.bind(int64(skip)))
		}
	case criteria.PaginationCursor:
		if hasTake {
			return " LIMIT " + ctx.bind(int64(take))
		}
	}
	return ""
}

// quoteIdent quotes an SQL identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func column(alias, field string) string {
	return quoteIdent(alias) + "." + quoteIdent(field)
}
