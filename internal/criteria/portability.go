package criteria

import (
	"fmt"
)

// PortabilityResult reports features that not every backend can translate.
//
// Non-portable criteria are still valid; the warnings inform callers that a
// translator other than the SQL one may reject or approximate them.
type PortabilityResult struct {
	// IsPortable is true when no warnings were produced.
	IsPortable bool

	// Warnings lists the non-portable features found, in walk order.
	Warnings []string
}

// Portability walks c and its joins looking for backend-specific features:
//  1. outer joins
//  2. regex, set, array and JSON operators
//  3. an offset that is ignored because a cursor is active
//  4. cursor fields that do not follow the declared order sequence
//
// Portability is a pure function with no side effects.
func Portability(c *Criteria) PortabilityResult {
	p := &portability{
		warnings: []string{},
	}
	p.checkCriteria(c)

	return PortabilityResult{
		IsPortable: len(p.warnings) == 0,
		Warnings:   p.warnings,
	}
}

// portability accumulates warnings during traversal.
type portability struct {
	warnings []string
}

func (p *portability) addWarning(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *portability) checkCriteria(c *Criteria) {
	alias := c.Alias()

	if c.variant == VariantOuter {
		p.addWarning("Outer join %q - full outer joins are not available on every backend", alias)
	}

	for _, f := range c.root.Filters() {
		p.checkFilter(f, alias)
	}

	if c.Mode() == PaginationCursor {
		p.checkCursor(c)
	}

	for _, j := range c.joins {
		p.checkCriteria(j.child)
	}
}

func (p *portability) checkFilter(f Filter, alias string) {
	op := f.Operator()
	switch {
	case op == OpMatchesRegex:
		p.addWarning("Field '%s.%s' uses %s - regular expression dialects differ between backends", alias, f.Field(), op)
	case op == OpSetContains || op == OpSetNotContains || op == OpSetContainsAny || op == OpSetContainsAll:
		p.addWarning("Field '%s.%s' uses %s - set columns require backend-specific encoding", alias, f.Field(), op)
	case op.Family() == FamilyArrayElement || op.Family() == FamilyArrayCollection:
		p.addWarning("Field '%s.%s' uses %s - array operators require native array or JSON support", alias, f.Field(), op)
	case op.Family() == FamilyJSON:
		p.addWarning("Field '%s.%s' uses %s - JSON path operators require native JSON support", alias, f.Field(), op)
	}
}

func (p *portability) checkCursor(c *Criteria) {
	if c.skip != nil && *c.skip > 0 {
		p.addWarning("Skip %d is ignored while cursor pagination is active", *c.skip)
	}

	orders := c.Orders()
	for i, f := range c.cursor.Fields {
		if i >= len(orders) || orders[i].field != f.Field {
			p.addWarning("Cursor field '%s' does not match order position %d - keyset boundary may skip rows", f.Field, i+1)
			return
		}
		if orders[i].direction != c.cursor.Direction {
			p.addWarning("Cursor direction %s differs from order on '%s' (%s)", c.cursor.Direction, f.Field, orders[i].direction)
			return
		}
	}
}
