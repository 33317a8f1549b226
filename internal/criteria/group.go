package criteria

import (
	"github.com/roach88/criteria/internal/ir"
)

// LogicalOperator combines the items of a FilterGroup.
type LogicalOperator string

const (
	And LogicalOperator = "AND"
	Or  LogicalOperator = "OR"
)

// Valid reports whether op is AND or OR.
func (op LogicalOperator) Valid() bool {
	return op == And || op == Or
}

// FilterItem is a sealed interface: only Filter and *FilterGroup implement it.
type FilterItem interface {
	filterItem()
}

// FilterGroup is a logical combination of filters and nested groups.
//
// Groups are treated as immutable once built; Normalize returns new groups
// and never edits its input.
type FilterGroup struct {
	operator LogicalOperator
	items    []FilterItem
}

func (*FilterGroup) filterItem() {}

// NewFilterGroup builds a group as given. The result is not normalized.
func NewFilterGroup(op LogicalOperator, items ...FilterItem) *FilterGroup {
	return &FilterGroup{operator: op, items: items}
}

// emptyGroup returns the canonical empty group {AND, []}.
func emptyGroup() *FilterGroup {
	return &FilterGroup{operator: And}
}

// LogicalOperator returns how the items are combined.
func (g *FilterGroup) LogicalOperator() LogicalOperator { return g.operator }

// Items returns a copy of the group's items in order.
func (g *FilterGroup) Items() []FilterItem {
	if len(g.items) == 0 {
		return nil
	}
	out := make([]FilterItem, len(g.items))
	copy(out, g.items)
	return out
}

// Len returns the number of direct items.
func (g *FilterGroup) Len() int { return len(g.items) }

// IsEmpty reports whether the group has no items. An empty group means
// "no filtering".
func (g *FilterGroup) IsEmpty() bool {
	return g == nil || len(g.items) == 0
}

// Filters returns every leaf filter in depth-first order.
func (g *FilterGroup) Filters() []Filter {
	var out []Filter
	var walk func(*FilterGroup)
	walk = func(group *FilterGroup) {
		for _, item := range group.items {
			switch it := item.(type) {
			case Filter:
				out = append(out, it)
			case *FilterGroup:
				walk(it)
			}
		}
	}
	if g != nil {
		walk(g)
	}
	return out
}

// ToPrimitive returns a plain snapshot for serialization.
func (g *FilterGroup) ToPrimitive() GroupPrimitive {
	if g == nil {
		return GroupPrimitive{LogicalOperator: And, Items: []ItemPrimitive{}}
	}
	items := make([]ItemPrimitive, 0, len(g.items))
	for _, item := range g.items {
		switch it := item.(type) {
		case Filter:
			fp := it.ToPrimitive()
			items = append(items, ItemPrimitive{Filter: &fp})
		case *FilterGroup:
			gp := it.ToPrimitive()
			items = append(items, ItemPrimitive{Group: &gp})
		}
	}
	return GroupPrimitive{LogicalOperator: g.operator, Items: items}
}

// Fingerprint returns a content hash of the group. Structurally equal groups
// share a fingerprint; callers wanting equivalence should normalize first.
func (g *FilterGroup) Fingerprint() (string, error) {
	return ir.Fingerprint(ir.DomainFilterGroup, g.toIR())
}

// toIR renders the group as an IR object for canonical hashing.
func (g *FilterGroup) toIR() ir.IRObject {
	if g == nil {
		g = emptyGroup()
	}
	items := make(ir.IRArray, 0, len(g.items))
	for _, item := range g.items {
		switch it := item.(type) {
		case Filter:
			items = append(items, it.toIR())
		case *FilterGroup:
			items = append(items, it.toIR())
		}
	}
	return ir.NewIRObjectFromPairs(
		ir.O("logical_operator", ir.IRString(g.operator)),
		ir.O("items", items),
	)
}

func (f Filter) toIR() ir.IRObject {
	value := f.value
	if value == nil {
		value = ir.IRNull{}
	}
	return ir.NewIRObjectFromPairs(
		ir.O("field", ir.IRString(f.field)),
		ir.O("operator", ir.IRString(f.operator)),
		ir.O("value", value),
	)
}
