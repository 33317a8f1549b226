package criteria

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roach88/criteria/internal/ir"
)

// FilterPrimitive is the plain {field, operator, value} shape of a filter.
type FilterPrimitive struct {
	Field    string     `json:"field"`
	Operator Operator   `json:"operator"`
	Value    ir.IRValue `json:"value,omitempty"`
}

// UnmarshalJSON decodes the value through the IR codec.
func (p *FilterPrimitive) UnmarshalJSON(data []byte) error {
	var raw struct {
		Field    string          `json:"field"`
		Operator Operator        `json:"operator"`
		Value    json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Field = raw.Field
	p.Operator = raw.Operator
	p.Value = nil
	if len(raw.Value) > 0 {
		v, err := ir.UnmarshalIRValue(raw.Value)
		if err != nil {
			return fmt.Errorf("filter %q value: %w", raw.Field, err)
		}
		p.Value = v
	}
	return nil
}

// GroupPrimitive is the plain shape of a filter group.
type GroupPrimitive struct {
	LogicalOperator LogicalOperator `json:"logical_operator"`
	Items           []ItemPrimitive `json:"items"`
}

// ItemPrimitive holds exactly one of Filter or Group. In JSON it is the
// filter or group object itself; objects carrying "items" or
// "logical_operator" decode as groups.
type ItemPrimitive struct {
	Filter *FilterPrimitive
	Group  *GroupPrimitive
}

// MarshalJSON implements json.Marshaler.
func (p ItemPrimitive) MarshalJSON() ([]byte, error) {
	switch {
	case p.Filter != nil:
		return json.Marshal(p.Filter)
	case p.Group != nil:
		return json.Marshal(p.Group)
	default:
		return nil, fmt.Errorf("empty filter item")
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ItemPrimitive) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, hasItems := keys["items"]
	_, hasOp := keys["logical_operator"]
	if hasItems || hasOp {
		var g GroupPrimitive
		if err := json.Unmarshal(data, &g); err != nil {
			return err
		}
		*p = ItemPrimitive{Group: &g}
		return nil
	}
	var f FilterPrimitive
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*p = ItemPrimitive{Filter: &f}
	return nil
}

// OrderPrimitive is the plain shape of an order.
type OrderPrimitive struct {
	Field      string    `json:"field"`
	Direction  Direction `json:"direction"`
	SequenceID int64     `json:"sequence_id,omitempty"`
	NullsFirst bool      `json:"nulls_first,omitempty"`
}

// JoinPrimitive is one attached join of a Primitive document.
type JoinPrimitive struct {
	Alias    string        `json:"alias"`
	Kind     Variant       `json:"kind,omitempty"`
	Override *JoinOverride `json:"override,omitempty"`
	Criteria Primitive     `json:"criteria"`
}

// Primitive is the serializable form of a whole criteria tree.
//
// Build turns a Primitive back into an equivalent Criteria. Sequence ids are
// only used to order OrderBy entries; rebuilt orders get fresh ids.
type Primitive struct {
	Schema  string           `json:"schema,omitempty"`
	Where   *GroupPrimitive  `json:"where,omitempty"`
	OrderBy []OrderPrimitive `json:"order_by,omitempty"`
	Joins   []JoinPrimitive  `json:"joins,omitempty"`
	Skip    *int             `json:"skip,omitempty"`
	Take    *int             `json:"take,omitempty"`
	Cursor  *Cursor          `json:"cursor,omitempty"`
	// Mode is written for readers of the document; Build derives it.
	Mode PaginationMode `json:"mode,omitempty"`
}

// DecodePrimitive reads a JSON criteria document. Unknown keys are rejected.
func DecodePrimitive(data []byte) (Primitive, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var p Primitive
	if err := dec.Decode(&p); err != nil {
		return Primitive{}, fmt.Errorf("decode criteria document: %w", err)
	}
	return p, nil
}

// ToPrimitive snapshots the whole tree.
func (c *Criteria) ToPrimitive() Primitive {
	p := Primitive{Schema: c.schema.Name}
	if !c.root.IsEmpty() {
		where := c.root.ToPrimitive()
		p.Where = &where
	}
	for _, o := range c.Orders() {
		p.OrderBy = append(p.OrderBy, o.ToPrimitive())
	}
	for _, j := range c.joins {
		p.Joins = append(p.Joins, JoinPrimitive{
			Alias:    j.alias,
			Kind:     j.child.variant,
			Override: j.override,
			Criteria: j.child.ToPrimitive(),
		})
	}
	if c.skip != nil {
		n := *c.skip
		p.Skip = &n
	}
	if c.take != nil {
		n := *c.take
		p.Take = &n
	}
	if cur, ok := c.Cursor(); ok {
		p.Cursor = &cur
	}
	if mode := c.Mode(); mode != PaginationNone {
		p.Mode = mode
	}
	return p
}

// Build reconstructs a root Criteria from p, resolving schemas through reg.
func Build(reg *Registry, p Primitive, opts ...Option) (*Criteria, error) {
	schema, ok := reg.Get(p.Schema)
	if !ok {
		return nil, newError(ErrCodeInvalidSchema, p.Schema, "schema %q is not registered", p.Schema)
	}
	c := NewRoot(schema, opts...)
	if err := c.apply(reg, p, opts); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Criteria) apply(reg *Registry, p Primitive, opts []Option) error {
	if p.Where != nil {
		if err := c.WhereGroup(*p.Where); err != nil {
			return err
		}
	}

	orders := slices.Clone(p.OrderBy)
	if !slices.ContainsFunc(orders, func(o OrderPrimitive) bool { return o.SequenceID == 0 }) {
		slices.SortStableFunc(orders, func(a, b OrderPrimitive) int {
			return cmp.Compare(a.SequenceID, b.SequenceID)
		})
	}
	for _, o := range orders {
		if err := c.OrderBy(o.Field, o.Direction, o.NullsFirst); err != nil {
			return err
		}
	}

	for _, jp := range p.Joins {
		if err := c.applyJoin(reg, jp, opts); err != nil {
			return err
		}
	}

	return c.applyPagination(p)
}

func (c *Criteria) applyJoin(reg *Registry, jp JoinPrimitive, opts []Option) error {
	rel, ok := c.schema.Relation(jp.Alias)
	if !ok {
		e := newError(ErrCodeUnknownRelation, jp.Alias, "relation %q is not declared on schema %q", jp.Alias, c.schema.Name)
		e.Details = map[string]string{"schema": c.schema.Name}
		return e
	}
	target := jp.Criteria.Schema
	if target == "" {
		target = rel.Target
	}
	schema, ok := reg.Get(target)
	if !ok {
		return newError(ErrCodeInvalidSchema, target, "schema %q is not registered", target)
	}
	kind := jp.Kind
	if kind == "" {
		kind = VariantInner
	}
	if !kind.IsJoin() {
		return newError(ErrCodeInvalidJoin, jp.Alias, "join kind %q must be inner, left or outer", jp.Kind)
	}
	child, err := New(kind, schema, opts...)
	if err != nil {
		return err
	}
	if err := child.apply(reg, jp.Criteria, opts); err != nil {
		return fmt.Errorf("join %q: %w", jp.Alias, err)
	}
	return c.Join(jp.Alias, child, jp.Override)
}

// applyPagination replays skip, take and cursor. A cursor wins over the
// offset whatever Mode the document records.
func (c *Criteria) applyPagination(p Primitive) error {
	setOffset := func() error {
		if p.Skip != nil {
			if err := c.SetSkip(*p.Skip); err != nil {
				return err
			}
		}
		if p.Take != nil {
			if err := c.SetTake(*p.Take); err != nil {
				return err
			}
		}
		return nil
	}
	setCursor := func() error {
		if p.Cursor == nil {
			return nil
		}
		dir := p.Cursor.Direction
		if dir == "" {
			dir = Asc
		}
		op := p.Cursor.Operator
		if op == "" {
			op = SeekOperator(dir)
		}
		return c.SetCursor(p.Cursor.Fields, op, dir)
	}

	if err := setOffset(); err != nil {
		return err
	}
	return setCursor()
}
