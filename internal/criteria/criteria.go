package criteria

import (
	"cmp"
	"slices"
)

// Variant selects which visitor entry point a Criteria dispatches to.
type Variant string

const (
	VariantRoot  Variant = "root"
	VariantInner Variant = "inner"
	VariantLeft  Variant = "left"
	VariantOuter Variant = "outer"
)

// IsJoin reports whether v is one of the join variants.
func (v Variant) IsJoin() bool {
	return v == VariantInner || v == VariantLeft || v == VariantOuter
}

// PaginationMode is the pagination style a translator must honor.
type PaginationMode string

const (
	PaginationNone   PaginationMode = "none"
	PaginationOffset PaginationMode = "offset"
	PaginationCursor PaginationMode = "cursor"
)

// Criteria describes filters, joins, ordering and pagination over one schema.
//
// Every builder method either fully applies or returns an error and leaves
// the instance untouched. A Criteria is not safe for concurrent mutation;
// concurrent Accept calls on a finished instance are safe.
type Criteria struct {
	variant Variant
	schema  *Schema
	seq     Sequencer
	alias   string

	root   *FilterGroup
	orders []Order
	joins  []*joinEntry

	skip   *int
	take   *int
	cursor *Cursor
	mode   PaginationMode

	// params is set when the instance is attached to a parent by Join.
	params *JoinParameters
}

type joinEntry struct {
	alias    string
	child    *Criteria
	params   JoinParameters
	override *JoinOverride
}

// Join is a read-only view of an attached join.
type Join struct {
	Alias      string
	Criteria   *Criteria
	Parameters JoinParameters
	Override   *JoinOverride
}

// Option configures a new Criteria.
type Option func(*Criteria)

// WithSequence draws order sequence ids from s instead of the process-wide
// sequence.
func WithSequence(s Sequencer) Option {
	return func(c *Criteria) {
		if s != nil {
			c.seq = s
		}
	}
}

// WithAlias overrides the source alias of a root criteria.
func WithAlias(alias string) Option {
	return func(c *Criteria) {
		c.alias = alias
	}
}

// NewRoot creates the root criteria of a query over schema.
func NewRoot(schema *Schema, opts ...Option) *Criteria {
	return newCriteria(VariantRoot, schema, opts)
}

// NewInnerJoin creates criteria to be attached with Join as an inner join.
func NewInnerJoin(schema *Schema, opts ...Option) *Criteria {
	return newCriteria(VariantInner, schema, opts)
}

// NewLeftJoin creates criteria to be attached with Join as a left join.
func NewLeftJoin(schema *Schema, opts ...Option) *Criteria {
	return newCriteria(VariantLeft, schema, opts)
}

// NewOuterJoin creates criteria to be attached with Join as a full outer join.
func NewOuterJoin(schema *Schema, opts ...Option) *Criteria {
	return newCriteria(VariantOuter, schema, opts)
}

// New creates criteria of the given variant.
func New(variant Variant, schema *Schema, opts ...Option) (*Criteria, error) {
	switch variant {
	case VariantRoot, VariantInner, VariantLeft, VariantOuter:
		return newCriteria(variant, schema, opts), nil
	default:
		return nil, newError(ErrCodeInvalidJoin, "", "unknown criteria variant %q", variant)
	}
}

func newCriteria(variant Variant, schema *Schema, opts []Option) *Criteria {
	c := &Criteria{
		variant: variant,
		schema:  schema,
		seq:     processSequence,
		root:    emptyGroup(),
		mode:    PaginationNone,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResetCriteria returns a fresh instance of the same variant bound to the
// same schema and sequence. The receiver is not modified.
func (c *Criteria) ResetCriteria() *Criteria {
	return &Criteria{
		variant: c.variant,
		schema:  c.schema,
		seq:     c.seq,
		alias:   c.alias,
		root:    emptyGroup(),
		mode:    PaginationNone,
	}
}

// Variant returns the visitor entry point this instance dispatches to.
func (c *Criteria) Variant() Variant { return c.variant }

// Schema returns the schema the criteria is bound to.
func (c *Criteria) Schema() *Schema { return c.schema }

// Root returns the normalized root filter group.
func (c *Criteria) Root() *FilterGroup { return c.root }

// Mode returns the active pagination mode; a set cursor always wins.
func (c *Criteria) Mode() PaginationMode {
	if c.cursor != nil {
		return PaginationCursor
	}
	return c.mode
}

// Alias returns the source alias translators should use: the relation alias
// once joined, otherwise WithAlias or the schema's alias.
func (c *Criteria) Alias() string {
	if c.params != nil {
		return c.params.Alias
	}
	if c.alias != "" {
		return c.alias
	}
	return c.schema.SourceAlias()
}

// JoinParameters returns the parameters resolved when this instance was
// attached by Join.
func (c *Criteria) JoinParameters() (JoinParameters, bool) {
	if c.params == nil {
		return JoinParameters{}, false
	}
	return *c.params, true
}

// Orders returns orders sorted by sequence id.
func (c *Criteria) Orders() []Order {
	out := slices.Clone(c.orders)
	slices.SortStableFunc(out, func(a, b Order) int {
		return cmp.Compare(a.sequenceID, b.sequenceID)
	})
	return out
}

// Joins returns attached joins in insertion order.
func (c *Criteria) Joins() []Join {
	out := make([]Join, 0, len(c.joins))
	for _, j := range c.joins {
		out = append(out, Join{Alias: j.alias, Criteria: j.child, Parameters: j.params, Override: j.override})
	}
	return out
}

// Skip returns the offset, if set.
func (c *Criteria) Skip() (int, bool) {
	if c.skip == nil {
		return 0, false
	}
	return *c.skip, true
}

// Take returns the row cap, if set. It applies in both pagination modes.
func (c *Criteria) Take() (int, bool) {
	if c.take == nil {
		return 0, false
	}
	return *c.take, true
}

// Cursor returns a copy of the keyset state, if set.
func (c *Criteria) Cursor() (Cursor, bool) {
	if c.cursor == nil {
		return Cursor{}, false
	}
	return Cursor{
		Fields:    slices.Clone(c.cursor.Fields),
		Operator:  c.cursor.Operator,
		Direction: c.cursor.Direction,
	}, true
}

// Where replaces the root group with the single filter described by fp.
func (c *Criteria) Where(fp FilterPrimitive) error {
	f, err := c.filter(fp)
	if err != nil {
		return err
	}
	c.root = Normalize(NewFilterGroup(And, f))
	return nil
}

// AndWhere combines the filter with the existing root group under AND.
func (c *Criteria) AndWhere(fp FilterPrimitive) error {
	return c.combine(And, fp)
}

// OrWhere combines the filter with the existing root group under OR.
func (c *Criteria) OrWhere(fp FilterPrimitive) error {
	return c.combine(Or, fp)
}

// WhereGroup replaces the root group with a whole tree. Every leaf is
// validated before anything changes.
func (c *Criteria) WhereGroup(gp GroupPrimitive) error {
	g, err := c.group(gp)
	if err != nil {
		return err
	}
	c.root = Normalize(g)
	return nil
}

func (c *Criteria) combine(op LogicalOperator, fp FilterPrimitive) error {
	f, err := c.filter(fp)
	if err != nil {
		return err
	}
	// A lone filter is combined directly: {OR,[a,b]} rather than
	// {OR,[{AND,[a]},b]}, which normalizes to the same predicate.
	var current FilterItem = c.root
	if c.root.Len() == 1 {
		if only, ok := c.root.items[0].(Filter); ok {
			current = only
		}
	}
	c.root = Normalize(NewFilterGroup(op, current, f))
	return nil
}

func (c *Criteria) filter(fp FilterPrimitive) (Filter, error) {
	if !c.schema.HasField(fp.Field) {
		return Filter{}, unknownField(c.schema.Name, fp.Field)
	}
	return NewFilter(fp.Field, fp.Operator, fp.Value)
}

func (c *Criteria) group(gp GroupPrimitive) (*FilterGroup, error) {
	op := gp.LogicalOperator
	if op == "" {
		op = And
	}
	if !op.Valid() {
		return nil, newError(ErrCodeUnsupportedOperator, "", "logical operator %q must be AND or OR", gp.LogicalOperator)
	}
	items := make([]FilterItem, 0, len(gp.Items))
	for _, item := range gp.Items {
		switch {
		case item.Filter != nil:
			f, err := c.filter(*item.Filter)
			if err != nil {
				return nil, err
			}
			items = append(items, f)
		case item.Group != nil:
			g, err := c.group(*item.Group)
			if err != nil {
				return nil, err
			}
			items = append(items, g)
		}
	}
	return NewFilterGroup(op, items...), nil
}

// Join attaches child under the relation alias. Join takes ownership of
// child. An existing join with the same alias is replaced in place.
func (c *Criteria) Join(alias string, child *Criteria, override *JoinOverride) error {
	rel, ok := c.schema.Relation(alias)
	if !ok {
		e := newError(ErrCodeUnknownRelation, alias, "relation %q is not declared on schema %q", alias, c.schema.Name)
		e.Details = map[string]string{"schema": c.schema.Name}
		return e
	}
	if child == nil || !child.variant.IsJoin() {
		return newError(ErrCodeInvalidJoin, alias, "join %q requires an inner, left or outer join criteria", alias)
	}
	if child.schema.Name != rel.Target {
		return newError(ErrCodeInvalidJoin, alias,
			"join %q targets schema %q, got criteria for %q", alias, rel.Target, child.schema.Name)
	}

	if child == c || child.reaches(c) {
		return newError(ErrCodeInvalidJoin, alias, "join %q would make the criteria its own ancestor", alias)
	}
	if child.params != nil && !c.holds(alias, child) {
		return newError(ErrCodeInvalidJoin, alias, "join %q: criteria is already attached to another parent", alias)
	}

	params, err := resolveJoin(c.schema, c.Alias(), rel, child.schema, override)
	if err != nil {
		return err
	}

	child.params = &params
	child.rebase()
	entry := &joinEntry{alias: alias, child: child, params: params, override: override}
	for i, existing := range c.joins {
		if existing.alias == alias {
			c.joins[i] = entry
			return nil
		}
	}
	c.joins = append(c.joins, entry)
	return nil
}

// holds reports whether child is already attached to c under alias.
func (c *Criteria) holds(alias string, child *Criteria) bool {
	for _, j := range c.joins {
		if j.alias == alias && j.child == child {
			return true
		}
	}
	return false
}

// reaches reports whether target is attached anywhere below c.
func (c *Criteria) reaches(target *Criteria) bool {
	for _, j := range c.joins {
		if j.child == target || j.child.reaches(target) {
			return true
		}
	}
	return false
}

// rebase refreshes ParentAlias of joins already attached below c, since c's
// alias changes when c itself is attached.
func (c *Criteria) rebase() {
	alias := c.Alias()
	for _, j := range c.joins {
		j.params.ParentAlias = alias
		params := j.params
		j.child.params = &params
		j.child.rebase()
	}
}

// OrderBy appends an order on field.
func (c *Criteria) OrderBy(field string, direction Direction, nullsFirst bool) error {
	if !c.schema.HasField(field) {
		return unknownField(c.schema.Name, field)
	}
	o, err := NewOrder(c.seq, direction, field, nullsFirst)
	if err != nil {
		return err
	}
	c.orders = append(c.orders, o)
	return nil
}

// SetSkip sets the offset. Once a cursor is set the cursor stays
// authoritative and the skip is recorded but ignored.
func (c *Criteria) SetSkip(n int) error {
	if n < 0 {
		return newError(ErrCodeInvalidPagination, "skip", "skip must be >= 0, got %d", n)
	}
	c.skip = &n
	if c.cursor == nil {
		c.mode = PaginationOffset
	}
	return nil
}

// SetTake caps the number of rows. It activates offset pagination only when
// no pagination was active; under a cursor it caps the page size.
func (c *Criteria) SetTake(n int) error {
	if n < 0 {
		return newError(ErrCodeInvalidPagination, "take", "take must be >= 0, got %d", n)
	}
	c.take = &n
	if c.mode == PaginationNone {
		c.mode = PaginationOffset
	}
	return nil
}

// SetCursor sets keyset pagination state and makes it active.
func (c *Criteria) SetCursor(fields []CursorField, op Operator, direction Direction) error {
	if len(fields) == 0 {
		return newError(ErrCodeEmptyCursor, "", "cursor requires at least one field")
	}
	for _, f := range fields {
		if !c.schema.HasField(f.Field) {
			return unknownField(c.schema.Name, f.Field)
		}
	}
	if err := validateCursor(fields, op); err != nil {
		return err
	}
	if !direction.Valid() {
		return newError(ErrCodeInvalidCursor, "", "cursor direction %q must be ASC or DESC", direction)
	}
	c.cursor = &Cursor{Fields: slices.Clone(fields), Operator: op, Direction: direction}
	c.mode = PaginationCursor
	return nil
}

// Boundary returns the cursor seek predicate, or nil when no cursor is set.
func (c *Criteria) Boundary() (BoolExpr, error) {
	if c.cursor == nil {
		return nil, nil
	}
	return c.cursor.Boundary()
}
