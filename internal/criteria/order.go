package criteria

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Valid reports whether d is ASC or DESC.
func (d Direction) Valid() bool {
	return d == Asc || d == Desc
}

// Order is a single ordering instruction.
//
// SequenceID is taken from a Sequencer at construction, so translators can
// recover declaration order after orders from several criteria are merged.
type Order struct {
	field      string
	direction  Direction
	nullsFirst bool
	sequenceID int64
}

// NewOrder draws the next id from seq. Field existence is checked by the
// owning Criteria, not here.
func NewOrder(seq Sequencer, direction Direction, field string, nullsFirst bool) (Order, error) {
	if !direction.Valid() {
		return Order{}, newError(ErrCodeInvalidOrder, field, "direction %q must be ASC or DESC", direction)
	}
	return Order{
		field:      field,
		direction:  direction,
		nullsFirst: nullsFirst,
		sequenceID: seq.Next(),
	}, nil
}

func (o Order) Field() string        { return o.field }
func (o Order) Direction() Direction { return o.direction }
func (o Order) NullsFirst() bool     { return o.nullsFirst }
func (o Order) SequenceID() int64    { return o.sequenceID }

// ToPrimitive returns a plain snapshot for serialization.
func (o Order) ToPrimitive() OrderPrimitive {
	return OrderPrimitive{
		Field:      o.field,
		Direction:  o.direction,
		SequenceID: o.sequenceID,
		NullsFirst: o.nullsFirst,
	}
}
