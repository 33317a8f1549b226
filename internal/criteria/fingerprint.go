package criteria

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/criteria/internal/ir"
)

// Fingerprint returns a content hash of the whole tree. Sequence ids are
// left out, so two trees built the same way fingerprint identically even when
// their orders were created at different times.
func (c *Criteria) Fingerprint() (string, error) {
	p := c.ToPrimitive()
	stripSequenceIDs(&p)

	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("fingerprint criteria: %w", err)
	}
	v, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return "", fmt.Errorf("fingerprint criteria: %w", err)
	}
	return ir.Fingerprint(ir.DomainCriteria, v)
}

func stripSequenceIDs(p *Primitive) {
	for i := range p.OrderBy {
		p.OrderBy[i].SequenceID = 0
	}
	for i := range p.Joins {
		stripSequenceIDs(&p.Joins[i].Criteria)
	}
}
