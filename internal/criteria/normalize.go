package criteria

// Normalize returns the canonical form of g.
//
// Bottom-up, per group:
//   - an empty group becomes {AND, []}
//   - empty children are dropped
//   - a child with the same operator is spliced into the parent
//   - a single remaining child group replaces the parent, keeping its own operator
//   - a single remaining filter is wrapped under the parent's operator
//
// Normalize is pure and idempotent. Sub-groups shared by pointer are
// normalized once per call.
func Normalize(g *FilterGroup) *FilterGroup {
	n := &normalizer{memo: make(map[*FilterGroup]*FilterGroup)}
	return n.normalize(g)
}

type normalizer struct {
	memo map[*FilterGroup]*FilterGroup
}

func (n *normalizer) normalize(g *FilterGroup) *FilterGroup {
	if g == nil || len(g.items) == 0 {
		return emptyGroup()
	}
	if done, ok := n.memo[g]; ok {
		return done
	}

	items := make([]FilterItem, 0, len(g.items))
	for _, item := range g.items {
		switch it := item.(type) {
		case Filter:
			items = append(items, it)
		case *FilterGroup:
			child := n.normalize(it)
			switch {
			case child.IsEmpty():
			case child.operator == g.operator:
				items = append(items, child.items...)
			default:
				items = append(items, child)
			}
		}
	}

	var out *FilterGroup
	switch {
	case len(items) == 0:
		out = emptyGroup()
	case len(items) == 1:
		if group, ok := items[0].(*FilterGroup); ok {
			out = group
		} else {
			out = &FilterGroup{operator: g.operator, items: items}
		}
	default:
		out = &FilterGroup{operator: g.operator, items: items}
	}

	n.memo[g] = out
	return out
}
