package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/roach88/criteria/internal/compiler"
	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/store"
	"github.com/roach88/criteria/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs cases against one seeded store with a deterministic order sequence.
type Harness struct {
	store  *store.Store
	reg    *criteria.Registry
	seq    *testutil.DeterministicSequence
	logger *slog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the harness logger. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
// 1. Load the schema registry
// 2. Create the store and seed rows and links
// 3. Run each case and evaluate its expectations
//
// An error is returned only when the scenario itself cannot be set up;
// failed expectations are reported through Result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		seq:    testutil.NewDeterministicSequence(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	reg, err := loadRegistry(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}
	h.reg = reg

	st, err := store.Open(":memory:", reg,
		store.WithLogger(h.logger),
		store.WithIDGenerator(testutil.NewSequentialIDGenerator()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	h.store = st

	if err := Seed(ctx, st, scenario.Seed, scenario.Links); err != nil {
		return nil, fmt.Errorf("failed to seed: %w", err)
	}
	h.logger.Debug("seeded store", "scenario", scenario.Name, "blocks", len(scenario.Seed), "links", len(scenario.Links))

	result := NewResult()
	for _, c := range scenario.Cases {
		cr := h.executeCase(ctx, c)
		for _, msg := range EvaluateExpect(c, &cr) {
			result.AddError(fmt.Sprintf("%s: %s", c.Name, msg))
			cr.Pass = false
		}
		result.Cases = append(result.Cases, cr)

		h.logger.Info("case completed",
			"scenario", scenario.Name,
			"case", c.Name,
			"pass", cr.Pass,
			"rows", len(cr.IDs),
		)
	}

	return result, nil
}

func loadRegistry(s *Scenario) (*criteria.Registry, error) {
	if len(s.InlineSchemas) > 0 {
		return criteria.NewRegistry(s.InlineSchemas...)
	}
	return compiler.LoadSchemas(s.Schemas)
}

// Seed inserts rows and then pivot links into st, in declaration order.
func Seed(ctx context.Context, st *store.Store, seed []SeedBlock, links []LinkStep) error {
	for i, block := range seed {
		for j, raw := range block.Rows {
			row, err := convertRow(raw)
			if err != nil {
				return fmt.Errorf("seed[%d].rows[%d]: %w", i, j, err)
			}
			if _, err := st.Insert(ctx, block.Schema, row); err != nil {
				return fmt.Errorf("seed[%d].rows[%d]: %w", i, j, err)
			}
		}
	}

	for i, link := range links {
		local, err := ir.FromNative(link.Local)
		if err != nil {
			return fmt.Errorf("links[%d].local: %w", i, err)
		}
		target, err := ir.FromNative(link.Target)
		if err != nil {
			return fmt.Errorf("links[%d].target: %w", i, err)
		}
		if err := st.Link(ctx, link.Schema, link.Relation, local, target); err != nil {
			return fmt.Errorf("links[%d]: %w", i, err)
		}
	}
	return nil
}

// executeCase builds the case's criteria and runs it. Build and run errors
// are recorded on the result, not returned.
func (h *Harness) executeCase(ctx context.Context, c Case) CaseResult {
	cr := CaseResult{Name: c.Name, Pass: true}

	crit, err := h.buildCriteria(c)
	if err != nil {
		cr.Error = errorLabel(err)
		return cr
	}

	q, err := h.store.Translate(crit)
	if err != nil {
		cr.Error = errorLabel(err)
		return cr
	}
	cr.SQL = q.SQL
	cr.Params = q.Params

	rows, err := h.store.Find(ctx, crit)
	if err != nil {
		cr.Error = errorLabel(err)
		return cr
	}
	cr.Rows = rows
	cr.IDs = make([]ir.IRValue, len(rows))
	for i, row := range rows {
		cr.IDs[i] = row[crit.Schema().Identifier]
	}
	return cr
}

func (h *Harness) buildCriteria(c Case) (*criteria.Criteria, error) {
	var (
		doc criteria.Primitive
		err error
	)
	if c.HasInlineCriteria() {
		data, merr := yaml.Marshal(&c.Criteria)
		if merr != nil {
			return nil, fmt.Errorf("encode criteria: %w", merr)
		}
		doc, err = compiler.DecodeCriteria(data, compiler.FormatYAML)
	} else {
		doc, err = compiler.LoadCriteriaFile(c.CriteriaFile)
	}
	if err != nil {
		return nil, err
	}
	return criteria.Build(h.reg, doc, criteria.WithSequence(h.seq))
}

// errorLabel returns the criteria error code when err carries one, else
// the error text.
func errorLabel(err error) string {
	if code := criteria.CodeOf(err); code != "" {
		return string(code)
	}
	return err.Error()
}

// convertRow converts a YAML-parsed row into an IRObject.
func convertRow(raw map[string]any) (ir.IRObject, error) {
	row := make(ir.IRObject, len(raw))
	for key, val := range raw {
		v, err := ir.FromNative(val)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		row[key] = v
	}
	return row, nil
}
