package harness

import (
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/criteria/internal/ir"
)

// Snapshot renders a result as canonical JSON: the scenario name plus, per
// case, its SQL, parameters, matched identifiers and error.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	cases := make(ir.IRArray, len(result.Cases))
	for i, cr := range result.Cases {
		entry := ir.IRObject{"name": ir.IRString(cr.Name)}
		if cr.SQL != "" {
			entry["sql"] = ir.IRString(cr.SQL)
		}
		params := make(ir.IRArray, len(cr.Params))
		for j, p := range cr.Params {
			v, err := ir.FromNative(p)
			if err != nil {
				return nil, fmt.Errorf("case %s param %d: %w", cr.Name, j, err)
			}
			params[j] = v
		}
		entry["params"] = params
		entry["ids"] = ir.IRArray(append([]ir.IRValue{}, cr.IDs...))
		if cr.Error != "" {
			entry["error"] = ir.IRString(cr.Error)
		}
		cases[i] = entry
	}

	return ir.MarshalCanonical(ir.IRObject{
		"scenario_name": ir.IRString(scenarioName),
		"cases":         cases,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}

	snapshot, err := Snapshot(scenario.Name, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)

	return result, nil
}
