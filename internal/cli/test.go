package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // rewrite golden snapshots instead of comparing
	Filter string // glob over scenario file names, without extension
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Cases  int      `json:"cases"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult summarizes a test run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run every scenario in a directory against a fresh in-memory database.

A scenario is a YAML file with a top-level "cases" key; other YAML files
(schemas, seed files) are skipped. When golden/<file>.golden exists next
to a scenario, the run snapshot must match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing directory, bad filter)

Examples:
  criteria test ./scenarios
  criteria test ./scenarios --filter "join*"
  criteria test ./scenarios --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden snapshots")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenario files matching this glob")

	return cmd
}

// testRun carries the state of one invocation of the test command.
type testRun struct {
	opts      *TestOptions
	formatter *OutputFormatter
	ctx       context.Context
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "listing scenarios", err)
	}

	run := &testRun{
		opts:      opts,
		formatter: newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr()),
		ctx:       cmd.Context(),
	}
	if run.ctx == nil {
		run.ctx = context.Background()
	}

	result := TestResult{Scenarios: []ScenarioResult{}, Total: len(files)}
	for _, file := range files {
		sr := run.scenario(file)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}

	return run.report(result)
}

// findScenarioFiles lists the scenario files directly inside dir, sorted
// by name.
func findScenarioFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(entry.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !ok {
				continue
			}
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if hasCasesKey(data) {
			files = append(files, path)
		}
	}
	return files, nil
}

func hasCasesKey(data []byte) bool {
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(line, []byte("cases:")) {
			return true
		}
	}
	return false
}

// scenario runs one file and prints its line in text mode.
func (r *testRun) scenario(file string) ScenarioResult {
	sr := r.execute(file)
	if r.opts.Format == "json" {
		return sr
	}

	w := r.formatter.Writer
	if sr.Pass {
		fmt.Fprintf(w, "✓ %s (%d case(s))\n", sr.Name, sr.Cases)
		return sr
	}
	fmt.Fprintf(w, "✗ %s\n", sr.Name)
	for _, msg := range sr.Errors {
		fmt.Fprintf(w, "  %s\n", msg)
	}
	return sr
}

func (r *testRun) execute(file string) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file)}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return sr
	}
	sr.Name = scenario.Name

	logger := r.opts.newLogger(r.formatter.GetErrWriter())
	result, err := harness.Run(r.ctx, scenario, harness.WithLogger(logger))
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Cases = len(result.Cases)

	if err := r.checkGolden(file, scenario.Name, result); err != nil {
		result.AddError(err.Error())
	}

	sr.Pass = result.Pass
	if !sr.Pass {
		sr.Errors = result.Errors
	}
	return sr
}

// checkGolden compares (or with --update, rewrites) the snapshot stored
// at golden/<file>.golden. A missing golden file is not an error.
func (r *testRun) checkGolden(file, name string, result *harness.Result) error {
	snapshot, err := harness.Snapshot(name, result)
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	path := goldenFilePath(file)
	if r.opts.Update {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, snapshot, 0644); err != nil {
			return fmt.Errorf("failed to update golden file: %w", err)
		}
		r.formatter.VerboseLog("Updated %s", path)
		return nil
	}

	golden, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !bytes.Equal(golden, snapshot) {
		return fmt.Errorf("snapshot does not match golden file %s (run with --update to regenerate)", path)
	}
	return nil
}

// goldenFilePath maps dir/name.yaml to dir/golden/name.golden.
func goldenFilePath(file string) string {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return filepath.Join(filepath.Dir(file), "golden", base+".golden")
}

func (r *testRun) report(result TestResult) error {
	f := r.formatter
	var failure error
	if result.Failed > 0 {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	if r.opts.Format == "json" {
		resp := CLIResponse{Status: status(failure == nil), Data: result}
		if failure != nil {
			resp.Error = &CLIError{Code: "E_TEST_FAILED", Message: failure.Error()}
		}
		if err := f.encode(resp); err != nil {
			return err
		}
		return failure
	}

	if result.Total == 0 {
		fmt.Fprintln(f.Writer, "No scenarios found.")
		return nil
	}

	fmt.Fprintf(f.Writer, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if failure == nil {
		fmt.Fprintln(f.Writer, "✓ All scenarios passed")
	}
	return failure
}
