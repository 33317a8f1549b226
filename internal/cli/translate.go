package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/querysql"
)

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	Output string // output file path
}

// TranslateResult is the translated form of a criteria document.
type TranslateResult struct {
	Schema      string `json:"schema"`
	SQL         string `json:"sql"`
	Params      []any  `json:"params"`
	Pagination  string `json:"pagination"`
	Fingerprint string `json:"fingerprint"`
}

// String renders the result for text output.
func (r TranslateResult) String() string {
	params, _ := json.Marshal(r.Params)
	return fmt.Sprintf("%s\n-- params: %s\n-- fingerprint: %s", r.SQL, params, r.Fingerprint)
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate <criteria-file>",
		Short: "Translate a criteria document to SQLite SQL",
		Long: `Translate a criteria document (.json, .yaml or .cue) to a parameterized
SQLite statement, validating it against the schema registry.

Examples:
  criteria translate --schema schemas.cue adults.yaml
  criteria translate --schema schemas.yaml adults.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the SQL to this file")

	return cmd
}

func runTranslate(opts *TranslateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	reg, err := LoadRegistry(opts.Schema)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	formatter.VerboseLog("Loaded %d schema(s) from %s", len(reg.Names()), opts.Schema)

	c, err := LoadCriteria(reg, path)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	result, err := translateCriteria(c)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(result.SQL+"\n"), 0644); err != nil {
			return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeWriteFailed, Message: "writing output file", Err: err})
		}
		formatter.VerboseLog("Wrote SQL to %s", opts.Output)
	}

	return formatter.Success(result)
}

func translateCriteria(c *criteria.Criteria) (TranslateResult, error) {
	q, err := querysql.NewTranslator().Translate(c)
	if err != nil {
		return TranslateResult{}, err
	}
	fp, err := c.Fingerprint()
	if err != nil {
		return TranslateResult{}, err
	}

	params := q.Params
	if params == nil {
		params = []any{}
	}
	return TranslateResult{
		Schema:      c.Schema().Name,
		SQL:         q.SQL,
		Params:      params,
		Pagination:  string(c.Mode()),
		Fingerprint: fp,
	}, nil
}
