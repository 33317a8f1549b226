package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/compiler"
	"github.com/roach88/criteria/internal/criteria"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool // treat portability warnings as failures
}

// ValidationResult holds validation results for a registry and any
// criteria documents checked against it.
type ValidationResult struct {
	Valid     bool                    `json:"valid"`
	Schemas   []string                `json:"schemas"`
	Cycles    []compiler.CycleWarning `json:"cycles"`
	Documents []DocumentResult        `json:"documents,omitempty"`
}

// DocumentResult is the validation outcome of one criteria document.
type DocumentResult struct {
	Path     string    `json:"path"`
	Valid    bool      `json:"valid"`
	Portable bool      `json:"portable"`
	Warnings []string  `json:"warnings,omitempty"`
	Error    *CLIError `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [criteria-file...]",
		Short: "Validate schemas and criteria documents",
		Long: `Validate the schema registry and, optionally, criteria documents against it.

Reports relation cycles in the registry and portability warnings for
criteria that use backend-specific features (outer joins, regex, set,
array and JSON operators, cursor/order mismatches).

Exit codes:
  0 - Everything valid
  1 - A document failed to build (or is non-portable with --strict)
  2 - Command error (schema missing or not compilable)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on portability warnings")

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	reg, err := LoadRegistry(opts.Schema)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	result := ValidationResult{
		Valid:   true,
		Schemas: reg.Names(),
		Cycles:  compiler.AnalyzeRelationCycles(reg),
	}
	formatter.VerboseLog("Loaded %d schema(s), %d relation cycle(s)", len(result.Schemas), len(result.Cycles))

	for _, path := range paths {
		doc := validateDocument(reg, path)
		if !doc.Valid || (opts.Strict && !doc.Portable) {
			result.Valid = false
		}
		result.Documents = append(result.Documents, doc)
	}

	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{Status: status(result.Valid), Data: result}); err != nil {
			return err
		}
	} else {
		writeValidationText(formatter, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func validateDocument(reg *criteria.Registry, path string) DocumentResult {
	c, err := LoadCriteria(reg, path)
	if err != nil {
		code, details := errorCode(err)
		return DocumentResult{
			Path:  path,
			Error: &CLIError{Code: code, Message: err.Error(), Details: details},
		}
	}

	report := criteria.Portability(c)
	return DocumentResult{
		Path:     path,
		Valid:    true,
		Portable: report.IsPortable,
		Warnings: report.Warnings,
	}
}

func writeValidationText(f *OutputFormatter, result ValidationResult) {
	w := f.Writer
	fmt.Fprintf(w, "Schemas: %s\n", strings.Join(result.Schemas, ", "))
	for _, c := range result.Cycles {
		fmt.Fprintf(w, "  [%s] %s\n", c.Level, c.Message)
	}

	for _, doc := range result.Documents {
		switch {
		case doc.Error != nil:
			fmt.Fprintf(w, "✗ %s\n  %s: %s\n", doc.Path, doc.Error.Code, doc.Error.Message)
		case doc.Portable:
			fmt.Fprintf(w, "✓ %s\n", doc.Path)
		default:
			fmt.Fprintf(w, "✓ %s (not portable)\n", doc.Path)
			for _, warning := range doc.Warnings {
				fmt.Fprintf(w, "  warning: %s\n", warning)
			}
		}
	}

	if result.Valid {
		fmt.Fprintln(w, "✓ All valid")
	} else {
		fmt.Fprintln(w, "✗ Validation failed")
	}
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
