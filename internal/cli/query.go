package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/harness"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Database string
	SeedFile string
	Count    bool

	// IDGenerator overrides row identifiers for seeded rows (for testing).
	// If nil, the store generates UUIDv7 identifiers.
	IDGenerator store.IDGenerator
}

// QueryResult holds the rows matched by a criteria document.
type QueryResult struct {
	Schema string        `json:"schema"`
	SQL    string        `json:"sql"`
	Count  int64         `json:"count"`
	Rows   []ir.IRObject `json:"rows,omitempty"`
}

// String renders the rows as one canonical JSON object per line.
func (r QueryResult) String() string {
	var b strings.Builder
	for _, row := range r.Rows {
		data, err := ir.MarshalCanonical(row)
		if err != nil {
			data, _ = json.Marshal(row)
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "(%d row(s))", r.Count)
	return b.String()
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <criteria-file>",
		Short: "Run a criteria document against a SQLite database",
		Long: `Run a criteria document against a SQLite database.

Tables for every registered schema (and pivot tables for many-to-many
relations) are created if missing. --seed loads rows from a YAML file
with the same seed/links layout as test scenarios before querying.

Examples:
  criteria query --schema schemas.cue --db app.db adults.yaml
  criteria query --schema schemas.yaml --seed rows.yaml adults.json --count`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", ":memory:", "path to SQLite database")
	cmd.Flags().StringVar(&opts.SeedFile, "seed", "", "YAML file of rows to insert before querying")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print only the number of matching rows")

	return cmd
}

func runQuery(opts *QueryOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.newLogger(cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	reg, err := LoadRegistry(opts.Schema)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	c, err := LoadCriteria(reg, path)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	storeOpts := []store.Option{store.WithLogger(logger)}
	if opts.IDGenerator != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(opts.IDGenerator))
	}
	logger.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database, reg, storeOpts...)
	if err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeDatabase, Message: "opening database", Err: err})
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	if opts.SeedFile != "" {
		seed, err := harness.LoadSeedFile(opts.SeedFile)
		if err != nil {
			return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeDocument, Message: "loading seed file", Err: err})
		}
		if err := harness.Seed(ctx, st, seed.Seed, seed.Links); err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		formatter.VerboseLog("Seeded %d block(s), %d link(s)", len(seed.Seed), len(seed.Links))
	}

	q, err := st.Translate(c)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	result := QueryResult{Schema: c.Schema().Name, SQL: q.SQL}

	if opts.Count {
		n, err := st.Count(ctx, c)
		if err != nil {
			return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeDatabase, Message: "counting rows", Err: err})
		}
		result.Count = n
		if formatter.Format != "json" {
			fmt.Fprintln(formatter.Writer, n)
			return nil
		}
		return formatter.Success(result)
	}

	rows, err := st.Find(ctx, c)
	if err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeDatabase, Message: "running query", Err: err})
	}
	result.Rows = rows
	result.Count = int64(len(rows))
	formatter.VerboseLog("SQL: %s", q.SQL)

	return formatter.Success(result)
}
