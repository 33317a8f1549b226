package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	Schema    string // schema file or CUE directory
	ConfigDir string // directory searched for criteria.yaml
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the criteria CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "criteria",
		Short: "Build, translate and run backend-agnostic query criteria",
		Long: `Criteria describes queries as schema-checked trees of filters, orders,
joins and pagination, independent of any storage backend.

This tool validates schemas and criteria documents, translates them to
SQLite SQL, runs them against a database, and executes conformance
scenarios.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfig(cmd, opts); err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Schema, "schema", "s", "", "schema file (.cue, .yaml, .json) or CUE directory")
	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config", "", "directory containing criteria.yaml")

	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// applyConfig fills global options from criteria.yaml and CRITERIA_* env
// vars. Flags given on the command line win.
func applyConfig(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := config.Load(opts.ConfigDir)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("schema") && cfg.Schema != "" {
		opts.Schema = cfg.Schema
	}
	if !flags.Changed("format") && cfg.Format != "" {
		opts.Format = cfg.Format
	}
	if !flags.Changed("verbose") && cfg.Verbose {
		opts.Verbose = true
	}
	if f := flags.Lookup("db"); f != nil && !f.Changed && cfg.Database != "" {
		if err := f.Value.Set(cfg.Database); err != nil {
			return fmt.Errorf("apply database from config: %w", err)
		}
	}
	return nil
}

// newLogger returns a text logger writing to w, at debug level when
// verbose output is enabled.
func (o *RootOptions) newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
