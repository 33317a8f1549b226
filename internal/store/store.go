package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/querysql"
)

// driverName is go-sqlite3 with per-connection setup the translated SQL
// depends on: the regexp function and case-sensitive LIKE.
const driverName = "sqlite3_criteria"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("regexp", regexpMatch, true); err != nil {
				return err
			}
			_, err := conn.Exec("PRAGMA case_sensitive_like = ON", nil)
			return err
		},
	})
}

// IDGenerator produces identifiers for rows inserted without one.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDv7 identifiers.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Store runs criteria against a SQLite database shaped by a schema registry.
type Store struct {
	db         *sql.DB
	reg        *criteria.Registry
	ids        IDGenerator
	logger     *slog.Logger
	translator *querysql.Translator
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator sets the generator used for rows inserted without an
// identifier. Default: UUIDv7Generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(s *Store) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// Open creates or opens a SQLite database at path and creates the tables
// reg describes. Use ":memory:" for a private in-memory database.
//
// This function is idempotent - safe to call multiple times on one file.
func Open(path string, reg *criteria.Registry, opts ...Option) (*Store, error) {
	if reg == nil {
		return nil, fmt.Errorf("open store: registry is required")
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, and an in-memory database
	// lives exactly as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	s := &Store{
		db:         db,
		reg:        reg,
		ids:        UUIDv7Generator{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		translator: querysql.NewTranslator(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Registry returns the schemas the store was opened with.
func (s *Store) Registry() *criteria.Registry {
	return s.reg
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// migrate creates one table per schema and one per pivot table. Pivot
// tables that are themselves registered schemas are left to their schema.
// This function is idempotent.
func (s *Store) migrate(ctx context.Context) error {
	pivots := make(map[string]bool)
	for _, schema := range s.reg.Schemas() {
		if err := s.exec(ctx, createTableSQL(schema.Name, schema.Fields, []string{schema.Identifier})); err != nil {
			return fmt.Errorf("create table %s: %w", schema.Name, err)
		}

		for _, rel := range schema.Relations {
			if !rel.IsPivot() || pivots[rel.PivotTable] {
				continue
			}
			if _, registered := s.reg.Get(rel.PivotTable); registered {
				continue
			}
			pivots[rel.PivotTable] = true
			cols := []string{rel.PivotLocal.PivotField, rel.PivotRelation.PivotField}
			if err := s.exec(ctx, createTableSQL(rel.PivotTable, cols, cols)); err != nil {
				return fmt.Errorf("create pivot table %s: %w", rel.PivotTable, err)
			}
		}
	}
	return nil
}

func (s *Store) exec(ctx context.Context, stmt string, args ...any) error {
	s.logger.Debug("exec", "sql", stmt, "params", len(args))
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

func createTableSQL(table string, columns, primaryKey []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
	}
	pk := make([]string, len(primaryKey))
	for i, col := range primaryKey {
		pk[i] = quoteIdent(col)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s, PRIMARY KEY (%s))",
		quoteIdent(table), strings.Join(quoted, ", "), strings.Join(pk, ", "))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
