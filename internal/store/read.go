package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/querysql"
)

// Translate returns the SQL the store would run for c.
func (s *Store) Translate(c *criteria.Criteria) (querysql.Query, error) {
	return s.translator.Translate(c)
}

// Find runs c and returns the matching root rows in translator order.
func (s *Store) Find(ctx context.Context, c *criteria.Criteria) ([]ir.IRObject, error) {
	q, err := s.translator.Translate(c)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	s.logger.Debug("find", "schema", c.Schema().Name, "sql", q.SQL, "params", len(q.Params))

	rows, err := s.db.QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.Schema().Name, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// FindIDs runs c and returns only the identifier of each matching row.
func (s *Store) FindIDs(ctx context.Context, c *criteria.Criteria) ([]ir.IRValue, error) {
	rows, err := s.Find(ctx, c)
	if err != nil {
		return nil, err
	}
	ids := make([]ir.IRValue, len(rows))
	for i, row := range rows {
		ids[i] = row[c.Schema().Identifier]
	}
	return ids, nil
}

// Count returns the number of rows c matches, pagination included.
func (s *Store) Count(ctx context.Context, c *criteria.Criteria) (int64, error) {
	q, err := s.translator.Translate(c)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}

	var n int64
	stmt := "SELECT COUNT(*) FROM (" + q.SQL + ")"
	if err := s.db.QueryRowContext(ctx, stmt, q.Params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.Schema().Name, err)
	}
	return n, nil
}

func scanRows(rows *sql.Rows) ([]ir.IRObject, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := []ir.IRObject{}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(ir.IRObject, len(cols))
		for i, col := range cols {
			v, err := decodeValue(raw[i])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col, err)
			}
			row[col] = v
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}
