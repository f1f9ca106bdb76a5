package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"multilookup/api/internal/fetch"
)

// PostgresStore serves record collections stored as tables. A collection
// table has an identifier column named <collection>id, a statecode column and
// any number of display columns.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RetrieveMultiple returns the active records of q.Collection.
func (s *PostgresStore) RetrieveMultiple(ctx context.Context, q fetch.Query) ([]fetch.Record, error) {
	rows, err := s.db.QueryContext(ctx, activeRecordsSQL(q), fetch.ActiveStateCode)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	defer rows.Close()

	records := make([]fetch.Record, 0)
	for rows.Next() {
		var record fetch.Record
		if err := rows.Scan(&record.ID, &record.Name); err != nil {
			return nil, fmt.Errorf("scan %s record: %w", q.Collection, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s records: %w", q.Collection, err)
	}
	return records, nil
}

func activeRecordsSQL(q fetch.Query) string {
	table := pgx.Identifier{q.Collection}.Sanitize()
	idColumn := pgx.Identifier{q.IDColumn()}.Sanitize()
	displayColumn := pgx.Identifier{q.DisplayColumn}.Sanitize()

	query := fmt.Sprintf(
		`SELECT %s::text, COALESCE(%s::text, '') FROM %s WHERE statecode = $1`,
		idColumn, displayColumn, table,
	)
	if q.SortColumn != "" {
		query += fmt.Sprintf(` ORDER BY %s ASC`, pgx.Identifier{q.SortColumn}.Sanitize())
	}
	return query
}
