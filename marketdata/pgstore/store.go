// Package pgstore loads calibration quotes and index fixings from PostgreSQL.
//
// Expected layout (table name configurable):
//
//	CREATE TABLE quotes (
//	    as_of      date             NOT NULL,
//	    quote_name text             NOT NULL,
//	    field      text             NOT NULL DEFAULT 'MarketValue',
//	    value      double precision NOT NULL
//	);
//
// Fixings are stored in the same table with quote_name equal to the index name.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/meenmo/curvecal/marketdata"
)

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// ErrInvalidTable is returned for table names that are not plain identifiers.
var ErrInvalidTable = errors.New("pgstore: invalid table name")

// Store reads quotes from a single table.
type Store struct {
	db    *sql.DB
	table string
}

// Open connects with the lib/pq driver.
func Open(dsn, table string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	s, err := New(db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection pool.
func New(db *sql.DB, table string) (*Store, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("New: %q: %w", table, ErrInvalidTable)
	}
	return &Store{db: db, table: quoteTable(table)}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() error { return s.db.Close() }

func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// LoadQuotes reads every quote stored for the valuation date.
func (s *Store) LoadQuotes(ctx context.Context, valuationDate time.Time) (*marketdata.ImmutableMarketData, error) {
	q := fmt.Sprintf(`SELECT quote_name, field, value FROM %s WHERE as_of = $1`, s.table)
	rows, err := s.db.QueryContext(ctx, q, valuationDate)
	if err != nil {
		return nil, fmt.Errorf("LoadQuotes: %w", err)
	}
	defer rows.Close()

	values := map[marketdata.QuoteID]float64{}
	for rows.Next() {
		var name, field string
		var v float64
		if err := rows.Scan(&name, &field, &v); err != nil {
			return nil, fmt.Errorf("LoadQuotes: scan: %w", err)
		}
		values[marketdata.QuoteID{Name: name, Field: marketdata.FieldName(field)}] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadQuotes: %w", err)
	}
	return marketdata.NewImmutableMarketData(valuationDate, values), nil
}

// LoadFixings reads MarketValue fixings of one index between from and to inclusive.
func (s *Store) LoadFixings(ctx context.Context, index string, from, to time.Time) (marketdata.TimeSeries, error) {
	q := fmt.Sprintf(`SELECT as_of, value FROM %s WHERE quote_name = $1 AND field = $2 AND as_of BETWEEN $3 AND $4`, s.table)
	rows, err := s.db.QueryContext(ctx, q, index, string(marketdata.MarketValue), from, to)
	if err != nil {
		return marketdata.TimeSeries{}, fmt.Errorf("LoadFixings: %w", err)
	}
	defer rows.Close()

	points := map[time.Time]float64{}
	for rows.Next() {
		var d time.Time
		var v float64
		if err := rows.Scan(&d, &v); err != nil {
			return marketdata.TimeSeries{}, fmt.Errorf("LoadFixings: scan: %w", err)
		}
		points[d] = v
	}
	if err := rows.Err(); err != nil {
		return marketdata.TimeSeries{}, fmt.Errorf("LoadFixings: %w", err)
	}
	return marketdata.NewTimeSeries(points), nil
}
