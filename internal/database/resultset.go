package database

import (
	"database/sql"
	"time"
)

// Row maps column names to values
type Row map[string]any

// ResultSet holds every row returned by one execution
type ResultSet struct {
	// Columns in the order the data source returned them
	Columns []string

	Rows []Row

	// Duration covers execution and scanning
	Duration time.Duration
}

// Len returns the number of rows
func (rs *ResultSet) Len() int {
	return len(rs.Rows)
}

// Values returns row i as a slice ordered like Columns
func (rs *ResultSet) Values(i int) []any {
	row := rs.Rows[i]
	out := make([]any, len(rs.Columns))
	for j, col := range rs.Columns {
		out[j] = row[col]
	}
	return out
}

// Column returns the values of one column across all rows
func (rs *ResultSet) Column(name string) []any {
	out := make([]any, len(rs.Rows))
	for i, row := range rs.Rows {
		out[i] = row[name]
	}
	return out
}

// scanResultSet reads rows to completion
func scanResultSet(rows *sql.Rows) (*ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Columns: cols, Rows: []Row{}}
	values := make([]any, len(cols))
	valuePtrs := make([]any, len(cols))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			val := values[i]
			// Drivers hand back text columns as []byte; copy out of the
			// driver's buffer and expose them as strings
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[col] = val
		}
		rs.Rows = append(rs.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}
