package ui

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/willfong/claimsql/internal/database"
)

// Result output formats
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
)

// RenderResult writes rs to w in the given format.
func RenderResult(w io.Writer, rs *database.ResultSet, format string) error {
	switch format {
	case FormatTable, "":
		return renderTable(w, rs)
	case FormatJSON:
		return renderJSON(w, rs)
	case FormatCSV:
		return renderCSV(w, rs)
	case FormatMarkdown, "markdown":
		return renderMarkdown(w, rs)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func newTable(w io.Writer, cols []string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)
	return t
}

func appendRows(t table.Writer, rs *database.ResultSet) {
	for i := range rs.Rows {
		values := rs.Values(i)
		row := make(table.Row, len(values))
		for j, v := range values {
			row[j] = FormatValue(v)
		}
		t.AppendRow(row)
	}
}

func renderTable(w io.Writer, rs *database.ResultSet) error {
	if rs.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := newTable(w, rs.Columns)
	appendRows(t, rs)
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", rs.Len())
	return nil
}

func renderMarkdown(w io.Writer, rs *database.ResultSet) error {
	if rs.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := newTable(w, rs.Columns)
	appendRows(t, rs)
	t.RenderMarkdown()
	return nil
}

func renderJSON(w io.Writer, rs *database.ResultSet) error {
	rows := rs.Rows
	if rows == nil {
		rows = []database.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func renderCSV(w io.Writer, rs *database.ResultSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rs.Columns); err != nil {
		return err
	}
	record := make([]string, len(rs.Columns))
	for i := range rs.Rows {
		for j, v := range rs.Values(i) {
			record[j] = FormatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderTable writes a plain light-style table of strings.
func RenderTable(w io.Writer, header []string, rows [][]string) {
	t := newTable(w, header)
	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		t.AppendRow(row)
	}
	t.Render()
}

// FormatValue renders a scanned column value for display. NULL prints as
// NULL, floats never use exponent notation and midnight UTC timestamps
// print as dates.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		if x.Location() == time.UTC && x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}
