package sqlengine

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

var errFinalized = errors.New("statement already finalized")

// execution owns one prepared statement from prepare until finalize.
//
// An execution is only touched from its Connection's worker goroutine.
// It must be finalized on every exit path; Connection tracks live
// executions so that Close can finalize any a caller abandoned.
type execution struct {
	stmt    Statement
	native  driver.Stmt
	rows    driver.Rows
	columns []string
	values  []driver.Value
	hasRow  bool
	done    bool
}

// prepare compiles stmt against conn and attaches bindings.
//
// When a result column has a declared type the driver decodes (see
// decodedTypes), the statement is prepared again as a text view so the
// stored value reaches textAt unchanged.
func prepare(conn *sqlite3.SQLiteConn, stmt Statement, bindings []Binding) (*execution, error) {
	if strings.TrimSpace(stmt.SQL()) == "" {
		return nil, newError(CodePrepareFailed, stmt, errors.New("empty statement"))
	}

	native, rows, err := query(conn, stmt.SQL(), bindings)
	if err != nil {
		return nil, newError(CodePrepareFailed, stmt, err)
	}
	columns := rows.Columns()

	if view, ok := textView(stmt.SQL(), columns, declTypes(rows)); ok {
		// Statements that cannot be a CTE body (DML with RETURNING) keep
		// their original form; nextRow rejects any decoded value they yield.
		if viewNative, viewRows, err := query(conn, view, bindings); err == nil {
			_ = rows.Close()
			_ = native.Close()
			native, rows = viewNative, viewRows
		}
	}

	return &execution{
		stmt:    stmt,
		native:  native,
		rows:    rows,
		columns: columns,
		values:  make([]driver.Value, len(columns)),
	}, nil
}

// query prepares sql and binds its parameters without stepping.
func query(conn *sqlite3.SQLiteConn, sql string, bindings []Binding) (driver.Stmt, driver.Rows, error) {
	native, err := conn.Prepare(sql)
	if err != nil {
		return nil, nil, err
	}

	querier, ok := native.(driver.StmtQueryContext)
	if !ok {
		native.Close()
		return nil, nil, fmt.Errorf("driver statement %T cannot be queried", native)
	}

	// The context only governs interruption of in-flight steps, which this
	// package never does.
	rows, err := querier.QueryContext(context.Background(), bindArgs(bindings, native.NumInput()))
	if err != nil {
		native.Close()
		return nil, nil, err
	}
	return native, rows, nil
}

// decodedTypes are the lowercased declared column types for which the
// driver returns time.Time or bool instead of the stored value.
var decodedTypes = map[string]bool{
	"date":      true,
	"datetime":  true,
	"timestamp": true,
	"boolean":   true,
}

// textViewName names the CTE a text view selects from.
const textViewName = "collected_text_view"

func declTypes(rows driver.Rows) []string {
	if r, ok := rows.(*sqlite3.SQLiteRows); ok {
		return r.DeclTypes()
	}
	return nil
}

// textView rewrites sql so that every column whose declared type the driver
// decodes is cast to TEXT. A CAST expression has no declared type, and NULL
// stays NULL. Result column names are preserved.
//
//	WITH collected_text_view(c0, c1) AS (
//	SELECT id, created FROM event
//	) SELECT c0 AS "id", CAST(c1 AS TEXT) AS "created" FROM collected_text_view
//
// It reports false when no column needs the view.
func textView(sql string, columns, types []string) (string, bool) {
	if len(columns) == 0 || len(types) != len(columns) {
		return "", false
	}
	if !slices.ContainsFunc(types, func(t string) bool { return decodedTypes[t] }) {
		return "", false
	}

	var b strings.Builder
	b.WriteString("WITH " + textViewName + "(")
	for i := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "c%d", i)
	}
	// The body sits on its own lines so a trailing line comment cannot
	// swallow the closing parenthesis.
	b.WriteString(") AS (\n")
	b.WriteString(strings.TrimRight(sql, "; \t\r\n"))
	b.WriteString("\n) SELECT ")
	for i, name := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		if decodedTypes[types[i]] {
			fmt.Fprintf(&b, "CAST(c%d AS TEXT)", i)
		} else {
			fmt.Fprintf(&b, "c%d", i)
		}
		b.WriteString(" AS " + quoteIdent(name))
	}
	b.WriteString(" FROM " + textViewName)
	return b.String(), true
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// singleStep advances once and requires the statement to be complete.
func (e *execution) singleStep() error {
	more, err := e.nextRow()
	if err != nil {
		return err
	}
	if more {
		return newError(CodeExecuteFailed, e.stmt, errors.New("statement returned a row; use a query"))
	}
	return nil
}

// nextRow advances to the next row. It returns false, with no error, once
// the result set is exhausted.
func (e *execution) nextRow() (bool, error) {
	if e.native == nil {
		return false, newError(CodeExecuteFailed, e.stmt, errFinalized)
	}
	if e.done {
		return false, nil
	}

	switch err := e.rows.Next(e.values); {
	case err == nil:
		if i := decodedColumn(e.values); i >= 0 {
			e.hasRow, e.done = false, true
			return false, newError(CodeExecuteFailed, e.stmt,
				fmt.Errorf("column %q: the driver decodes its declared type, so the stored value cannot be read as text", e.columns[i]))
		}
		e.hasRow = true
		return true, nil
	case errors.Is(err, io.EOF):
		e.hasRow, e.done = false, true
		return false, nil
	default:
		e.hasRow, e.done = false, true
		return false, newError(CodeExecuteFailed, e.stmt, err)
	}
}

// decodedColumn returns the index of the first value the driver decoded
// from its declared type, or -1.
func decodedColumn(values []driver.Value) int {
	for i, v := range values {
		switch v.(type) {
		case time.Time, bool:
			return i
		}
	}
	return -1
}

// columnNames returns the result column names reported by the engine.
func (e *execution) columnNames() []string {
	out := make([]string, len(e.columns))
	copy(out, e.columns)
	return out
}

// int32At returns column i of the current row as an integer.
func (e *execution) int32At(i int) int32 {
	if !e.hasRow || i < 0 || i >= len(e.values) {
		return 0
	}
	return int32Of(e.values[i])
}

// textAt returns column i of the current row as text, or nil for NULL.
func (e *execution) textAt(i int) *string {
	if !e.hasRow || i < 0 || i >= len(e.values) {
		return nil
	}
	return textOf(e.values[i])
}

// row returns every column of the current row as text.
func (e *execution) row() Row {
	r := make(Row, len(e.values))
	for i := range e.values {
		r[i] = e.textAt(i)
	}
	return r
}

// finalize releases the native statement. It is safe to call repeatedly.
func (e *execution) finalize() error {
	if e.native == nil {
		return nil
	}
	// Resetting a statement whose last step failed reports that failure
	// again; it has already been surfaced by nextRow.
	_ = e.rows.Close()
	err := e.native.Close()
	e.native, e.rows, e.hasRow = nil, nil, false
	return err
}
