package sqlengine

import (
	"context"
	"errors"
	"iter"
)

type rowsState int

const (
	rowsNotStarted rowsState = iota
	rowsOpen                 // Prepared and bound; zero or more rows read
	rowsExhausted            // Result set fully read
	rowsClosed               // Failed, cancelled, or closed by the caller
)

// Rows is a lazy, forward-only sequence over a query's result rows.
//
// Each call to Next re-enters the connection's worker exactly once. The
// first call prepares and binds the statement and reads the first row;
// later calls read the next row from the same prepared statement. The
// statement is finalized as soon as the sequence is exhausted, fails, or is
// cancelled, so an abandoned but finished Rows holds no native resources.
//
// Rows is not restartable. Once Next has returned false it always returns
// false; create a new Rows with Connection.QueryRows to query again.
//
// Rows is intended for a single consumer goroutine.
type Rows struct {
	conn     *Connection
	stmt     Statement
	bindings []Binding

	state   rowsState
	exec    *execution // Touched only from within worker requests
	columns []string
	row     Row
	err     error
}

// Next advances to the next row, returning false when there are no more
// rows or an error occurred. Check Err after Next returns false.
//
// ctx is checked before re-entering the connection. If it is done, the
// underlying statement is finalized and Err reports the context's error.
func (r *Rows) Next(ctx context.Context) bool {
	if r.state == rowsExhausted || r.state == rowsClosed {
		return false
	}
	if err := ctx.Err(); err != nil {
		r.abort(err)
		return false
	}

	var (
		row  Row
		more bool
	)
	err := r.conn.submit(ctx, "rows_next", func() error {
		if r.exec == nil {
			e, err := r.conn.prepare(r.stmt, r.bindings)
			if err != nil {
				return err
			}
			r.exec = e
			r.columns = e.columnNames()
		}

		var err error
		if more, err = r.exec.nextRow(); err != nil || !more {
			r.conn.finalize(r.exec)
			r.exec = nil
			return err
		}
		row = r.exec.row()
		return nil
	})

	switch {
	case withdrawn(err):
		// Withdrawn before it ran; the execution, if any, is still live.
		r.abort(err)
		return false
	case err != nil:
		r.abort(wrapQuery(r.stmt, err))
		return false
	case !more:
		r.state, r.row = rowsExhausted, nil
		return false
	default:
		r.state, r.row = rowsOpen, row
		return true
	}
}

// Row returns the current row. It is only valid after Next returns true.
func (r *Rows) Row() Row {
	return r.row
}

// Columns returns the result column names. They are available once the
// first call to Next has prepared the statement.
func (r *Rows) Columns() []string {
	return r.columns
}

// Err returns the error, if any, that ended iteration.
func (r *Rows) Err() error {
	return r.err
}

// Close finalizes the underlying statement if it is still live.
// Close is idempotent and safe to call after exhaustion.
func (r *Rows) Close() error {
	if r.state == rowsExhausted || r.state == rowsClosed {
		return nil
	}
	r.state, r.row = rowsClosed, nil
	return r.release()
}

// All returns an iterator over the remaining rows. Iteration stops at the
// first error, which is yielded with a nil Row. The sequence is closed when
// iteration ends, including when the loop body breaks early.
func (r *Rows) All(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		defer r.Close()
		for r.Next(ctx) {
			if !yield(r.Row(), nil) {
				return
			}
		}
		if err := r.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// abort ends iteration with err, finalizing any live execution first.
func (r *Rows) abort(err error) {
	_ = r.release()
	r.state, r.row, r.err = rowsClosed, nil, err
}

// release finalizes the retained execution on the worker. It uses a
// background context: finalization must not be skipped because the
// consumer's context has ended.
func (r *Rows) release() error {
	if r.exec == nil {
		return nil
	}
	err := r.conn.submit(context.Background(), "rows_finalize", func() error {
		r.conn.finalize(r.exec)
		return nil
	})
	// If the connection is closed, Close has already finalized the execution.
	r.exec = nil
	if errors.Is(err, ErrNotOpen) {
		return nil
	}
	return err
}
