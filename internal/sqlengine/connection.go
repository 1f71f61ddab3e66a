package sqlengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// memoryDSN opens a private in-memory database.
const memoryDSN = ":memory:"

// Output is the fully drained result of a query.
type Output struct {
	// Columns are the result column names in engine order.
	Columns []string `json:"columns"`

	// Rows are the result rows in engine iteration order.
	Rows []Row `json:"rows"`
}

// Connection is the sole owner of one native SQLite handle.
//
// All access to the handle is serialized through a per-connection worker
// goroutine: operations issued from any number of goroutines run one at a
// time, in the order they were issued.
//
// Thread-safety model:
//   - All exported methods: safe from any goroutine
//   - Native handle and prepared statements: worker goroutine only
//
// A Connection is created closed. Open must be called before use, and Close
// must be called to release the native handle and stop the worker; skipping
// Close leaks both.
type Connection struct {
	id     string
	store  DatabaseStore
	logger *slog.Logger

	// lifecycle serializes Open and Close, and guards queue and stopped.
	lifecycle sync.Mutex
	queue     *requestQueue // nil while closed
	stopped   chan struct{} // closed when the current worker exits

	// Worker-owned state.
	conn *sqlite3.SQLiteConn
	live map[*execution]struct{}
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger used for connection events.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Connection) {
		c.logger = l
	}
}

// WithID overrides the connection's log correlation id.
// Default: a fresh UUIDv7.
func WithID(id string) Option {
	return func(c *Connection) {
		c.id = id
	}
}

// New creates a closed Connection bound to store.
func New(store DatabaseStore, opts ...Option) *Connection {
	c := &Connection{
		id:     uuid.Must(uuid.NewV7()).String(),
		store:  store,
		logger: slog.Default(),
		live:   make(map[*execution]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("conn", c.id)
	return c
}

// ID returns the connection's log correlation id.
func (c *Connection) ID() string {
	return c.id
}

// Store returns the DatabaseStore the connection was created with.
func (c *Connection) Store() DatabaseStore {
	return c.store
}

// Open starts the worker and opens the native handle.
//
// For a Memory store, a fresh empty database is opened. For a Deserialize
// store, the import image is copied into an engine-owned buffer which then
// backs the main database, and the database is marked read-only. A malformed
// image fails with an OPEN_FAILED error.
//
// Open on an open connection returns ErrAlreadyOpen. A connection that has
// been closed may be opened again.
func (c *Connection) Open(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.queue != nil {
		return ErrAlreadyOpen
	}

	q, stopped := newRequestQueue(), make(chan struct{})
	go c.run(q, stopped)

	err := c.submitTo(ctx, q, "open", func() error {
		err := c.openNative()
		if err != nil {
			q.Close() // Drains anything queued behind us with ErrNotOpen
		}
		return err
	})
	if err != nil {
		q.Close() // Covers an open request withdrawn by ctx before it ran
		<-stopped
		c.logger.Warn("open failed", "store", c.store.String(), "error", err)
		return err
	}

	c.queue, c.stopped = q, stopped
	c.logger.Info("connection opened", "store", c.store.String())
	return nil
}

// Close finalizes any live statements, releases the native handle, and stops
// the worker. Requests queued ahead of Close still run; later ones fail with
// ErrNotOpen. Close on a closed connection is a no-op.
func (c *Connection) Close() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	q, stopped := c.queue, c.stopped
	if q == nil {
		return nil
	}

	err := c.submitTo(context.Background(), q, "close", func() error {
		defer q.Close()
		return c.closeNative()
	})
	<-stopped
	c.queue, c.stopped = nil, nil

	if err != nil {
		c.logger.Warn("close failed", "error", err)
		return err
	}
	c.logger.Info("connection closed")
	return nil
}

// Execute runs a statement that produces no rows.
//
// The statement is prepared, bound, and stepped exactly once; the step must
// complete the statement. A row-producing statement is an EXECUTE_FAILED
// error.
func (c *Connection) Execute(ctx context.Context, stmt Statement, bindings ...Binding) error {
	return c.submit(ctx, "execute", func() error {
		return c.withExecution(stmt, bindings, func(e *execution) error {
			return e.singleStep()
		})
	})
}

// QueryInt32 returns column 0 of the first result row as an integer.
//
// When the query yields no row, QueryInt32 returns 0 and no error.
func (c *Connection) QueryInt32(ctx context.Context, stmt Statement, bindings ...Binding) (int32, error) {
	var v int32
	err := c.submit(ctx, "query_int32", func() error {
		return c.withExecution(stmt, bindings, func(e *execution) error {
			if _, err := e.nextRow(); err != nil {
				return err
			}
			v = e.int32At(0)
			return nil
		})
	})
	return v, err
}

// QueryString returns column 0 of the first result row as text.
// The result is nil if the value is NULL or the query yields no row.
func (c *Connection) QueryString(ctx context.Context, stmt Statement, bindings ...Binding) (*string, error) {
	var v *string
	err := c.submit(ctx, "query_string", func() error {
		return c.withExecution(stmt, bindings, func(e *execution) error {
			if _, err := e.nextRow(); err != nil {
				return err
			}
			v = e.textAt(0)
			return nil
		})
	})
	return v, err
}

// QueryStrings drains every row of a query into memory.
//
// Every column is read through text coercion, so integers and reals come
// back formatted and NULL comes back as a nil element. Failures are
// QUERY_FAILED errors wrapping the underlying prepare or execute error.
func (c *Connection) QueryStrings(ctx context.Context, stmt Statement, bindings ...Binding) (Output, error) {
	var out Output
	err := c.submit(ctx, "query_strings", func() error {
		return c.withExecution(stmt, bindings, func(e *execution) error {
			out.Columns = e.columnNames()
			out.Rows = []Row{}
			for {
				more, err := e.nextRow()
				if err != nil {
					return err
				}
				if !more {
					return nil
				}
				out.Rows = append(out.Rows, e.row())
			}
		})
	})
	if err != nil {
		return Output{}, wrapQuery(stmt, err)
	}
	return out, nil
}

// QueryRows returns a lazy sequence over the rows of a query.
//
// Nothing runs until the first call to Rows.Next. See Rows.
func (c *Connection) QueryRows(stmt Statement, bindings ...Binding) *Rows {
	bs := make([]Binding, len(bindings))
	copy(bs, bindings)
	return &Rows{conn: c, stmt: stmt, bindings: bs}
}

// ExecScript runs a script of zero or more semicolon-separated statements,
// discarding any rows they produce.
func (c *Connection) ExecScript(ctx context.Context, script string) error {
	return c.submit(ctx, "exec_script", func() error {
		if c.conn == nil {
			return ErrNotOpen
		}
		if _, err := c.conn.Exec(script, nil); err != nil {
			return newError(CodeExecuteFailed, scriptStatement(script), err)
		}
		return nil
	})
}

// scriptSummaryRunes bounds how much of a script an error repeats.
const scriptSummaryRunes = 60

// scriptStatement names a script in its error by its first non-blank line,
// shortened, with "..." marking anything left out.
func scriptStatement(script string) Statement {
	rest := strings.TrimSpace(script)
	first, _, more := strings.Cut(rest, "\n")
	first = strings.TrimSpace(first)
	if r := []rune(first); len(r) > scriptSummaryRunes {
		first, more = string(r[:scriptSummaryRunes]), true
	}
	if more {
		first += " ..."
	}
	return Statement(first)
}

// Serialize exports the database as a single byte slice.
//
// For a Memory store, the engine serializes its live pages into an engine
// buffer, which is copied into the returned slice and freed. For a
// Deserialize store, a copy of the original import image is returned.
// The returned slice is owned by the caller.
func (c *Connection) Serialize(ctx context.Context) ([]byte, error) {
	var image []byte
	err := c.submit(ctx, "serialize", func() error {
		if c.conn == nil {
			return ErrNotOpen
		}
		if !c.store.IsMemory() {
			image = c.store.Bytes()
			return nil
		}
		b, err := c.conn.Serialize("main")
		if err != nil {
			return newError(CodeSerializeFailed, "", err)
		}
		image = b
		return nil
	})
	return image, err
}

// submit runs fn on the worker of the currently open queue.
func (c *Connection) submit(ctx context.Context, op string, fn func() error) error {
	c.lifecycle.Lock()
	q := c.queue
	c.lifecycle.Unlock()

	if q == nil {
		return ErrNotOpen
	}
	return c.submitTo(ctx, q, op, fn)
}

// submitTo enqueues fn on q and waits for it. See await for cancellation.
func (c *Connection) submitTo(ctx context.Context, q *requestQueue, op string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := newRequest(op, fn)
	if !q.Enqueue(r) {
		return ErrNotOpen
	}
	return await(ctx, r)
}

// run is the worker loop. It exits once q is closed and drained.
func (c *Connection) run(q *requestQueue, stopped chan struct{}) {
	defer close(stopped)

	for {
		if r, ok := q.TryDequeue(); ok {
			c.dispatch(r)
			continue
		}
		if q.Drained() {
			return
		}
		<-q.Wait()
	}
}

// dispatch runs one request unless it was withdrawn while queued.
func (c *Connection) dispatch(r *request) {
	if !r.start() {
		return
	}
	queueWaitSeconds.Observe(time.Since(r.queued).Seconds())

	err := r.fn()
	operationsTotal.WithLabelValues(r.op, outcomeOf(err)).Inc()
	if err != nil && !errors.Is(err, ErrNotOpen) {
		c.logger.Debug("operation failed", "op", r.op, "error", err, "diagnostic", Diagnostic(err))
	} else {
		c.logger.Debug("operation complete", "op", r.op)
	}
	r.done <- err
}

// openNative opens the native handle. Worker goroutine only.
func (c *Connection) openNative() error {
	if c.conn != nil {
		return ErrAlreadyOpen
	}

	drv := &sqlite3.SQLiteDriver{}
	dc, err := drv.Open(memoryDSN)
	if err != nil {
		return newError(CodeOpenFailed, "", err)
	}
	conn, ok := dc.(*sqlite3.SQLiteConn)
	if !ok {
		dc.Close()
		return newError(CodeOpenFailed, "", fmt.Errorf("unexpected driver connection %T", dc))
	}

	if !c.store.IsMemory() {
		if err := loadImage(conn, c.store.data); err != nil {
			conn.Close()
			return err
		}
	}

	c.conn = conn
	return nil
}

// loadImage replaces conn's main database with a read-only copy of image.
func loadImage(conn *sqlite3.SQLiteConn, image []byte) error {
	// An empty image is an empty database, which conn already is.
	if len(image) > 0 {
		if err := conn.Deserialize(image, "main"); err != nil {
			return newError(CodeOpenFailed, "", err)
		}
	}
	if _, err := conn.Exec("PRAGMA query_only = ON", nil); err != nil {
		return newError(CodeOpenFailed, "", err)
	}

	// The engine only reads the image header lazily. Touch the schema now so
	// a malformed image fails Open rather than the first query.
	check, err := prepare(conn, "SELECT count(*) FROM sqlite_master", nil)
	if err != nil {
		return newError(CodeOpenFailed, "", errors.Unwrap(err))
	}
	defer check.finalize()
	if _, err := check.nextRow(); err != nil {
		return newError(CodeOpenFailed, "", errors.Unwrap(err))
	}
	return nil
}

// closeNative finalizes live executions and closes the handle.
// Worker goroutine only.
func (c *Connection) closeNative() error {
	if c.conn == nil {
		return nil
	}
	for e := range c.live {
		c.finalize(e)
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		return fmt.Errorf("closing native handle: %w", err)
	}
	return nil
}

// withExecution prepares stmt, hands it to fn, and finalizes it on every
// exit path. Worker goroutine only.
func (c *Connection) withExecution(stmt Statement, bindings []Binding, fn func(*execution) error) error {
	e, err := c.prepare(stmt, bindings)
	if err != nil {
		return err
	}
	defer c.finalize(e)
	return fn(e)
}

// prepare creates a tracked execution. Worker goroutine only.
func (c *Connection) prepare(stmt Statement, bindings []Binding) (*execution, error) {
	if c.conn == nil {
		return nil, ErrNotOpen
	}
	e, err := prepare(c.conn, stmt, bindings)
	if err != nil {
		return nil, err
	}
	c.live[e] = struct{}{}
	liveStatements.Inc()
	return e, nil
}

// finalize releases a tracked execution. Worker goroutine only.
func (c *Connection) finalize(e *execution) {
	if _, ok := c.live[e]; !ok {
		return
	}
	delete(c.live, e)
	liveStatements.Dec()
	if err := e.finalize(); err != nil {
		c.logger.Warn("finalize failed", "sql", e.stmt.SQL(), "error", err)
	}
}

// liveCount returns the number of unfinalized executions.
// It runs on the worker, so it observes a consistent count.
func (c *Connection) liveCount(ctx context.Context) (int, error) {
	var n int
	err := c.submit(ctx, "live_count", func() error {
		n = len(c.live)
		return nil
	})
	return n, err
}
