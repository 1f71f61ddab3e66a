package testutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
)

// LogRecorder captures structured log records for assertions.
//
// Records are written as JSON lines by a slog.JSONHandler and decoded on
// demand, so tests see exactly the attribute keys a production handler
// would emit.
//
// Thread-safety: the logger may be used from any goroutine.
type LogRecorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLogRecorder creates an empty recorder.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{}
}

// Logger returns a logger that records every level into r.
func (r *LogRecorder) Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(r, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Write implements io.Writer for the handler.
func (r *LogRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

// Records decodes every captured record.
func (r *LogRecorder) Records(t testing.TB) []map[string]any {
	t.Helper()
	r.mu.Lock()
	data := bytes.Clone(r.buf.Bytes())
	r.mu.Unlock()

	var records []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("decode log record %q: %v", scanner.Text(), err)
		}
		records = append(records, rec)
	}
	return records
}

// Messages returns the msg of each captured record, in order.
func (r *LogRecorder) Messages(t testing.TB) []string {
	t.Helper()
	var msgs []string
	for _, rec := range r.Records(t) {
		msg, _ := rec[slog.MessageKey].(string)
		msgs = append(msgs, msg)
	}
	return msgs
}
