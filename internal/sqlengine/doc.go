// Package sqlengine adapts an embedded SQLite engine for single-owner use.
//
// A Connection owns exactly one native engine handle. The handle is opened
// either on a fresh in-memory database or on a database reconstructed from a
// previously exported byte image (see DatabaseStore), and can be exported back
// into a single contiguous byte slice with Connection.Serialize.
//
// ARCHITECTURE:
//
// Single-Owner Worker:
// Every operation that touches the native handle (open, close, execute,
// query, serialize, row pulls) is packaged as a request and pushed onto a
// FIFO queue. One worker goroutine per open Connection dequeues requests and
// runs them strictly one at a time. The native handle and every prepared
// statement are only ever touched from that goroutine.
//
// Request Lifecycle:
// 1. Caller enqueues a request and waits on its completion channel
// 2. Worker dequeues requests in issuance order
// 3. A request whose context was cancelled while queued is dropped unrun
// 4. A request that has started always runs to completion
//
// Prepared statements are owned by an execution for exactly the duration of
// one request (Execute, QueryInt32, QueryStrings), or for the lifetime of a
// Rows sequence. An execution is finalized on every exit path: success,
// exhaustion, error, cancellation, and Connection.Close.
//
// CRITICAL PATTERNS:
//
// NULL Is Not Empty:
// Row values are *string. A nil element is SQL NULL; a pointer to "" is an
// empty TEXT value. The two are never conflated.
//
// Read-Only Imports:
// A Deserialize-backed Connection is opened with PRAGMA query_only=ON, and
// Serialize returns the original import bytes. Writes fail with an
// ExecuteError carrying the engine's diagnostic.
package sqlengine
