// Package objectstore provides the object store that exported content is
// published to.
//
// Stores are addressed by URL. The scheme selects the backend:
//
//	memory://               process-local map, for tests
//	file:///var/collected/  a directory tree on the local filesystem
//	s3://bucket/prefix/     an S3 (or S3-compatible) bucket
//
// Backend options are passed as URL query arguments, for example
// "s3://bucket/prefix/?region=us-east-1&acl=public-read".
package objectstore

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Get when no object exists at a key.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	// Key is the object's full key, without the store's own prefix.
	Key     string
	Size    int64
	ModTime time.Time
}

// Store is the minimal object store interface that content is published to.
type Store interface {
	// Provider returns the name of the backend (e.g., "memory", "fs", "s3").
	Provider() string

	// Exists reports whether an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)

	// Get returns the content stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Put durably writes length bytes of content to key. contentType is
	// recorded as the object's media type where the backend supports it.
	Put(ctx context.Context, key string, content io.ReaderAt, length int64, contentType string) error

	// List enumerates every object whose key begins with prefix.
	// If the callback returns an error, listing stops and that error is
	// returned.
	List(ctx context.Context, prefix string, callback func(ObjectInfo) error) error

	// Remove deletes the object at key.
	Remove(ctx context.Context, key string) error
}
