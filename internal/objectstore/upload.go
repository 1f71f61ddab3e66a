package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/roach88/collected/internal/content"
)

var uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "collected_objectstore_uploads_total",
	Help: "Cumulative number of content uploads, by provider and result.",
}, []string{"provider", "result"})

// Upload publishes r under its storage key. Content already present under
// that key is left untouched, since equal keys imply equal bytes.
// It reports the key and whether a new object was written.
func Upload(ctx context.Context, store Store, r content.Resource) (key string, created bool, err error) {
	key = r.Key()

	exists, err := store.Exists(ctx, key)
	if err != nil {
		uploadsTotal.WithLabelValues(store.Provider(), "error").Inc()
		return key, false, fmt.Errorf("checking %s: %w", key, err)
	}
	if exists {
		uploadsTotal.WithLabelValues(store.Provider(), "exists").Inc()
		slog.Debug("content already stored", "key", key)
		return key, false, nil
	}

	if err := store.Put(ctx, key, bytes.NewReader(r.Data), r.Size(), r.ID.MediaType.String()); err != nil {
		uploadsTotal.WithLabelValues(store.Provider(), "error").Inc()
		return key, false, fmt.Errorf("uploading %s: %w", key, err)
	}
	uploadsTotal.WithLabelValues(store.Provider(), "created").Inc()
	slog.Info("content uploaded", "key", key, "bytes", r.Size(), "provider", store.Provider())
	return key, true, nil
}

// ListCategory lists stored content of category c, skipping any object
// whose key is not a storage key.
func ListCategory(ctx context.Context, store Store, c content.Category, callback func(content.Identifier, ObjectInfo) error) error {
	return store.List(ctx, c.Prefix(), func(info ObjectInfo) error {
		id, err := content.ParseStorageKey(info.Key)
		if err != nil {
			slog.Debug("skipping non-content object", "key", info.Key)
			return nil
		}
		return callback(id, info)
	})
}
