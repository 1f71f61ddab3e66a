package objectstore

import (
	"fmt"
	"net/url"
)

// Constructor creates a Store from its URL.
type Constructor func(*url.URL) (Store, error)

var constructors = map[string]Constructor{
	"memory": newMemory,
	"file":   newFS,
	"s3":     newS3,
}

// Open parses rawURL and constructs the Store its scheme names.
func Open(rawURL string) (Store, error) {
	ep, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing store URL: %w", err)
	}
	ctor, ok := constructors[ep.Scheme]
	if !ok {
		return nil, fmt.Errorf("unsupported store scheme %q", ep.Scheme)
	}
	return ctor(ep)
}
