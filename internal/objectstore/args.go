package objectstore

import (
	"fmt"
	"net/url"

	"github.com/gorilla/schema"
)

// parseStoreArgs decodes ep's query arguments into args. Unknown arguments
// are an error.
func parseStoreArgs(ep *url.URL, args any) error {
	var decoder = schema.NewDecoder()
	decoder.IgnoreUnknownKeys(false)

	if q, err := url.ParseQuery(ep.RawQuery); err != nil {
		return err
	} else if err = decoder.Decode(args, q); err != nil {
		return fmt.Errorf("parsing store URL arguments: %w", err)
	}
	return nil
}
