package content

import "golang.org/x/text/unicode/norm"

// Resource is a byte sequence together with its content address.
type Resource struct {
	Data []byte
	ID   Identifier
}

// NewResource identifies data as mt. data is retained, not copied.
func NewResource(data []byte, mt MediaType) Resource {
	return Resource{Data: data, ID: Identify(data, mt)}
}

// NewTextResource encodes s as NFC-normalized UTF-8 and identifies it as mt.
// Canonically equivalent strings therefore share an Identifier.
func NewTextResource(mt MediaType, s string) Resource {
	return NewResource(norm.NFC.Bytes([]byte(s)), mt)
}

// Key returns the resource's storage key.
func (r Resource) Key() string {
	return r.ID.StorageKey()
}

// Size returns the length of the resource's data in bytes.
func (r Resource) Size() int64 {
	return int64(len(r.Data))
}
