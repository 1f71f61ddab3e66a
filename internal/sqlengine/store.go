package sqlengine

import "fmt"

type storeKind int

const (
	storeMemory storeKind = iota + 1
	storeDeserialize
)

// DatabaseStore describes where a Connection's database comes from.
//
// It records provenance only. Use Connection.Serialize to obtain the live
// state of an open database.
type DatabaseStore struct {
	kind storeKind
	data []byte
}

// Memory returns a store for a fresh, empty, volatile database.
func Memory() DatabaseStore {
	return DatabaseStore{kind: storeMemory}
}

// Deserialize returns a store whose database is initialised from image,
// which must be the output of a prior Serialize (or an empty slice).
// The image is copied; later mutation of image by the caller has no effect.
func Deserialize(image []byte) DatabaseStore {
	data := make([]byte, len(image))
	copy(data, image)
	return DatabaseStore{kind: storeDeserialize, data: data}
}

// IsMemory reports whether the store is a fresh in-memory database.
func (s DatabaseStore) IsMemory() bool {
	return s.kind == storeMemory
}

// Bytes returns a copy of the import image of a Deserialize store,
// or nil for a Memory store.
func (s DatabaseStore) Bytes() []byte {
	if s.kind != storeDeserialize {
		return nil
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

// String implements fmt.Stringer.
func (s DatabaseStore) String() string {
	switch s.kind {
	case storeMemory:
		return "memory"
	case storeDeserialize:
		return fmt.Sprintf("deserialize(%d bytes)", len(s.data))
	default:
		return "invalid"
	}
}
