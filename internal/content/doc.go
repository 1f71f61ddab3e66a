// Package content implements content addressing for exported artifacts.
//
// A Resource pairs raw bytes with an Identifier: the SHA-256 digest of
// exactly those bytes and the MediaType they are published as. The
// Identifier's storage key is the object store path the bytes live under:
//
//	sha256/<type>/<subtype>/<hex digest>
//
// Keys are stable: identical bytes with an identical media type always map
// to the same key, so uploads of the same content deduplicate.
package content
