package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloDigest = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func TestIdentify_KnownDigests(t *testing.T) {
	id := Identify([]byte("hello"), TextPlain)
	assert.Equal(t, helloDigest, id.Digest)
	assert.Equal(t, "sha256/text/plain/"+helloDigest, id.StorageKey())

	empty := Identify(nil, ApplicationOctetStream)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", empty.Digest)
}

func TestIdentify_Deterministic(t *testing.T) {
	data := []byte("SQLite format 3\x00 pretend pages")

	a := Identify(data, SQLite3)
	b := Identify(append([]byte(nil), data...), SQLite3)
	assert.Equal(t, a, b, "identical bytes must yield identical identifiers")

	c := Identify(append(data, 0), SQLite3)
	assert.NotEqual(t, a.Digest, c.Digest, "a single extra byte must change the digest")
}

func TestIdentify_MediaTypeOnlyAffectsKey(t *testing.T) {
	data := []byte("{}")
	asText := Identify(data, TextJSON)
	asApp := Identify(data, ApplicationJSON)

	assert.Equal(t, asText.Digest, asApp.Digest)
	assert.NotEqual(t, asText.StorageKey(), asApp.StorageKey())
}

func TestParseStorageKey_RoundTrip(t *testing.T) {
	for _, mt := range []MediaType{TextMarkdown, ImageSVG, ApplicationPDF, SQLite3} {
		id := Identify([]byte("payload"), mt)

		got, err := ParseStorageKey(id.StorageKey())
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestParseStorageKey_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"wrong scheme", "md5/text/plain/" + helloDigest},
		{"missing subtype", "sha256/text/" + helloDigest},
		{"extra segment", "sha256/text/plain/extra/" + helloDigest},
		{"short digest", "sha256/text/plain/abc123"},
		{"non-hex digest", "sha256/text/plain/" + helloDigest[:63] + "z"},
		{"uppercase digest", "sha256/text/plain/2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStorageKey(tt.key)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}
