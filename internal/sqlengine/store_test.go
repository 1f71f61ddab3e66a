package sqlengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseStore(t *testing.T) {
	m := Memory()
	assert.True(t, m.IsMemory())
	assert.Nil(t, m.Bytes())
	assert.Equal(t, "memory", m.String())

	image := []byte{1, 2, 3}
	d := Deserialize(image)
	image[0] = 9

	assert.False(t, d.IsMemory())
	assert.Equal(t, []byte{1, 2, 3}, d.Bytes())
	assert.Equal(t, "deserialize(3 bytes)", d.String())

	out := d.Bytes()
	out[1] = 9
	assert.Equal(t, []byte{1, 2, 3}, d.Bytes(), "Bytes returns a copy")

	assert.Equal(t, "invalid", DatabaseStore{}.String())
}
