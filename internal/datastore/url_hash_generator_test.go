package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLHashGenerator(t *testing.T) {
	gen := NewURLHashGenerator(12)

	a := gen.GenerateHash("https://example.com/app.js")
	assert.Len(t, a, 12)
	assert.Equal(t, a, gen.GenerateHash("https://example.com/app.js"))
	assert.NotEqual(t, a, gen.GenerateHash("https://example.com/vendor.js"))

	assert.Len(t, NewURLHashGenerator(0).GenerateHash("x"), 16)
	assert.Len(t, NewURLHashGenerator(100).GenerateHash("x"), 16)
	assert.Len(t, NewURLHashGenerator(64).GenerateHash("x"), 64)
}
