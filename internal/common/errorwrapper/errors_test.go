package errorwrapper

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	err := WrapError(io.EOF, "read patterns")
	assert.EqualError(t, err, "read patterns: EOF")
	assert.True(t, errors.Is(err, io.EOF))

	assert.EqualError(t, WrapError(nil, "noop"), "noop: <nil>")
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("max_depth", -1, "must not be negative")

	assert.Contains(t, err.Error(), "max_depth")
	assert.Contains(t, err.Error(), "-1")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	wrapped := WrapError(err, "invalid crawler config")
	var ve *ValidationError
	assert.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "max_depth", ve.Field)
}
