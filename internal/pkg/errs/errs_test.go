//go:build unit

package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errCause = errors.New("cause")

func TestMark(t *testing.T) {
	marked := Mark(Wrap(errCause, "loading"), ErrNotFound)

	assert.ErrorIs(t, marked, ErrNotFound)
	assert.ErrorIs(t, marked, errCause)
	assert.NotErrorIs(t, marked, ErrConflict)
	assert.Equal(t, "loading: cause", marked.Error())

	wrapped := fmt.Errorf("outer: %w", Wrap(marked, "middle"))
	assert.ErrorIs(t, wrapped, ErrNotFound)
}

func TestMark_Nil(t *testing.T) {
	assert.Same(t, ErrValidation, Mark(nil, ErrValidation))
}

func TestMarkNew(t *testing.T) {
	err := MarkNew("property not found", ErrNotFound)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "property not found", err.Error())
	assert.NotEmpty(t, ExtractStackLines(err, 5))
}
