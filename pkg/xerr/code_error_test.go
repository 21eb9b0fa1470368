package xerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("run workflows: %w", ErrRunning)
	ce, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, Conflict, ce.Code)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
