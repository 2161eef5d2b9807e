package apperror

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := Storage("submit", "transaction failed", context.DeadlineExceeded)
	assert.Equal(t, "submit: transaction failed: context deadline exceeded", err.Error())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	v := Validation("", "opportunity_name is required")
	assert.Equal(t, "opportunity_name is required", v.Error())
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("get", "uid not found"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindConflict))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Conflict("submit", "rows id taken", nil)))
	assert.True(t, IsRetryable(Storage("submit", "db down", nil)))
	assert.False(t, IsRetryable(Validation("submit", "bad")))
	assert.False(t, IsRetryable(NotFound("edit", "missing")))
	assert.False(t, IsRetryable(Exhausted("submit", "no rows id left", nil)))
	assert.False(t, IsRetryable(errors.New("plain")))
}
