package common

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := NotFound("listing not found")

	assert.True(t, errors.Is(err, ErrorNotFound))
	assert.False(t, errors.Is(err, ErrorPermissionDenied))
	assert.Equal(t, "listing not found", err.Error())
}

func TestError_WrappedStillMatches(t *testing.T) {
	err := fmt.Errorf("loading request: %w", PermissionDenied("not a party"))

	assert.True(t, errors.Is(err, ErrorPermissionDenied))
	assert.Equal(t, KindPermissionDenied, KindOf(err))
}

func TestRateLimited_CarriesRetryAfter(t *testing.T) {
	err := fmt.Errorf("login: %w", RateLimited("slow down", 7*time.Second))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, KindRateLimited, e.Kind)
	assert.Equal(t, 7*time.Second, e.RetryAfter)
}

func TestInternal_HidesCauseFromMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause)

	assert.Equal(t, "internal error", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.True(t, errors.Is(err, ErrorInternal))
}

func TestKindOf_UnstructuredIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "rate_limited", KindRateLimited.String())
	assert.Equal(t, "internal", Kind(99).String())
}
