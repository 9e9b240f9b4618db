package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{
			name:     "bad request",
			err:      BadRequest("invalid email"),
			expected: KindBadRequest,
		},
		{
			name:     "forbidden",
			err:      Forbidden("blocked"),
			expected: KindForbidden,
		},
		{
			name:     "not found",
			err:      NotFound("no entry"),
			expected: KindNotFound,
		},
		{
			name:     "plain error defaults to internal",
			err:      errors.New("boom"),
			expected: KindInternal,
		},
		{
			name:     "wrapped app error keeps kind",
			err:      fmt.Errorf("saving entry: %w", Forbidden("blocked")),
			expected: KindForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "invalid email", MessageOf(BadRequest("invalid email")))
	assert.Equal(t, "internal error", MessageOf(errors.New("sql: connection refused")))
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("saving entry", cause)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "saving entry")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsKind(t *testing.T) {
	assert.True(t, IsKind(Forbidden("nope"), KindForbidden))
	assert.False(t, IsKind(Forbidden("nope"), KindBadRequest))
}
