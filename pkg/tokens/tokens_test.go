package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNumericCode(t *testing.T) {
	code, err := GenerateNumericCode(6)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9', "expected digit, got %q", r)
	}
}

func TestGenerateNumericCode_InvalidLength(t *testing.T) {
	_, err := GenerateNumericCode(0)
	assert.Error(t, err)

	_, err = GenerateNumericCode(-3)
	assert.Error(t, err)
}

func TestGenerateInviteToken(t *testing.T) {
	token1, hash1, err := GenerateInviteToken()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token1, InviteTokenPrefix))
	assert.Equal(t, 64, len(hash1)) // sha256 = 64 hex chars
	assert.Equal(t, HashToken(token1), hash1)

	token2, hash2, err := GenerateInviteToken()
	require.NoError(t, err)
	assert.NotEqual(t, token1, token2)
	assert.NotEqual(t, hash1, hash2)
}

func TestHashToken_Deterministic(t *testing.T) {
	assert.Equal(t, HashToken("cwd_abc"), HashToken("cwd_abc"))
	assert.NotEqual(t, HashToken("cwd_abc"), HashToken("cwd_abd"))
}
