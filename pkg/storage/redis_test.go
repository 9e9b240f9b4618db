package storage

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.RedisAddr = mr.Addr()

	client, err := OpenRedis(cfg)
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(testContext()).Err())
}

func TestOpenRedis_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := OpenRedis(cfg)
	assert.Error(t, err)
}
