package database

import (
	"context"
	"testing"

	"servicredit-registro/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis_Address(t *testing.T) {
	mr := miniredis.RunT(t)

	rc, err := NewRedis(config.RedisConfig{Address: mr.Addr(), KeyPrefix: "p:"})
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, "p:", rc.KeyPrefix)
	require.NoError(t, rc.Ping(context.Background()))
}

func TestNewRedis_URL(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")

	rc, err := NewRedis(config.RedisConfig{Address: "redis://" + mr.Addr() + "/0", Password: "secret"})
	require.NoError(t, err)
	defer rc.Close()

	require.NoError(t, rc.Ping(context.Background()))
	assert.Equal(t, mr.Addr(), rc.GetClient().Options().Addr)
}

func TestNewRedis_Invalid(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)

	_, err = NewRedis(config.RedisConfig{Address: "redis://localhost:notaport"})
	assert.Error(t, err)
}

func TestRedisClient_PingFails(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer rc.Close()

	mr.Close()
	assert.Error(t, rc.Ping(context.Background()))
}
