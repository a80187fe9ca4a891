package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEPLOYER", "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "rewards_events", c.EventQueueName)
	assert.Equal(t, 20, c.HistorianBatchSize)
	assert.False(t, c.DevSessions)
	assert.Equal(t, "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM.trustless-rewards", c.Pool())
	assert.Equal(t, []string{"*"}, c.Origins())
	assert.Equal(t, logrus.InfoLevel, c.Logger().GetLevel())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DEPLOYER", "ST1DEPLOYER")
	t.Setenv("CONTRACT_NAME", "rewards-v2")
	t.Setenv("DEV_SESSIONS", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("HISTORIAN_FLUSH_MS", "250")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ST1DEPLOYER.rewards-v2", c.Pool())
	assert.True(t, c.DevSessions)
	assert.Equal(t, 250, c.HistorianFlushMs)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.Origins())
	assert.Equal(t, logrus.DebugLevel, c.Logger().GetLevel())
}

func TestLoadRejectsBadSettings(t *testing.T) {
	t.Setenv("DEPLOYER", "ST1DEPLOYER")

	t.Run("log level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "loud")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("half a key pair", func(t *testing.T) {
		t.Setenv("AUTH_PRIVATE_KEY_PATH", "/keys/ed25519")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("not a number", func(t *testing.T) {
		t.Setenv("REDIS_DB", "zero")
		_, err := Load()
		assert.Error(t, err)
	})
}
