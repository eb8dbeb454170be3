package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DELVE_REMOTE_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.RemoteBaseURL)
	assert.Equal(t, "remote", cfg.PrimaryProvider)
	assert.Equal(t, "local", cfg.FallbackProvider)
	assert.Equal(t, time.Second, cfg.RequestSpacing)
	assert.Equal(t, 3, cfg.RetryBudget)
	assert.Equal(t, 3, cfg.Levels)
	assert.Equal(t, 10, cfg.RoomsPerLevel)
	assert.Equal(t, "./transcript.db", cfg.TranscriptPath)
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("DELVE_REMOTE_API_KEY", "test-key")
	t.Setenv("DELVE_REQUEST_SPACING", "250ms")
	t.Setenv("DELVE_ROOMS_PER_LEVEL", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.RequestSpacing)
	assert.Equal(t, 4, cfg.RoomsPerLevel)
}

func TestLoadRequiresRemoteKeyWhenRemoteConfigured(t *testing.T) {
	t.Setenv("DELVE_REMOTE_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadLocalOnlyNeedsNoKey(t *testing.T) {
	t.Setenv("DELVE_REMOTE_API_KEY", "")
	t.Setenv("DELVE_PRIMARY_PROVIDER", "local")
	t.Setenv("DELVE_FALLBACK_PROVIDER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.PrimaryProvider)
	assert.Empty(t, cfg.FallbackProvider)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("DELVE_REMOTE_API_KEY", "test-key")
	t.Setenv("DELVE_PRIMARY_PROVIDER", "cloud")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsFallbackEqualPrimary(t *testing.T) {
	t.Setenv("DELVE_PRIMARY_PROVIDER", "local")
	t.Setenv("DELVE_FALLBACK_PROVIDER", "local")

	_, err := Load()
	assert.Error(t, err)
}
