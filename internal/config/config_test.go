package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(values map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]any{"JWT_SECRET": "secret"}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, 36000, cfg.TokenMaxAge)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, "https://api.github.com", cfg.GitHubAPIURL)
	assert.False(t, cfg.MediaEnabled())
}

func TestFromViper_RequiresSecret(t *testing.T) {
	_, err := fromViper(newTestViper(nil))
	assert.Error(t, err)
}

func TestFromViper_Overrides(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]any{
		"JWT_SECRET":     "secret",
		"STORAGE_DRIVER": "MEMORY",
		"CORS_ORIGINS":   "http://a.test/, http://b.test",
		"TOKEN_MAX_AGE":  "60",
	}))
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 60, cfg.TokenMaxAge)
}

func TestFromViper_UnknownStorage(t *testing.T) {
	_, err := fromViper(newTestViper(map[string]any{"JWT_SECRET": "s", "STORAGE_DRIVER": "mongo"}))
	assert.Error(t, err)
}
