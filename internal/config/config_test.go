package config

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "remedy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "memory", cfg.Store.Kind)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
engine:
  max_cycles: 10
  adapter_timeout: 5s
store:
  kind: redis
  redis:
    addr: redis.internal:6379
    ttl: 24h
    lock: true
log:
  level: debug
  format: pretty
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Engine.MaxCycles)
	assert.Equal(t, 5*time.Second, cfg.Engine.AdapterTimeout)
	// Untouched sections keep their defaults.
	assert.Equal(t, 3, cfg.Engine.MaxStepAttempts)
	assert.Equal(t, 0.6, cfg.Engine.ConfidenceThreshold)

	assert.Equal(t, "redis", cfg.Store.Kind)
	assert.Equal(t, "redis.internal:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Store.Redis.TTL)
	assert.True(t, cfg.Store.Redis.Lock)
	assert.Equal(t, "remedy:session:", cfg.Store.Redis.Prefix)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "pretty", cfg.Log.Format)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "engine:\n  cycles: 10\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownStoreKind(t *testing.T) {
	path := writeConfig(t, "store:\n  kind: postgres\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store kind")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestPrivacyKeys(t *testing.T) {
	raw := make([]byte, 32)
	_, err := rand.Read(raw)
	require.NoError(t, err)

	p := Privacy{EncryptionKeys: []string{base64.StdEncoding.EncodeToString(raw)}}
	keys, err := p.Keys()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, raw, keys[0])

	_, err = Privacy{EncryptionKeys: []string{"not-base64!"}}.Keys()
	require.Error(t, err)

	short := base64.StdEncoding.EncodeToString([]byte("short"))
	_, err = Privacy{EncryptionKeys: []string{short}}.Keys()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestEngineRuntimeMapping(t *testing.T) {
	rc := Default().Engine.Runtime()
	assert.Equal(t, 50, rc.MaxCycles)
	assert.Equal(t, 30*time.Second, rc.AdapterTimeout)
	assert.Equal(t, 8, rc.MaxAdapterCalls)
}
