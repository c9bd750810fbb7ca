package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("ENV", "test")
	t.Setenv("CI", "")
	t.Setenv("CONFIG_FILE", "")
	// run from an empty directory so no stray config.yaml or .env is picked up
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfig(t *testing.T) {
	isolate(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "chef")
	t.Setenv("DB_PASSWORD", "secret-pw")
	t.Setenv("DB_NAME", "kitchen")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "5433", cfg.Database.Port)
	assert.Equal(t, "chef", cfg.Database.User)
	assert.Equal(t, "secret-pw", cfg.Database.Password)
	assert.Equal(t, "kitchen", cfg.Database.Name)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, Test, cfg.Environment)
}

func TestLoadConfigWithDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "https://api.deepseek.com/v1/chat/completions", cfg.LLM.APIURL)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 4000, cfg.LLM.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Zero(t, cfg.LLM.MaxRetries)
	assert.False(t, cfg.Generation.BestEffortPersistence)
	assert.Equal(t, defaultJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoadConfigSecrets(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("from-secret-file\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deepseek_api_key"), []byte(" sk-secret "), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-secret-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "sk-secret", cfg.LLM.APIKey)
}

func TestLoadConfigAPIKeyFile(t *testing.T) {
	dir := isolate(t)
	keyFile := filepath.Join(dir, "key.txt")

	t.Run("reads trimmed key", func(t *testing.T) {
		require.NoError(t, os.WriteFile(keyFile, []byte("sk-file\n"), 0o600))
		t.Setenv("DEEPSEEK_API_KEY_FILE", keyFile)

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "sk-file", cfg.LLM.APIKey)
	})

	t.Run("empty file is rejected", func(t *testing.T) {
		require.NoError(t, os.WriteFile(keyFile, []byte("  \n"), 0o600))
		t.Setenv("DEEPSEEK_API_KEY_FILE", keyFile)

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key file is empty")
	})
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "fusion.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
llm:
  max_retries: 2
  timeout: 5s
generation:
  best_effort_persistence: true
log:
  level: debug
`), 0o600))
	t.Setenv("CONFIG_FILE", file)
	t.Setenv("FUSION_LLM_MAX_RETRIES", "1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.LLM.MaxRetries, "environment overrides file")
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.Generation.BestEffortPersistence)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidateConfig(t *testing.T) {
	isolate(t)
	cfg, err := LoadConfig()
	require.NoError(t, err)

	t.Run("rejects unknown driver", func(t *testing.T) {
		bad := *cfg
		bad.Database.Driver = "mysql"
		assert.Error(t, ValidateConfig(&bad))
	})

	t.Run("production requires explicit jwt secret", func(t *testing.T) {
		bad := *cfg
		bad.Environment = Production
		bad.Database.Password = "pw"
		err := ValidateConfig(&bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt_secret")
	})

	t.Run("retries are bounded", func(t *testing.T) {
		bad := *cfg
		bad.LLM.MaxRetries = 10
		assert.Error(t, ValidateConfig(&bad))
	})
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("CI", "true")
	assert.Equal(t, CI, GetEnvironment())

	t.Setenv("CI", "")
	t.Setenv("ENV", "prod")
	assert.Equal(t, Production, GetEnvironment())

	t.Setenv("ENV", "")
	t.Setenv("APP_ENV", "")
	assert.Equal(t, Development, GetEnvironment())
}

func TestLoadWithWatcher(t *testing.T) {
	dir := isolate(t)

	t.Run("no file means nothing to watch", func(t *testing.T) {
		cfg, watcher, err := LoadWithWatcher()
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.False(t, watcher.Watch(func(*Config) {}))
	})

	t.Run("reloads after Watch is called", func(t *testing.T) {
		file := filepath.Join(dir, "watched.yaml")
		require.NoError(t, os.WriteFile(file, []byte("log:\n  level: info\n"), 0o600))
		t.Setenv("CONFIG_FILE", file)

		cfg, watcher, err := LoadWithWatcher()
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.Log.Level)

		levels := make(chan string, 4)
		require.True(t, watcher.Watch(func(next *Config) { levels <- next.Log.Level }))

		require.NoError(t, os.WriteFile(file, []byte("log:\n  level: debug\n"), 0o600))
		select {
		case level := <-levels:
			assert.Equal(t, "debug", level)
		case <-time.After(5 * time.Second):
			t.Fatal("config change was not delivered")
		}
	})
}
