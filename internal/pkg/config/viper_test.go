package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  server:
    http:
      address: ":8080"
  cookie:
    secure: true
  maintenance:
    endpoints: "/a, ,/b"
modules:
  identity:
    otp:
      expiry_minutes: 10
      max_attempts: 3
    session:
      ttl_days: 7
    consumers:
      - welcome
      - audit
jwt:
  secret: "c2VjcmV0"
app_rate: 0.5
`

func TestViper_Getters(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.GetString("app.server.http.address"))
	assert.True(t, cfg.GetBool("app.cookie.secure"))
	assert.Equal(t, 3, cfg.GetInt("modules.identity.otp.max_attempts"))
	assert.Equal(t, 10*time.Minute, cfg.GetMinute("modules.identity.otp.expiry_minutes"))
	assert.Equal(t, 7*24*time.Hour, cfg.GetDay("modules.identity.session.ttl_days"))
	assert.Equal(t, 3*time.Second, cfg.GetSecond("modules.identity.otp.max_attempts"))
	assert.Equal(t, []byte("secret"), cfg.GetBinary("jwt.secret"))
	assert.Equal(t, []string{"/a", "/b"}, cfg.GetArray("app.maintenance.endpoints"))
	assert.Equal(t, []string{"welcome", "audit"}, cfg.GetArray("modules.identity.consumers"))
	assert.Empty(t, cfg.GetArray("missing.key"))
	assert.InDelta(t, 0.5, cfg.GetFloat64("app_rate"), 0.0001)
	assert.NoError(t, cfg.Close())
}

func TestViper_EnvOverridesFile(t *testing.T) {
	t.Setenv("APP_SERVER_HTTP_ADDRESS", ":9999")

	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.GetString("app.server.http.address"))
}

func TestNewViper_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sample), 0o600))

	cfg, err := NewViper(file)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.GetInt("modules.identity.otp.max_attempts"))
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	_, err := NewViperFromBytes(" ", nil)
	assert.Error(t, err)
}

func TestLoadEnvFiles(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("SUPAVAULT_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("SUPAVAULT_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("SUPAVAULT_TEST_DOTENV"))

	// Act
	err := LoadEnvFiles(filepath.Join(dir, "missing.env"), file)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "from-file", os.Getenv("SUPAVAULT_TEST_DOTENV"))
}
