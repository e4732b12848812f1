package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Limits: LimitsConfig{
			MaxDice:     20,
			MaxSides:    100,
			MaxOutcomes: 1_000_000,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 50061,
		},
		Scripting: ScriptingConfig{
			InstructionLimit: 100_000,
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestServerAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "127.0.0.1:50061", cfg.Server.Addr())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
logging:
  level: debug
  format: console
limits:
  max_dice: 8
  max_sides: 12
  max_outcomes: 5000
server:
  host: 0.0.0.0
  port: 6000
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Limits.MaxDice)
	assert.Equal(t, 12, cfg.Limits.MaxSides)
	assert.Equal(t, 5000, cfg.Limits.MaxOutcomes)
	assert.Equal(t, 6000, cfg.Server.Port)
	assert.Equal(t, 100_000, cfg.Scripting.InstructionLimit, "unset keys fall back to defaults")
}

func TestLoadShippedDevConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "dev.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 20, cfg.Limits.MaxDice)
	assert.Equal(t, 50061, cfg.Server.Port)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DICEDIST_LIMITS_MAX_DICE", "3")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Limits.MaxDice)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestLoadFromViper_Invalid(t *testing.T) {
	v := viper.New()
	v.Set("logging.level", "info")
	v.Set("logging.format", "json")
	v.Set("server.host", "")
	v.Set("server.port", 0)
	_, err := LoadFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.host")
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := validConfig()
		cfg.Logging.Format = format
		assert.NoError(t, cfg.Validate(), "format %q should be valid", format)
	}
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateLimitsNegative(t *testing.T) {
	cfg := validConfig()
	cfg.Limits.MaxDice = -1
	cfg.Limits.MaxOutcomes = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limits.max_dice")
	assert.Contains(t, err.Error(), "limits.max_outcomes")
}

func TestValidateLimitsZeroIsUnlimited(t *testing.T) {
	cfg := validConfig()
	cfg.Limits = LimitsConfig{}
	assert.NoError(t, cfg.Validate())
}

func TestValidateScriptingLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Scripting.InstructionLimit = -5
	assert.Error(t, cfg.Validate())
}

func TestValidateMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "invalid"
	cfg.Server.Port = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
	assert.Contains(t, err.Error(), "server.port")
}

func TestPropertyValidPortsAccepted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := rapid.IntRange(1, 65535).Draw(t, "port")
		cfg := validConfig()
		cfg.Server.Port = port
		assert.NoError(t, cfg.Validate())
	})
}

func TestPropertyInvalidPortsRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		port := rapid.OneOf(
			rapid.IntRange(-1000, 0),
			rapid.IntRange(65536, 100000),
		).Draw(t, "port")
		cfg := validConfig()
		cfg.Server.Port = port
		assert.Error(t, cfg.Validate())
	})
}
