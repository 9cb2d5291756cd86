package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Second, cfg.Monitor.Cooldown)
	assert.Equal(t, 2*time.Second, cfg.Restart.GraceDelay)
	assert.Equal(t, 5*time.Second, cfg.Restart.SettleDelay)
	assert.Equal(t, []string{"Spotify Free", "Spotify Premium"}, cfg.Classifier.IgnoredTitles)
	assert.False(t, cfg.Restart.ConfirmExit)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty process", func(c *Config) { c.Target.ProcessName = "" }, "process name"},
		{"no launch target", func(c *Config) {
			c.Target.ExecutablePath = ""
			c.Target.FallbackPaths = nil
			c.Target.Command = ""
		}, "launch path"},
		{"poll too fast", func(c *Config) { c.Monitor.PollInterval = time.Millisecond }, "less than minimum"},
		{"poll too slow", func(c *Config) { c.Monitor.PollInterval = time.Hour }, "greater than maximum"},
		{"negative cooldown", func(c *Config) { c.Monitor.Cooldown = -time.Second }, "cooldown"},
		{"negative grace", func(c *Config) { c.Restart.GraceDelay = -time.Second }, "grace delay"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
		{"no pid file", func(c *Config) { c.Daemon.PIDFile = "" }, "PID file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLaunchCandidatesExpandsPlaceholders(t *testing.T) {
	t.Setenv("HOME", "/home/alice")
	t.Setenv("USER", "alice")

	target := TargetConfig{
		ExecutablePath: "{home}/apps/spotify",
		FallbackPaths:  []string{"/users/{user}/spotify", "  "},
		Command:        "spotify",
	}

	assert.Equal(t, []string{
		"/home/alice/apps/spotify",
		"/users/alice/spotify",
		"spotify",
	}, target.LaunchCandidates())
}

func TestManagerLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	m, err := NewManager("")
	require.NoError(t, err)
	require.NoError(t, m.Load())

	assert.Equal(t, Default().Monitor, m.Config().Monitor)
	assert.Empty(t, m.ConfigFileUsed())
}

func TestManagerLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[monitor]
cooldown = "45s"

[classifier]
ad_markers = ["Advertisement", "Werbung"]

[restart]
hide_window = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("SPOTSKIP_RESTART_SETTLE_DELAY", "7s")
	t.Setenv("SPOTSKIP_LOG_LEVEL", "DEBUG")

	m, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, m.Load())

	cfg := m.Config()
	assert.Equal(t, 45*time.Second, cfg.Monitor.Cooldown)
	assert.Equal(t, []string{"Advertisement", "Werbung"}, cfg.Classifier.AdMarkers)
	assert.True(t, cfg.Restart.HideWindow)
	assert.Equal(t, 7*time.Second, cfg.Restart.SettleDelay)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "spotify", cfg.Target.ProcessName)
}

func TestManagerLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[monitor]\npoll_interval = \"1ms\"\n"), 0o644))

	m, err := NewManager(path)
	require.NoError(t, err)

	err = m.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/xdg/spotskip", dir)
}
