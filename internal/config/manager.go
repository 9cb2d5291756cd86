package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SPOTSKIP_MONITOR_COOLDOWN
const EnvPrefix = "SPOTSKIP"

// Manager handles configuration loading, watching, and reloading.
type Manager struct {
	config    *Config
	viper     *viper.Viper
	mu        sync.RWMutex
	callbacks []func(*Config)
	watching  bool
	log       zerolog.Logger
}

// NewManager creates a configuration manager. An empty configFile searches
// the XDG config directory and the working directory for config.toml.
func NewManager(configFile string) (*Manager, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")

		configDir, err := GetConfigDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to determine config directory")
		}
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("logging.level", EnvPrefix+"_LOG_LEVEL"); err != nil {
		return nil, errors.Wrapf(err, "failed to bind %s_LOG_LEVEL", EnvPrefix)
	}

	return &Manager{
		viper:     v,
		callbacks: make([]func(*Config), 0),
		log:       zerolog.Nop(),
	}, nil
}

// SetLogger sets the logger used for reload diagnostics
func (m *Manager) SetLogger(log zerolog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = log
}

// Load reads defaults, the config file (if any) and environment overrides.
// A missing config file is not an error.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	setDefaults(m.viper, Default())

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to read config file %s", m.viper.ConfigFileUsed())
		}
	}

	cfg, err := m.build()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

func (m *Manager) build() (*Config, error) {
	cfg := &Config{}
	if err := m.viper.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", m.viper.ConfigFileUsed())
	}

	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Config returns the current configuration
func (m *Manager) Config() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// ConfigFileUsed returns the path of the loaded config file, or "" when
// running on defaults and environment only
func (m *Manager) ConfigFileUsed() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viper.ConfigFileUsed()
}

// Watch starts watching the config file for changes and reloads automatically.
// Invalid edits are logged and the previous configuration stays active.
func (m *Manager) Watch() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching {
		return nil
	}
	if m.viper.ConfigFileUsed() == "" {
		return errors.New("no config file to watch")
	}

	m.viper.OnConfigChange(func(e fsnotify.Event) {
		m.mu.Lock()
		log := m.log
		log.Debug().Str("op", e.Op.String()).Str("file", e.Name).Msg("config change detected")

		cfg, err := m.build()
		if err != nil {
			m.mu.Unlock()
			log.Warn().Err(err).Msg("failed to reload config, keeping previous")
			return
		}
		m.config = cfg
		m.notifyCallbacksLocked()
	})
	m.viper.WatchConfig()

	m.watching = true
	return nil
}

// notifyCallbacksLocked releases m.mu before running callbacks
func (m *Manager) notifyCallbacksLocked() {
	cfg := m.config
	callbacks := make([]func(*Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	for _, callback := range callbacks {
		callback(cfg)
	}
}

// OnConfigChange registers a callback function to be called when config changes.
func (m *Manager) OnConfigChange(callback func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callbacks = append(m.callbacks, callback)
}

// GetConfigDir returns $XDG_CONFIG_HOME/spotskip, falling back to ~/.config/spotskip
func GetConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "spotskip"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "spotskip"), nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("target.process_name", d.Target.ProcessName)
	v.SetDefault("target.app_name", d.Target.AppName)
	v.SetDefault("target.executable_path", d.Target.ExecutablePath)
	v.SetDefault("target.fallback_paths", d.Target.FallbackPaths)
	v.SetDefault("target.command", d.Target.Command)

	v.SetDefault("monitor.poll_interval", d.Monitor.PollInterval)
	v.SetDefault("monitor.min_poll_interval", d.Monitor.MinPollInterval)
	v.SetDefault("monitor.max_poll_interval", d.Monitor.MaxPollInterval)
	v.SetDefault("monitor.cooldown", d.Monitor.Cooldown)

	v.SetDefault("restart.grace_delay", d.Restart.GraceDelay)
	v.SetDefault("restart.settle_delay", d.Restart.SettleDelay)
	v.SetDefault("restart.settle_poll_interval", d.Restart.SettlePollInterval)
	v.SetDefault("restart.hide_window", d.Restart.HideWindow)
	v.SetDefault("restart.launch_hidden", d.Restart.LaunchHidden)
	v.SetDefault("restart.verify", d.Restart.Verify)
	v.SetDefault("restart.verify_delay", d.Restart.VerifyDelay)
	v.SetDefault("restart.confirm_exit", d.Restart.ConfirmExit)
	v.SetDefault("restart.exit_timeout", d.Restart.ExitTimeout)

	v.SetDefault("classifier.ad_markers", d.Classifier.AdMarkers)
	v.SetDefault("classifier.separator", d.Classifier.Separator)
	v.SetDefault("classifier.ignored_titles", d.Classifier.IgnoredTitles)

	v.SetDefault("daemon.pid_file", d.Daemon.PIDFile)
	v.SetDefault("daemon.log_file", d.Daemon.LogFile)

	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.journal", d.Database.Journal)
	v.SetDefault("database.retention", d.Database.Retention)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
}
