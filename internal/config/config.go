package config

import (
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Target application configuration
	Target TargetConfig `mapstructure:"target"`

	// Monitor loop configuration
	Monitor MonitorConfig `mapstructure:"monitor"`

	// Restart sequence configuration
	Restart RestartConfig `mapstructure:"restart"`

	// Title classifier configuration
	Classifier ClassifierConfig `mapstructure:"classifier"`

	// Daemon configuration
	Daemon DaemonConfig `mapstructure:"daemon"`

	// Journal database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// TargetConfig describes the supervised media player
type TargetConfig struct {
	ProcessName    string   `mapstructure:"process_name"`    // Process name matched against /proc comm
	AppName        string   `mapstructure:"app_name"`        // Bare window title shown without track info
	ExecutablePath string   `mapstructure:"executable_path"` // Primary install path, supports {home} and {user}
	FallbackPaths  []string `mapstructure:"fallback_paths"`  // Alternate install paths tried in order
	Command        string   `mapstructure:"command"`         // Bare command resolved through PATH as a last resort
}

// MonitorConfig holds polling behavior configuration
type MonitorConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	MinPollInterval time.Duration `mapstructure:"min_poll_interval"`
	MaxPollInterval time.Duration `mapstructure:"max_poll_interval"`
	Cooldown        time.Duration `mapstructure:"cooldown"` // Minimum time between two admitted restarts
}

// RestartConfig holds the restart sequence timings and options
type RestartConfig struct {
	GraceDelay         time.Duration `mapstructure:"grace_delay"`          // Fixed wait after killing the player
	SettleDelay        time.Duration `mapstructure:"settle_delay"`         // Wait after launching the player
	SettlePollInterval time.Duration `mapstructure:"settle_poll_interval"` // Slice of the settle delay between hide attempts
	HideWindow         bool          `mapstructure:"hide_window"`          // Minimize the relaunched window while settling
	LaunchHidden       bool          `mapstructure:"launch_hidden"`        // Ask the player to start minimized
	// Verify sends play after settling and skips when the pre-restart title is
	// back. The monitor records the triggering advertisement as that title and
	// advertisements are never skipped, so through the monitor loop only the
	// play key is ever sent.
	Verify             bool          `mapstructure:"verify"`
	VerifyDelay        time.Duration `mapstructure:"verify_delay"`         // Wait between play and the title check
	ConfirmExit        bool          `mapstructure:"confirm_exit"`         // Poll for process exit after the grace delay
	ExitTimeout        time.Duration `mapstructure:"exit_timeout"`         // Upper bound for the exit poll
}

// ClassifierConfig holds the title heuristic rules
type ClassifierConfig struct {
	AdMarkers     []string `mapstructure:"ad_markers"`     // Case-insensitive substrings marking an ad
	Separator     string   `mapstructure:"separator"`      // Artist/track separator of normal playback titles
	IgnoredTitles []string `mapstructure:"ignored_titles"` // Exact idle/branding titles
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string `mapstructure:"pid_file"` // Path to PID file for daemon management
	LogFile string `mapstructure:"log_file"` // Log destination of the detached daemon
}

// DatabaseConfig holds journal database configuration
type DatabaseConfig struct {
	Path      string        `mapstructure:"path"`      // Empty means ~/.config/spotskip/spotskip.db
	Journal   bool          `mapstructure:"journal"`   // Record restart outcomes and tick errors
	Retention time.Duration `mapstructure:"retention"` // Journal entries older than this are pruned, 0 keeps everything
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // trace, debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
	File   string `mapstructure:"file"`   // Empty means stderr
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Target: TargetConfig{
			ProcessName:    "spotify",
			AppName:        "Spotify",
			ExecutablePath: "/usr/bin/spotify",
			FallbackPaths: []string{
				"/opt/spotify/spotify",
				"/usr/share/spotify/spotify",
				"/snap/bin/spotify",
				"{home}/.local/share/flatpak/exports/bin/com.spotify.Client",
				"/var/lib/flatpak/exports/bin/com.spotify.Client",
			},
			Command: "spotify",
		},
		Monitor: MonitorConfig{
			PollInterval:    1000 * time.Millisecond,
			MinPollInterval: 100 * time.Millisecond,
			MaxPollInterval: 60 * time.Second,
			Cooldown:        30 * time.Second,
		},
		Restart: RestartConfig{
			GraceDelay:         2 * time.Second,
			SettleDelay:        5 * time.Second,
			SettlePollInterval: 500 * time.Millisecond,
			HideWindow:         false,
			LaunchHidden:       false,
			Verify:             false,
			VerifyDelay:        2 * time.Second,
			ConfirmExit:        false,
			ExitTimeout:        5 * time.Second,
		},
		Classifier: ClassifierConfig{
			AdMarkers:     []string{"Advertisement", "Sponsored"},
			Separator:     " - ",
			IgnoredTitles: []string{"Spotify Free", "Spotify Premium"},
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/spotskip-%d.pid", os.Getuid()),
			LogFile: fmt.Sprintf("/tmp/spotskip-%d.log", os.Getuid()),
		},
		Database: DatabaseConfig{
			Path:      "",
			Journal:   true,
			Retention: 30 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Target.ProcessName == "" {
		return fmt.Errorf("target process name cannot be empty")
	}

	if c.Target.ExecutablePath == "" && len(c.Target.FallbackPaths) == 0 && c.Target.Command == "" {
		return fmt.Errorf("at least one launch path or command is required")
	}

	if c.Monitor.PollInterval < c.Monitor.MinPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be less than minimum (%v)",
			c.Monitor.PollInterval, c.Monitor.MinPollInterval)
	}

	if c.Monitor.PollInterval > c.Monitor.MaxPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be greater than maximum (%v)",
			c.Monitor.PollInterval, c.Monitor.MaxPollInterval)
	}

	if c.Monitor.Cooldown < 0 {
		return fmt.Errorf("cooldown cannot be negative")
	}

	delays := map[string]time.Duration{
		"grace delay":          c.Restart.GraceDelay,
		"settle delay":         c.Restart.SettleDelay,
		"verify delay":         c.Restart.VerifyDelay,
		"exit timeout":         c.Restart.ExitTimeout,
		"settle poll interval": c.Restart.SettlePollInterval,
	}
	for name, d := range delays {
		if d < 0 {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}

	if c.Classifier.Separator == "" {
		return fmt.Errorf("classifier separator cannot be empty")
	}

	if c.Database.Retention < 0 {
		return fmt.Errorf("journal retention cannot be negative")
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (valid: trace, debug, info, warn, error)", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q (valid: console, json)", c.Logging.Format)
	}

	return nil
}

// SetPollInterval sets the poll interval with validation
func (c *Config) SetPollInterval(interval time.Duration) error {
	if interval < c.Monitor.MinPollInterval {
		return fmt.Errorf("poll interval cannot be less than %v", c.Monitor.MinPollInterval)
	}
	if interval > c.Monitor.MaxPollInterval {
		return fmt.Errorf("poll interval cannot be greater than %v", c.Monitor.MaxPollInterval)
	}
	c.Monitor.PollInterval = interval
	return nil
}

// LaunchCandidates returns the expanded launch attempts in order: primary
// path, fallback paths, then the bare command. Empty and duplicate entries
// are dropped.
func (t TargetConfig) LaunchCandidates() []string {
	raw := make([]string, 0, len(t.FallbackPaths)+2)
	raw = append(raw, t.ExecutablePath)
	raw = append(raw, t.FallbackPaths...)
	raw = append(raw, t.Command)

	seen := make(map[string]bool, len(raw))
	candidates := make([]string, 0, len(raw))
	for _, p := range raw {
		p = ExpandPath(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		candidates = append(candidates, p)
	}
	return candidates
}

// ExpandPath substitutes the {home} and {user} placeholders
func ExpandPath(p string) string {
	if !strings.Contains(p, "{") {
		return p
	}

	if home, err := os.UserHomeDir(); err == nil {
		p = strings.ReplaceAll(p, "{home}", home)
	}

	name := os.Getenv("USER")
	if name == "" {
		if u, err := user.Current(); err == nil {
			name = u.Username
		}
	}
	return strings.ReplaceAll(p, "{user}", name)
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Target:
    Process Name: %s
    App Name: %s
    Launch Candidates: %s
  Monitor:
    Poll Interval: %v
    Cooldown: %v
  Restart:
    Grace Delay: %v
    Settle Delay: %v
    Hide Window: %v
    Verify: %v
    Confirm Exit: %v
  Classifier:
    Ad Markers: %s
    Separator: %q
    Ignored Titles: %s
  Daemon:
    PID File: %s
  Database:
    Path: %s
    Journal: %v
  Logging:
    Level: %s
    Format: %s`,
		c.Target.ProcessName,
		c.Target.AppName,
		strings.Join(c.Target.LaunchCandidates(), ", "),
		c.Monitor.PollInterval,
		c.Monitor.Cooldown,
		c.Restart.GraceDelay,
		c.Restart.SettleDelay,
		c.Restart.HideWindow,
		c.Restart.Verify,
		c.Restart.ConfirmExit,
		strings.Join(c.Classifier.AdMarkers, ", "),
		c.Classifier.Separator,
		strings.Join(c.Classifier.IgnoredTitles, ", "),
		c.Daemon.PIDFile,
		c.Database.Path,
		c.Database.Journal,
		c.Logging.Level,
		c.Logging.Format,
	)
}
