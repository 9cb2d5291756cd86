// Package cli provides the command-line interface for spotskip.
package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/spotskip/spotskip/internal/config"
	"github.com/spotskip/spotskip/internal/database"
	"github.com/spotskip/spotskip/internal/logging"
)

// app holds state shared by all subcommands
type app struct {
	configFile string
	verbose    bool

	mgr *config.Manager
	cfg *config.Config
}

// load reads configuration once per invocation
func (a *app) load() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	mgr, err := config.NewManager(a.configFile)
	if err != nil {
		return nil, err
	}
	if err := mgr.Load(); err != nil {
		return nil, err
	}

	a.mgr = mgr
	a.cfg = mgr.Config()
	if a.verbose {
		a.cfg.Logging.Level = "debug"
	}
	return a.cfg, nil
}

// logger builds the process logger from the loaded config
func (a *app) logger(cfg config.LoggingConfig) (zerolog.Logger, func(), error) {
	log, closer, err := logging.New(cfg)
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}
	return log, func() { _ = closer.Close() }, nil
}

// openRepository connects to the journal database
func (a *app) openRepository() (*database.Repository, func(), error) {
	cfg, err := a.load()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Initialize(); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return database.NewRepository(db), func() { _ = db.Close() }, nil
}

// NewRootCmd creates the root command for spotskip
func NewRootCmd(version, commit, buildDate string) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "spotskip",
		Short: "Restart Spotify when it starts playing an advertisement",
		Long: `spotskip watches the Spotify window title, recognises advertisements and
restarts the player to get back to the music.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file (default $XDG_CONFIG_HOME/spotskip/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "spotskip %s\n", version)
			fmt.Fprintf(out, "commit: %s\n", commit)
			fmt.Fprintf(out, "built: %s\n", buildDate)
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newStartCmd(a))
	rootCmd.AddCommand(newStopCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))
	rootCmd.AddCommand(newWindowsCmd(a))
	rootCmd.AddCommand(newClassifyCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newReportCmd(a))
	rootCmd.AddCommand(newClearCmd(a))

	return rootCmd
}
