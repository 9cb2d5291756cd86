package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spotskip/spotskip/internal/classifier"
	"github.com/spotskip/spotskip/internal/config"
	"github.com/spotskip/spotskip/internal/daemon"
	"github.com/spotskip/spotskip/internal/database"
	"github.com/spotskip/spotskip/internal/logging"
	"github.com/spotskip/spotskip/internal/monitor"
	"github.com/spotskip/spotskip/internal/restart"
	"github.com/spotskip/spotskip/pkg/detector"
)

const pruneInterval = time.Hour

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the monitor in the foreground until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}

			log, closeLog, err := a.logger(cfg.Logging)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runMonitor(ctx, a.mgr, cfg, log)
		},
	}
}

func newStartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the monitor as a background daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}

			dm := daemon.New(cfg.Daemon.PIDFile)
			running, pid, err := dm.IsRunning()
			if err != nil {
				return errors.Wrap(err, "failed to check daemon status")
			}
			if running && !daemon.IsChild() {
				return errors.Errorf("daemon is already running (PID: %d)", pid)
			}

			if !daemon.IsChild() {
				childPID, err := daemon.Daemonize(os.Args[1:])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Daemon started successfully (PID: %d)", childPID)))
				fmt.Fprintln(out, field("Logs:", daemonLogFile(cfg)))
				return nil
			}

			logCfg := cfg.Logging
			logCfg.File = daemonLogFile(cfg)
			log, closeLog, err := a.logger(logCfg)
			if err != nil {
				return err
			}
			defer closeLog()

			if err := dm.WritePID(); err != nil {
				log.Error().Err(err).Msg("failed to write PID file")
				return err
			}
			defer func() { _ = dm.RemovePID() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info().Msgf("starting spotskip daemon\n%s", cfg.String())
			if err := runMonitor(ctx, a.mgr, cfg, log); err != nil {
				log.Error().Err(err).Msg("daemon stopped with error")
				return err
			}
			log.Info().Msg("daemon stopped successfully")
			return nil
		},
	}
}

func daemonLogFile(cfg *config.Config) string {
	if cfg.Logging.File != "" {
		return cfg.Logging.File
	}
	return cfg.Daemon.LogFile
}

func newStopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			dm := daemon.New(cfg.Daemon.PIDFile)
			running, pid, err := dm.IsRunning()
			if err != nil {
				return errors.Wrap(err, "failed to check daemon status")
			}
			if !running {
				fmt.Fprintln(out, warningStyle.Render("Daemon is not running"))
				return nil
			}

			fmt.Fprintf(out, "Stopping daemon (PID: %d)...\n", pid)
			if err := dm.Stop(); err != nil {
				return errors.Wrap(err, "failed to stop daemon")
			}
			fmt.Fprintln(out, successStyle.Render("Daemon stopped successfully"))
			return nil
		},
	}
}

// runMonitor wires the platform, the journal and the monitor loop and blocks
// until ctx is cancelled or the loop hits a fatal error
func runMonitor(ctx context.Context, mgr *config.Manager, cfg *config.Config, log zerolog.Logger) error {
	det, err := detector.New(cfg.Target.AppName, logging.WithComponent(log, "platform"))
	if err != nil {
		return errors.Wrap(err, "failed to initialize platform integrations")
	}
	defer det.Close()

	var (
		journal *database.Journal
		sink    monitor.Journal
	)
	if cfg.Database.Journal {
		db, err := database.Connect(cfg.Database.Path)
		if err == nil {
			err = db.Initialize()
			defer db.Close()
		}
		if err != nil {
			log.Warn().Err(err).Msg("journal unavailable, continuing without it")
		} else {
			journal = database.NewJournal(database.NewRepository(db))
			sink = journal
		}
	}

	cls := classifier.New(cfg.Classifier, cfg.Target.AppName)
	orchestrator := restart.New(cfg, det, det.Processes(), det, cls, logging.WithComponent(log, "restart"))
	loop := monitor.New(cfg, det, det.Processes(), orchestrator, cls, sink, logging.WithComponent(log, "monitor"))

	if mgr != nil && mgr.ConfigFileUsed() != "" {
		mgr.SetLogger(logging.WithComponent(log, "config"))
		mgr.OnConfigChange(func(c *config.Config) {
			loop.SetClassifier(classifier.New(c.Classifier, c.Target.AppName))
			log.Info().Msg("classifier rules reloaded, other changes apply after restart")
		})
		if err := mgr.Watch(); err != nil {
			log.Warn().Err(err).Msg("config hot reload disabled")
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	if journal != nil {
		g.Go(func() error {
			pctx := logging.WithContext(gctx, logging.WithComponent(log, "journal"))
			return journal.Prune(pctx, cfg.Database.Retention, pruneInterval)
		})
	}

	return g.Wait()
}
