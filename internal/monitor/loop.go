// Package monitor drives the poll, classify and restart cycle.
package monitor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/spotskip/spotskip/internal/classifier"
	"github.com/spotskip/spotskip/internal/config"
	"github.com/spotskip/spotskip/internal/restart"
	"github.com/spotskip/spotskip/internal/state"
	"github.com/spotskip/spotskip/pkg/window"
)

// diagnosticInterval bounds how often repeated "not running" and "no windows"
// diagnostics are logged
const diagnosticInterval = 30 * time.Second

// Restarter runs one restart sequence. *restart.Orchestrator implements it.
type Restarter interface {
	Run(ctx context.Context, st *state.MonitorState, trigger string) restart.Outcome
}

// Journal receives restart outcomes and tick errors for later inspection
type Journal interface {
	RecordRestart(out restart.Outcome) error
	RecordError(err error) error
}

type Loop struct {
	cfg       config.MonitorConfig
	target    config.TargetConfig
	windows   window.Inspector
	procs     window.ProcessController
	restarter Restarter
	journal   Journal
	log       zerolog.Logger

	classifier atomic.Pointer[classifier.Classifier]
	state      *state.MonitorState
	now        func() time.Time

	wasRunning     bool
	hadWindows     bool
	lastNotRunning time.Time
	lastNoWindows  time.Time
}

// New creates the monitor loop with a fresh MonitorState. journal may be nil.
func New(cfg *config.Config, windows window.Inspector, procs window.ProcessController, restarter Restarter, cls *classifier.Classifier, journal Journal, log zerolog.Logger) *Loop {
	l := &Loop{
		cfg:        cfg.Monitor,
		target:     cfg.Target,
		windows:    windows,
		procs:      procs,
		restarter:  restarter,
		journal:    journal,
		log:        log,
		state:      state.New(cfg.Monitor.Cooldown),
		now:        time.Now,
		wasRunning: true,
		hadWindows: true,
	}
	l.classifier.Store(cls)
	return l
}

// SetClassifier swaps the classifier used from the next evaluated title on.
// It is safe to call from another goroutine.
func (l *Loop) SetClassifier(c *classifier.Classifier) {
	l.classifier.Store(c)
	if r, ok := l.restarter.(interface{ SetClassifier(*classifier.Classifier) }); ok {
		r.SetClassifier(c)
	}
}

// State returns the loop's state. It must only be read from the goroutine running Run.
func (l *Loop) State() *state.MonitorState {
	return l.state
}

// Run polls until ctx is cancelled, which is a clean exit and returns nil.
// Tick errors are logged and the loop continues; a panic inside a tick stops
// the loop and is returned as an error.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info().
		Str("process", l.target.ProcessName).
		Dur("poll_interval", l.cfg.PollInterval).
		Dur("cooldown", l.cfg.Cooldown).
		Msg("monitor started")

	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			l.log.Info().Msg("monitor stopped")
			return nil
		}

		if err := l.safeTick(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			l.log.Info().Msg("monitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (l *Loop) safeTick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("monitor tick panicked: %v", r)
			l.log.Error().Err(err).Msg("fatal error, stopping monitor")
			l.recordError(err)
		}
	}()

	if tickErr := l.tick(ctx); tickErr != nil && ctx.Err() == nil {
		l.log.Warn().Err(tickErr).Msg("monitor tick failed")
		l.recordError(tickErr)
	}
	return nil
}

func (l *Loop) tick(ctx context.Context) error {
	st := l.state
	if st.Restarting {
		return nil
	}

	running, err := l.procs.IsProcessRunning(l.target.ProcessName)
	if err != nil {
		return errors.Wrap(err, "failed to check target process")
	}
	if !running {
		l.noteNotRunning()
		return nil
	}
	l.wasRunning = true

	titles, err := l.windows.VisibleWindowTitles(l.target.ProcessName)
	if err != nil {
		return errors.Wrap(err, "failed to list target windows")
	}
	if len(titles) == 0 {
		l.noteNoWindows()
		return nil
	}
	l.hadWindows = true

	cls := l.classifier.Load()
	for _, title := range titles {
		if ctx.Err() != nil {
			return nil
		}

		if st.ObserveTitle(title) {
			l.log.Debug().Str("title", title).Msg("title changed")
		}

		decision := cls.Explain(title)
		if decision.Result != classifier.Advertisement {
			continue
		}

		now := l.now()
		if !st.Cooldown.Admit(now) {
			l.log.Debug().
				Str("title", title).
				Dur("remaining", st.Cooldown.Remaining(now)).
				Msg("advertisement detected, waiting for cooldown")
			continue
		}

		st.Cooldown.Record(now)
		st.LastSongBeforeRestart = st.PreviousTitle

		l.log.Info().
			Str("title", title).
			Str("rule", string(decision.Rule)).
			Str("marker", decision.Marker).
			Msg("advertisement detected")

		out := l.restarter.Run(ctx, st, title)
		if l.journal != nil {
			if err := l.journal.RecordRestart(out); err != nil {
				l.log.Warn().Err(err).Msg("failed to journal restart")
			}
		}
		return nil
	}

	return nil
}

func (l *Loop) noteNotRunning() {
	now := l.now()
	if l.wasRunning || now.Sub(l.lastNotRunning) >= diagnosticInterval {
		l.log.Info().Str("process", l.target.ProcessName).Msg("target is not running")
		l.lastNotRunning = now
	}
	l.wasRunning = false
	l.hadWindows = true
}

func (l *Loop) noteNoWindows() {
	now := l.now()
	if l.hadWindows || now.Sub(l.lastNoWindows) >= diagnosticInterval {
		l.log.Info().Str("process", l.target.ProcessName).Msg("target is running but has no visible windows")
		l.lastNoWindows = now
	}
	l.hadWindows = false
}

func (l *Loop) recordError(err error) {
	if l.journal == nil {
		return
	}
	if jerr := l.journal.RecordError(err); jerr != nil {
		l.log.Warn().Err(jerr).Msg("failed to journal error")
	}
}
