// Package restart implements the kill, relaunch and resettle sequence used to
// recover playback when an advertisement is detected.
package restart

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/spotskip/spotskip/internal/classifier"
	"github.com/spotskip/spotskip/internal/config"
	"github.com/spotskip/spotskip/internal/state"
	"github.com/spotskip/spotskip/pkg/window"
)

// ErrNoLaunchCandidate is recorded when every launch attempt failed
var ErrNoLaunchCandidate = errors.New("no launch candidate could be started")

// exitPollInterval is the process poll period used when confirming exit
const exitPollInterval = 250 * time.Millisecond

// Phase is a state of the restart sequence
type Phase int32

const (
	Idle Phase = iota
	Terminating
	AwaitingTermination
	Launching
	Settling
	Verifying
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Terminating:
		return "terminating"
	case AwaitingTermination:
		return "awaiting-termination"
	case Launching:
		return "launching"
	case Settling:
		return "settling"
	case Verifying:
		return "verifying"
	default:
		return "unknown"
	}
}

// Orchestrator runs restart sequences. It is driven by a single goroutine;
// only Phase and SetClassifier are safe to call concurrently.
type Orchestrator struct {
	cfg     config.RestartConfig
	target  config.TargetConfig
	windows window.Inspector
	procs   window.ProcessController
	keys    window.KeySender
	log     zerolog.Logger

	classifier atomic.Pointer[classifier.Classifier]
	phase      atomic.Int32

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New creates an orchestrator. keys may be nil, in which case verification is skipped.
func New(cfg *config.Config, windows window.Inspector, procs window.ProcessController, keys window.KeySender, cls *classifier.Classifier, log zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg.Restart,
		target:  cfg.Target,
		windows: windows,
		procs:   procs,
		keys:    keys,
		log:     log,
		sleep:   sleepContext,
		now:     time.Now,
	}
	o.classifier.Store(cls)
	return o
}

// SetClassifier replaces the classifier used during verification
func (o *Orchestrator) SetClassifier(c *classifier.Classifier) {
	o.classifier.Store(c)
}

// Phase returns the phase the running sequence is in, Idle when none is running
func (o *Orchestrator) Phase() Phase {
	return Phase(o.phase.Load())
}

func (o *Orchestrator) enter(p Phase, out *Outcome, log zerolog.Logger) {
	o.phase.Store(int32(p))
	out.Reached = p
	log.Debug().Str("phase", p.String()).Msg("restart phase")
}

// Run performs one restart sequence for the advertisement title trigger.
// st.Restarting is true for the whole call and cleared on every exit path.
// Sub-step failures are logged and collected in the Outcome, never returned.
func (o *Orchestrator) Run(ctx context.Context, st *state.MonitorState, trigger string) (out Outcome) {
	out = Outcome{
		ID:           uuid.NewString(),
		TriggerTitle: trigger,
		LastSong:     st.LastSongBeforeRestart,
		StartedAt:    o.now(),
	}
	log := o.log.With().Str("restart_id", out.ID).Logger()

	st.Restarting = true
	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("panic during %s: %v", out.Reached, r)
			log.Error().Err(err).Msg("restart step panicked")
			out.Errors = append(out.Errors, err)
		}
		o.phase.Store(int32(Idle))
		st.Restarting = false
		out.FinishedAt = o.now()

		log.Info().
			Bool("launched", out.Launched).
			Bool("cancelled", out.Cancelled).
			Bool("skip_sent", out.SkipSent).
			Int("errors", len(out.Errors)).
			Dur("duration", out.Duration()).
			Msg("restart sequence finished")
	}()

	log.Info().Str("trigger", trigger).Msg("restarting target application")

	o.enter(Terminating, &out, log)
	o.terminate(&out, log)

	o.enter(AwaitingTermination, &out, log)
	if !o.awaitTermination(ctx, &out, log) {
		return out
	}

	o.enter(Launching, &out, log)
	o.launch(&out, log)
	if !out.Launched {
		return out
	}

	o.enter(Settling, &out, log)
	if !o.settle(ctx, &out, log) {
		return out
	}

	if o.cfg.Verify {
		o.enter(Verifying, &out, log)
		o.verify(ctx, st, &out, log)
	}

	return out
}

func (o *Orchestrator) terminate(out *Outcome, log zerolog.Logger) {
	n, err := o.procs.TerminateAllProcesses(o.target.ProcessName)
	out.Terminated = n
	if err != nil {
		out.fail(log, err, "failed to terminate target processes")
		return
	}
	if n == 0 {
		log.Info().Msg("target was not running")
	}
}

// awaitTermination always waits the grace delay. With ConfirmExit it then polls
// for exit up to ExitTimeout. It returns false when cancelled.
func (o *Orchestrator) awaitTermination(ctx context.Context, out *Outcome, log zerolog.Logger) bool {
	if err := o.sleep(ctx, o.cfg.GraceDelay); err != nil {
		out.Cancelled = true
		return false
	}
	if !o.cfg.ConfirmExit {
		return true
	}

	deadline := o.now().Add(o.cfg.ExitTimeout)
	for {
		running, err := o.procs.IsProcessRunning(o.target.ProcessName)
		if err != nil {
			out.fail(log, err, "failed to confirm target exit")
			return true
		}
		if !running {
			return true
		}
		if !o.now().Before(deadline) {
			log.Warn().Dur("timeout", o.cfg.ExitTimeout).Msg("target still running after exit timeout")
			return true
		}
		if err := o.sleep(ctx, exitPollInterval); err != nil {
			out.Cancelled = true
			return false
		}
	}
}

func (o *Orchestrator) launch(out *Outcome, log zerolog.Logger) {
	var lastErr error
	for _, path := range o.target.LaunchCandidates() {
		out.LaunchAttempts++
		err := o.procs.LaunchExecutable(path, o.cfg.LaunchHidden)
		if err == nil {
			out.Launched = true
			out.LaunchPath = path
			log.Info().Str("path", path).Msg("target relaunched")
			return
		}
		log.Debug().Err(err).Str("path", path).Msg("launch attempt failed")
		lastErr = err
	}

	err := ErrNoLaunchCandidate
	if lastErr != nil {
		err = errors.Wrapf(ErrNoLaunchCandidate, "%d attempts, last: %v", out.LaunchAttempts, lastErr)
	}
	out.fail(log, err, "failed to relaunch target")
}

// settle waits SettleDelay in SettlePollInterval slices, hiding the target's
// windows after each slice when HideWindow is set. It returns false when cancelled.
func (o *Orchestrator) settle(ctx context.Context, out *Outcome, log zerolog.Logger) bool {
	slice := o.cfg.SettlePollInterval
	if !o.cfg.HideWindow || slice <= 0 {
		slice = o.cfg.SettleDelay
	}

	hidden := make(map[window.Handle]bool)
	for remaining := o.cfg.SettleDelay; ; {
		d := min(slice, remaining)
		if err := o.sleep(ctx, d); err != nil {
			out.Cancelled = true
			return false
		}
		remaining -= d

		if o.cfg.HideWindow {
			o.hideWindows(hidden, log)
		}
		if remaining <= 0 {
			break
		}
	}

	out.WindowsHidden = len(hidden)
	return true
}

// hideWindows is best effort; failures are logged at debug level only.
// Only titled windows owned by the target process are hidden.
func (o *Orchestrator) hideWindows(hidden map[window.Handle]bool, log zerolog.Logger) {
	infos, err := o.windows.Windows()
	if err != nil {
		log.Debug().Err(err).Msg("failed to list windows to hide")
		return
	}

	for _, info := range infos {
		if hidden[info.Handle] || !info.Visible || info.Title == "" {
			continue
		}
		if !strings.EqualFold(info.ProcessName, o.target.ProcessName) {
			continue
		}
		if err := o.windows.SetWindowVisibility(info.Handle, false); err != nil {
			log.Debug().Err(err).Str("title", info.Title).Msg("failed to hide window")
			continue
		}
		hidden[info.Handle] = true
	}
}

// verify resumes playback and skips the track when the player reopened on the
// title it showed before the restart
func (o *Orchestrator) verify(ctx context.Context, st *state.MonitorState, out *Outcome, log zerolog.Logger) {
	if o.keys == nil {
		log.Warn().Msg("no media key sender, skipping verification")
		return
	}

	if err := o.keys.SendMediaKey(window.PlayPause); err != nil {
		out.fail(log, err, "failed to send play")
	} else {
		out.PlaySent = true
	}

	if err := o.sleep(ctx, o.cfg.VerifyDelay); err != nil {
		out.Cancelled = true
		return
	}

	titles, err := o.windows.VisibleWindowTitles(o.target.ProcessName)
	if err != nil {
		out.fail(log, err, "failed to read title after restart")
		return
	}

	before := st.LastSongBeforeRestart
	cls := o.classifier.Load()
	for _, title := range titles {
		if before == "" || title != before {
			continue
		}
		if cls != nil && cls.Classify(title) == classifier.Advertisement {
			log.Debug().Str("title", title).Msg("unchanged title is an advertisement, not skipping")
			return
		}

		log.Info().Str("title", title).Msg("same track after restart, skipping")
		if err := o.keys.SendMediaKey(window.NextTrack); err != nil {
			out.fail(log, err, "failed to send next track")
			return
		}
		out.SkipSent = true
		return
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
