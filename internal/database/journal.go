package database

import (
	"context"
	"time"

	"github.com/spotskip/spotskip/internal/logging"
	"github.com/spotskip/spotskip/internal/models"
	"github.com/spotskip/spotskip/internal/restart"
)

// Journal appends monitor diagnostics to the repository. It only writes;
// nothing is read back into the running monitor.
type Journal struct {
	repo *Repository
	now  func() time.Time
}

func NewJournal(repo *Repository) *Journal {
	return &Journal{repo: repo, now: time.Now}
}

// RecordRestart stores a finished restart sequence
func (j *Journal) RecordRestart(out restart.Outcome) error {
	timestamp := out.StartedAt
	if timestamp.IsZero() {
		timestamp = j.now()
	}

	return j.repo.CreateRestartEvent(&models.RestartEvent{
		SequenceID:     out.ID,
		Timestamp:      timestamp,
		TriggerTitle:   out.TriggerTitle,
		LastSong:       out.LastSong,
		Phase:          out.Reached.String(),
		Terminated:     out.Terminated,
		LaunchAttempts: out.LaunchAttempts,
		LaunchPath:     out.LaunchPath,
		Launched:       out.Launched,
		WindowsHidden:  out.WindowsHidden,
		PlaySent:       out.PlaySent,
		SkipSent:       out.SkipSent,
		Cancelled:      out.Cancelled,
		Errors:         out.ErrorText(),
		DurationMillis: out.Duration().Milliseconds(),
	})
}

// RecordError stores a monitor tick error
func (j *Journal) RecordError(err error) error {
	return j.repo.CreateErrorLog(&models.ErrorLog{
		Timestamp: j.now(),
		Component: "monitor",
		ErrorMsg:  err.Error(),
	})
}

// Prune deletes journal entries older than retention every interval until ctx
// is done. A zero retention disables pruning. Diagnostics go to the logger
// carried by ctx.
func (j *Journal) Prune(ctx context.Context, retention, interval time.Duration) error {
	if retention <= 0 {
		return nil
	}
	log := logging.FromContext(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := j.repo.DeleteOldEvents(j.now().Add(-retention))
		if err != nil {
			log.Warn().Err(err).Msg("failed to prune journal")
		} else if n > 0 {
			log.Debug().Int64("deleted", n).Msg("pruned journal")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
