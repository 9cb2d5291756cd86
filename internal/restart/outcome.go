package restart

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Outcome describes one finished restart sequence
type Outcome struct {
	ID           string
	TriggerTitle string
	LastSong     string

	// Reached is the last phase entered before returning to Idle
	Reached Phase

	Terminated     int
	LaunchAttempts int
	LaunchPath     string
	Launched       bool
	WindowsHidden  int
	PlaySent       bool
	SkipSent       bool
	Cancelled      bool

	Errors []error

	StartedAt  time.Time
	FinishedAt time.Time
}

func (o *Outcome) fail(log zerolog.Logger, err error, msg string) {
	log.Warn().Err(err).Str("phase", o.Reached.String()).Msg(msg)
	o.Errors = append(o.Errors, errors.Wrap(err, msg))
}

// Succeeded reports whether the target was relaunched and the sequence ran to completion
func (o Outcome) Succeeded() bool {
	return o.Launched && !o.Cancelled
}

func (o Outcome) Duration() time.Duration {
	if o.FinishedAt.IsZero() {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}

// ErrorText joins the collected step errors with "; "
func (o Outcome) ErrorText() string {
	msgs := make([]string, 0, len(o.Errors))
	for _, err := range o.Errors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}
