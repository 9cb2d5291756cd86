package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/spotskip/spotskip/internal/models"
	"github.com/spotskip/spotskip/internal/restart"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := Connect(filepath.Join(t.TempDir(), "journal", "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(db)
}

func TestJournalRecordRestart(t *testing.T) {
	repo := newTestRepo(t)
	journal := NewJournal(repo)

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	out := restart.Outcome{
		ID:             "seq-1",
		TriggerTitle:   "Spotify",
		LastSong:       "Spotify",
		Reached:        restart.Settling,
		Terminated:     2,
		LaunchAttempts: 1,
		LaunchPath:     "/usr/bin/spotify",
		Launched:       true,
		Errors:         []error{errors.New("hide failed")},
		StartedAt:      start,
		FinishedAt:     start.Add(7500 * time.Millisecond),
	}
	require.NoError(t, journal.RecordRestart(out))

	event, err := repo.GetBySequenceID("seq-1")
	require.NoError(t, err)
	assert.Equal(t, "Spotify", event.TriggerTitle)
	assert.Equal(t, "settling", event.Phase)
	assert.Equal(t, 2, event.Terminated)
	assert.True(t, event.Launched)
	assert.Equal(t, "hide failed", event.Errors)
	assert.Equal(t, 7500*time.Millisecond, event.Duration())

	_, err = repo.GetBySequenceID("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRecentAndSummary(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	titles := []string{"Spotify", "Advertisement", "Spotify", "Spotify"}
	for i, title := range titles {
		require.NoError(t, repo.CreateRestartEvent(&models.RestartEvent{
			SequenceID:   title + string(rune('a'+i)),
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
			TriggerTitle: title,
			Phase:        "settling",
			Launched:     i != 2,
		}))
	}

	recent, err := repo.GetRecentRestarts(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].Timestamp.After(recent[1].Timestamp))

	since, err := repo.GetRestartsSince(base.Add(90 * time.Second))
	require.NoError(t, err)
	assert.Len(t, since, 2)

	summary, err := repo.GetTriggerSummarySince(base)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "Spotify", summary[0].TriggerTitle)
	assert.Equal(t, 3, summary[0].Restarts)
	assert.Equal(t, 2, summary[0].Launched)
	assert.Equal(t, 1, summary[1].Restarts)

	latest, err := repo.GetLatest()
	require.NoError(t, err)
	assert.Equal(t, base.Add(3*time.Minute).Unix(), latest.Timestamp.Unix())
}

func TestErrorsAndClear(t *testing.T) {
	repo := newTestRepo(t)
	journal := NewJournal(repo)

	require.NoError(t, journal.RecordError(errors.New("BadWindow")))
	require.NoError(t, journal.RecordRestart(restart.Outcome{ID: "x", TriggerTitle: "Spotify"}))

	count, err := repo.CountErrorsSince(time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	logs, err := repo.GetRecentErrors(10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "monitor", logs[0].Component)

	require.NoError(t, repo.Clear())

	latest, err := repo.GetLatest()
	require.NoError(t, err)
	assert.Nil(t, latest)

	count, err = repo.CountErrorsSince(time.Time{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteOldEvents(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateRestartEvent(&models.RestartEvent{SequenceID: "old", Timestamp: base, TriggerTitle: "Spotify", Phase: "idle"}))
	require.NoError(t, repo.CreateRestartEvent(&models.RestartEvent{SequenceID: "new", Timestamp: base.Add(48 * time.Hour), TriggerTitle: "Spotify", Phase: "idle"}))

	n, err := repo.DeleteOldEvents(base.Add(24 * time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	remaining, err := repo.GetRestartsSince(time.Time{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].SequenceID)
}

func TestJournalPrune(t *testing.T) {
	repo := newTestRepo(t)
	journal := NewJournal(repo)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	journal.now = func() time.Time { return now }

	require.NoError(t, repo.CreateRestartEvent(&models.RestartEvent{SequenceID: "old", Timestamp: now.AddDate(0, 0, -40), TriggerTitle: "Spotify", Phase: "idle"}))
	require.NoError(t, repo.CreateRestartEvent(&models.RestartEvent{SequenceID: "new", Timestamp: now.AddDate(0, 0, -1), TriggerTitle: "Spotify", Phase: "idle"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, journal.Prune(ctx, 30*24*time.Hour, time.Hour))

	remaining, err := repo.GetRestartsSince(time.Time{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].SequenceID)

	assert.NoError(t, journal.Prune(ctx, 0, time.Hour))
}
