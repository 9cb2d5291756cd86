package hybrid

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotskip/spotskip/pkg/integrations/process"
	"github.com/spotskip/spotskip/pkg/window"
)

type fakeSender struct {
	err  error
	sent []window.MediaKey
}

func (f *fakeSender) SendMediaKey(key window.MediaKey) error {
	f.sent = append(f.sent, key)
	return f.err
}

func TestDetectorInterfaces(t *testing.T) {
	var _ window.Inspector = (*Detector)(nil)
	var _ window.KeySender = (*Detector)(nil)
	var _ window.KeySender = (*Playerctl)(nil)
}

func TestSendMediaKeyFallsBack(t *testing.T) {
	broken := &fakeSender{err: errors.New("XTEST missing")}
	working := &fakeSender{}

	d := &Detector{
		processes: process.NewController(),
		senders:   []window.KeySender{broken, working},
		log:       zerolog.Nop(),
	}

	require.NoError(t, d.SendMediaKey(window.NextTrack))
	assert.Equal(t, []window.MediaKey{window.NextTrack}, broken.sent)
	assert.Equal(t, []window.MediaKey{window.NextTrack}, working.sent)
}

func TestSendMediaKeyAllFail(t *testing.T) {
	d := &Detector{
		senders: []window.KeySender{
			&fakeSender{err: errors.New("first")},
			&fakeSender{err: errors.New("second")},
		},
		log: zerolog.Nop(),
	}

	err := d.SendMediaKey(window.PlayPause)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second")

	empty := &Detector{log: zerolog.Nop()}
	assert.Error(t, empty.SendMediaKey(window.PlayPause))
}

func TestWithoutInspector(t *testing.T) {
	d := &Detector{processes: process.NewController(), log: zerolog.Nop()}

	_, err := d.VisibleWindowTitles("spotify")
	assert.ErrorIs(t, err, ErrNoInspector)

	_, _, err = d.FindWindowByTitle("Spotify")
	assert.ErrorIs(t, err, ErrNoInspector)

	assert.ErrorIs(t, d.SetWindowVisibility(1, false), ErrNoInspector)

	_, err = d.Windows()
	assert.ErrorIs(t, err, ErrNoInspector)
	assert.False(t, d.IsAvailable())
	assert.Equal(t, "none", d.GetDisplayServer())
	assert.Contains(t, d.GetStatus(), "Window Inspector: unavailable")
	assert.NoError(t, d.Close())
}

func TestPlayerctlArgs(t *testing.T) {
	var calls [][]string
	p := NewPlayerctl("Spotify")
	p.run = func(name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		return nil, nil
	}

	require.NoError(t, p.SendMediaKey(window.PlayPause))
	require.NoError(t, p.SendMediaKey(window.NextTrack))
	assert.Equal(t, []string{"playerctl", "--player=spotify", "play-pause"}, calls[0])
	assert.Equal(t, []string{"playerctl", "--player=spotify", "next"}, calls[1])

	assert.Error(t, p.SendMediaKey(window.MediaKey(7)))
}

func TestPlayerctlError(t *testing.T) {
	p := NewPlayerctl("")
	p.run = func(name string, args ...string) ([]byte, error) {
		assert.Equal(t, []string{"next"}, args)
		return []byte("No players found\n"), errors.New("exit status 1")
	}

	err := p.SendMediaKey(window.NextTrack)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No players found")
}
