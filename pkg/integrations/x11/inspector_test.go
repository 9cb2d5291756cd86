package x11

import (
	"os"
	"testing"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotskip/spotskip/pkg/window"
)

type staticResolver map[int]string

func (r staticResolver) NameOf(pid int) (string, error) {
	if name, ok := r[pid]; ok {
		return name, nil
	}
	return "", os.ErrNotExist
}

func TestInspectorInterface(t *testing.T) {
	var _ window.Inspector = (*Inspector)(nil)
	var _ window.KeySender = (*Keyboard)(nil)
}

func TestGetDisplayServer(t *testing.T) {
	inspector := NewInspector(staticResolver{})
	assert.Equal(t, "x11", inspector.GetDisplayServer())
}

func TestUnavailableWithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")

	inspector := NewInspector(staticResolver{})
	assert.False(t, inspector.IsAvailable())

	_, err := inspector.VisibleWindowTitles("spotify")
	assert.ErrorIs(t, err, ErrDisplayUnavailable)

	_, _, err = inspector.FindWindowByTitle("Spotify")
	assert.ErrorIs(t, err, ErrDisplayUnavailable)

	assert.ErrorIs(t, inspector.SetWindowVisibility(1, false), ErrDisplayUnavailable)
	assert.NoError(t, inspector.Close())
}

func TestDecodeWindowList(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []xproto.Window
	}{
		{
			name: "Empty",
			data: nil,
			want: []xproto.Window{},
		},
		{
			name: "Two windows",
			data: []byte{0x2b, 0x03, 0x80, 0x00, 0x01, 0x00, 0x00, 0x04},
			want: []xproto.Window{0x80032b, 0x04000001},
		},
		{
			name: "Trailing partial word ignored",
			data: []byte{0x01, 0x00, 0x00, 0x00, 0xff, 0xff},
			want: []xproto.Window{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeWindowList(tt.data))
		})
	}
}

func TestTrimName(t *testing.T) {
	assert.Equal(t, "Spotify Premium", trimName([]byte("Spotify Premium\x00")))
	assert.Equal(t, "Drake - God's Plan", trimName([]byte(" Drake - God's Plan \x00\x00")))
	assert.Equal(t, "", trimName([]byte("\x00")))
}

func TestTitlesOwnedBy(t *testing.T) {
	infos := []window.WindowInfo{
		{Handle: 1, Title: "Drake - God's Plan", ProcessName: "spotify", Visible: true},
		{Handle: 2, Title: "", ProcessName: "spotify", Visible: true},
		{Handle: 3, Title: "Spotify", ProcessName: "Spotify", Visible: true},
		{Handle: 4, Title: "Hidden helper", ProcessName: "spotify", Visible: false},
		{Handle: 5, Title: "Inbox", ProcessName: "thunderbird", Visible: true},
	}

	titles := titlesOwnedBy(infos, "spotify")
	assert.Equal(t, []string{"Drake - God's Plan", "Spotify"}, titles)

	assert.Empty(t, titlesOwnedBy(infos, "vlc"))
}

func TestKeycodeFor(t *testing.T) {
	// keycodes 8..11, two keysyms per keycode
	syms := []xproto.Keysym{
		0x61, 0x41, // 8: a A
		0x62, 0x42, // 9: b B
		keysymAudioPlay, 0, // 10
		0, keysymAudioNext, // 11
	}

	code, ok := keycodeFor(8, 2, syms, keysymAudioPlay)
	require.True(t, ok)
	assert.Equal(t, xproto.Keycode(10), code)

	code, ok = keycodeFor(8, 2, syms, keysymAudioNext)
	require.True(t, ok)
	assert.Equal(t, xproto.Keycode(11), code)

	_, ok = keycodeFor(8, 2, syms, 0x1008FF16)
	assert.False(t, ok)

	_, ok = keycodeFor(8, 0, syms, keysymAudioPlay)
	assert.False(t, ok)
}

func TestKeysymFor(t *testing.T) {
	sym, err := keysymFor(window.PlayPause)
	require.NoError(t, err)
	assert.Equal(t, keysymAudioPlay, sym)

	sym, err = keysymFor(window.NextTrack)
	require.NoError(t, err)
	assert.Equal(t, keysymAudioNext, sym)

	_, err = keysymFor(window.MediaKey(9))
	assert.Error(t, err)
}

func TestWindowsOnLiveDisplay(t *testing.T) {
	inspector := NewInspector(staticResolver{})
	if !inspector.IsAvailable() {
		t.Skip("X11 display not available on this system")
	}
	defer inspector.Close()

	infos, err := inspector.Windows()
	if err != nil {
		t.Logf("Windows() error (may be expected without an EWMH window manager): %v", err)
		return
	}

	for _, info := range infos {
		t.Logf("0x%x pid=%d title=%q", uint64(info.Handle), info.PID, info.Title)
		assert.Equal(t, "x11", info.DisplayServer)
	}
}

func TestXTestInitializedPerConnection(t *testing.T) {
	var initialized []*xgb.Conn
	c := &client{initXTest: func(conn *xgb.Conn) error {
		initialized = append(initialized, conn)
		return nil
	}}

	first := &xgb.Conn{}
	require.NoError(t, c.ensureXTest(first))
	require.NoError(t, c.ensureXTest(first))
	assert.Len(t, initialized, 1)

	// after a reset the same extension must be set up on the new connection
	c.reset()
	second := &xgb.Conn{}
	require.NoError(t, c.ensureXTest(second))
	require.NoError(t, c.ensureXTest(second))
	require.Len(t, initialized, 2)
	assert.Same(t, first, initialized[0])
	assert.Same(t, second, initialized[1])

	// a connection swapped in without reset is detected too
	third := &xgb.Conn{}
	require.NoError(t, c.ensureXTest(third))
	assert.Len(t, initialized, 3)
}

func TestXTestInitErrorIsRetriedOnReconnect(t *testing.T) {
	calls := 0
	c := &client{initXTest: func(*xgb.Conn) error {
		calls++
		if calls == 1 {
			return errors.New("extension XTEST not present")
		}
		return nil
	}}

	conn := &xgb.Conn{}
	assert.Error(t, c.ensureXTest(conn))
	assert.Error(t, c.ensureXTest(conn))
	assert.Equal(t, 1, calls)

	c.reset()
	assert.NoError(t, c.ensureXTest(&xgb.Conn{}))
	assert.Equal(t, 2, calls)
}

func TestNewInspectorUsesXTestInit(t *testing.T) {
	inspector := NewInspector(staticResolver{})
	assert.NotNil(t, inspector.client.initXTest)
}
