package x11

import (
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"
	"github.com/pkg/errors"

	"github.com/spotskip/spotskip/pkg/window"
)

// XF86 multimedia keysyms
const (
	keysymAudioPlay xproto.Keysym = 0x1008FF14
	keysymAudioNext xproto.Keysym = 0x1008FF17
)

// ErrNoKeycode is returned when the keyboard map has no key for a media keysym
var ErrNoKeycode = errors.New("no keycode mapped for media key")

// Keyboard implements window.KeySender with the XTEST extension
type Keyboard struct {
	client *client
}

// NewKeyboard creates a key sender sharing the inspector's connection
func NewKeyboard(i *Inspector) *Keyboard {
	return &Keyboard{client: i.client}
}

// SendMediaKey presses and releases the key mapped to key
func (k *Keyboard) SendMediaKey(key window.MediaKey) error {
	sym, err := keysymFor(key)
	if err != nil {
		return err
	}

	conn, err := k.client.connect()
	if err != nil {
		return err
	}

	if err := k.client.ensureXTest(conn); err != nil {
		return errors.Wrap(err, "XTEST extension unavailable")
	}

	setup := k.client.setup
	count := byte(setup.MaxKeycode - setup.MinKeycode + 1)
	mapping, err := xproto.GetKeyboardMapping(conn, setup.MinKeycode, count).Reply()
	if err != nil {
		return errors.Wrap(err, "failed to read keyboard mapping")
	}

	code, ok := keycodeFor(setup.MinKeycode, mapping.KeysymsPerKeycode, mapping.Keysyms, sym)
	if !ok {
		return errors.Wrapf(ErrNoKeycode, "%s", key)
	}

	for _, evType := range []byte{xproto.KeyPress, xproto.KeyRelease} {
		err := xtest.FakeInputChecked(conn, evType, byte(code), xproto.TimeCurrentTime, k.client.root, 0, 0, 0).Check()
		if err != nil {
			return errors.Wrapf(err, "failed to send %s", key)
		}
	}

	return nil
}

func keysymFor(key window.MediaKey) (xproto.Keysym, error) {
	switch key {
	case window.PlayPause:
		return keysymAudioPlay, nil
	case window.NextTrack:
		return keysymAudioNext, nil
	default:
		return 0, errors.Errorf("unsupported media key %d", int(key))
	}
}

// keycodeFor scans a GetKeyboardMapping reply for target
func keycodeFor(first xproto.Keycode, perKeycode byte, syms []xproto.Keysym, target xproto.Keysym) (xproto.Keycode, bool) {
	if perKeycode == 0 {
		return 0, false
	}

	for i, sym := range syms {
		if sym == target {
			return first + xproto.Keycode(i/int(perKeycode)), true
		}
	}

	return 0, false
}
