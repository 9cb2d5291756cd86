package x11

import (
	"strings"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"
	"github.com/pkg/errors"
)

const (
	iconicState  = 3 // ICCCM WM_STATE IconicState
	maxNameWords = 256
	maxListWords = 4096
)

var atomNames = []string{
	"_NET_CLIENT_LIST",
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"WM_CHANGE_STATE",
	"UTF8_STRING",
}

// client is a lazily (re)connected X11 connection with its interned atoms.
// Extensions are initialized per connection, so a reconnect after reset
// initializes them again.
type client struct {
	mu    sync.Mutex
	conn  *xgb.Conn
	setup *xproto.SetupInfo
	root  xproto.Window
	atoms map[string]xproto.Atom

	initXTest func(*xgb.Conn) error
	xtestConn *xgb.Conn
	xtestErr  error
}

func newClient() *client {
	return &client{initXTest: xtest.Init}
}

func (c *client) connect() (*xgb.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn, nil
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to X server")
	}

	setup := xproto.Setup(conn)
	atoms := make(map[string]xproto.Atom, len(atomNames))
	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		atoms[name] = reply.Atom
	}

	c.conn = conn
	c.setup = setup
	c.root = setup.DefaultScreen(conn).Root
	c.atoms = atoms
	return conn, nil
}

// reset drops the connection so the next call reconnects, e.g. after the X
// server restarted
func (c *client) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.xtestConn = nil
	c.xtestErr = nil
}

// ensureXTest initializes the XTEST extension on conn unless that exact
// connection was already initialized. xtest requests panic on a connection
// the extension was never initialized on.
func (c *client) ensureXTest(conn *xgb.Conn) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.xtestConn != conn {
		c.xtestErr = c.initXTest(conn)
		c.xtestConn = conn
	}
	return c.xtestErr
}

func (c *client) close() {
	c.reset()
}

func (c *client) getProperty(conn *xgb.Conn, window xproto.Window, atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(conn, false, window, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

// clientList returns the top-level windows managed by the window manager
func (c *client) clientList(conn *xgb.Conn) ([]xproto.Window, error) {
	data, err := c.getProperty(conn, c.root, c.atoms["_NET_CLIENT_LIST"], xproto.AtomWindow, maxListWords)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read _NET_CLIENT_LIST")
	}
	return decodeWindowList(data), nil
}

func (c *client) windowName(conn *xgb.Conn, window xproto.Window) string {
	data, err := c.getProperty(conn, window, c.atoms["_NET_WM_NAME"], c.atoms["UTF8_STRING"], maxNameWords)
	if err == nil && len(data) > 0 {
		return trimName(data)
	}

	data, err = c.getProperty(conn, window, c.atoms["WM_NAME"], xproto.AtomString, maxNameWords)
	if err == nil && len(data) > 0 {
		return trimName(data)
	}

	return ""
}

func (c *client) windowPID(conn *xgb.Conn, window xproto.Window) int {
	data, err := c.getProperty(conn, window, c.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return int(xgb.Get32(data))
}

func (c *client) isViewable(conn *xgb.Conn, window xproto.Window) bool {
	reply, err := xproto.GetWindowAttributes(conn, window).Reply()
	if err != nil {
		return false
	}
	return reply.MapState == xproto.MapStateViewable
}

// iconify asks the window manager to minimize window (ICCCM 4.1.4)
func (c *client) iconify(conn *xgb.Conn, window xproto.Window) error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: window,
		Type:   c.atoms["WM_CHANGE_STATE"],
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{iconicState, 0, 0, 0, 0}),
	}
	return c.sendToRoot(conn, ev)
}

// activate maps window and asks the window manager to focus it
func (c *client) activate(conn *xgb.Conn, window xproto.Window) error {
	if err := xproto.MapWindowChecked(conn, window).Check(); err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: window,
		Type:   c.atoms["_NET_ACTIVE_WINDOW"],
		// source indication 2: pager/tool request
		Data: xproto.ClientMessageDataUnionData32New([]uint32{2, 0, 0, 0, 0}),
	}
	return c.sendToRoot(conn, ev)
}

func (c *client) sendToRoot(conn *xgb.Conn, ev xproto.ClientMessageEvent) error {
	mask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify)
	return xproto.SendEventChecked(conn, false, c.root, mask, string(ev.Bytes())).Check()
}

// decodeWindowList decodes a 32-bit WINDOW[] property value
func decodeWindowList(data []byte) []xproto.Window {
	windows := make([]xproto.Window, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		windows = append(windows, xproto.Window(xgb.Get32(data[i:])))
	}
	return windows
}

func trimName(data []byte) string {
	return strings.TrimSpace(strings.TrimRight(string(data), "\x00"))
}
