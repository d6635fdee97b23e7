// Package backend sets up the client side of a connection to a Wayland
// compositor for a fullscreen renderer: it negotiates the globals,
// creates the main surface, follows outputs and seats, and manages the
// pointer cursor.
//
// A Backend is not safe for concurrent use. Protocol events are read
// on a goroutine of its own, but they are only dispatched, and
// subscribers only called, from within Flush, RoundTrip and Run.
package backend

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"

	wl "deedles.dev/wlbackend/client"
	"deedles.dev/wlbackend/cursor"
	"deedles.dev/wlbackend/internal/logging"
	"deedles.dev/wlbackend/internal/set"
	"deedles.dev/wlbackend/shm"
	"deedles.dev/wlbackend/wire"
	"github.com/charmbracelet/log"
)

const (
	DefaultPoolSize    = 64 << 10
	DefaultMaxPoolSize = 4 << 20
)

// Options configures a Backend. The zero value is usable.
type Options struct {
	// Socket is the name of the display socket. If empty, it is taken
	// from the environment.
	Socket string

	// Dial connects to the compositor. It defaults to wire.Dial.
	Dial Dialer

	// CursorTheme and CursorSize select the cursor theme. They default
	// to $XCURSOR_THEME and $XCURSOR_SIZE.
	CursorTheme string
	CursorSize  int

	// LoadTheme loads cursor themes. It defaults to cursor.LoadTheme.
	LoadTheme cursor.ThemeLoader

	// CursorDecoder, if set, gives every seat a tracker for cursors
	// identified by a foreign serial.
	CursorDecoder cursor.Decoder

	// LegacyCursors gives every seat a tracker for X11 cursor font
	// glyphs, looked up in the seat's cursor theme. It is ignored if
	// CursorDecoder is set.
	LegacyCursors bool

	// PoolSize and MaxPoolSize bound the shared memory used for cursor
	// images.
	PoolSize    int
	MaxPoolSize int

	// Title and Class are set on the shell surface.
	Title string
	Class string

	Logger *log.Logger
}

func (opts Options) withDefaults() Options {
	if opts.Dial == nil {
		opts.Dial = wire.Dial
	}
	theme, size := cursor.EnvTheme()
	if opts.CursorTheme == "" {
		opts.CursorTheme = theme
	}
	if opts.CursorSize <= 0 {
		opts.CursorSize = size
	}
	if opts.LoadTheme == nil {
		opts.LoadTheme = cursor.LoadTheme
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = DefaultPoolSize
	}
	if opts.MaxPoolSize < opts.PoolSize {
		opts.MaxPoolSize = max(DefaultMaxPoolSize, opts.PoolSize)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return opts
}

// Backend owns the connection to the compositor and everything bound
// through it.
type Backend struct {
	opts  Options
	log   *log.Logger
	state State
	ready bool
	subs  subscribers

	conn     *connection
	registry *Registry

	compositor      *wl.Compositor
	compositorName  uint32
	shell           *wl.Shell
	shellName       uint32
	fullscreenShell *wl.FullscreenShell
	fullscreenName  uint32
	shm             *wl.Shm
	shmName         uint32
	pool            *shm.Pool

	// withdrawn holds the interfaces of singleton globals that the
	// compositor removed while they were bound.
	withdrawn set.Set[string]

	surface      *wl.Surface
	shellSurface *wl.ShellSurface
	presented    bool
	shellSize    image.Point

	outputs []*Output
	seats   []*Seat
}

// New returns a backend that has not connected yet.
func New(opts Options) *Backend {
	opts = opts.withDefaults()
	return &Backend{
		opts:      opts,
		log:       opts.Logger.WithPrefix("backend"),
		withdrawn: set.New[string](),
	}
}

// Subscribe registers f to be called with every event. The returned
// function unregisters it.
func (b *Backend) Subscribe(f func(Event)) (cancel func()) {
	return b.subs.add(f)
}

func (b *Backend) emit(ev Event) {
	b.log.Debug("event", "type", fmt.Sprintf("%T", ev))
	b.subs.emit(ev)
}

func (b *Backend) State() State {
	return b.state
}

func (b *Backend) setState(state State) {
	if b.state == state {
		return
	}
	b.log.Debug("state", "from", b.state, "to", state)
	b.state = state
}

// Connect connects to the compositor and starts negotiating. It does
// not wait for the negotiation to finish. Use RoundTrip or Run to
// process the compositor's replies.
func (b *Backend) Connect(ctx context.Context) error {
	switch b.state {
	case StateInitial:
	case StateFailed:
		return ErrFailed
	case StateClosed:
		return ErrClosed
	default:
		return errors.New("already connected")
	}

	conn, err := dial(ctx, b.opts.Dial, b.opts.Socket, b.opts.Logger)
	if err != nil {
		err = &ConnectionError{Socket: b.opts.Socket, Err: err}
		b.log.Error("connect", "err", err)
		b.setState(StateFailed)
		b.emit(ConnectionFailed{Err: err})
		return err
	}
	b.conn = conn
	b.setState(StateConnecting)

	conn.client.Display().Listener = (*displayListener)(b)
	b.registry = newRegistry(conn.client, (*registryListener)(b), b.log.WithPrefix("registry"))
	return nil
}

// check returns an error if the backend can't talk to the compositor.
func (b *Backend) check() error {
	switch b.state {
	case StateInitial:
		return ErrNotConnected
	case StateFailed:
		return ErrFailed
	case StateClosed:
		return ErrClosed
	}
	return nil
}

// Flush dispatches the events that have arrived since the last call
// without waiting for more.
func (b *Backend) Flush() error {
	if err := b.check(); err != nil {
		return err
	}

	err := b.conn.client.Flush()
	if died := b.checkConnection(); died != nil {
		return died
	}
	return err
}

// RoundTrip waits until the compositor has handled every request sent
// so far, dispatching events in the meantime.
func (b *Backend) RoundTrip() error {
	if err := b.check(); err != nil {
		return err
	}

	err := b.conn.client.RoundTrip()
	if died := b.checkConnection(); died != nil {
		return died
	}
	if b.state == StateFailed {
		return errors.Join(ErrFailed, err)
	}
	return err
}

// Run dispatches events as they arrive until ctx is canceled or the
// backend fails.
func (b *Backend) Run(ctx context.Context) error {
	if err := b.check(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case events := <-b.conn.client.Events():
			err := events.Flush()
			if err != nil {
				b.log.Error("dispatch", "err", err)
			}
			if b.state == StateFailed {
				return ErrFailed
			}

		case <-b.conn.Done():
			_ = b.conn.client.Flush()
			if died := b.checkConnection(); died != nil {
				return died
			}
			return b.check()
		}
	}
}

// checkConnection fails the backend if the compositor has gone away.
func (b *Backend) checkConnection() error {
	died, err := b.conn.Died()
	if !died {
		return nil
	}
	if b.state.Terminal() {
		return ErrFailed
	}

	err = &CompositorDiedError{Err: err}
	b.log.Error("compositor died", "err", err)
	b.fail()
	b.emit(SystemCompositorDied{Err: err})
	b.destroyOutputs()
	return err
}

// fail moves the backend into the failed state and drops everything
// bound through the connection. No request is sent from then on.
func (b *Backend) fail() {
	b.ready = false
	b.setState(StateFailed)
	b.conn.stop()
	b.conn.client.Abort()
	b.releaseSeats()
	b.releaseShm()
}

// Close shuts the backend down. The connection goroutine is stopped
// and joined before any object is released. If the backend has failed,
// objects are only forgotten.
func (b *Backend) Close() error {
	if b.state == StateClosed {
		return nil
	}
	b.setState(StateClosed)
	b.ready = false
	if b.conn == nil {
		return nil
	}

	b.conn.stop()
	b.releaseSeats()
	for _, o := range b.outputs {
		b.releaseOutput(o)
	}
	b.outputs = nil
	b.releaseSurface()
	b.releaseShm()
	b.releaseGlobals()
	b.registry.destroy()

	return b.conn.close()
}

func (b *Backend) Client() *wl.Client {
	if b.conn == nil {
		return nil
	}
	return b.conn.client
}

func (b *Backend) Registry() *Registry {
	return b.registry
}

func (b *Backend) Compositor() *wl.Compositor {
	return b.compositor
}

func (b *Backend) Shell() *wl.Shell {
	return b.shell
}

func (b *Backend) FullscreenShell() *wl.FullscreenShell {
	return b.fullscreenShell
}

func (b *Backend) Shm() *wl.Shm {
	return b.shm
}

// ShmPool returns the pool that cursor images are allocated from.
func (b *Backend) ShmPool() *shm.Pool {
	return b.pool
}

// Surface returns the main surface.
func (b *Backend) Surface() *wl.Surface {
	return b.surface
}

func (b *Backend) ShellSurface() *wl.ShellSurface {
	return b.shellSurface
}

// ShellSurfaceSize is the size that the compositor wants the main
// surface to have, or the zero point if it hasn't said.
func (b *Backend) ShellSurfaceSize() image.Point {
	return b.shellSize
}

// Outputs returns the outputs in the order that they were announced.
func (b *Backend) Outputs() []*Output {
	return slices.Clone(b.outputs)
}

// Seat returns the first seat, or nil if there is none.
func (b *Backend) Seat() *Seat {
	if len(b.seats) == 0 {
		return nil
	}
	return b.seats[0]
}

func (b *Backend) Seats() []*Seat {
	return slices.Clone(b.seats)
}

// InstallCursorImage shows shape on the first seat. It does nothing if
// there is no seat.
func (b *Backend) InstallCursorImage(shape cursor.Shape) error {
	if err := b.check(); err != nil {
		return err
	}

	seat := b.Seat()
	if seat == nil {
		return nil
	}
	return seat.InstallCursorImage(shape)
}

// CursorChanged shows the foreign cursor identified by serial on the
// first seat.
func (b *Backend) CursorChanged(serial uint32) error {
	if err := b.check(); err != nil {
		return err
	}

	seat := b.Seat()
	if seat == nil {
		return nil
	}
	return seat.CursorChanged(serial)
}

// SetCursorTheme switches every seat to another cursor theme.
func (b *Backend) SetCursorTheme(name string, size int) error {
	if err := b.check(); err != nil {
		return err
	}

	b.opts.CursorTheme, b.opts.CursorSize = name, size
	var errs []error
	for _, seat := range b.seats {
		errs = append(errs, seat.SetTheme(name, size))
	}
	return errors.Join(errs...)
}
