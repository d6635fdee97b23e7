package backend_test

import (
	"context"
	"errors"
	"image"
	"math/rand/v2"
	"testing"

	"deedles.dev/wlbackend/backend"
	wl "deedles.dev/wlbackend/client"
	"deedles.dev/wlbackend/cursor"
	"deedles.dev/wlbackend/internal/logging"
	"deedles.dev/wlbackend/internal/wltest"
	"deedles.dev/wlbackend/pointer"
	"deedles.dev/wlbackend/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	capPointer  = uint32(wl.SeatCapabilityPointer)
	capKeyboard = uint32(wl.SeatCapabilityKeyboard)
)

type recorder struct {
	events []backend.Event
}

func (r *recorder) record(ev backend.Event) {
	r.events = append(r.events, ev)
}

func count[T backend.Event](r *recorder) int {
	var n int
	for _, ev := range r.events {
		if _, ok := ev.(T); ok {
			n++
		}
	}
	return n
}

func last[T backend.Event](r *recorder) (T, bool) {
	for i := len(r.events) - 1; i >= 0; i-- {
		if ev, ok := r.events[i].(T); ok {
			return ev, true
		}
	}
	var z T
	return z, false
}

type themeLoader struct {
	loads int
}

func (l *themeLoader) load(name string, size int) (cursor.Theme, error) {
	l.loads++
	return cursor.MapTheme{
		"left_ptr": {Image: image.NewRGBA(image.Rect(0, 0, 4, 4)), Hotspot: image.Pt(1, 1)},
		"xterm":    {Image: image.NewRGBA(image.Rect(0, 0, 2, 6)), Hotspot: image.Pt(1, 3)},
	}, nil
}

type harness struct {
	comp   *wltest.Compositor
	b      *backend.Backend
	events *recorder
	loader *themeLoader
}

// setup connects a backend to comp. configure may adjust the options
// before the backend is created.
func setup(t *testing.T, comp *wltest.Compositor, configure func(*backend.Options)) *harness {
	t.Helper()

	h := harness{
		comp:   comp,
		events: new(recorder),
		loader: new(themeLoader),
	}

	opts := backend.Options{
		Dial:        comp.Dial,
		CursorTheme: "test",
		CursorSize:  24,
		LoadTheme:   h.loader.load,
		Title:       "wlbackend test",
		Class:       "wlbackend",
		Logger:      logging.Discard(),
	}
	if configure != nil {
		configure(&opts)
	}

	h.b = backend.New(opts)
	h.b.Subscribe(h.events.record)
	t.Cleanup(func() { h.b.Close() })

	require.NoError(t, h.b.Connect(context.Background()))
	return &h
}

// settle round trips until the compositor has handled the requests
// caused by the replies to earlier requests.
func (h *harness) settle(t *testing.T) {
	t.Helper()
	for range 3 {
		require.NoError(t, h.b.RoundTrip())
	}
}

func desktop(t *testing.T) *wltest.Compositor {
	comp := wltest.New(t)
	comp.AddDesktopGlobals()
	return comp
}

func TestReadyOnce(t *testing.T) {
	comp := desktop(t)
	h := setup(t, comp, nil)
	h.settle(t)

	assert.Equal(t, backend.StateReady, h.b.State())
	assert.Equal(t, 1, count[backend.BackendReady](h.events))
	require.NotNil(t, h.b.Surface())
	require.NotNil(t, h.b.ShellSurface())

	for range 3 {
		require.NoError(t, h.b.RoundTrip())
	}
	comp.AddGlobal("wl_shell", 1)
	h.settle(t)
	assert.Equal(t, 1, count[backend.BackendReady](h.events))

	assert.Len(t, comp.Requests("wl_shell.get_shell_surface"), 1)
	assert.Len(t, comp.Requests("wl_shell_surface.set_fullscreen"), 1)
	title := comp.Requests("wl_shell_surface.set_title")
	require.Len(t, title, 1)
	assert.Equal(t, "wlbackend test", title[0].Args[0])
	assert.NoError(t, comp.Err())
}

func TestReadyFullscreenShell(t *testing.T) {
	comp := wltest.New(t)
	comp.AddGlobal("wl_compositor", 4)
	comp.AddGlobal("zwp_fullscreen_shell_v1", 1)
	comp.AddGlobal("wl_output", 3)

	h := setup(t, comp, nil)
	h.settle(t)

	assert.Equal(t, backend.StateReady, h.b.State())
	assert.Equal(t, 1, count[backend.BackendReady](h.events))
	assert.Nil(t, h.b.ShellSurface())
	assert.Len(t, comp.Requests("zwp_fullscreen_shell_v1.present_surface"), 1)

	assert.Equal(t, image.Pt(1920, 1080), h.b.ShellSurfaceSize())
	ev, ok := last[backend.ShellSurfaceSizeChanged](h.events)
	require.True(t, ok)
	assert.Equal(t, image.Pt(1920, 1080), ev.Size)

	comp.SetOutputMode(1280, 720)
	require.NoError(t, h.b.RoundTrip())
	assert.Equal(t, image.Pt(1280, 720), h.b.ShellSurfaceSize())
}

func TestShellPrecedence(t *testing.T) {
	comp := wltest.New(t)
	comp.AddGlobal("wl_compositor", 4)
	comp.AddGlobal("zwp_fullscreen_shell_v1", 1)
	comp.AddGlobal("wl_shell", 1)

	h := setup(t, comp, nil)
	h.settle(t)

	assert.Equal(t, 1, count[backend.BackendReady](h.events))
	assert.Len(t, comp.Requests("wl_shell.get_shell_surface"), 1)
	assert.Empty(t, comp.Requests("zwp_fullscreen_shell_v1.present_surface"))
}

func TestNoShell(t *testing.T) {
	comp := wltest.New(t)
	comp.AddGlobal("wl_compositor", 4)
	comp.AddGlobal("wl_shm", 1)

	h := setup(t, comp, nil)
	h.settle(t)

	assert.Equal(t, backend.StateNegotiating, h.b.State())
	assert.Zero(t, count[backend.BackendReady](h.events))
	assert.NotNil(t, h.b.Surface())
	assert.NoError(t, h.b.CreateSurface())

	comp.AddGlobal("wl_shell", 1)
	h.settle(t)

	assert.Equal(t, backend.StateReady, h.b.State())
	assert.Equal(t, 1, count[backend.BackendReady](h.events))
	assert.Len(t, comp.Requests("wl_compositor.create_surface"), 1)
	assert.Len(t, comp.Requests("wl_shell.get_shell_surface"), 1)
}

func TestNoCompositor(t *testing.T) {
	comp := wltest.New(t)
	comp.AddGlobal("wl_shell", 1)

	h := setup(t, comp, nil)
	h.settle(t)

	assert.Zero(t, count[backend.BackendReady](h.events))
	assert.Nil(t, h.b.Surface())
	assert.ErrorIs(t, h.b.CreateSurface(), backend.ErrNoCompositor)

	comp.AddGlobal("wl_compositor", 4)
	h.settle(t)
	assert.Equal(t, 1, count[backend.BackendReady](h.events))
	assert.NotNil(t, h.b.Surface())
}

func TestSeatCapabilities(t *testing.T) {
	comp := desktop(t)
	comp.SeatCapabilities = capPointer
	h := setup(t, comp, nil)
	h.settle(t)

	seat := h.b.Seat()
	require.NotNil(t, seat)
	assert.Equal(t, "seat0", seat.Name())
	p := seat.Pointer()
	require.NotNil(t, p)
	assert.Nil(t, seat.Keyboard())

	comp.SetSeatCapabilities(capPointer | capKeyboard)
	h.settle(t)
	assert.Same(t, p, seat.Pointer())
	assert.NotNil(t, seat.Keyboard())
	assert.Len(t, comp.Requests("wl_seat.get_pointer"), 1)
	assert.Len(t, comp.Requests("wl_seat.get_keyboard"), 1)

	comp.SetSeatCapabilities(capKeyboard)
	h.settle(t)
	assert.Nil(t, seat.Pointer())
	assert.NotNil(t, seat.Keyboard())
	assert.Len(t, comp.Requests("wl_pointer.release"), 1)
	assert.Empty(t, comp.Resources("wl_pointer"))

	comp.SetSeatCapabilities(capKeyboard)
	h.settle(t)
	assert.Len(t, comp.Requests("wl_seat.get_keyboard"), 1)
	assert.Len(t, comp.Resources("wl_keyboard"), 1)

	comp.SetSeatCapabilities(0)
	h.settle(t)
	assert.Nil(t, seat.Keyboard())
	assert.Empty(t, comp.Resources("wl_keyboard"))
}

func TestSeatCapabilitySequences(t *testing.T) {
	comp := desktop(t)
	h := setup(t, comp, nil)
	h.settle(t)

	seat := h.b.Seat()
	require.NotNil(t, seat)

	r := rand.New(rand.NewPCG(1, 2))
	for i := range 50 {
		caps := r.Uint32N(4)
		comp.SetSeatCapabilities(caps)
		h.settle(t)

		hasPointer := caps&capPointer != 0
		hasKeyboard := caps&capKeyboard != 0
		assert.Equal(t, hasPointer, seat.Pointer() != nil, "step %v: caps %v", i, caps)
		assert.Equal(t, hasKeyboard, seat.Keyboard() != nil, "step %v: caps %v", i, caps)
		assert.Equal(t, hasPointer, len(comp.Resources("wl_pointer")) == 1, "step %v: caps %v", i, caps)
		assert.Equal(t, hasKeyboard, len(comp.Resources("wl_keyboard")) == 1, "step %v: caps %v", i, caps)
	}
	assert.NoError(t, comp.Err())
}

func TestOutputs(t *testing.T) {
	comp := desktop(t)
	h := setup(t, comp, nil)
	h.settle(t)

	outputs := h.b.Outputs()
	require.Len(t, outputs, 1)
	first := outputs[0]
	assert.True(t, first.Done())
	assert.Equal(t, image.Pt(1920, 1080), first.PixelSize())
	assert.Equal(t, int32(60000), first.RefreshRate())
	assert.Equal(t, "wltest", first.Manufacturer())
	assert.Equal(t, "virtual", first.Model())
	assert.Equal(t, image.Rect(0, 0, 1920, 1080), first.Geometry())
	assert.NotZero(t, count[backend.OutputsChanged](h.events))

	second := comp.AddGlobal("wl_output", 3)
	h.settle(t)
	outputs = h.b.Outputs()
	require.Len(t, outputs, 2)
	assert.Equal(t, first.Global().Name, outputs[0].Global().Name)
	assert.Equal(t, second, outputs[1].Global().Name)

	before := count[backend.OutputsChanged](h.events)
	comp.RemoveGlobal(first.Global().Name)
	h.settle(t)
	outputs = h.b.Outputs()
	require.Len(t, outputs, 1)
	assert.Equal(t, second, outputs[0].Global().Name)
	assert.Greater(t, count[backend.OutputsChanged](h.events), before)
	assert.Len(t, comp.Requests("wl_output.release"), 1)

	third := comp.AddGlobal("wl_output", 3)
	h.settle(t)
	outputs = h.b.Outputs()
	require.Len(t, outputs, 2)
	assert.Equal(t, second, outputs[0].Global().Name)
	assert.Equal(t, third, outputs[1].Global().Name)
}

func TestDestroyOutputs(t *testing.T) {
	comp := desktop(t)
	comp.AddGlobal("wl_output", 3)
	h := setup(t, comp, nil)
	h.settle(t)
	require.Len(t, h.b.Outputs(), 2)

	before := count[backend.OutputsChanged](h.events)
	h.b.DestroyOutputs()
	assert.Empty(t, h.b.Outputs())
	assert.Equal(t, before+1, count[backend.OutputsChanged](h.events))

	h.b.DestroyOutputs()
	assert.Equal(t, before+1, count[backend.OutputsChanged](h.events))

	h.settle(t)
	assert.Len(t, comp.Requests("wl_output.release"), 2)
}

func TestCursorInstall(t *testing.T) {
	comp := desktop(t)
	comp.SeatCapabilities = capPointer
	h := setup(t, comp, nil)
	h.settle(t)

	// Nothing can be installed before the pointer enters.
	require.NoError(t, h.b.InstallCursorImage(cursor.Arrow))
	h.settle(t)
	assert.Empty(t, comp.Requests("wl_pointer.set_cursor"))
	assert.Zero(t, h.loader.loads)

	serial := comp.PointerEnter()
	h.settle(t)
	assert.Equal(t, 1, h.loader.loads)

	// The shape selected earlier is applied on enter.
	setCursor := comp.Requests("wl_pointer.set_cursor")
	require.Len(t, setCursor, 1)
	assert.Equal(t, serial, setCursor[0].Args[0])
	assert.Equal(t, int32(1), setCursor[0].Args[2])

	require.NoError(t, h.b.InstallCursorImage(cursor.Arrow))
	require.NoError(t, h.b.InstallCursorImage(cursor.Arrow))
	h.settle(t)
	assert.Len(t, comp.Requests("wl_pointer.set_cursor"), 1)

	require.NoError(t, h.b.InstallCursorImage(cursor.IBeam))
	h.settle(t)
	setCursor = comp.Requests("wl_pointer.set_cursor")
	require.Len(t, setCursor, 2)
	assert.Equal(t, int32(3), setCursor[1].Args[3])

	serial = comp.PointerEnter()
	h.settle(t)
	assert.Equal(t, 1, h.loader.loads)
	setCursor = comp.Requests("wl_pointer.set_cursor")
	require.Len(t, setCursor, 3)
	assert.Equal(t, serial, setCursor[2].Args[0])

	// Every cursor goes to the same surface.
	assert.Len(t, comp.Resources("wl_surface"), 2)
	assert.NoError(t, comp.Err())
}

func TestCursorThemeMissingShape(t *testing.T) {
	comp := desktop(t)
	comp.SeatCapabilities = capPointer
	h := setup(t, comp, nil)
	h.settle(t)

	comp.PointerEnter()
	h.settle(t)

	require.NoError(t, h.b.InstallCursorImage(cursor.DragLink))
	h.settle(t)
	assert.Empty(t, comp.Requests("wl_pointer.set_cursor"))
}

func TestSetCursorTheme(t *testing.T) {
	comp := desktop(t)
	comp.SeatCapabilities = capPointer
	h := setup(t, comp, nil)
	h.settle(t)

	require.NoError(t, h.b.SetCursorTheme("other", 32))
	assert.Zero(t, h.loader.loads)

	comp.PointerEnter()
	h.settle(t)
	assert.Equal(t, 1, h.loader.loads)

	require.NoError(t, h.b.InstallCursorImage(cursor.Arrow))
	require.NoError(t, h.b.SetCursorTheme("another", 32))
	assert.Equal(t, 2, h.loader.loads)
	h.settle(t)
	assert.Len(t, comp.Requests("wl_pointer.set_cursor"), 2)
}

func TestForeignCursor(t *testing.T) {
	comp := desktop(t)
	comp.SeatCapabilities = capPointer

	var decodes map[uint32]int
	h := setup(t, comp, func(opts *backend.Options) {
		decodes = make(map[uint32]int)
		opts.CursorDecoder = cursor.DecoderFunc(func(serial uint32) (image.Image, image.Point, error) {
			decodes[serial]++
			if serial == 7 {
				return nil, image.Point{}, errors.New("no such cursor")
			}
			return image.NewRGBA(image.Rect(0, 0, 3, 3)), image.Pt(1, 1), nil
		})
	})
	h.settle(t)

	comp.PointerEnter()
	h.settle(t)

	seat := h.b.Seat()
	require.NotNil(t, seat.Tracker())

	require.NoError(t, h.b.CursorChanged(7))
	require.NoError(t, h.b.CursorChanged(8))
	require.NoError(t, h.b.CursorChanged(7))
	require.NoError(t, h.b.CursorChanged(7))
	h.settle(t)

	assert.Equal(t, 1, decodes[7])
	assert.Equal(t, 1, decodes[8])
	assert.Len(t, comp.Requests("wl_pointer.set_cursor"), 1)

	cached, ok := seat.Tracker().Cached(7)
	require.True(t, ok)
	assert.False(t, cached.Valid())

	// A ping reinstalls the foreign cursor.
	comp.Ping()
	h.settle(t)
	assert.Len(t, comp.Requests("wl_pointer.set_cursor"), 2)
	assert.Equal(t, 1, decodes[8])
}

func TestPing(t *testing.T) {
	comp := desktop(t)
	comp.SeatCapabilities = capPointer
	h := setup(t, comp, nil)
	h.settle(t)

	comp.PointerEnter()
	h.settle(t)
	require.NoError(t, h.b.InstallCursorImage(cursor.Arrow))
	h.settle(t)
	require.Len(t, comp.Requests("wl_pointer.set_cursor"), 1)

	serial := comp.Ping()
	h.settle(t)

	pong := comp.Requests("wl_shell_surface.pong")
	require.Len(t, pong, 1)
	assert.Equal(t, serial, pong[0].Args[0])
	assert.Len(t, comp.Requests("wl_pointer.set_cursor"), 2)
}

func TestShellSurfaceConfigure(t *testing.T) {
	comp := desktop(t)
	comp.ShellConfigure = image.Pt(1024, 768)
	h := setup(t, comp, nil)
	h.settle(t)

	assert.Equal(t, image.Pt(1024, 768), h.b.ShellSurfaceSize())
	assert.Equal(t, 1, count[backend.ShellSurfaceSizeChanged](h.events))

	comp.ConfigureShellSurface(800, 600)
	h.settle(t)
	ev, ok := last[backend.ShellSurfaceSizeChanged](h.events)
	require.True(t, ok)
	assert.Equal(t, image.Pt(800, 600), ev.Size)
	assert.Equal(t, 2, count[backend.ShellSurfaceSizeChanged](h.events))

	comp.ConfigureShellSurface(800, 600)
	comp.ConfigureShellSurface(0, 0)
	h.settle(t)
	assert.Equal(t, 2, count[backend.ShellSurfaceSizeChanged](h.events))
	assert.Equal(t, image.Pt(800, 600), h.b.ShellSurfaceSize())
}

func TestConnectionFailed(t *testing.T) {
	dialErr := errors.New("no compositor here")
	events := new(recorder)

	b := backend.New(backend.Options{
		Socket: "wayland-test",
		Dial: func(string) (*wire.Conn, error) {
			return nil, dialErr
		},
		Logger: logging.Discard(),
	})
	b.Subscribe(events.record)
	defer b.Close()

	err := b.Connect(context.Background())
	require.ErrorIs(t, err, dialErr)
	var connErr *backend.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "wayland-test", connErr.Socket)

	assert.Equal(t, backend.StateFailed, b.State())
	ev, ok := last[backend.ConnectionFailed](events)
	require.True(t, ok)
	assert.ErrorIs(t, ev.Err, dialErr)

	assert.ErrorIs(t, b.RoundTrip(), backend.ErrFailed)
	assert.ErrorIs(t, b.Connect(context.Background()), backend.ErrFailed)
	assert.ErrorIs(t, b.InstallCursorImage(cursor.Arrow), backend.ErrFailed)
}

func TestCompositorDied(t *testing.T) {
	comp := desktop(t)
	h := setup(t, comp, nil)
	h.settle(t)
	require.Len(t, h.b.Outputs(), 1)

	comp.Close()
	<-comp.Done()

	err := h.b.RoundTrip()
	var died *backend.CompositorDiedError
	require.ErrorAs(t, err, &died)

	assert.Equal(t, backend.StateFailed, h.b.State())
	assert.Equal(t, 1, count[backend.SystemCompositorDied](h.events))
	assert.Empty(t, h.b.Outputs())
	assert.Empty(t, h.b.Seats())

	assert.ErrorIs(t, h.b.RoundTrip(), backend.ErrFailed)
	assert.ErrorIs(t, h.b.Flush(), backend.ErrFailed)
	assert.Equal(t, 1, count[backend.SystemCompositorDied](h.events))
}

func TestCompositorDiedWhileRunning(t *testing.T) {
	comp := desktop(t)
	h := setup(t, comp, nil)
	h.settle(t)

	comp.Close()
	err := h.b.Run(context.Background())
	var died *backend.CompositorDiedError
	require.ErrorAs(t, err, &died)
	assert.Equal(t, 1, count[backend.SystemCompositorDied](h.events))
}

func TestProtocolError(t *testing.T) {
	comp := desktop(t)
	h := setup(t, comp, nil)
	h.settle(t)

	id := h.b.Surface().ID()
	comp.PostError(id, uint32(wl.DisplayErrorImplementation), "broken surface")

	err := h.b.RoundTrip()
	assert.ErrorIs(t, err, backend.ErrFailed)
	assert.Equal(t, backend.StateFailed, h.b.State())

	ev, ok := last[backend.ProtocolError](h.events)
	require.True(t, ok)
	assert.Equal(t, id, ev.ObjectID)
	assert.Equal(t, wl.DisplayErrorImplementation, ev.Code)
	assert.Equal(t, "broken surface", ev.Message)
	assert.Empty(t, h.b.Outputs())
	assert.Zero(t, count[backend.SystemCompositorDied](h.events))
}

func TestCloseDuringNegotiation(t *testing.T) {
	comp := desktop(t)
	h := setup(t, comp, nil)

	require.NoError(t, h.b.Close())
	assert.Equal(t, backend.StateClosed, h.b.State())
	assert.Zero(t, count[backend.BackendReady](h.events))
	assert.Zero(t, h.b.Registry().Bound())
	assert.ErrorIs(t, h.b.RoundTrip(), backend.ErrClosed)
	assert.NoError(t, h.b.Close())

	<-comp.Done()
	assert.Zero(t, count[backend.BackendReady](h.events))
}

func TestCloseReleases(t *testing.T) {
	comp := desktop(t)
	comp.SeatCapabilities = capPointer | capKeyboard
	h := setup(t, comp, nil)
	h.settle(t)

	comp.PointerEnter()
	h.settle(t)
	require.NoError(t, h.b.InstallCursorImage(cursor.Arrow))
	h.settle(t)
	require.NotZero(t, h.b.Registry().Bound())

	require.NoError(t, h.b.Close())
	<-comp.Done()

	assert.Zero(t, h.b.Registry().Bound())
	assert.Len(t, comp.Requests("wl_pointer.release"), 1)
	assert.Len(t, comp.Requests("wl_keyboard.release"), 1)
	assert.Len(t, comp.Requests("wl_seat.release"), 1)
	assert.Len(t, comp.Requests("wl_output.release"), 1)
	assert.Len(t, comp.Requests("wl_shm_pool.destroy"), 1)
	assert.Len(t, comp.Requests("wl_surface.destroy"), 2)
}

func TestRegistryBind(t *testing.T) {
	comp := desktop(t)
	comp.AddGlobal("wl_data_device_manager", 3)
	h := setup(t, comp, nil)
	h.settle(t)

	r := h.b.Registry()
	require.True(t, r.Announced())
	assert.Len(t, r.Globals(), 6)

	_, err := r.Bind("wl_subcompositor", 0)
	assert.ErrorIs(t, err, backend.ErrUnknownInterface)
	_, err = r.Bind("wl_data_device_manager", 0)
	assert.ErrorIs(t, err, backend.ErrUnknownInterface)
	_, err = r.Bind(wl.CompositorInterface, 5)
	assert.ErrorIs(t, err, backend.ErrVersionUnsupported)

	bound := r.Bound()
	obj, err := r.Bind(wl.CompositorInterface, 0)
	require.NoError(t, err)
	c, ok := obj.(*wl.Compositor)
	require.True(t, ok)
	assert.Equal(t, uint32(4), c.Version())
	assert.Equal(t, bound+1, r.Bound())

	g, ok := r.Lookup(wl.OutputInterface)
	require.True(t, ok)
	comp.RemoveGlobal(g.Name)
	h.settle(t)
	_, ok = r.Lookup(wl.OutputInterface)
	assert.False(t, ok)
	_, err = r.BindGlobal(g, 0)
	assert.ErrorIs(t, err, backend.ErrGlobalRemoved)
	assert.NoError(t, comp.Err())
}

func TestSubscribeCancel(t *testing.T) {
	comp := desktop(t)
	h := setup(t, comp, nil)

	var first, second int
	cancel := h.b.Subscribe(func(backend.Event) { first++ })
	h.b.Subscribe(func(ev backend.Event) {
		second++
		cancel()
	})
	h.settle(t)

	assert.Equal(t, 1, first)
	assert.Equal(t, len(h.events.events), second)
}

func TestStateBeforeConnect(t *testing.T) {
	b := backend.New(backend.Options{Logger: logging.Discard()})
	assert.Equal(t, backend.StateInitial, b.State())
	assert.ErrorIs(t, b.RoundTrip(), backend.ErrNotConnected)
	assert.ErrorIs(t, b.Run(context.Background()), backend.ErrNotConnected)
	assert.NoError(t, b.Close())
	assert.ErrorIs(t, b.Connect(context.Background()), backend.ErrClosed)
}

func TestForeignCursorOutside(t *testing.T) {
	comp := desktop(t)
	comp.SeatCapabilities = capPointer
	h := setup(t, comp, func(opts *backend.Options) {
		opts.PoolSize = 4096
		opts.MaxPoolSize = 8192
		opts.CursorDecoder = cursor.DecoderFunc(func(serial uint32) (image.Image, image.Point, error) {
			return image.NewRGBA(image.Rect(0, 0, 24, 24)), image.Pt(12, 12), nil
		})
	})
	h.settle(t)

	// Cursors that change while the pointer is elsewhere take no space
	// in the pool.
	for serial := range uint32(5) {
		require.NoError(t, h.b.CursorChanged(serial+1))
	}
	h.settle(t)
	assert.Empty(t, comp.Requests("wl_shm_pool.create_buffer"))
	assert.Equal(t, 4096, h.b.ShmPool().Size())

	comp.PointerEnter()
	h.settle(t)
	assert.Len(t, comp.Requests("wl_pointer.set_cursor"), 1)
	assert.Len(t, comp.Requests("wl_shm_pool.create_buffer"), 1)

	serial, ok := h.b.Seat().Tracker().InstalledSerial()
	require.True(t, ok)
	assert.Equal(t, uint32(5), serial)

	require.NoError(t, h.b.CursorChanged(99))
	h.settle(t)
	assert.Len(t, comp.Requests("wl_pointer.set_cursor"), 2)
	assert.NoError(t, comp.Err())
}

func TestLegacyCursors(t *testing.T) {
	comp := desktop(t)
	comp.SeatCapabilities = capPointer
	h := setup(t, comp, func(opts *backend.Options) {
		opts.LegacyCursors = true
	})
	h.settle(t)

	comp.PointerEnter()
	h.settle(t)
	require.NotNil(t, h.b.Seat().Tracker())

	require.NoError(t, h.b.CursorChanged(cursor.XCXterm))
	h.settle(t)
	setCursor := comp.Requests("wl_pointer.set_cursor")
	require.Len(t, setCursor, 1)
	assert.Equal(t, int32(1), setCursor[0].Args[2])
	assert.Equal(t, int32(3), setCursor[0].Args[3])

	// The theme has no watch, so the xterm cursor stays.
	require.NoError(t, h.b.CursorChanged(cursor.XCWatch))
	h.settle(t)
	assert.Len(t, comp.Requests("wl_pointer.set_cursor"), 1)

	require.NoError(t, h.b.SetCursorTheme("another", 32))
	h.settle(t)
	assert.Equal(t, 2, h.loader.loads)
	assert.Len(t, comp.Requests("wl_pointer.set_cursor"), 2)
}

func TestEventsAfterProtocolError(t *testing.T) {
	comp := desktop(t)
	comp.SeatCapabilities = capPointer | capKeyboard
	h := setup(t, comp, nil)
	h.settle(t)
	comp.PointerEnter()
	h.settle(t)
	require.NoError(t, h.b.InstallCursorImage(cursor.Arrow))
	h.settle(t)
	binds := len(comp.Requests("wl_registry.bind"))

	comp.PostError(h.b.Surface().ID(), uint32(wl.DisplayErrorImplementation), "broken surface")
	comp.AddGlobal(wl.OutputInterface, 3)
	comp.AddGlobal(wl.SeatInterface, 5)
	comp.ConfigureShellSurface(640, 480)
	assert.ErrorIs(t, h.b.RoundTrip(), backend.ErrFailed)
	changed := count[backend.OutputsChanged](h.events)
	resized := count[backend.ShellSurfaceSizeChanged](h.events)

	assert.ErrorIs(t, h.b.RoundTrip(), backend.ErrFailed)
	require.NoError(t, h.b.Close())
	<-comp.Done()

	assert.Empty(t, h.b.Outputs())
	assert.Empty(t, h.b.Seats())
	assert.Equal(t, changed, count[backend.OutputsChanged](h.events))
	assert.Equal(t, resized, count[backend.ShellSurfaceSizeChanged](h.events))
	assert.Len(t, comp.Requests("wl_registry.bind"), binds)

	// Nothing is released on the wire once the backend has failed.
	for _, method := range []string{
		"wl_output.release",
		"wl_seat.release",
		"wl_pointer.release",
		"wl_keyboard.release",
		"wl_buffer.destroy",
		"wl_shm_pool.destroy",
		"wl_surface.destroy",
	} {
		assert.Empty(t, comp.Requests(method), method)
	}
}

func TestGlobalWithdrawn(t *testing.T) {
	comp := desktop(t)
	comp.SeatCapabilities = capPointer
	h := setup(t, comp, nil)
	h.settle(t)
	require.Equal(t, backend.StateReady, h.b.State())

	g, ok := h.b.Registry().Lookup(wl.CompositorInterface)
	require.True(t, ok)
	comp.RemoveGlobal(g.Name)
	h.settle(t)
	assert.Nil(t, h.b.Compositor())
	assert.NotNil(t, h.b.Surface())

	comp.PointerEnter()
	h.settle(t)
	err := h.b.InstallCursorImage(cursor.Arrow)
	assert.ErrorIs(t, err, backend.ErrGlobalRemoved)
	h.settle(t)
	assert.Len(t, comp.Requests("wl_compositor.create_surface"), 1)

	g, ok = h.b.Registry().Lookup(wl.ShmInterface)
	require.True(t, ok)
	comp.RemoveGlobal(g.Name)
	h.settle(t)
	assert.Nil(t, h.b.Shm())
	assert.Nil(t, h.b.ShmPool())
	assert.Len(t, comp.Requests("wl_shm_pool.destroy"), 1)

	// A new compositor is bound, but the cursor still needs shm.
	comp.AddGlobal(wl.CompositorInterface, 4)
	h.settle(t)
	require.NotNil(t, h.b.Compositor())
	err = h.b.InstallCursorImage(cursor.Arrow)
	assert.ErrorIs(t, err, backend.ErrGlobalRemoved)
	h.settle(t)
	assert.Len(t, comp.Requests("wl_compositor.create_surface"), 1)

	comp.AddGlobal(wl.ShmInterface, 1)
	h.settle(t)
	require.NotNil(t, h.b.ShmPool())
	require.NoError(t, h.b.InstallCursorImage(cursor.Arrow))
	h.settle(t)
	assert.Len(t, comp.Requests("wl_pointer.set_cursor"), 1)
	assert.Len(t, comp.Requests("wl_compositor.create_surface"), 2)
	assert.Equal(t, backend.StateReady, h.b.State())
	assert.NoError(t, comp.Err())
}

func TestPointerButtons(t *testing.T) {
	comp := desktop(t)
	comp.SeatCapabilities = capPointer
	h := setup(t, comp, nil)
	h.settle(t)

	comp.PointerEnter()
	comp.PointerButton(uint32(pointer.ButtonLeft), true)
	comp.PointerButton(uint32(pointer.ButtonRight), true)
	h.settle(t)

	seat := h.b.Seat()
	assert.True(t, seat.Pressed(pointer.ButtonLeft))
	assert.True(t, seat.Pressed(pointer.ButtonRight))
	assert.False(t, seat.Pressed(pointer.ButtonMiddle))

	comp.PointerButton(uint32(pointer.ButtonLeft), false)
	h.settle(t)
	assert.False(t, seat.Pressed(pointer.ButtonLeft))
	assert.True(t, seat.Pressed(pointer.ButtonRight))

	comp.PointerLeave()
	h.settle(t)
	assert.False(t, seat.Pressed(pointer.ButtonRight))
}
