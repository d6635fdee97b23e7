package backend

import (
	"fmt"
	"image"
	"os"

	wl "deedles.dev/wlbackend/client"
	"deedles.dev/wlbackend/cursor"
	"deedles.dev/wlbackend/internal/set"
	"deedles.dev/wlbackend/pointer"
	"deedles.dev/wlbackend/wire"
	"github.com/charmbracelet/log"
	"golang.org/x/image/draw"
)

// Seat is a group of input devices. It keeps a pointer and a keyboard
// in line with the seat's capabilities and manages the pointer's
// cursor.
type Seat struct {
	// backend provides shared resources. The backend owns the seat,
	// not the other way around.
	backend *Backend
	global  Global
	seat    *wl.Seat
	log     *log.Logger

	name     string
	caps     wl.SeatCapability
	pointer  *wl.Pointer
	keyboard *wl.Keyboard

	entered     bool
	enterSerial uint32
	buttons     set.Set[pointer.Button]

	cursorSurface   *wl.Surface
	installed       bool
	installedSerial uint32

	themeName   string
	themeSize   int
	theme       cursor.Theme
	themeLoaded bool

	shape    cursor.Shape
	hasShape bool
	foreign  bool
	tracker  *cursor.Tracker
	legacy   bool
}

func newSeat(b *Backend, seat *wl.Seat, g Global) *Seat {
	s := Seat{
		backend:   b,
		global:    g,
		seat:      seat,
		log:       b.log.WithPrefix("seat").With("seat", g.Name),
		themeName: b.opts.CursorTheme,
		themeSize: b.opts.CursorSize,
		buttons:   set.New[pointer.Button](),
	}
	switch {
	case b.opts.CursorDecoder != nil:
		s.tracker = cursor.NewTracker(b.opts.CursorDecoder, &s)
	case b.opts.LegacyCursors:
		s.legacy = true
		s.tracker = s.legacyTracker()
	}
	seat.Listener = (*seatListener)(&s)
	return &s
}

// Global is the global that the seat was bound from.
func (s *Seat) Global() Global {
	return s.global
}

// Name is the seat's name, if the compositor provided one.
func (s *Seat) Name() string {
	return s.name
}

func (s *Seat) Capabilities() wl.SeatCapability {
	return s.caps
}

// Pointer returns the seat's pointer, or nil if it has none.
func (s *Seat) Pointer() *wl.Pointer {
	return s.pointer
}

// Keyboard returns the seat's keyboard, or nil if it has none.
func (s *Seat) Keyboard() *wl.Keyboard {
	return s.keyboard
}

// Pressed reports whether button is held down while the pointer is on
// one of the client's surfaces.
func (s *Seat) Pressed(button pointer.Button) bool {
	return s.buttons.Has(button)
}

// Tracker returns the seat's foreign cursor tracker. It is nil unless
// the backend was given a cursor decoder or legacy cursors were
// enabled.
func (s *Seat) Tracker() *cursor.Tracker {
	return s.tracker
}

// Changed reconciles the seat's devices with caps. Devices are created
// when their capability appears and released when it disappears.
// Repeating the same capabilities changes nothing.
func (s *Seat) Changed(caps wl.SeatCapability) {
	s.caps = caps

	hasPointer := caps.Has(wl.SeatCapabilityPointer)
	switch {
	case hasPointer && (s.pointer == nil):
		s.pointer = s.seat.GetPointer()
		s.pointer.Listener = (*pointerListener)(s)
		s.log.Debug("pointer added")
	case !hasPointer && (s.pointer != nil):
		s.destroyPointer()
		s.log.Debug("pointer removed")
	}

	hasKeyboard := caps.Has(wl.SeatCapabilityKeyboard)
	switch {
	case hasKeyboard && (s.keyboard == nil):
		s.keyboard = s.seat.GetKeyboard()
		s.keyboard.Listener = (*keyboardListener)(s)
		s.log.Debug("keyboard added")
	case !hasKeyboard && (s.keyboard != nil):
		s.keyboard.Release()
		s.keyboard = nil
		s.log.Debug("keyboard removed")
	}
}

func (s *Seat) destroyPointer() {
	s.pointer.Release()
	s.pointer = nil
	s.entered = false
	clear(s.buttons)
	s.installed = false
	if s.cursorSurface != nil {
		s.cursorSurface.Destroy()
		s.cursorSurface = nil
	}
}

// PointerEntered records the serial of a pointer enter event, which is
// needed to set the cursor, and applies the current cursor.
func (s *Seat) PointerEntered(serial uint32) error {
	s.entered = true
	s.enterSerial = serial
	s.installed = false
	s.loadTheme()

	return s.ResetCursor()
}

func (s *Seat) loadTheme() {
	if s.themeLoaded {
		return
	}
	s.themeLoaded = true

	theme, err := s.backend.opts.LoadTheme(s.themeName, s.themeSize)
	if err != nil {
		s.log.Warn("load cursor theme", "theme", s.themeName, "size", s.themeSize, "err", err)
		return
	}
	s.theme = theme
}

// Theme returns the cursor theme if it has been loaded.
func (s *Seat) Theme() cursor.Theme {
	return s.theme
}

// SetTheme switches to a different cursor theme. The new theme is
// loaded right away if the old one was and the cursor is reinstalled.
func (s *Seat) SetTheme(name string, size int) error {
	if (name == s.themeName) && (size == s.themeSize) {
		return nil
	}

	loaded := s.themeLoaded
	s.themeName, s.themeSize = name, size
	s.theme, s.themeLoaded = nil, false
	if !loaded {
		return nil
	}

	s.loadTheme()
	if s.legacy {
		if s.foreign {
			return s.tracker.Reload()
		}
		s.tracker = s.legacyTracker()
	}
	return s.ResetCursor()
}

// legacyTracker returns a tracker that decodes X11 cursor font glyphs
// from the seat's theme.
func (s *Seat) legacyTracker() *cursor.Tracker {
	return cursor.NewTracker(cursor.LegacyDecoder{Theme: (*seatTheme)(s)}, s)
}

// seatTheme looks cursors up in the seat's theme, loading it first if
// necessary.
type seatTheme Seat

func (t *seatTheme) Cursor(name string) (cursor.Image, bool) {
	s := (*Seat)(t)
	s.loadTheme()
	if s.theme == nil {
		return cursor.Image{}, false
	}
	return s.theme.Cursor(name)
}

// pointerInside reports whether the pointer is on one of the client's
// surfaces, which is required for setting the cursor.
func (s *Seat) pointerInside() bool {
	return (s.pointer != nil) && s.entered
}

func (s *Seat) cursorTarget() (*wl.Surface, error) {
	if s.cursorSurface != nil {
		return s.cursorSurface, nil
	}

	compositor, err := s.backend.compositorHandle()
	if err != nil {
		return nil, err
	}
	s.cursorSurface = compositor.CreateSurface()
	return s.cursorSurface, nil
}

// InstallCursorBuffer shows buf as the cursor. It does nothing if the
// pointer is not on one of the client's surfaces.
func (s *Seat) InstallCursorBuffer(buf *wl.Buffer, size, hotspot image.Point) error {
	if !s.pointerInside() {
		return nil
	}

	if _, err := s.cursorTarget(); err != nil {
		return err
	}

	s.pointer.SetCursor(s.enterSerial, s.cursorSurface, int32(hotspot.X), int32(hotspot.Y))
	s.cursorSurface.Attach(buf, 0, 0)
	s.cursorSurface.Damage(0, 0, int32(size.X), int32(size.Y))
	s.cursorSurface.Commit()

	s.installed = true
	s.installedSerial = s.enterSerial
	return nil
}

// InstallCursor copies img into a shared memory buffer and shows it as
// the cursor. Nothing is allocated while the pointer is elsewhere.
func (s *Seat) InstallCursor(img image.Image, hotspot image.Point) error {
	if !s.pointerInside() {
		return nil
	}

	pool, err := s.backend.shmPool()
	if err != nil {
		return err
	}
	if _, err := s.cursorTarget(); err != nil {
		return err
	}

	size := img.Bounds().Size()
	buf, err := pool.Allocate(size, wl.ShmFormatArgb8888)
	if err != nil {
		return fmt.Errorf("allocate cursor buffer: %w", err)
	}

	dst := buf.Image()
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)

	return s.InstallCursorBuffer(buf.Buffer(), size, hotspot)
}

// InstallCursorImage shows the themed image for shape. It does nothing
// if the theme can't provide it. Installing the shape that is already
// shown is a no-op.
func (s *Seat) InstallCursorImage(shape cursor.Shape) error {
	if s.hasShape && (s.shape == shape) && !s.foreign && s.installed && (s.installedSerial == s.enterSerial) {
		return nil
	}

	s.shape, s.hasShape, s.foreign = shape, true, false
	return s.installShape()
}

func (s *Seat) installShape() error {
	if !s.pointerInside() {
		return nil
	}

	s.loadTheme()
	img, ok := cursor.ResolveShape(s.theme, s.shape)
	if !ok {
		s.log.Debug("cursor shape not in theme", "shape", s.shape)
		return nil
	}

	return s.InstallCursor(img.Image, img.Hotspot)
}

// CursorChanged shows the foreign cursor identified by serial. It does
// nothing if the seat has no tracker.
func (s *Seat) CursorChanged(serial uint32) error {
	if s.tracker == nil {
		return nil
	}

	s.foreign = true
	return s.tracker.CursorChanged(serial)
}

// ResetCursor installs the current cursor again.
func (s *Seat) ResetCursor() error {
	if s.foreign && (s.tracker != nil) {
		return s.tracker.ResetCursor()
	}
	if s.hasShape {
		return s.installShape()
	}
	return nil
}

// destroy releases every protocol object owned by the seat.
func (s *Seat) destroy() {
	if s.pointer != nil {
		s.destroyPointer()
	}
	if s.keyboard != nil {
		s.keyboard.Release()
		s.keyboard = nil
	}
	s.seat.Release()
	s.caps = 0
}

type seatListener Seat

func (lis *seatListener) Capabilities(caps wl.SeatCapability) {
	if lis.backend.state.Terminal() {
		return
	}
	(*Seat)(lis).Changed(caps)
}

func (lis *seatListener) Name(name string) {
	lis.name = name
}

type pointerListener Seat

func (lis *pointerListener) Enter(serial uint32, surface *wl.Surface, x, y wire.Fixed) {
	if lis.backend.state.Terminal() {
		return
	}
	err := (*Seat)(lis).PointerEntered(serial)
	if err != nil {
		lis.log.Error("install cursor", "err", err)
	}
}

func (lis *pointerListener) Leave(serial uint32, surface *wl.Surface) {
	lis.entered = false
	clear(lis.buttons)
}

func (lis *pointerListener) Motion(time uint32, x, y wire.Fixed) {}

func (lis *pointerListener) Button(serial, time uint32, button pointer.Button, state wl.PointerButtonState) {
	pressed := state == wl.PointerButtonStatePressed
	lis.log.Debug("button", "button", button, "pressed", pressed)
	if pressed {
		lis.buttons.Add(button)
		return
	}
	lis.buttons.Remove(button)
}

func (lis *pointerListener) Axis(time uint32, axis wl.PointerAxis, value wire.Fixed) {}

func (lis *pointerListener) Frame() {}

func (lis *pointerListener) AxisSource(source wl.PointerAxisSource) {}

func (lis *pointerListener) AxisStop(time uint32, axis wl.PointerAxis) {}

func (lis *pointerListener) AxisDiscrete(axis wl.PointerAxis, discrete int32) {}

type keyboardListener Seat

func (lis *keyboardListener) Keymap(format wl.KeyboardKeymapFormat, file *os.File, size uint32) {
	// Key handling belongs to the consumer of the surface.
	file.Close()
}

func (lis *keyboardListener) Enter(serial uint32, surface *wl.Surface, keys []byte) {}

func (lis *keyboardListener) Leave(serial uint32, surface *wl.Surface) {}

func (lis *keyboardListener) Key(serial, time, key uint32, state wl.KeyboardKeyState) {}

func (lis *keyboardListener) Modifiers(serial, depressed, latched, locked, group uint32) {}

func (lis *keyboardListener) RepeatInfo(rate, delay int32) {
	lis.log.Debug("key repeat", "rate", rate, "delay", delay)
}
