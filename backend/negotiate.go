package backend

import (
	"fmt"
	"image"

	wl "deedles.dev/wlbackend/client"
	"deedles.dev/wlbackend/shm"
)

// CreateSurface creates the main surface and gives it a shell role. It
// is called automatically once the initial globals have been
// announced. Calling it again is a no-op.
func (b *Backend) CreateSurface() error {
	if err := b.check(); err != nil {
		return err
	}
	if b.surface != nil {
		return nil
	}
	compositor, err := b.compositorHandle()
	if err != nil {
		return err
	}

	b.surface = compositor.CreateSurface()
	err = b.setupShell()
	b.surface.Commit()

	b.checkReady()
	return err
}

// setupShell gives the main surface its role. wl_shell takes
// precedence over the fullscreen shell when both are available.
func (b *Backend) setupShell() error {
	switch {
	case b.shell != nil:
		ss := b.shell.GetShellSurface(b.surface)
		ss.Listener = (*shellSurfaceListener)(b)
		if b.opts.Title != "" {
			ss.SetTitle(b.opts.Title)
		}
		if b.opts.Class != "" {
			ss.SetClass(b.opts.Class)
		}
		ss.SetFullscreen(wl.ShellSurfaceFullscreenMethodDefault, 0, nil)
		b.shellSurface = ss
		return nil

	case b.fullscreenShell != nil:
		var output *wl.Output
		if len(b.outputs) > 0 {
			output = b.outputs[0].output
		}
		b.fullscreenShell.PresentSurface(b.surface, wl.FullscreenShellPresentMethodDefault, output)
		b.presented = true
		b.updateFullscreenSize()
		return nil

	default:
		return ErrNoShell
	}
}

// compositorHandle returns the bound compositor. It fails with
// ErrGlobalRemoved if the compositor withdrew it.
func (b *Backend) compositorHandle() (*wl.Compositor, error) {
	if b.compositor != nil {
		return b.compositor, nil
	}
	if b.withdrawn.Has(wl.CompositorInterface) {
		return nil, fmt.Errorf("%w: %v", ErrGlobalRemoved, wl.CompositorInterface)
	}
	return nil, ErrNoCompositor
}

// shmPool returns the pool for cursor images. It fails with
// ErrGlobalRemoved if the compositor withdrew wl_shm.
func (b *Backend) shmPool() (*shm.Pool, error) {
	if b.pool != nil {
		return b.pool, nil
	}
	if b.withdrawn.Has(wl.ShmInterface) {
		return nil, fmt.Errorf("%w: %v", ErrGlobalRemoved, wl.ShmInterface)
	}
	return nil, ErrNoShm
}

func (b *Backend) hasRole() bool {
	return (b.shellSurface != nil) || b.presented
}

// checkReady moves to the ready state the first time that the
// compositor, a shell and the main surface are all present.
func (b *Backend) checkReady() {
	if b.ready || b.state.Terminal() {
		return
	}
	if (b.compositor == nil) || ((b.shell == nil) && (b.fullscreenShell == nil)) || (b.surface == nil) {
		return
	}

	b.ready = true
	b.setState(StateReady)
	b.emit(BackendReady{})
}

func (b *Backend) globalAnnounced() {
	if b.state == StateConnecting {
		b.setState(StateNegotiating)
	}
}

func (b *Backend) setShellSize(size image.Point) {
	if (size.X <= 0) || (size.Y <= 0) || (size == b.shellSize) {
		return
	}
	b.shellSize = size
	b.emit(ShellSurfaceSizeChanged{Size: size})
}

// updateFullscreenSize makes the main surface follow the first output
// when it is presented by the fullscreen shell.
func (b *Backend) updateFullscreenSize() {
	if !b.presented || (len(b.outputs) == 0) {
		return
	}
	b.setShellSize(b.outputs[0].PixelSize())
}

func (b *Backend) addOutput(g Global) {
	wo, err := bindAs[*wl.Output](b.registry, g)
	if err != nil {
		b.log.Error("bind output", "name", g.Name, "err", err)
		return
	}

	b.outputs = append(b.outputs, newOutput(wo, g, b.outputChanged))
	b.emit(OutputsChanged{})
}

func (b *Backend) outputChanged(o *Output) {
	if b.state.Terminal() {
		return
	}
	b.emit(OutputsChanged{})
	if (len(b.outputs) > 0) && (b.outputs[0] == o) {
		b.updateFullscreenSize()
	}
}

func (b *Backend) removeOutput(name uint32) bool {
	for i, o := range b.outputs {
		if o.global.Name == name {
			b.releaseOutput(o)
			b.outputs = append(b.outputs[:i:i], b.outputs[i+1:]...)
			b.emit(OutputsChanged{})
			b.updateFullscreenSize()
			return true
		}
	}
	return false
}

func (b *Backend) releaseOutput(o *Output) {
	o.release()
	if b.registry != nil {
		b.registry.unbind(o.global.Name, o.output)
	}
}

// DestroyOutputs releases every output. OutputsChanged is sent once
// if there were any.
func (b *Backend) DestroyOutputs() {
	b.destroyOutputs()
}

func (b *Backend) destroyOutputs() {
	if len(b.outputs) == 0 {
		return
	}
	for _, o := range b.outputs {
		b.releaseOutput(o)
	}
	b.outputs = nil
	b.emit(OutputsChanged{})
}

func (b *Backend) createSeat(g Global) {
	for _, s := range b.seats {
		if s.global.Name == g.Name {
			return
		}
	}

	ws, err := bindAs[*wl.Seat](b.registry, g)
	if err != nil {
		b.log.Error("bind seat", "name", g.Name, "err", err)
		return
	}
	b.seats = append(b.seats, newSeat(b, ws, g))
}

func (b *Backend) removeSeat(name uint32) bool {
	for i, s := range b.seats {
		if s.global.Name == name {
			s.destroy()
			b.seats = append(b.seats[:i:i], b.seats[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Backend) releaseSeats() {
	for _, s := range b.seats {
		s.destroy()
		if b.registry != nil {
			b.registry.unbind(s.global.Name, s.seat)
		}
	}
	b.seats = nil
}

func (b *Backend) createPool() {
	pool, err := shm.NewPool(b.shm, b.opts.PoolSize, b.opts.MaxPoolSize)
	if err != nil {
		b.log.Error("create shm pool", "err", err)
		return
	}
	b.pool = pool
}

func (b *Backend) releaseShm() {
	if b.pool != nil {
		b.pool.Destroy()
		b.pool = nil
	}
}

func (b *Backend) releaseSurface() {
	if b.shellSurface != nil {
		b.shellSurface.Destroy()
		b.shellSurface = nil
	}
	if b.surface != nil {
		b.surface.Destroy()
		b.surface = nil
	}
	b.presented = false
}

// releaseGlobals releases the singleton globals. Only the fullscreen
// shell has a destructor. The others are forgotten.
func (b *Backend) releaseGlobals() {
	if b.fullscreenShell != nil {
		b.fullscreenShell.Release()
		b.registry.unbind(b.fullscreenName, b.fullscreenShell)
		b.fullscreenShell = nil
	}
	if b.shell != nil {
		b.registry.unbind(b.shellName, b.shell)
		b.shell = nil
	}
	if b.shm != nil {
		b.registry.unbind(b.shmName, b.shm)
		b.shm = nil
	}
	if b.compositor != nil {
		b.registry.unbind(b.compositorName, b.compositor)
		b.compositor = nil
	}
}

// registryListener reacts to the compositor's globals. Nothing is bound
// once the backend has failed or been closed.
type registryListener Backend

func (lis *registryListener) CompositorAnnounced(g Global) {
	b := (*Backend)(lis)
	if b.state.Terminal() {
		return
	}
	b.globalAnnounced()
	if b.compositor != nil {
		return
	}

	c, err := bindAs[*wl.Compositor](b.registry, g)
	if err != nil {
		b.log.Error("bind compositor", "err", err)
		return
	}
	b.compositor, b.compositorName = c, g.Name
	b.withdrawn.Remove(wl.CompositorInterface)

	if b.registry.Announced() {
		err := b.CreateSurface()
		if err != nil {
			b.log.Warn("create surface", "err", err)
		}
	}
}

func (lis *registryListener) ShellAnnounced(g Global) {
	b := (*Backend)(lis)
	if b.state.Terminal() {
		return
	}
	b.globalAnnounced()
	if b.shell != nil {
		return
	}

	shell, err := bindAs[*wl.Shell](b.registry, g)
	if err != nil {
		b.log.Error("bind shell", "err", err)
		return
	}
	b.shell, b.shellName = shell, g.Name
	b.withdrawn.Remove(wl.ShellInterface)

	if (b.surface != nil) && !b.hasRole() {
		b.setupShell()
		b.surface.Commit()
	}
	b.checkReady()
}

func (lis *registryListener) FullscreenShellAnnounced(g Global) {
	b := (*Backend)(lis)
	if b.state.Terminal() {
		return
	}
	b.globalAnnounced()
	if b.fullscreenShell != nil {
		return
	}

	shell, err := bindAs[*wl.FullscreenShell](b.registry, g)
	if err != nil {
		b.log.Error("bind fullscreen shell", "err", err)
		return
	}
	shell.Listener = (*fullscreenShellListener)(b)
	b.fullscreenShell, b.fullscreenName = shell, g.Name
	b.withdrawn.Remove(wl.FullscreenShellInterface)

	if (b.surface != nil) && !b.hasRole() {
		b.setupShell()
		b.surface.Commit()
	}
	b.checkReady()
}

func (lis *registryListener) ShmAnnounced(g Global) {
	b := (*Backend)(lis)
	if b.state.Terminal() {
		return
	}
	b.globalAnnounced()
	if b.shm != nil {
		return
	}

	s, err := bindAs[*wl.Shm](b.registry, g)
	if err != nil {
		b.log.Error("bind shm", "err", err)
		return
	}
	b.shm, b.shmName = s, g.Name
	b.withdrawn.Remove(wl.ShmInterface)
	b.createPool()
}

func (lis *registryListener) OutputAnnounced(g Global) {
	b := (*Backend)(lis)
	if b.state.Terminal() {
		return
	}
	b.globalAnnounced()
	b.addOutput(g)
}

func (lis *registryListener) SeatAnnounced(g Global) {
	b := (*Backend)(lis)
	if b.state.Terminal() {
		return
	}
	b.globalAnnounced()
	b.createSeat(g)
}

func (lis *registryListener) GlobalRemoved(g Global) {
	b := (*Backend)(lis)
	if b.state.Terminal() {
		return
	}
	if b.removeOutput(g.Name) || b.removeSeat(g.Name) {
		return
	}
	b.withdraw(g)
}

func (lis *registryListener) InterfacesAnnounced() {
	b := (*Backend)(lis)
	if b.state.Terminal() {
		return
	}
	b.globalAnnounced()

	err := b.CreateSurface()
	if err != nil {
		b.log.Warn("create surface", "err", err)
	}
}

// withdraw drops the handle bound from a singleton global that the
// compositor removed. Objects created through it, such as the main
// surface, stay valid. Later uses of the handle fail with
// ErrGlobalRemoved until the interface is announced again.
func (b *Backend) withdraw(g Global) {
	switch {
	case (b.compositor != nil) && (g.Name == b.compositorName):
		b.compositor = nil

	case (b.shell != nil) && (g.Name == b.shellName):
		b.shell = nil

	case (b.fullscreenShell != nil) && (g.Name == b.fullscreenName):
		b.fullscreenShell.Release()
		b.fullscreenShell = nil

	case (b.shm != nil) && (g.Name == b.shmName):
		b.releaseShm()
		b.shm = nil

	default:
		return
	}

	b.withdrawn.Add(g.Interface)
	b.log.Warn("global in use was removed", "interface", g.Interface, "name", g.Name)
}

type displayListener Backend

func (lis *displayListener) Error(objectID uint32, code wl.DisplayError, message string) {
	b := (*Backend)(lis)
	if b.state.Terminal() {
		return
	}

	b.log.Error("protocol error", "object", objectID, "code", code, "message", message)
	b.fail()
	b.emit(ProtocolError{ObjectID: objectID, Code: code, Message: message})
	b.destroyOutputs()
}

type shellSurfaceListener Backend

func (lis *shellSurfaceListener) Ping(serial uint32) {
	if lis.state.Terminal() {
		return
	}
	for _, s := range lis.seats {
		err := s.ResetCursor()
		if err != nil {
			lis.log.Error("reset cursor", "err", err)
		}
	}
}

func (lis *shellSurfaceListener) Configure(edges uint32, width, height int32) {
	b := (*Backend)(lis)
	if b.state.Terminal() {
		return
	}
	b.setShellSize(image.Pt(int(width), int(height)))
}

func (lis *shellSurfaceListener) PopupDone() {}

type fullscreenShellListener Backend

func (lis *fullscreenShellListener) Capability(capability wl.FullscreenShellCapability) {
	lis.log.Debug("fullscreen shell capability", "capability", capability)
}
