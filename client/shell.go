package wl

import "deedles.dev/wlbackend/wire"

type Shell struct {
	object
}

func IsShell(i Interface) bool {
	return i.Is(ShellInterface, 1)
}

func BindShell(registry *Registry, name, version uint32) *Shell {
	var shell Shell
	registry.bind(name, &shell, &shell.object, min(version, ShellVersion))
	return &shell
}

func (shell *Shell) Interface() string {
	return ShellInterface
}

func (shell *Shell) MethodName(op uint16) string {
	return methodName(nil, op)
}

func (shell *Shell) Dispatch(msg *wire.MessageBuffer) error {
	return unknownEvent(ShellInterface, msg.Op())
}

// GetShellSurface gives surface the shell surface role.
func (shell *Shell) GetShellSurface(surface *Surface) *ShellSurface {
	var ss ShellSurface
	shell.child(&ss.object, shell.version)
	shell.client.Add(&ss)

	msg := wire.NewMessage(shell, 0, "get_shell_surface")
	msg.WriteObject(&ss)
	msg.WriteObject(surface)
	shell.client.send(msg)

	return &ss
}

type ShellSurface struct {
	object
	Listener ShellSurfaceListener
}

// ShellSurfaceListener receives shell surface events. Pings are
// answered automatically before Ping is called.
type ShellSurfaceListener interface {
	Ping(serial uint32)
	Configure(edges uint32, width, height int32)
	PopupDone()
}

var shellSurfaceRequests = []string{
	"pong",
	"move",
	"resize",
	"set_toplevel",
	"set_transient",
	"set_fullscreen",
	"set_popup",
	"set_maximized",
	"set_title",
	"set_class",
}

func (ss *ShellSurface) Interface() string {
	return ShellSurfaceInterface
}

func (ss *ShellSurface) MethodName(op uint16) string {
	return methodName([]string{"ping", "configure", "popup_done"}, op)
}

func (ss *ShellSurface) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		serial := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		ss.Pong(serial)
		if ss.Listener != nil {
			ss.Listener.Ping(serial)
		}
		return nil

	case 1:
		edges := msg.ReadUint()
		width := msg.ReadInt()
		height := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if ss.Listener != nil {
			ss.Listener.Configure(edges, width, height)
		}
		return nil

	case 2:
		if ss.Listener != nil {
			ss.Listener.PopupDone()
		}
		return nil

	default:
		return unknownEvent(ShellSurfaceInterface, msg.Op())
	}
}

func (ss *ShellSurface) request(op uint16) *wire.MessageBuilder {
	return wire.NewMessage(ss, op, shellSurfaceRequests[op])
}

func (ss *ShellSurface) Pong(serial uint32) {
	msg := ss.request(0)
	msg.WriteUint(serial)
	ss.client.send(msg)
}

func (ss *ShellSurface) SetToplevel() {
	ss.client.send(ss.request(3))
}

// SetFullscreen asks for the surface to be shown fullscreen on output,
// or on an output of the compositor's choosing if output is nil.
func (ss *ShellSurface) SetFullscreen(method ShellSurfaceFullscreenMethod, framerate uint32, output *Output) {
	msg := ss.request(5)
	msg.WriteUint(uint32(method))
	msg.WriteUint(framerate)
	msg.WriteObject(output)
	ss.client.send(msg)
}

func (ss *ShellSurface) SetMaximized(output *Output) {
	msg := ss.request(7)
	msg.WriteObject(output)
	ss.client.send(msg)
}

func (ss *ShellSurface) SetTitle(title string) {
	msg := ss.request(8)
	msg.WriteString(title)
	ss.client.send(msg)
}

func (ss *ShellSurface) SetClass(class string) {
	msg := ss.request(9)
	msg.WriteString(class)
	ss.client.send(msg)
}

// Destroy forgets the shell surface locally. wl_shell_surface has no
// destructor. It goes away with its surface.
func (ss *ShellSurface) Destroy() {
	ss.dead = true
}
