package wl

import "deedles.dev/wlbackend/wire"

// FullscreenShell is zwp_fullscreen_shell_v1, the shell offered by
// system compositors that show exactly one surface per output.
type FullscreenShell struct {
	object
	Listener FullscreenShellListener
}

type FullscreenShellListener interface {
	Capability(capability FullscreenShellCapability)
}

func IsFullscreenShell(i Interface) bool {
	return i.Is(FullscreenShellInterface, 1)
}

func BindFullscreenShell(registry *Registry, name, version uint32) *FullscreenShell {
	var shell FullscreenShell
	registry.bind(name, &shell, &shell.object, min(version, FullscreenShellVersion))
	return &shell
}

func (shell *FullscreenShell) Interface() string {
	return FullscreenShellInterface
}

func (shell *FullscreenShell) MethodName(op uint16) string {
	return methodName([]string{"capability"}, op)
}

func (shell *FullscreenShell) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		capability := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if shell.Listener != nil {
			shell.Listener.Capability(FullscreenShellCapability(capability))
		}
		return nil

	default:
		return unknownEvent(FullscreenShellInterface, msg.Op())
	}
}

func (shell *FullscreenShell) Release() {
	shell.client.send(wire.NewMessage(shell, 0, "release"))
	shell.dead = true
}

// PresentSurface shows surface on output. A nil output lets the
// compositor choose.
func (shell *FullscreenShell) PresentSurface(surface *Surface, method FullscreenShellPresentMethod, output *Output) {
	msg := wire.NewMessage(shell, 1, "present_surface")
	msg.WriteObject(surface)
	msg.WriteUint(uint32(method))
	msg.WriteObject(output)
	shell.client.send(msg)
}
