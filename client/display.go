package wl

import "deedles.dev/wlbackend/wire"

type Display struct {
	object
	Listener DisplayListener

	registry *Registry
}

// DisplayListener receives fatal protocol errors. The connection is
// unusable after an error has been reported.
type DisplayListener interface {
	Error(objectID uint32, code DisplayError, message string)
}

var displayEvents = []string{"error", "delete_id"}

func (display *Display) Interface() string {
	return DisplayInterface
}

func (display *Display) MethodName(op uint16) string {
	return methodName(displayEvents, op)
}

func (display *Display) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		id := msg.ReadUint()
		code := msg.ReadUint()
		message := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}
		if display.Listener != nil {
			display.Listener.Error(id, DisplayError(code), message)
		}
		return nil

	case 1:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		display.client.Delete(id)
		return nil

	default:
		return unknownEvent(DisplayInterface, msg.Op())
	}
}

// Sync asks the server to emit the done event of the returned callback
// once every request sent before it has been processed.
func (display *Display) Sync() *Callback {
	var callback Callback
	display.child(&callback.object, 1)
	display.client.Add(&callback)

	msg := wire.NewMessage(display, 0, "sync")
	msg.WriteObject(&callback)
	display.client.send(msg)

	return &callback
}

// GetRegistry returns the display's registry, creating it on the first
// call.
func (display *Display) GetRegistry() *Registry {
	if display.registry != nil {
		return display.registry
	}

	registry := Registry{
		globals: make(map[uint32]Interface),
	}
	display.child(&registry.object, 1)
	display.client.Add(&registry)

	msg := wire.NewMessage(display, 1, "get_registry")
	msg.WriteObject(&registry)
	display.client.send(msg)

	display.registry = &registry
	return &registry
}
