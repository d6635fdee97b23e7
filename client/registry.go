package wl

import (
	"deedles.dev/wlbackend/wire"
	"golang.org/x/exp/maps"
)

type Registry struct {
	object
	Listener RegistryListener

	globals map[uint32]Interface
}

type RegistryListener interface {
	Global(name uint32, inter string, version uint32)
	GlobalRemove(name uint32)
}

var registryEvents = []string{"global", "global_remove"}

func (registry *Registry) Interface() string {
	return RegistryInterface
}

func (registry *Registry) MethodName(op uint16) string {
	return methodName(registryEvents, op)
}

// Globals returns a snapshot of the currently advertised globals by
// name.
func (registry *Registry) Globals() map[uint32]Interface {
	return maps.Clone(registry.globals)
}

func (registry *Registry) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		name := msg.ReadUint()
		inter := msg.ReadString()
		version := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		registry.globals[name] = Interface{Name: inter, Version: version}
		if registry.Listener != nil {
			registry.Listener.Global(name, inter, version)
		}
		return nil

	case 1:
		name := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		delete(registry.globals, name)
		if registry.Listener != nil {
			registry.Listener.GlobalRemove(name)
		}
		return nil

	default:
		return unknownEvent(RegistryInterface, msg.Op())
	}
}

// Destroy forgets the registry locally. wl_registry has no destructor.
func (registry *Registry) Destroy() {
	registry.dead = true
}

// Bind binds the global called name to obj, which must not have been
// added to the client yet. obj is created with the given version.
func (registry *Registry) Bind(name uint32, obj wire.Object, version uint32) {
	registry.client.Add(obj)

	msg := wire.NewMessage(registry, 0, "bind")
	msg.WriteUint(name)
	msg.WriteNewID(wire.NewID{
		Interface: obj.Interface(),
		Version:   version,
		ID:        obj.ID(),
	})
	registry.client.send(msg)
}

// bind prepares obj and binds it.
func (registry *Registry) bind(name uint32, obj wire.Object, base *object, version uint32) {
	registry.child(base, version)
	registry.Bind(name, obj, version)
}
