package wl

import "deedles.dev/wlbackend/wire"

type Compositor struct {
	object
}

func IsCompositor(i Interface) bool {
	return i.Is(CompositorInterface, 1)
}

func BindCompositor(registry *Registry, name, version uint32) *Compositor {
	var compositor Compositor
	registry.bind(name, &compositor, &compositor.object, min(version, CompositorVersion))
	return &compositor
}

func (c *Compositor) Interface() string {
	return CompositorInterface
}

func (c *Compositor) MethodName(op uint16) string {
	return methodName(nil, op)
}

func (c *Compositor) Dispatch(msg *wire.MessageBuffer) error {
	return unknownEvent(CompositorInterface, msg.Op())
}

func (c *Compositor) CreateSurface() *Surface {
	var s Surface
	c.child(&s.object, c.version)
	c.client.Add(&s)

	msg := wire.NewMessage(c, 0, "create_surface")
	msg.WriteObject(&s)
	c.client.send(msg)

	return &s
}
