package wltest

import "deedles.dev/wlbackend/wire"

// Requests returns the requests received for a method, named as
// "interface.method", in the order that they arrived.
func (c *Compositor) Requests(method string) []Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	var r []Request
	for _, req := range c.requests {
		if req.Interface+"."+req.Method == method {
			r = append(r, req)
		}
	}
	return r
}

// Resources returns the live resources of the named interface in order
// of creation.
func (c *Compositor) Resources(iface string) []*Resource {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.byInterface(iface)
}

// SetSeatCapabilities changes the seat's capabilities and announces
// them to every bound seat.
func (c *Compositor) SetSeatCapabilities(caps uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.SeatCapabilities = caps
	for _, r := range c.byInterface("wl_seat") {
		c.send(r, 0, "capabilities", caps)
	}
}

// PointerEnter moves every pointer onto the first surface that was
// created and returns the serial of the enter event.
func (c *Compositor) PointerEnter() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var surface *Resource
	if s := c.byInterface("wl_surface"); len(s) > 0 {
		surface = s[0]
	}

	serial := c.nextSerial()
	for _, r := range c.byInterface("wl_pointer") {
		c.send(r, 0, "enter", serial, surface, wire.FixedInt(0), wire.FixedInt(0))
	}
	return serial
}

// Ping pings every shell surface and returns the serial used.
func (c *Compositor) Ping() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	serial := c.nextSerial()
	for _, r := range c.byInterface("wl_shell_surface") {
		c.send(r, 0, "ping", serial)
	}
	return serial
}

// ConfigureShellSurface suggests a new size to every shell surface.
func (c *Compositor) ConfigureShellSurface(width, height int32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.byInterface("wl_shell_surface") {
		c.send(r, 1, "configure", uint32(0), width, height)
	}
}

// SetOutputMode changes the current mode of the output and sends it to
// every bound output.
func (c *Compositor) SetOutputMode(width, height int32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Output.Size.X, c.Output.Size.Y = int(width), int(height)
	for _, r := range c.byInterface("wl_output") {
		c.send(r, 1, "mode", uint32(3), width, height, c.Output.Refresh)
		if r.version >= 2 {
			c.send(r, 2, "done")
		}
	}
}

// PostError sends a fatal protocol error about the object with the
// given ID.
func (c *Compositor) PostError(objectID, code uint32, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.send(c.resources[1], 0, "error", &Resource{id: objectID}, code, message)
}

// ReleaseBuffers releases every live buffer.
func (c *Compositor) ReleaseBuffers() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.byInterface("wl_buffer") {
		c.send(r, 0, "release")
	}
}

// PointerButton presses or releases a button on every pointer and
// returns the serial of the event.
func (c *Compositor) PointerButton(button uint32, pressed bool) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var state uint32
	if pressed {
		state = 1
	}

	serial := c.nextSerial()
	for _, r := range c.byInterface("wl_pointer") {
		c.send(r, 3, "button", serial, uint32(0), button, state)
	}
	return serial
}

// PointerLeave moves every pointer off the first surface.
func (c *Compositor) PointerLeave() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var surface *Resource
	if s := c.byInterface("wl_surface"); len(s) > 0 {
		surface = s[0]
	}

	serial := c.nextSerial()
	for _, r := range c.byInterface("wl_pointer") {
		c.send(r, 1, "leave", serial, surface)
	}
}
