// Package wltest provides an in-process compositor that speaks enough
// of the core protocol to drive a client in tests.
//
// The compositor handles each request as soon as it is read, so once a
// client's round trip completes every event caused by its earlier
// requests has been delivered.
package wltest

import (
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"
	"testing"

	"deedles.dev/wlbackend/wire"
)

// Resource is the compositor's side of a protocol object.
type Resource struct {
	id      uint32
	iface   string
	version uint32
	global  uint32
}

func (r *Resource) ID() uint32 { return r.id }

func (r *Resource) SetID(id uint32) { r.id = id }

func (r *Resource) Interface() string { return r.iface }

func (r *Resource) Version() uint32 { return r.version }

func (r *Resource) MethodName(op uint16) string { return fmt.Sprint(op) }

func (r *Resource) Dispatch(*wire.MessageBuffer) error { return nil }

func (r *Resource) Delete() {}

// Global is the registry global that the resource was bound from, if
// any.
func (r *Resource) Global() uint32 { return r.global }

// Request is a request that the compositor has received. Object and
// new_id arguments are recorded as IDs.
type Request struct {
	Interface string
	ID        uint32
	Method    string
	Args      []any
}

type global struct {
	name    uint32
	iface   string
	version uint32
}

// Output describes the single output advertised to clients that bind
// wl_output.
type Output struct {
	Make     string
	Model    string
	Physical image.Point
	Size     image.Point
	Refresh  int32
	Scale    int32
	Name     string
}

// Compositor is a fake compositor serving a single client. Its
// exported fields configure how it reacts to binds and must be set
// before Dial.
type Compositor struct {
	SeatCapabilities uint32
	SeatName         string
	Output           Output
	Formats          []uint32

	// ShellConfigure, if non-zero, is sent as a configure event to
	// every new shell surface.
	ShellConfigure image.Point

	t    testing.TB
	mu   sync.Mutex
	conn *wire.Conn
	done chan struct{}

	globals   []global
	nextName  uint32
	resources map[uint32]*Resource
	requests  []Request
	errs      []error
	serial    uint32
}

// New returns a compositor with no globals. It is shut down when the
// test finishes.
func New(t testing.TB) *Compositor {
	c := Compositor{
		SeatName: "seat0",
		Output: Output{
			Make:     "wltest",
			Model:    "virtual",
			Physical: image.Pt(520, 290),
			Size:     image.Pt(1920, 1080),
			Refresh:  60000,
			Scale:    1,
			Name:     "WL-1",
		},
		Formats:  []uint32{0, 1},
		t:        t,
		done:     make(chan struct{}),
		nextName: 1,
		resources: map[uint32]*Resource{
			1: {id: 1, iface: "wl_display", version: 1},
		},
	}
	t.Cleanup(func() {
		c.Close()
		if c.conn != nil {
			<-c.done
		}
	})
	return &c
}

// AddDesktopGlobals advertises the globals of a typical desktop
// compositor.
func (c *Compositor) AddDesktopGlobals() {
	c.AddGlobal("wl_compositor", 4)
	c.AddGlobal("wl_shm", 1)
	c.AddGlobal("wl_shell", 1)
	c.AddGlobal("wl_seat", 5)
	c.AddGlobal("wl_output", 3)
}

// AddGlobal advertises a new global and returns its name. If a client
// is connected it is told about it immediately.
func (c *Compositor) AddGlobal(iface string, version uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := global{name: c.nextName, iface: iface, version: version}
	c.nextName++
	c.globals = append(c.globals, g)

	for _, r := range c.byInterface("wl_registry") {
		c.send(r, 0, "global", g.name, g.iface, g.version)
	}
	return g.name
}

// RemoveGlobal withdraws a global.
func (c *Compositor) RemoveGlobal(name uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.globals = slices.DeleteFunc(c.globals, func(g global) bool { return g.name == name })
	for _, r := range c.byInterface("wl_registry") {
		c.send(r, 1, "global_remove", name)
	}
}

// Dial connects a new client to the compositor. It can only be called
// once.
func (c *Compositor) Dial(string) (*wire.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil, errors.New("wltest: compositor already has a client")
	}

	client, server, err := wire.Pipe()
	if err != nil {
		return nil, err
	}
	c.conn = server
	go c.serve()

	return client, nil
}

// Close drops the connection, as if the compositor had crashed.
func (c *Compositor) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
	}
}

// Done is closed once the compositor has stopped serving its client.
func (c *Compositor) Done() <-chan struct{} {
	return c.done
}

// Err returns every error encountered while serving the client.
func (c *Compositor) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return errors.Join(c.errs...)
}

func (c *Compositor) serve() {
	defer close(c.done)

	for {
		msg, err := wire.ReadMessage(c.conn)
		if err != nil {
			return
		}

		c.mu.Lock()
		err = c.handle(msg)
		if err != nil {
			c.errs = append(c.errs, err)
		}
		c.mu.Unlock()

		msg.Close()
	}
}

func (c *Compositor) handle(msg *wire.MessageBuffer) error {
	res := c.resources[msg.Sender()]
	if res == nil {
		return fmt.Errorf("request %v on unknown object %v", msg.Op(), msg.Sender())
	}
	sigs := requests[res.iface]
	if int(msg.Op()) >= len(sigs) {
		return fmt.Errorf("unknown request %v on %v@%v", msg.Op(), res.iface, res.id)
	}
	sig := sigs[msg.Op()]

	req := Request{Interface: res.iface, ID: res.id, Method: sig.method}
	var created *Resource
	for _, arg := range sig.args {
		switch arg {
		case 'i':
			req.Args = append(req.Args, msg.ReadInt())
		case 'u', 'o':
			req.Args = append(req.Args, msg.ReadUint())
		case 's':
			req.Args = append(req.Args, msg.ReadString())
		case 'a':
			req.Args = append(req.Args, msg.ReadArray())
		case 'h':
			f := msg.ReadFile()
			if f != nil {
				req.Args = append(req.Args, f.Name())
				f.Close()
			}
		case 'n':
			id := msg.ReadUint()
			version := res.version
			if sig.creates == "wl_callback" {
				version = 1
			}
			created = &Resource{id: id, iface: sig.creates, version: version}
			req.Args = append(req.Args, id)
		case 'N':
			nid := msg.ReadNewID()
			created = &Resource{id: nid.ID, iface: nid.Interface, version: nid.Version}
			req.Args = append(req.Args, nid)
		}
	}
	if err := msg.Err(); err != nil {
		return fmt.Errorf("decode %v.%v: %w", res.iface, sig.method, err)
	}

	c.t.Logf("wltest: %v@%v.%v%v", res.iface, res.id, sig.method, req.Args)
	c.requests = append(c.requests, req)
	if created != nil {
		c.resources[created.id] = created
	}

	key := res.iface + "." + sig.method
	if destructors[key] {
		c.destroy(res)
		return nil
	}
	return c.respond(key, req, created)
}

func (c *Compositor) respond(key string, req Request, created *Resource) error {
	switch key {
	case "wl_display.sync":
		c.send(created, 0, "done", c.nextSerial())
		c.destroy(created)

	case "wl_display.get_registry":
		for _, g := range c.globals {
			c.send(created, 0, "global", g.name, g.iface, g.version)
		}

	case "wl_registry.bind":
		name := req.Args[0].(uint32)
		idx := slices.IndexFunc(c.globals, func(g global) bool { return g.name == name })
		if idx < 0 {
			// Binding a global that was just removed is not an error.
			return nil
		}
		g := c.globals[idx]
		if (g.iface != created.iface) || (created.version > g.version) {
			return fmt.Errorf("bad bind of %v v%v to global %v (%v v%v)", created.iface, created.version, name, g.iface, g.version)
		}
		created.global = name
		c.bound(created)

	case "wl_shell.get_shell_surface":
		if c.ShellConfigure != (image.Point{}) {
			c.send(created, 1, "configure", uint32(0), int32(c.ShellConfigure.X), int32(c.ShellConfigure.Y))
		}
	}

	return nil
}

// bound sends the initial events of a newly bound global.
func (c *Compositor) bound(r *Resource) {
	switch r.iface {
	case "wl_shm":
		for _, f := range c.Formats {
			c.send(r, 0, "format", f)
		}

	case "wl_seat":
		c.send(r, 0, "capabilities", c.SeatCapabilities)
		if r.version >= 2 {
			c.send(r, 1, "name", c.SeatName)
		}

	case "wl_output":
		c.sendOutput(r)
	}
}

func (c *Compositor) sendOutput(r *Resource) {
	o := c.Output
	c.send(r, 0, "geometry", int32(0), int32(0), int32(o.Physical.X), int32(o.Physical.Y), int32(0), o.Make, o.Model, int32(0))
	c.send(r, 1, "mode", uint32(3), int32(o.Size.X), int32(o.Size.Y), o.Refresh)
	if r.version >= 2 {
		c.send(r, 3, "scale", o.Scale)
	}
	if r.version >= 4 {
		c.send(r, 4, "name", o.Name)
	}
	if r.version >= 2 {
		c.send(r, 2, "done")
	}
}

func (c *Compositor) destroy(r *Resource) {
	delete(c.resources, r.id)
	c.send(c.resources[1], 1, "delete_id", r.id)
}

func (c *Compositor) nextSerial() uint32 {
	c.serial++
	return c.serial
}

func (c *Compositor) send(r *Resource, op uint16, method string, args ...any) {
	msg := wire.NewMessage(r, op, method)
	for _, arg := range args {
		switch arg := arg.(type) {
		case int32:
			msg.WriteInt(arg)
		case uint32:
			msg.WriteUint(arg)
		case wire.Fixed:
			msg.WriteFixed(arg)
		case string:
			msg.WriteString(arg)
		case []byte:
			msg.WriteArray(arg)
		case *Resource:
			msg.WriteObject(arg)
		default:
			panic(fmt.Errorf("wltest: unsupported argument type %T", arg))
		}
	}

	err := msg.Build(c.conn)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("send %v: %w", method, err))
	}
}

// byInterface returns the live resources of the named interface in
// order of creation.
func (c *Compositor) byInterface(iface string) []*Resource {
	var r []*Resource
	for _, res := range c.resources {
		if res.iface == iface {
			r = append(r, res)
		}
	}
	slices.SortFunc(r, func(r1, r2 *Resource) int { return int(r1.id) - int(r2.id) })
	return r
}
