package backend

import (
	"fmt"
	"slices"

	wl "deedles.dev/wlbackend/client"
	"deedles.dev/wlbackend/internal/set"
	"deedles.dev/wlbackend/wire"
	"github.com/charmbracelet/log"
)

// Global is a global object advertised by the compositor.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

func (g Global) iface() wl.Interface {
	return wl.Interface{Name: g.Interface, Version: g.Version}
}

// RegistryListener receives the globals that a Registry sorts out of
// the compositor's announcements. InterfacesAnnounced is called once,
// after the initial set of globals has been delivered.
type RegistryListener interface {
	CompositorAnnounced(g Global)
	ShellAnnounced(g Global)
	FullscreenShellAnnounced(g Global)
	ShmAnnounced(g Global)
	OutputAnnounced(g Global)
	SeatAnnounced(g Global)
	GlobalRemoved(g Global)
	InterfacesAnnounced()
}

type binder struct {
	version uint32
	bind    func(r *wl.Registry, name, version uint32) wire.Object
}

var binders = map[string]binder{
	wl.CompositorInterface: {wl.CompositorVersion, func(r *wl.Registry, name, version uint32) wire.Object {
		return wl.BindCompositor(r, name, version)
	}},
	wl.ShellInterface: {wl.ShellVersion, func(r *wl.Registry, name, version uint32) wire.Object {
		return wl.BindShell(r, name, version)
	}},
	wl.FullscreenShellInterface: {wl.FullscreenShellVersion, func(r *wl.Registry, name, version uint32) wire.Object {
		return wl.BindFullscreenShell(r, name, version)
	}},
	wl.ShmInterface: {wl.ShmVersion, func(r *wl.Registry, name, version uint32) wire.Object {
		return wl.BindShm(r, name, version)
	}},
	wl.OutputInterface: {wl.OutputVersion, func(r *wl.Registry, name, version uint32) wire.Object {
		return wl.BindOutput(r, name, version)
	}},
	wl.SeatInterface: {wl.SeatVersion, func(r *wl.Registry, name, version uint32) wire.Object {
		return wl.BindSeat(r, name, version)
	}},
}

// Registry keeps track of the compositor's globals in the order that
// they were announced and binds them on request.
type Registry struct {
	registry  *wl.Registry
	listener  RegistryListener
	log       *log.Logger
	globals   []Global
	removed   set.Set[uint32]
	bound     map[uint32][]wire.Object
	announced bool
}

func newRegistry(client *wl.Client, lis RegistryListener, logger *log.Logger) *Registry {
	r := Registry{
		listener: lis,
		log:      logger,
		removed:  set.New[uint32](),
		bound:    make(map[uint32][]wire.Object),
	}

	r.registry = client.Display().GetRegistry()
	r.registry.Listener = (*wlRegistryListener)(&r)

	client.Display().Sync().Then(func(uint32) {
		r.announced = true
		if r.listener != nil {
			r.listener.InterfacesAnnounced()
		}
	})

	return &r
}

// Announced reports whether the initial set of globals has arrived.
func (r *Registry) Announced() bool {
	return r.announced
}

// Globals returns the current globals in order of announcement.
func (r *Registry) Globals() []Global {
	return slices.Clone(r.globals)
}

// Lookup returns the first announced global with the given interface.
func (r *Registry) Lookup(iface string) (Global, bool) {
	i := slices.IndexFunc(r.globals, func(g Global) bool { return g.Interface == iface })
	if i < 0 {
		return Global{}, false
	}
	return r.globals[i], true
}

func (r *Registry) index(name uint32) int {
	return slices.IndexFunc(r.globals, func(g Global) bool { return g.Name == name })
}

// Bind binds the first global with the given interface. A version of
// zero binds the highest version supported by both sides.
func (r *Registry) Bind(iface string, version uint32) (wire.Object, error) {
	g, ok := r.Lookup(iface)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownInterface, iface)
	}
	return r.BindGlobal(g, version)
}

// BindGlobal binds a specific global. It fails with ErrGlobalRemoved
// if the compositor has withdrawn g.
func (r *Registry) BindGlobal(g Global, version uint32) (wire.Object, error) {
	i := r.index(g.Name)
	if (i < 0) || (r.globals[i].Interface != g.Interface) {
		if r.removed.Has(g.Name) {
			return nil, fmt.Errorf("%w: %v %v", ErrGlobalRemoved, g.Interface, g.Name)
		}
		return nil, fmt.Errorf("%w: %v %v", ErrUnknownInterface, g.Interface, g.Name)
	}
	cur := r.globals[i]

	b, ok := binders[cur.Interface]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownInterface, cur.Interface)
	}
	if version == 0 {
		version = min(cur.Version, b.version)
	}
	if (version > cur.Version) || (version > b.version) {
		return nil, fmt.Errorf("%w: %v version %v (compositor %v, supported %v)", ErrVersionUnsupported, cur.Interface, version, cur.Version, b.version)
	}

	obj := b.bind(r.registry, cur.Name, version)
	r.bound[cur.Name] = append(r.bound[cur.Name], obj)
	r.log.Debug("bound global", "interface", cur.Interface, "name", cur.Name, "version", version)
	return obj, nil
}

func bindAs[T wire.Object](r *Registry, g Global) (T, error) {
	obj, err := r.BindGlobal(g, 0)
	if err != nil {
		var z T
		return z, err
	}
	return obj.(T), nil
}

// Bound returns the number of objects bound from globals that have not
// been released.
func (r *Registry) Bound() int {
	var n int
	for _, objs := range r.bound {
		n += len(objs)
	}
	return n
}

// unbind forgets an object that was bound from the global called name.
func (r *Registry) unbind(name uint32, obj wire.Object) {
	objs := r.bound[name]
	i := slices.Index(objs, obj)
	if i < 0 {
		return
	}
	objs = slices.Delete(objs, i, i+1)
	if len(objs) == 0 {
		delete(r.bound, name)
		return
	}
	r.bound[name] = objs
}

func (r *Registry) announce(g Global) {
	if r.index(g.Name) >= 0 {
		// The old global must be gone before its name is reused.
		r.remove(g.Name)
	}
	r.removed.Remove(g.Name)
	r.globals = append(r.globals, g)
	r.log.Debug("global", "interface", g.Interface, "name", g.Name, "version", g.Version)

	if r.listener == nil {
		return
	}

	i := g.iface()
	switch {
	case wl.IsCompositor(i):
		r.listener.CompositorAnnounced(g)
	case wl.IsShell(i):
		r.listener.ShellAnnounced(g)
	case wl.IsFullscreenShell(i):
		r.listener.FullscreenShellAnnounced(g)
	case wl.IsShm(i):
		r.listener.ShmAnnounced(g)
	case wl.IsOutput(i):
		r.listener.OutputAnnounced(g)
	case wl.IsSeat(i):
		r.listener.SeatAnnounced(g)
	}
}

func (r *Registry) remove(name uint32) {
	i := r.index(name)
	if i < 0 {
		return
	}
	g := r.globals[i]
	r.globals = slices.Delete(r.globals, i, i+1)
	r.removed.Add(name)
	delete(r.bound, name)
	r.log.Debug("global removed", "interface", g.Interface, "name", g.Name)

	if r.listener != nil {
		r.listener.GlobalRemoved(g)
	}
}

// destroy forgets every global and binding.
func (r *Registry) destroy() {
	r.globals = nil
	r.bound = make(map[uint32][]wire.Object)
	r.listener = nil
	r.registry.Destroy()
}

type wlRegistryListener Registry

func (lis *wlRegistryListener) Global(name uint32, inter string, version uint32) {
	(*Registry)(lis).announce(Global{Name: name, Interface: inter, Version: version})
}

func (lis *wlRegistryListener) GlobalRemove(name uint32) {
	(*Registry)(lis).remove(name)
}
