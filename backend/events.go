package backend

import (
	"image"
	"slices"

	wl "deedles.dev/wlbackend/client"
	"deedles.dev/wlbackend/internal/xslices"
)

// Event is a notification from a Backend. It is one of the types in
// this file.
type Event interface {
	event()
}

// ShellSurfaceSizeChanged is sent when the size that the compositor
// wants the main surface to have changes.
type ShellSurfaceSizeChanged struct {
	Size image.Point
}

// SystemCompositorDied is sent when the connection to the compositor
// is lost. The backend has failed.
type SystemCompositorDied struct {
	Err error
}

// BackendReady is sent once, when the compositor, a shell and the main
// surface are all available.
type BackendReady struct{}

// OutputsChanged is sent when an output is added or removed, when an
// output's properties change, and once when all outputs are destroyed.
type OutputsChanged struct{}

// ConnectionFailed is sent when Connect fails. The backend has failed.
type ConnectionFailed struct {
	Err error
}

// ProtocolError is sent when the compositor reports a fatal protocol
// error. The backend has failed.
type ProtocolError struct {
	ObjectID uint32
	Code     wl.DisplayError
	Message  string
}

func (ShellSurfaceSizeChanged) event() {}
func (SystemCompositorDied) event()    {}
func (BackendReady) event()            {}
func (OutputsChanged) event()          {}
func (ConnectionFailed) event()        {}
func (ProtocolError) event()           {}

type subscribers struct {
	next uint64
	subs map[uint64]func(Event)
	keys []uint64
}

func (s *subscribers) add(f func(Event)) (cancel func()) {
	if s.subs == nil {
		s.subs = make(map[uint64]func(Event))
	}

	id := s.next
	s.next++
	s.subs[id] = f
	s.keys = append(s.keys, id)

	return func() {
		delete(s.subs, id)
	}
}

// emit calls every subscriber in order of subscription. Subscribers
// added during emission are not called for ev.
func (s *subscribers) emit(ev Event) {
	for _, id := range slices.Clone(s.keys) {
		if f, ok := s.subs[id]; ok {
			f(ev)
		}
	}

	s.keys = xslices.Filter(s.keys, func(id uint64) bool {
		_, ok := s.subs[id]
		return ok
	})
}
