// Package objstore keeps track of the live protocol objects of a
// connection by ID.
package objstore

import (
	"deedles.dev/wlbackend/wire"
	"golang.org/x/exp/maps"
)

type Store struct {
	objects map[uint32]wire.Object
	nextID  uint32
	free    []uint32
}

// New returns a store that allocates IDs starting at start. Clients
// allocate from 1 and servers from 0xFF000000.
func New(start uint32) *Store {
	return &Store{
		objects: make(map[uint32]wire.Object),
		nextID:  start,
	}
}

// Add stores obj, assigning it a new ID first if it doesn't have one.
// IDs released with Delete are reused before new ones are allocated.
func (s *Store) Add(obj wire.Object) {
	id := obj.ID()
	if id == 0 {
		id = s.allocate()
		obj.SetID(id)
	}

	s.objects[id] = obj
}

func (s *Store) allocate() uint32 {
	if len(s.free) > 0 {
		id := s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
		return id
	}

	id := s.nextID
	s.nextID++
	return id
}

func (s *Store) Get(id uint32) wire.Object {
	return s.objects[id]
}

// Delete removes the object with the given ID and calls its Delete
// method. The ID becomes available for reuse.
func (s *Store) Delete(id uint32) {
	obj, ok := s.objects[id]
	if !ok {
		return
	}
	delete(s.objects, id)
	s.free = append(s.free, id)
	obj.Delete()
}

// Len returns the number of live objects.
func (s *Store) Len() int {
	return len(s.objects)
}

// Objects returns a snapshot of the live objects by ID.
func (s *Store) Objects() map[uint32]wire.Object {
	return maps.Clone(s.objects)
}

// Clear drops every object without calling Delete.
func (s *Store) Clear() {
	s.objects = make(map[uint32]wire.Object)
	s.free = nil
}
