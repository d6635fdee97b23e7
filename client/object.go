package wl

import (
	"fmt"

	"deedles.dev/wlbackend/wire"
)

// zombie is implemented by objects that can be destroyed locally
// before the server has acknowledged it.
type zombie interface {
	destroyed() bool
}

// object holds the state shared by every protocol object. It is
// embedded in the concrete types, which provide Interface,
// MethodName, and Dispatch.
type object struct {
	id      uint32
	version uint32
	client  *Client
	dead    bool
}

func (obj *object) ID() uint32 {
	return obj.id
}

func (obj *object) SetID(id uint32) {
	obj.id = id
}

// Version is the protocol version the object was created with.
func (obj *object) Version() uint32 {
	return obj.version
}

func (obj *object) Client() *Client {
	return obj.client
}

func (obj *object) Delete() {
	obj.dead = true
}

func (obj *object) destroyed() bool {
	return obj.dead
}

// Destroyed reports whether the object has been destroyed, either
// locally or by the server.
func (obj *object) Destroyed() bool {
	return obj.dead
}

// child prepares c to be created as a new object by a request on obj.
func (obj *object) child(c *object, version uint32) {
	c.client = obj.client
	c.version = version
}

// methodName looks op up in names.
func methodName(names []string, op uint16) string {
	if int(op) < len(names) {
		return names[op]
	}
	return fmt.Sprintf("unknown_%v", op)
}

func unknownEvent(inter string, op uint16) error {
	return wire.UnknownOpError{Interface: inter, Type: "event", Op: op}
}

// objectOf returns the object with the given ID if it is a T.
func objectOf[T wire.Object](client *Client, id uint32) T {
	obj, _ := client.Get(id).(T)
	return obj
}
