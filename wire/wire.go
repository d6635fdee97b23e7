// Package wire defines types helpful for dealing with the Wayland
// wire protocol. It is primarly intended for usage by the protocol
// object implementations in the client package.
package wire

// Object represents a Wayland protocol object.
type Object interface {
	// ID returns the object's ID, or 0 if it has not been assigned
	// one yet.
	ID() uint32

	// SetID assigns the object's ID. It is called by the object store
	// when the object is added.
	SetID(id uint32)

	// Interface returns the protocol interface name, such as
	// "wl_surface".
	Interface() string

	// MethodName returns the name of the event with the given opcode.
	// It is used only for debugging output.
	MethodName(op uint16) string

	// Dispatch performs the operation requested by the message in the
	// buffer.
	Dispatch(msg *MessageBuffer) error

	// Delete is called when the object's ID is released by the other
	// side of the connection.
	Delete()
}

// NewID is an untyped new_id argument. Typed new_id arguments are
// sent as plain object IDs instead.
type NewID struct {
	Interface string
	Version   uint32
	ID        uint32
}

// maxFDs is the maximum number of file descriptors that can be
// attached to a single message.
const maxFDs = 28

func padding(length uint32) uint32 {
	return (4 - (length % 4)) % 4
}
