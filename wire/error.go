package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrMessageTooLarge is returned when building a message whose
	// encoded length does not fit in the 16 bit size field.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrNotTerminated is the decoding error for a string argument
	// that is missing its trailing NUL byte.
	ErrNotTerminated = errors.New("string is not null-terminated")

	// ErrNoFile is the decoding error for an fd argument that arrived
	// without a matching file descriptor.
	ErrNoFile = errors.New("no more file descriptors")
)

// UnknownOpError is returned by Object.Dispatch if it is given a
// message with an invalid opcode.
type UnknownOpError struct {
	Interface string
	Type      string
	Op        uint16
}

func (err UnknownOpError) Error() string {
	return fmt.Sprintf("unknown %v opcode for %v: %v", err.Type, err.Interface, err.Op)
}

// UnknownSenderIDError is returned by an attempt to dispatch an
// incoming message addressed to an object ID that has no live object.
type UnknownSenderIDError struct {
	Msg *MessageBuffer
}

func (err UnknownSenderIDError) Error() string {
	return fmt.Sprintf("unknown sender object ID: %v (opcode %v)", err.Msg.Sender(), err.Msg.Op())
}
