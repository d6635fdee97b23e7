package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrFailed is returned by every operation of a backend that has
	// failed. A failed backend can't be recovered and must be replaced.
	ErrFailed = errors.New("backend failed")

	// ErrClosed is returned by operations on a closed backend.
	ErrClosed = errors.New("backend closed")

	ErrNotConnected = errors.New("backend not connected")
	ErrNoCompositor = errors.New("no compositor")
	ErrNoShell      = errors.New("no shell")
	ErrNoShm        = errors.New("no shm")

	// ErrUnknownInterface is returned when binding an interface that
	// has not been announced or that this package can't bind.
	ErrUnknownInterface = errors.New("unknown interface")

	// ErrVersionUnsupported is returned when binding at a version that
	// the compositor or this package doesn't support.
	ErrVersionUnsupported = errors.New("version unsupported")

	// ErrGlobalRemoved is returned when binding a global that the
	// compositor has withdrawn.
	ErrGlobalRemoved = errors.New("global removed")
)

// ConnectionError is reported when the connection to the compositor
// can't be established.
type ConnectionError struct {
	Socket string
	Err    error
}

func (err *ConnectionError) Error() string {
	socket := err.Socket
	if socket == "" {
		socket = "default display"
	}
	return fmt.Sprintf("connect to %v: %v", socket, err.Err)
}

func (err *ConnectionError) Unwrap() error {
	return err.Err
}

// CompositorDiedError is reported when the connection to the
// compositor is lost after it had been established.
type CompositorDiedError struct {
	Err error
}

func (err *CompositorDiedError) Error() string {
	if err.Err == nil {
		return "compositor died"
	}
	return fmt.Sprintf("compositor died: %v", err.Err)
}

func (err *CompositorDiedError) Unwrap() error {
	return err.Err
}
