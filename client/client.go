// Package wl implements the client side of the core Wayland protocol
// and the handful of extension interfaces that a fullscreen backend
// needs.
//
// A Client owns the connection and the table of live objects. Reading
// from the socket happens in Listen, which is meant to be run on its
// own goroutine and does nothing but decode messages and queue them.
// Every listener callback runs on the goroutine that calls Flush or
// RoundTrip, never on the one running Listen.
package wl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"deedles.dev/wlbackend/internal/ev"
	"deedles.dev/wlbackend/internal/logging"
	"deedles.dev/wlbackend/internal/objstore"
	"deedles.dev/wlbackend/wire"
	"github.com/charmbracelet/log"
)

// ErrClosed is returned by RoundTrip when the connection has been
// closed or aborted locally.
var ErrClosed = errors.New("connection closed")

type Client struct {
	conn    *wire.Conn
	store   *objstore.Store
	queue   *ev.Queue
	log     *log.Logger
	trace   bool
	display *Display

	listenDone chan struct{}
	listenOnce sync.Once
	listenErr  error

	closed    chan struct{}
	closeOnce sync.Once

	sendErrs []error
	aborted  bool
}

// Dial connects to the named display socket. See wire.Dial for how
// the name is resolved.
func Dial(socket string) (*Client, error) {
	c, err := wire.Dial(socket)
	if err != nil {
		return nil, err
	}

	return NewClient(c), nil
}

// NewClient creates a client for an already established connection.
// It does not start reading from conn. Call Listen to do so.
func NewClient(conn *wire.Conn) *Client {
	client := Client{
		conn:       conn,
		store:      objstore.New(1),
		queue:      ev.NewQueue(),
		log:        logging.Discard(),
		trace:      logging.WireDebug(),
		listenDone: make(chan struct{}),
		closed:     make(chan struct{}),
	}

	client.display = &Display{}
	client.display.client = &client
	client.display.version = 1
	client.Add(client.display)

	return &client
}

// SetLogger sets the logger used for protocol tracing and for errors
// that have no caller to be returned to.
func (client *Client) SetLogger(logger *log.Logger) {
	client.log = logger
}

// Listen reads messages from the connection and queues them for
// dispatch until the connection is closed or ctx is canceled. It
// returns nil if it was stopped locally and the read error otherwise,
// which typically means that the compositor went away.
func (client *Client) Listen(ctx context.Context) (err error) {
	defer func() { client.finish(err) }()

	for {
		msg, err := wire.ReadMessage(client.conn)
		if err != nil {
			if (ctx.Err() != nil) || client.isClosed() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		select {
		case <-ctx.Done():
			msg.Close()
			return nil
		case <-client.closed:
			msg.Close()
			return nil
		case client.queue.Add() <- func() error { return client.dispatch(msg) }:
		}
	}
}

func (client *Client) finish(err error) {
	client.listenOnce.Do(func() {
		client.listenErr = err
		close(client.listenDone)
	})
}

// Done is closed when Listen returns.
func (client *Client) Done() <-chan struct{} {
	return client.listenDone
}

// Err returns the error that Listen returned. It is only valid after
// Done has been closed.
func (client *Client) Err() error {
	select {
	case <-client.listenDone:
		return client.listenErr
	default:
		return nil
	}
}

// Events returns a channel that yields batches of queued events.
// Calling Flush on a batch dispatches it on the calling goroutine.
func (client *Client) Events() <-chan *ev.Events {
	return client.queue.Get()
}

func (client *Client) isClosed() bool {
	select {
	case <-client.closed:
		return true
	default:
		return false
	}
}

// Close closes the connection. A running Listen returns shortly
// after. Events that have not been flushed are discarded.
func (client *Client) Close() error {
	var err error
	client.closeOnce.Do(func() {
		close(client.closed)
		client.queue.Stop()
		err = client.conn.Close()
	})
	return err
}

// CloseRead stops a running Listen without closing the connection, so
// that requests can still be sent, for example to release objects
// during shutdown. ctx of Listen should be canceled first so that the
// resulting end of file is not reported as an error.
func (client *Client) CloseRead() error {
	return client.conn.CloseRead()
}

// Abort makes the client drop every request from now on, so that
// nothing more reaches the compositor after a fatal error. Objects can
// still be destroyed locally. Like sending, it must be called from the
// goroutine that dispatches events.
func (client *Client) Abort() {
	client.aborted = true
}

func (client *Client) Display() *Display {
	return client.display
}

// Add registers obj, assigning it a new ID if it doesn't have one.
func (client *Client) Add(obj wire.Object) {
	client.store.Add(obj)
}

func (client *Client) Get(id uint32) wire.Object {
	return client.store.Get(id)
}

// Delete releases id after the server has confirmed its deletion.
func (client *Client) Delete(id uint32) {
	client.store.Delete(id)
}

// Objects returns the number of live objects, zombies included.
func (client *Client) Objects() int {
	return client.store.Len()
}

func (client *Client) dispatch(msg *wire.MessageBuffer) error {
	defer msg.Close()

	obj := client.store.Get(msg.Sender())
	if obj == nil {
		return wire.UnknownSenderIDError{Msg: msg}
	}
	if z, ok := obj.(zombie); ok && z.destroyed() {
		// The server may still send events to an object that was
		// destroyed locally until it processes the destructor.
		return nil
	}

	err := obj.Dispatch(msg)
	if client.trace {
		client.log.Debug(msg.Debug(obj))
	}
	return err
}

// send writes msg to the connection immediately. Failures are kept
// and reported by the next Flush or RoundTrip.
func (client *Client) send(msg *wire.MessageBuilder) {
	if client.aborted {
		if client.trace {
			client.log.Debug(" -x " + msg.String())
		}
		msg.Discard()
		return
	}
	if z, ok := msg.Sender().(zombie); ok && z.destroyed() {
		msg.Discard()
		client.sendErrs = append(client.sendErrs, DestroyedObjectError{
			Interface: msg.Sender().Interface(),
			ID:        msg.Sender().ID(),
			Method:    msg.Method,
		})
		return
	}

	if client.trace {
		client.log.Debug(" -> " + msg.String())
	}
	err := msg.Build(client.conn)
	if err != nil {
		client.sendErrs = append(client.sendErrs, fmt.Errorf("send %v: %w", msg.Method, err))
	}
}

func (client *Client) takeSendErrors() []error {
	errs := client.sendErrs
	client.sendErrs = nil
	return errs
}

// Flush dispatches the events that have been queued since the last
// call, if any, without blocking. It returns every error encountered,
// including errors from requests sent since the last flush.
func (client *Client) Flush() error {
	var errs []error
	select {
	case events := <-client.queue.Get():
		errs = ev.Flush(events)
	default:
	}
	errs = append(errs, client.takeSendErrors()...)
	return errors.Join(errs...)
}

// RoundTrip blocks until the server has processed every request sent
// so far, dispatching events as they arrive. Listen must be running.
func (client *Client) RoundTrip() error {
	if client.aborted {
		return ErrClosed
	}

	var done bool
	client.display.Sync().Then(func(uint32) { done = true })

	errs := client.takeSendErrors()
	for !done {
		select {
		case events := <-client.queue.Get():
			errs = append(errs, ev.Flush(events)...)

		case <-client.listenDone:
			errs = append(errs, client.drain()...)
			if !done {
				err := client.listenErr
				if err == nil {
					err = ErrClosed
				}
				return errors.Join(append(errs, err)...)
			}
		}
	}

	errs = append(errs, client.takeSendErrors()...)
	return errors.Join(errs...)
}

// drain dispatches whatever is still queued after Listen stopped.
func (client *Client) drain() (errs []error) {
	for {
		select {
		case events := <-client.queue.Get():
			errs = append(errs, ev.Flush(events)...)
		default:
			return errs
		}
	}
}

// DestroyedObjectError is reported when a request is made on an
// object that has already been destroyed.
type DestroyedObjectError struct {
	Interface string
	ID        uint32
	Method    string
}

func (err DestroyedObjectError) Error() string {
	return fmt.Sprintf("%v request on destroyed %v@%v", err.Method, err.Interface, err.ID)
}
