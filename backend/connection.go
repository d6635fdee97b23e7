package backend

import (
	"context"
	"sync"

	wl "deedles.dev/wlbackend/client"
	"deedles.dev/wlbackend/wire"
	"github.com/charmbracelet/log"
)

// Dialer opens a connection to the named display socket.
type Dialer func(socket string) (*wire.Conn, error)

// connection runs the client's read loop on its own goroutine. The
// goroutine only decodes messages and queues them. They are dispatched
// by whoever drains the client's queue.
type connection struct {
	client *wl.Client
	log    *log.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func dial(ctx context.Context, dialer Dialer, socket string, logger *log.Logger) (*connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := dialer(socket)
	if err != nil {
		return nil, err
	}

	client := wl.NewClient(conn)
	client.SetLogger(logger.WithPrefix("wire"))

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c := connection{
		client: client,
		log:    logger,
		cancel: cancel,
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		err := client.Listen(ctx)
		if err != nil {
			c.log.Debug("connection lost", "err", err)
		}
	}()

	return &c, nil
}

// Done is closed when the read loop has exited.
func (c *connection) Done() <-chan struct{} {
	return c.client.Done()
}

// Died reports whether the read loop exited because the compositor
// went away, along with the reason.
func (c *connection) Died() (bool, error) {
	select {
	case <-c.client.Done():
		err := c.client.Err()
		return err != nil, err
	default:
		return false, nil
	}
}

// stop ends the read loop and waits for its goroutine to exit. The
// connection can still be used to send requests afterwards.
func (c *connection) stop() {
	c.once.Do(func() {
		c.cancel()
		err := c.client.CloseRead()
		if err != nil {
			c.log.Debug("shut down read side", "err", err)
		}
		c.wg.Wait()
	})
}

// close stops the read loop and closes the connection.
func (c *connection) close() error {
	c.stop()
	return c.client.Close()
}
