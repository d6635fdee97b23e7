package wire

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

// DefaultDisplay is the socket name used when neither the caller nor
// $WAYLAND_DISPLAY names one.
const DefaultDisplay = "wayland-0"

func xdgRuntimeDir() string {
	dir, ok := os.LookupEnv("XDG_RUNTIME_DIR")
	if ok {
		return dir
	}
	return fmt.Sprintf("/var/run/user/%v", os.Getuid())
}

// SocketPath determines the path to the Wayland Unix domain socket
// called name. If name is empty, the contents of the $WAYLAND_DISPLAY
// environment variable are used instead. Relative names are resolved
// against $XDG_RUNTIME_DIR. It does not attempt to determine if the
// value corresponds to an actual socket.
func SocketPath(name string) string {
	if name == "" {
		v, ok := os.LookupEnv("WAYLAND_DISPLAY")
		if !ok || (v == "") {
			v = DefaultDisplay
		}
		name = v
	}
	if filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(xdgRuntimeDir(), name)
}

// Conn represents a low-level Wayland connection. It is not generally
// used directly, instead being handled automatically by a Client.
type Conn struct {
	conn *net.UnixConn
	wmu  sync.Mutex
}

// NewConn creates a new Conn that wraps c. After this is called, use
// the provided Close method to close c instead of calling its own
// Close method.
func NewConn(c *net.UnixConn) *Conn {
	return &Conn{
		conn: c,
	}
}

// Close closes the underlying connection. A blocked ReadMessage call
// returns an error wrapping net.ErrClosed.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// CloseRead shuts down the reading side of the connection. A blocked
// ReadMessage call returns io.EOF, but messages can still be written.
func (c *Conn) CloseRead() error {
	return c.conn.CloseRead()
}

func (c *Conn) write(data, oob []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	n, oobn, err := c.conn.WriteMsgUnix(data, oob, nil)
	if err != nil {
		return err
	}
	if (n < len(data)) || (oobn < len(oob)) {
		return fmt.Errorf("short write: %v/%v bytes, %v/%v control bytes", n, len(data), oobn, len(oob))
	}
	return nil
}

// Dial opens a connection to the Wayland socket called name, or to the
// one determined by the environment if name is empty. It follows the
// procedure outlined at
// https://wayland-book.com/protocol-design/wire-protocol.html#transports
func Dial(name string) (*Conn, error) {
	if v, ok := os.LookupEnv("WAYLAND_SOCKET"); ok && (name == "") {
		fd, err := strconv.ParseInt(v, 10, 0)
		if err != nil {
			return nil, fmt.Errorf("parse WAYLAND_SOCKET fd: %w", err)
		}
		file := os.NewFile(uintptr(fd), "WAYLAND_SOCKET")
		defer file.Close()

		c, err := net.FileConn(file)
		if err != nil {
			return nil, fmt.Errorf("open WAYLAND_SOCKET connection: %w", err)
		}
		uc, ok := c.(*net.UnixConn)
		if !ok {
			c.Close()
			return nil, fmt.Errorf("WAYLAND_SOCKET fd %v is not a Unix socket", fd)
		}
		return NewConn(uc), nil
	}

	path := SocketPath(name)
	s, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, err
	}
	return NewConn(s), nil
}

// Pipe returns both ends of a connected socket pair. It is intended
// for running a client and an in-process compositor against each
// other.
func Pipe() (client, server *Conn, err error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("socketpair: %w", err)
	}

	conns := make([]*Conn, 0, 2)
	for i, fd := range fds {
		file := os.NewFile(uintptr(fd), "wayland-pipe")
		c, err := net.FileConn(file)
		file.Close()
		if err != nil {
			for _, c := range conns {
				c.Close()
			}
			for _, fd := range fds[i+1:] {
				unix.Close(fd)
			}
			return nil, nil, fmt.Errorf("file conn: %w", err)
		}
		conns = append(conns, NewConn(c.(*net.UnixConn)))
	}

	return conns[0], conns[1], nil
}
