package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"deedles.dev/wlbackend/internal/bin"
	"golang.org/x/sys/unix"
)

// headerSize is the size of the sender ID and the size/opcode word.
const headerSize = 8

// MessageBuffer holds message data that has been read from the socket
// but not yet decoded.
type MessageBuffer struct {
	sender  uint32
	op      uint16
	size    uint16
	data    bytes.Reader
	fds     []int
	fdindex int
	err     error
	args    []any
}

// ReadMessage reads message data from the socket into a buffer. It
// blocks until a complete message is available.
func ReadMessage(c *Conn) (*MessageBuffer, error) {
	var mr MessageBuffer

	var oob bytes.Buffer
	r := unixTee{c: c.conn, oob: &oob}

	sender, err := bin.Read[uint32](r)
	if err != nil {
		return nil, fmt.Errorf("read message sender: %w", err)
	}
	mr.sender = sender

	so, err := bin.Read[uint32](r)
	if err != nil {
		return nil, fmt.Errorf("read message size and opcode: %w", err)
	}
	mr.size = uint16(so >> 16)
	mr.op = uint16(so & 0xFFFF)
	if mr.size < headerSize {
		return nil, fmt.Errorf("invalid message size %v from object %v", mr.size, mr.sender)
	}

	data := make([]byte, int(mr.size)-headerSize)
	_, err = io.ReadFull(r, data)
	if err != nil {
		return nil, fmt.Errorf("copy data to buffer: %w", err)
	}

	if oob.Len() > 0 {
		cmsgs, err := unix.ParseSocketControlMessage(oob.Bytes())
		if err != nil {
			return nil, fmt.Errorf("parse socket control messages: %w", err)
		}
		for _, cmsg := range cmsgs {
			fds, err := unix.ParseUnixRights(&cmsg)
			if err != nil {
				if errors.Is(err, unix.EINVAL) {
					continue
				}
				return nil, fmt.Errorf("parse unix control message: %w", err)
			}
			mr.fds = append(mr.fds, fds...)
		}
	}

	mr.data.Reset(data)

	return &mr, nil
}

// Sender is the object ID of the sender of the message.
func (r *MessageBuffer) Sender() uint32 {
	return r.sender
}

// Op is the opcode of the message.
func (r *MessageBuffer) Op() uint16 {
	return r.op
}

// Size is the total size of the message, including the 8 byte header.
func (r *MessageBuffer) Size() uint16 {
	return r.size
}

// Err returns the first error encountered while decoding arguments.
// Reading past the end of the message is reported as
// io.ErrUnexpectedEOF.
func (r *MessageBuffer) Err() error {
	if errors.Is(r.err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return r.err
}

// Close closes any file descriptors that were received with the
// message but not claimed by ReadFile.
func (r *MessageBuffer) Close() error {
	var errs []error
	for _, fd := range r.fds[r.fdindex:] {
		errs = append(errs, unix.Close(fd))
	}
	r.fdindex = len(r.fds)
	return errors.Join(errs...)
}

func (r *MessageBuffer) uint32() (v uint32) {
	if r.err != nil {
		return
	}

	v, r.err = bin.Read[uint32](&r.data)
	return v
}

func (r *MessageBuffer) ReadInt() (v int32) {
	if r.err != nil {
		return
	}

	v, r.err = bin.Read[int32](&r.data)
	r.args = append(r.args, v)
	return v
}

func (r *MessageBuffer) ReadUint() (v uint32) {
	v = r.uint32()
	if r.err == nil {
		r.args = append(r.args, v)
	}
	return v
}

func (r *MessageBuffer) ReadNewID() NewID {
	return NewID{
		Interface: r.ReadString(),
		Version:   r.ReadUint(),
		ID:        r.ReadUint(),
	}
}

func (r *MessageBuffer) ReadFixed() (v Fixed) {
	if r.err != nil {
		return
	}

	v, r.err = bin.Read[Fixed](&r.data)
	r.args = append(r.args, v)
	return v
}

// ReadString reads a string argument. A null string is returned as
// the empty string.
func (r *MessageBuffer) ReadString() string {
	length := r.uint32()
	if r.err != nil {
		return ""
	}
	if length == 0 {
		r.args = append(r.args, "")
		return ""
	}

	buf := make([]byte, length+padding(length))
	_, r.err = io.ReadFull(&r.data, buf)
	if r.err != nil {
		return ""
	}
	if buf[length-1] != 0 {
		r.err = ErrNotTerminated
		return ""
	}

	v := string(buf[:length-1])
	r.args = append(r.args, v)
	return v
}

func (r *MessageBuffer) ReadArray() []byte {
	length := r.uint32()
	if r.err != nil {
		return nil
	}

	buf := make([]byte, length+padding(length))
	_, r.err = io.ReadFull(&r.data, buf)
	if r.err != nil {
		return nil
	}

	r.args = append(r.args, buf[:length])
	return buf[:length]
}

// ReadFile claims the next file descriptor that arrived with the
// message. The caller owns the returned file.
func (r *MessageBuffer) ReadFile() *os.File {
	if r.err != nil {
		return nil
	}

	if r.fdindex >= len(r.fds) {
		r.err = ErrNoFile
		return nil
	}

	f := os.NewFile(uintptr(r.fds[r.fdindex]), "")
	r.fdindex++
	r.args = append(r.args, f)
	return f
}

// Debug renders the decoded message as a method call on sender.
func (r *MessageBuffer) Debug(sender Object) string {
	args := make([]string, 0, len(r.args))
	for _, arg := range r.args {
		args = append(args, formatArg(arg))
	}

	return fmt.Sprintf("%v@%v.%v(%v)", sender.Interface(), r.sender, sender.MethodName(r.op), strings.Join(args, ", "))
}

func formatArg(arg any) string {
	switch arg := arg.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(arg)
	case *os.File:
		return fmt.Sprintf("fd %v", arg.Fd())
	case Object:
		if isNil(arg) {
			return "nil"
		}
		return fmt.Sprintf("%v@%v", arg.Interface(), arg.ID())
	default:
		return fmt.Sprint(arg)
	}
}

// unixTee reads from c, but also reads out-of-band data
// simultaneously, writing it into oob.
type unixTee struct {
	c   *net.UnixConn
	oob io.Writer
}

func (t unixTee) Read(buf []byte) (int, error) {
	oob := make([]byte, unix.CmsgSpace(maxFDs*4))
	n, oobn, _, _, err := t.c.ReadMsgUnix(buf, oob)
	if oobn > 0 {
		t.oob.Write(oob[:oobn])
	}
	if (n == 0) && (err == nil) {
		return 0, io.EOF
	}
	return n, err
}
