package wire

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"unsafe"

	"deedles.dev/wlbackend/internal/bin"
	"golang.org/x/sys/unix"
)

// MessageBuilder is a message that is under construction.
type MessageBuilder struct {
	// Method is the name of the method being called. It is included
	// purely for debugging purposes.
	Method string

	sender Object
	op     uint16
	data   bytes.Buffer
	fds    []int
	args   []any
	err    error
}

// NewMessage starts a message from sender with the given opcode.
func NewMessage(sender Object, op uint16, method string) *MessageBuilder {
	return &MessageBuilder{
		Method: method,
		sender: sender,
		op:     op,
	}
}

func (mb *MessageBuilder) Sender() Object {
	return mb.sender
}

func (mb *MessageBuilder) Op() uint16 {
	return mb.op
}

func (mb *MessageBuilder) Err() error {
	return mb.err
}

func (mb *MessageBuilder) WriteInt(v int32) {
	if mb.err != nil {
		return
	}

	mb.err = bin.Write(&mb.data, v)
	mb.args = append(mb.args, v)
}

func (mb *MessageBuilder) WriteUint(v uint32) {
	if mb.err != nil {
		return
	}

	mb.err = bin.Write(&mb.data, v)
	mb.args = append(mb.args, v)
}

// WriteObject writes the ID of v, or 0 if v is nil.
func (mb *MessageBuilder) WriteObject(v Object) {
	if mb.err != nil {
		return
	}

	var id uint32
	if !isNil(v) {
		id = v.ID()
	}
	mb.err = bin.Write(&mb.data, id)
	mb.args = append(mb.args, v)
}

func (mb *MessageBuilder) WriteNewID(v NewID) {
	mb.WriteString(v.Interface)
	mb.WriteUint(v.Version)
	mb.WriteUint(v.ID)
}

func (mb *MessageBuilder) WriteFixed(v Fixed) {
	if mb.err != nil {
		return
	}

	mb.err = bin.Write(&mb.data, v)
	mb.args = append(mb.args, v)
}

func (mb *MessageBuilder) WriteString(v string) {
	if mb.err != nil {
		return
	}

	length := uint32(len(v) + 1)
	mb.err = bin.Write(&mb.data, length)
	mb.data.WriteString(v)
	mb.data.WriteByte(0)
	for i := uint32(0); i < padding(length); i++ {
		mb.data.WriteByte(0)
	}
	mb.args = append(mb.args, v)
}

func (mb *MessageBuilder) WriteArray(v []byte) {
	if mb.err != nil {
		return
	}

	length := uint32(len(v))
	mb.err = bin.Write(&mb.data, length)
	mb.data.Write(v)
	for i := uint32(0); i < padding(length); i++ {
		mb.data.WriteByte(0)
	}
	mb.args = append(mb.args, v)
}

// WriteFile attaches a duplicate of v's file descriptor to the
// message. The duplicate is closed when the message is built.
func (mb *MessageBuilder) WriteFile(v *os.File) {
	if mb.err != nil {
		return
	}
	if len(mb.fds) >= maxFDs {
		mb.err = fmt.Errorf("more than %v file descriptors", maxFDs)
		return
	}

	fd, err := unix.Dup(int(v.Fd()))
	if err != nil {
		mb.err = fmt.Errorf("dup: %w", err)
		return
	}

	mb.fds = append(mb.fds, fd)
	mb.args = append(mb.args, v)
}

// Build builds the message and sends it to c. The MessageBuilder
// should not be used again after this method is called.
func (mb *MessageBuilder) Build(c *Conn) error {
	defer mb.close()

	if mb.err != nil {
		return mb.err
	}

	length := headerSize + mb.data.Len()
	if length > math.MaxUint16 {
		return ErrMessageTooLarge
	}

	msg := bytes.NewBuffer(make([]byte, 0, length))
	bin.Write(msg, mb.sender.ID())
	bin.Write(msg, (uint32(length)<<16)|uint32(mb.op))
	msg.Write(mb.data.Bytes())

	var oob []byte
	if len(mb.fds) > 0 {
		oob = unix.UnixRights(mb.fds...)
	}

	mb.err = c.write(msg.Bytes(), oob)
	return mb.err
}

// Discard releases the message's file descriptors without sending
// it.
func (mb *MessageBuilder) Discard() {
	mb.close()
}

func (mb *MessageBuilder) close() {
	errs := make([]error, 0, len(mb.fds))
	for _, fd := range mb.fds {
		errs = append(errs, unix.Close(fd))
	}
	if mb.err == nil {
		mb.err = errors.Join(errs...)
	}
	mb.fds = nil
}

func (mb *MessageBuilder) String() string {
	args := make([]string, 0, len(mb.args))
	for _, arg := range mb.args {
		args = append(args, formatArg(arg))
	}

	return fmt.Sprintf("%v@%v.%v(%v)", mb.sender.Interface(), mb.sender.ID(), mb.Method, strings.Join(args, ", "))
}

func isNil(v any) bool {
	return (v == nil) || ((*[2]uintptr)(unsafe.Pointer(&v))[1] == 0)
}
