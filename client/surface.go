package wl

import "deedles.dev/wlbackend/wire"

type Surface struct {
	object
	Listener SurfaceListener
}

type SurfaceListener interface {
	Enter(output *Output)
	Leave(output *Output)
}

var surfaceRequests = []string{
	"destroy",
	"attach",
	"damage",
	"frame",
	"set_opaque_region",
	"set_input_region",
	"commit",
	"set_buffer_transform",
	"set_buffer_scale",
	"damage_buffer",
}

func (s *Surface) Interface() string {
	return SurfaceInterface
}

func (s *Surface) MethodName(op uint16) string {
	return methodName([]string{"enter", "leave"}, op)
}

func (s *Surface) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0, 1:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if s.Listener == nil {
			return nil
		}
		output := objectOf[*Output](s.client, id)
		if msg.Op() == 0 {
			s.Listener.Enter(output)
			return nil
		}
		s.Listener.Leave(output)
		return nil

	default:
		return unknownEvent(SurfaceInterface, msg.Op())
	}
}

func (s *Surface) request(op uint16) *wire.MessageBuilder {
	return wire.NewMessage(s, op, surfaceRequests[op])
}

func (s *Surface) Destroy() {
	s.client.send(s.request(0))
	s.dead = true
}

// Attach sets buf as the pending content of the surface. A nil buf
// unmaps the surface on the next commit.
func (s *Surface) Attach(buf *Buffer, x, y int32) {
	msg := s.request(1)
	if buf == nil {
		msg.WriteObject(nil)
	} else {
		msg.WriteObject(buf)
	}
	msg.WriteInt(x)
	msg.WriteInt(y)
	s.client.send(msg)
}

func (s *Surface) Damage(x, y, width, height int32) {
	msg := s.request(2)
	msg.WriteInt(x)
	msg.WriteInt(y)
	msg.WriteInt(width)
	msg.WriteInt(height)
	s.client.send(msg)
}

// Frame requests a callback for when it is a good time to draw the
// next frame.
func (s *Surface) Frame() *Callback {
	var callback Callback
	s.child(&callback.object, 1)
	s.client.Add(&callback)

	msg := s.request(3)
	msg.WriteObject(&callback)
	s.client.send(msg)

	return &callback
}

func (s *Surface) Commit() {
	s.client.send(s.request(6))
}

// SetBufferScale requires version 3.
func (s *Surface) SetBufferScale(scale int32) {
	if s.version < 3 {
		return
	}
	msg := s.request(8)
	msg.WriteInt(scale)
	s.client.send(msg)
}
