package wl

import (
	"deedles.dev/wlbackend/pointer"
	"deedles.dev/wlbackend/wire"
)

type Pointer struct {
	object
	Listener PointerListener
}

// PointerListener receives pointer events. Events after Frame belong
// to the next logical group.
type PointerListener interface {
	Enter(serial uint32, surface *Surface, x, y wire.Fixed)
	Leave(serial uint32, surface *Surface)
	Motion(time uint32, x, y wire.Fixed)
	Button(serial, time uint32, button pointer.Button, state PointerButtonState)
	Axis(time uint32, axis PointerAxis, value wire.Fixed)
	Frame()
	AxisSource(source PointerAxisSource)
	AxisStop(time uint32, axis PointerAxis)
	AxisDiscrete(axis PointerAxis, discrete int32)
}

var pointerEvents = []string{
	"enter",
	"leave",
	"motion",
	"button",
	"axis",
	"frame",
	"axis_source",
	"axis_stop",
	"axis_discrete",
}

func (p *Pointer) Interface() string {
	return PointerInterface
}

func (p *Pointer) MethodName(op uint16) string {
	return methodName(pointerEvents, op)
}

func (p *Pointer) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		serial := msg.ReadUint()
		surface := msg.ReadUint()
		x := msg.ReadFixed()
		y := msg.ReadFixed()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.Listener != nil {
			p.Listener.Enter(serial, objectOf[*Surface](p.client, surface), x, y)
		}
		return nil

	case 1:
		serial := msg.ReadUint()
		surface := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.Listener != nil {
			p.Listener.Leave(serial, objectOf[*Surface](p.client, surface))
		}
		return nil

	case 2:
		time := msg.ReadUint()
		x := msg.ReadFixed()
		y := msg.ReadFixed()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.Listener != nil {
			p.Listener.Motion(time, x, y)
		}
		return nil

	case 3:
		serial := msg.ReadUint()
		time := msg.ReadUint()
		button := msg.ReadUint()
		state := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.Listener != nil {
			p.Listener.Button(serial, time, pointer.Button(button), PointerButtonState(state))
		}
		return nil

	case 4:
		time := msg.ReadUint()
		axis := msg.ReadUint()
		value := msg.ReadFixed()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.Listener != nil {
			p.Listener.Axis(time, PointerAxis(axis), value)
		}
		return nil

	case 5:
		if p.Listener != nil {
			p.Listener.Frame()
		}
		return nil

	case 6:
		source := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.Listener != nil {
			p.Listener.AxisSource(PointerAxisSource(source))
		}
		return nil

	case 7:
		time := msg.ReadUint()
		axis := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.Listener != nil {
			p.Listener.AxisStop(time, PointerAxis(axis))
		}
		return nil

	case 8:
		axis := msg.ReadUint()
		discrete := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if p.Listener != nil {
			p.Listener.AxisDiscrete(PointerAxis(axis), discrete)
		}
		return nil

	default:
		return unknownEvent(PointerInterface, msg.Op())
	}
}

// SetCursor sets the pointer image to surface, with the hotspot at
// (hotspotX, hotspotY). serial must be that of the latest enter event.
// A nil surface hides the pointer.
func (p *Pointer) SetCursor(serial uint32, surface *Surface, hotspotX, hotspotY int32) {
	msg := wire.NewMessage(p, 0, "set_cursor")
	msg.WriteUint(serial)
	msg.WriteObject(surface)
	msg.WriteInt(hotspotX)
	msg.WriteInt(hotspotY)
	p.client.send(msg)
}

// Release destroys the pointer. Before version 3 it is only forgotten
// locally.
func (p *Pointer) Release() {
	if p.version >= 3 {
		p.client.send(wire.NewMessage(p, 1, "release"))
	}
	p.dead = true
}
