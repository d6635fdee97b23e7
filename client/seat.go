package wl

import "deedles.dev/wlbackend/wire"

type Seat struct {
	object
	Listener SeatListener
}

type SeatListener interface {
	Capabilities(capabilities SeatCapability)
	Name(name string)
}

var seatRequests = []string{"get_pointer", "get_keyboard", "get_touch", "release"}

func IsSeat(i Interface) bool {
	return i.Is(SeatInterface, 1)
}

func BindSeat(registry *Registry, name, version uint32) *Seat {
	var seat Seat
	registry.bind(name, &seat, &seat.object, min(version, SeatVersion))
	return &seat
}

func (seat *Seat) Interface() string {
	return SeatInterface
}

func (seat *Seat) MethodName(op uint16) string {
	return methodName([]string{"capabilities", "name"}, op)
}

func (seat *Seat) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		caps := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if seat.Listener != nil {
			seat.Listener.Capabilities(SeatCapability(caps))
		}
		return nil

	case 1:
		name := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}
		if seat.Listener != nil {
			seat.Listener.Name(name)
		}
		return nil

	default:
		return unknownEvent(SeatInterface, msg.Op())
	}
}

func (seat *Seat) GetPointer() *Pointer {
	var p Pointer
	seat.child(&p.object, seat.version)
	seat.client.Add(&p)

	msg := wire.NewMessage(seat, 0, seatRequests[0])
	msg.WriteObject(&p)
	seat.client.send(msg)

	return &p
}

func (seat *Seat) GetKeyboard() *Keyboard {
	var kb Keyboard
	seat.child(&kb.object, seat.version)
	seat.client.Add(&kb)

	msg := wire.NewMessage(seat, 1, seatRequests[1])
	msg.WriteObject(&kb)
	seat.client.send(msg)

	return &kb
}

// Release destroys the seat. Before version 5 the seat is only
// forgotten locally.
func (seat *Seat) Release() {
	if seat.version >= 5 {
		seat.client.send(wire.NewMessage(seat, 3, seatRequests[3]))
	}
	seat.dead = true
}
