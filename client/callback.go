package wl

import "deedles.dev/wlbackend/wire"

type Callback struct {
	object
	Listener CallbackListener
}

type CallbackListener interface {
	Done(data uint32)
}

// Then sets f as the callback's listener.
func (c *Callback) Then(f func(uint32)) {
	c.Listener = callbackListener(f)
}

func (c *Callback) Interface() string {
	return CallbackInterface
}

func (c *Callback) MethodName(op uint16) string {
	return methodName([]string{"done"}, op)
}

func (c *Callback) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		data := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		// The server destroys callbacks right after done.
		c.dead = true
		if c.Listener != nil {
			c.Listener.Done(data)
		}
		return nil

	default:
		return unknownEvent(CallbackInterface, msg.Op())
	}
}

type callbackListener func(uint32)

func (lis callbackListener) Done(data uint32) {
	lis(data)
}
