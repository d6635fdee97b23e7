package wl

import (
	"os"

	"deedles.dev/wlbackend/wire"
)

type Keyboard struct {
	object
	Listener KeyboardListener
}

// KeyboardListener receives keyboard events. Keymap hands over
// ownership of file.
type KeyboardListener interface {
	Keymap(format KeyboardKeymapFormat, file *os.File, size uint32)
	Enter(serial uint32, surface *Surface, keys []byte)
	Leave(serial uint32, surface *Surface)
	Key(serial, time, key uint32, state KeyboardKeyState)
	Modifiers(serial, depressed, latched, locked, group uint32)
	RepeatInfo(rate, delay int32)
}

var keyboardEvents = []string{"keymap", "enter", "leave", "key", "modifiers", "repeat_info"}

func (kb *Keyboard) Interface() string {
	return KeyboardInterface
}

func (kb *Keyboard) MethodName(op uint16) string {
	return methodName(keyboardEvents, op)
}

func (kb *Keyboard) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		format := msg.ReadUint()
		file := msg.ReadFile()
		size := msg.ReadUint()
		if err := msg.Err(); err != nil {
			if file != nil {
				file.Close()
			}
			return err
		}
		if kb.Listener == nil {
			return file.Close()
		}
		kb.Listener.Keymap(KeyboardKeymapFormat(format), file, size)
		return nil

	case 1:
		serial := msg.ReadUint()
		surface := msg.ReadUint()
		keys := msg.ReadArray()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener != nil {
			kb.Listener.Enter(serial, objectOf[*Surface](kb.client, surface), keys)
		}
		return nil

	case 2:
		serial := msg.ReadUint()
		surface := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener != nil {
			kb.Listener.Leave(serial, objectOf[*Surface](kb.client, surface))
		}
		return nil

	case 3:
		serial := msg.ReadUint()
		time := msg.ReadUint()
		key := msg.ReadUint()
		state := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener != nil {
			kb.Listener.Key(serial, time, key, KeyboardKeyState(state))
		}
		return nil

	case 4:
		serial := msg.ReadUint()
		depressed := msg.ReadUint()
		latched := msg.ReadUint()
		locked := msg.ReadUint()
		group := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener != nil {
			kb.Listener.Modifiers(serial, depressed, latched, locked, group)
		}
		return nil

	case 5:
		rate := msg.ReadInt()
		delay := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if kb.Listener != nil {
			kb.Listener.RepeatInfo(rate, delay)
		}
		return nil

	default:
		return unknownEvent(KeyboardInterface, msg.Op())
	}
}

// Release destroys the keyboard. Before version 3 it is only forgotten
// locally.
func (kb *Keyboard) Release() {
	if kb.version >= 3 {
		kb.client.send(wire.NewMessage(kb, 0, "release"))
	}
	kb.dead = true
}
