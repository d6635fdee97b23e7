// Package pointer describes pointer buttons as reported by wl_pointer.
package pointer

import "fmt"

// Button is a Linux input event code of a pointer button.
type Button uint32

// From linux/input-event-codes.h.
const (
	ButtonLeft Button = 0x110 + iota
	ButtonRight
	ButtonMiddle
	ButtonSide
	ButtonExtra
	ButtonForward
	ButtonBack
	ButtonTask
)

var buttonNames = map[Button]string{
	ButtonLeft:    "left",
	ButtonRight:   "right",
	ButtonMiddle:  "middle",
	ButtonSide:    "side",
	ButtonExtra:   "extra",
	ButtonForward: "forward",
	ButtonBack:    "back",
	ButtonTask:    "task",
}

// Known reports whether b is one of the named mouse buttons.
func (b Button) Known() bool {
	_, ok := buttonNames[b]
	return ok
}

func (b Button) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return fmt.Sprintf("button(%#x)", uint32(b))
}
